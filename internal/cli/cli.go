// Package cli parses hark command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandListen     Command = "listen"
	CommandSay        Command = "say"
	CommandStatus     Command = "status"
	CommandCommands   Command = "commands"
	CommandPause      Command = "pause"
	CommandResume     Command = "resume"
	CommandStop       Command = "stop"
	CommandUnregister Command = "unregister"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

// arity is how many positional arguments a command takes; -1 means one or more.
var validCommands = map[Command]int{
	CommandListen:     0,
	CommandSay:        -1,
	CommandStatus:     0,
	CommandCommands:   0,
	CommandPause:      0,
	CommandResume:     0,
	CommandStop:       0,
	CommandUnregister: 1,
	CommandDoctor:     0,
	CommandVersion:    0,
	CommandHelp:       0,
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	ShowHelp   bool
}

// StreamStdin reports whether `say -` asked to stream utterances from stdin.
func (p Parsed) StreamStdin() bool {
	return p.Command == CommandSay && len(p.Args) == 1 && p.Args[0] == "-"
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			arity, ok := validCommands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			rest := args[i+1:]
			switch {
			case arity == 0 && len(rest) > 0:
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			case arity < 0 && len(rest) == 0:
				return Parsed{}, fmt.Errorf("command %q requires words (or - for stdin)", arg)
			case arity > 0 && len(rest) != arity:
				return Parsed{}, fmt.Errorf("command %q takes %d argument(s)", arg, arity)
			}
			if len(rest) > 0 {
				parsed.Args = append([]string(nil), rest...)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  listen          Run the listener daemon in the foreground
  say WORDS...    Send one recognized utterance to the daemon
  say -           Stream utterances from stdin, one per line
  status          Print listener state and buffered words
  commands        List registered commands and their partial matches
  pause           Stop buffering heard words
  resume          Resume buffering heard words
  stop            Stop the daemon
  unregister ID   Remove a registered command
  doctor          Run configuration and environment checks
  version         Print version information
  help            Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/hark/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
