package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/hark.jsonc", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/hark.jsonc", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantErr  string
		wantCmd  Command
		wantArgs []string
		wantHelp bool
		wantPath string
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion},
		{name: "config after command", args: []string{"status", "--config", "/tmp/cfg"}, wantErr: "unexpected arguments after command"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"bogus"}, wantErr: "unknown command"},
		{name: "extra args after command", args: []string{"doctor", "extra"}, wantErr: "unexpected arguments"},
		{name: "say without words", args: []string{"say"}, wantErr: "requires words"},
		{
			name:     "say words",
			args:     []string{"say", "open", "the", "door"},
			wantCmd:  CommandSay,
			wantArgs: []string{"open", "the", "door"},
		},
		{
			name:     "say words that look like flags",
			args:     []string{"say", "--version"},
			wantCmd:  CommandSay,
			wantArgs: []string{"--version"},
		},
		{name: "unregister needs id", args: []string{"unregister"}, wantErr: "takes 1 argument"},
		{name: "unregister too many", args: []string{"unregister", "a", "b"}, wantErr: "takes 1 argument"},
		{
			name:     "unregister id",
			args:     []string{"unregister", "01HZX"},
			wantCmd:  CommandUnregister,
			wantArgs: []string{"01HZX"},
		},
		{name: "valid listen", args: []string{"listen"}, wantCmd: CommandListen},
		{
			name:     "valid stop with config",
			args:     []string{"--config", "/tmp/cfg", "stop"},
			wantCmd:  CommandStop,
			wantPath: "/tmp/cfg",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantArgs, parsed.Args)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
		})
	}
}

func TestStreamStdin(t *testing.T) {
	parsed, err := Parse([]string{"say", "-"})
	require.NoError(t, err)
	require.True(t, parsed.StreamStdin())

	parsed, err = Parse([]string{"say", "-", "now"})
	require.NoError(t, err)
	require.False(t, parsed.StreamStdin())
}

func TestHelpTextIncludesCoreCommands(t *testing.T) {
	text := HelpText("hark")
	require.Contains(t, text, "listen")
	require.Contains(t, text, "say WORDS")
	require.Contains(t, text, "pause")
	require.Contains(t, text, "doctor")
	require.Contains(t, text, "--config PATH")
}
