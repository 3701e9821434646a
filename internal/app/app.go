// Package app wires CLI commands to the daemon and its IPC clients.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/hark/internal/cli"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/doctor"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/logging"
	"github.com/rbright/hark/internal/version"
)

const forwardTimeout = 220 * time.Millisecond

type Runner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := Runner{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("hark"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("hark"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(logging.Options{
		Level:      cfgLoaded.Config.Log.Level,
		MaxSizeMB:  cfgLoaded.Config.Log.MaxSizeMB,
		MaxBackups: cfgLoaded.Config.Log.MaxBackups,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	// Config warnings surface only for listen and doctor.
	if parsed.Command == cli.CommandListen || parsed.Command == cli.CommandDoctor {
		for _, w := range cfgLoaded.Warnings {
			msg := w.Message
			if w.Line > 0 {
				msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
			}
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
			logger.Warn("config warning", "line", w.Line, "message", w.Message)
		}
	}

	logger.Debug("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandListen:
		return r.commandListen(ctx, cfgLoaded.Config, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandCommands:
		return r.commandCommands(ctx)
	case cli.CommandSay:
		if parsed.StreamStdin() {
			return r.commandSayStream(ctx)
		}
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandSay, Text: strings.Join(parsed.Args, " ")})
	case cli.CommandPause:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandPause})
	case cli.CommandResume:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandResume})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandStop})
	case cli.CommandUnregister:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandUnregister, ID: parsed.Args[0]})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	if !handled {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.State == "" {
		resp.State = "idle"
	}
	fmt.Fprintln(r.Stdout, resp.State)
	if len(resp.Pending) > 0 {
		fmt.Fprintf(r.Stdout, "pending: %s\n", strings.Join(resp.Pending, " "))
	}
	return 0
}

func (r Runner) commandCommands(ctx context.Context) int {
	resp, code := r.forward(ctx, ipc.Request{Command: ipc.CommandCommands})
	if code != 0 {
		return code
	}
	if len(resp.Commands) == 0 {
		fmt.Fprintln(r.Stdout, "no commands registered")
		return 0
	}
	for _, cmd := range resp.Commands {
		fmt.Fprintln(r.Stdout, formatCommand(cmd))
	}
	return 0
}

// commandSayStream forwards stdin lines as utterances over one connection.
func (r Runner) commandSayStream(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	client, err := ipc.Dial(ctx, socketPath, time.Second)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: no running hark daemon: %v\n", err)
		return 1
	}
	defer func() { _ = client.Close() }()

	in := r.Stdin
	if in == nil {
		in = os.Stdin
	}

	failed := false
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		resp, err := client.Do(ipc.Request{Command: ipc.CommandSay, Text: text})
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if !resp.OK {
			failed = true
			fmt.Fprintf(r.Stderr, "error: %s\n", resp.Error)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(r.Stderr, "error: read stdin: %v\n", err)
		return 1
	}
	if failed {
		return 1
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	resp, code := r.forward(ctx, req)
	if code != 0 {
		return code
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) forward(ctx context.Context, req ipc.Request) (ipc.Response, int) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no running hark daemon\n")
		return ipc.Response{}, 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return ipc.Response{}, 1
	}
	return resp, 0
}

func formatCommand(cmd ipc.CommandInfo) string {
	order := "ordered"
	if !cmd.Ordered {
		order = "unordered"
	}
	line := fmt.Sprintf("%s  %-20s %s [%s] %d/%d", cmd.ID, cmd.Name, strings.Join(cmd.Pattern, " "), order, cmd.Satisfied, len(cmd.Pattern))
	if cmd.Satisfied == 0 {
		return line
	}
	heard := make([]string, 0, cmd.Satisfied)
	for _, word := range cmd.Bound {
		if word != "" {
			heard = append(heard, word)
		}
	}
	return line + " heard: " + strings.Join(heard, " ")
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, req, forwardTimeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
