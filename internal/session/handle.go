package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/registry"
	"github.com/rbright/hark/internal/token"
)

// LoadCommands registers configured commands in file order and returns their ids.
func (c *Controller) LoadCommands(specs []config.CommandSpec) ([]string, error) {
	ids := make([]string, 0, len(specs))
	for i, spec := range specs {
		id, err := c.register(spec)
		if err != nil {
			return ids, fmt.Errorf("commands[%d] %q: %w", i, spec.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Controller) register(spec config.CommandSpec) (string, error) {
	if c.actions == nil {
		return "", errors.New("no action builder configured")
	}
	action, err := c.actions.Build(spec.Action, time.Duration(spec.TimeoutMS)*time.Millisecond)
	if err != nil {
		return "", err
	}
	id, err := c.engine.Register(registry.Spec{
		Name:    spec.Name,
		Pattern: spec.Words,
		Ordered: spec.Ordered,
		Action:  action,
	})
	if err != nil {
		return "", err
	}
	c.logInfo("command registered", "id", id, "name", spec.Name, "words", spec.Words, "ordered", spec.Ordered)
	return id, nil
}

// Handle serves one IPC request.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.statusResponse("")

	case ipc.CommandSay:
		if strings.TrimSpace(req.Text) == "" {
			return c.errorResponse("say requires text")
		}
		tokens, err := c.Say(ctx, req.Text)
		if err != nil {
			return c.errorResponse(err.Error())
		}
		return c.statusResponse(fmt.Sprintf("heard %d word(s)", len(tokens)))

	case ipc.CommandCommands:
		resp := c.statusResponse("")
		for _, p := range c.engine.Progress() {
			resp.Commands = append(resp.Commands, ipc.CommandInfo{
				ID:        p.ID,
				Name:      p.Name,
				Pattern:   p.Pattern,
				Ordered:   p.Ordered,
				Bound:     boundWords(p.Bound),
				Satisfied: p.Satisfied,
			})
		}
		return resp

	case ipc.CommandPause:
		if _, err := c.transition(fsm.EventPause); err != nil {
			return c.errorResponse(err.Error())
		}
		c.indicator.ShowPaused(ctx)
		c.logInfo("paused")
		return c.statusResponse("paused")

	case ipc.CommandResume:
		if _, err := c.transition(fsm.EventResume); err != nil {
			return c.errorResponse(err.Error())
		}
		c.indicator.ShowListening(ctx)
		c.logInfo("resumed")
		return c.statusResponse("listening")

	case ipc.CommandStop:
		if c.State() == fsm.StateIdle {
			return c.errorResponse("listener is not running")
		}
		c.requestStop()
		return c.statusResponse("stopping")

	case ipc.CommandRegister:
		spec, err := specFromRequest(req)
		if err != nil {
			return c.errorResponse(err.Error())
		}
		id, err := c.register(spec)
		if err != nil {
			return c.errorResponse(err.Error())
		}
		resp := c.statusResponse("registered")
		resp.ID = id
		return resp

	case ipc.CommandUnregister:
		id := strings.TrimSpace(req.ID)
		if id == "" {
			return c.errorResponse("unregister requires id")
		}
		if !c.engine.Unregister(id) {
			return c.statusResponse("no command with id " + id)
		}
		c.logInfo("command unregistered", "id", id)
		resp := c.statusResponse("unregistered")
		resp.ID = id
		return resp

	default:
		return c.errorResponse(fmt.Sprintf("unknown command %q", req.Command))
	}
}

func (c *Controller) statusResponse(message string) ipc.Response {
	return ipc.Response{
		OK:      true,
		State:   string(c.State()),
		Message: message,
		Pending: token.Texts(c.engine.Pending()),
	}
}

func (c *Controller) errorResponse(message string) ipc.Response {
	return ipc.Response{OK: false, State: string(c.State()), Error: message}
}

// specFromRequest converts a runtime registration into a command spec.
func specFromRequest(req ipc.Request) (config.CommandSpec, error) {
	spec := config.CommandSpec{
		Name:    strings.TrimSpace(req.Name),
		Words:   strings.Fields(req.Phrase),
		Ordered: true,
	}
	if req.Ordered != nil {
		spec.Ordered = *req.Ordered
	}
	if len(spec.Words) == 0 {
		return config.CommandSpec{}, errors.New("register requires phrase")
	}
	if req.Action == nil {
		return config.CommandSpec{}, errors.New("register requires action")
	}
	if req.Action.TimeoutMS < 0 {
		return config.CommandSpec{}, errors.New("action timeout_ms must be >= 0")
	}
	spec.TimeoutMS = req.Action.TimeoutMS

	kind := config.ActionKind(strings.ToLower(strings.TrimSpace(req.Action.Kind)))
	switch kind {
	case config.ActionExec, config.ActionHypr:
		argv, err := config.ParseArgv(req.Action.Value)
		if err != nil {
			return config.CommandSpec{}, fmt.Errorf("invalid %s action: %w", kind, err)
		}
		if len(argv) == 0 {
			return config.CommandSpec{}, fmt.Errorf("%s action requires a value", kind)
		}
		spec.Action = config.ActionConfig{Kind: kind, Raw: req.Action.Value, Argv: argv}
	case config.ActionClipboard:
		spec.Action = config.ActionConfig{Kind: kind, Text: req.Action.Value}
	case config.ActionNotify:
		text := strings.TrimSpace(req.Action.Value)
		if text == "" {
			return config.CommandSpec{}, errors.New("notify action requires a value")
		}
		spec.Action = config.ActionConfig{Kind: kind, Text: text}
	default:
		return config.CommandSpec{}, fmt.Errorf("unknown action kind %q", req.Action.Kind)
	}
	return spec, nil
}

// boundWords returns nil when no slot is bound.
func boundWords(bound []string) []string {
	for _, word := range bound {
		if word != "" {
			return bound
		}
	}
	return nil
}
