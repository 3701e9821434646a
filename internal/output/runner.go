// Package output turns configured command actions into dispatch actions:
// running programs, Hyprland dispatchers, clipboard writes, and notifications.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/dispatch"
	"github.com/rbright/hark/internal/hypr"
)

// DefaultTimeout bounds an action when its command sets no timeout_ms.
const DefaultTimeout = 5 * time.Second

// Notifier shows the message of a notify action.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Runner builds actions that share the clipboard command and notifier.
type Runner struct {
	clipboard []string
	notifier  Notifier
	logger    *slog.Logger
}

// NewRunner constructs a Runner. notifier may be nil when no notify actions
// are configured.
func NewRunner(clipboard config.CommandConfig, notifier Notifier, logger *slog.Logger) *Runner {
	return &Runner{
		clipboard: append([]string(nil), clipboard.Argv...),
		notifier:  notifier,
		logger:    logger,
	}
}

// Build returns the dispatch action for one configured action.
//
// Arguments of exec and hypr actions may reference the match: an argument
// that is exactly {words} expands to one argument per matched word, and
// {phrase}, {name} and {id} are replaced inside any argument. Exec actions
// also receive the phrase on stdin.
func (r *Runner) Build(action config.ActionConfig, timeout time.Duration) (dispatch.Action, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch action.Kind {
	case config.ActionExec:
		if len(action.Argv) == 0 {
			return nil, errors.New("exec action requires a command")
		}
		argv := append([]string(nil), action.Argv...)
		return r.bounded(timeout, func(ctx context.Context, m dispatch.Match) error {
			return runCommandWithInput(ctx, expandArgs(argv, m), m.Phrase())
		}), nil

	case config.ActionHypr:
		if len(action.Argv) == 0 {
			return nil, errors.New("hypr action requires a dispatcher")
		}
		argv := append([]string(nil), action.Argv...)
		return r.bounded(timeout, func(ctx context.Context, m dispatch.Match) error {
			expanded := expandArgs(argv, m)
			if len(expanded) == 0 {
				return errors.New("hypr action expanded to no dispatcher")
			}
			return hypr.Dispatch(ctx, expanded[0], expanded[1:]...)
		}), nil

	case config.ActionClipboard:
		if len(r.clipboard) == 0 {
			return nil, errors.New("clipboard action requires clipboard_cmd")
		}
		text := action.Text
		return r.bounded(timeout, func(ctx context.Context, m dispatch.Match) error {
			payload := text
			if payload == "" {
				payload = m.Phrase()
			}
			if err := runCommandWithInput(ctx, r.clipboard, payload); err != nil {
				return fmt.Errorf("set clipboard: %w", err)
			}
			return nil
		}), nil

	case config.ActionNotify:
		if r.notifier == nil {
			return nil, errors.New("notify action requires a notifier")
		}
		text := action.Text
		return r.bounded(timeout, func(ctx context.Context, m dispatch.Match) error {
			return r.notifier.Notify(ctx, expandText(text, m))
		}), nil

	default:
		return nil, fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// bounded applies the per-action timeout and logs the expanded call at debug.
func (r *Runner) bounded(timeout time.Duration, fn func(context.Context, dispatch.Match) error) dispatch.Action {
	return dispatch.ActionFunc(func(ctx context.Context, m dispatch.Match) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if r.logger != nil {
			r.logger.Debug("running command action", "command", m.Name, "phrase", m.Phrase(), "timeout_ms", timeout.Milliseconds())
		}
		return fn(ctx, m)
	})
}

func expandArgs(argv []string, m dispatch.Match) []string {
	out := make([]string, 0, len(argv)+len(m.Tokens))
	for _, arg := range argv {
		if arg == "{words}" {
			out = append(out, m.Words()...)
			continue
		}
		out = append(out, expandText(arg, m))
	}
	return out
}

func expandText(text string, m dispatch.Match) string {
	if !strings.Contains(text, "{") {
		return text
	}
	return strings.NewReplacer(
		"{phrase}", m.Phrase(),
		"{name}", m.Name,
		"{id}", m.CommandID,
	).Replace(text)
}
