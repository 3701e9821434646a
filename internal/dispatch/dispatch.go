// Package dispatch invokes command actions and isolates their failures.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rbright/hark/internal/observe"
	"github.com/rbright/hark/internal/token"
)

// Match describes one completed command: which command fired and the tokens it consumed.
type Match struct {
	CommandID string
	Name      string
	Pattern   []string
	Tokens    []token.Token
}

// Words returns the canonical text of the consumed tokens in pattern order.
func (m Match) Words() []string {
	return token.Texts(m.Tokens)
}

// Phrase returns the consumed words joined by single spaces.
func (m Match) Phrase() string {
	return strings.Join(m.Words(), " ")
}

// Action is invoked once per completed match. The matcher never inspects it.
type Action interface {
	Run(context.Context, Match) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(context.Context, Match) error

func (f ActionFunc) Run(ctx context.Context, m Match) error {
	return f(ctx, m)
}

// ActionFailure reports one command action that returned an error or panicked.
type ActionFailure struct {
	CommandID string
	Name      string
	Err       error
	Panicked  bool
}

func (f *ActionFailure) Error() string {
	label := f.Name
	if label == "" {
		label = f.CommandID
	}
	if f.Panicked {
		return fmt.Sprintf("action %q panicked: %v", label, f.Err)
	}
	return fmt.Sprintf("action %q failed: %v", label, f.Err)
}

func (f *ActionFailure) Unwrap() error {
	return f.Err
}

// Dispatcher runs actions for completed matches.
type Dispatcher struct {
	logger  *slog.Logger
	metrics *observe.Metrics
	now     func() time.Time
}

// New constructs a dispatcher. logger and metrics may be nil.
func New(logger *slog.Logger, metrics *observe.Metrics) *Dispatcher {
	return &Dispatcher{logger: logger, metrics: metrics, now: time.Now}
}

// Dispatch invokes action exactly once for m. A returned error is always an
// *ActionFailure; a panicking action is recovered and reported the same way.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action, m Match) (err error) {
	if action == nil {
		return &ActionFailure{CommandID: m.CommandID, Name: m.Name, Err: fmt.Errorf("no action bound")}
	}

	started := d.now()
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &ActionFailure{
				CommandID: m.CommandID,
				Name:      m.Name,
				Err:       fmt.Errorf("%v", recovered),
				Panicked:  true,
			}
			d.logDebug("action panic stack", "command", m.Name, "stack", string(debug.Stack()))
		}
		d.finish(ctx, m, d.now().Sub(started), err)
	}()

	if runErr := action.Run(ctx, m); runErr != nil {
		return &ActionFailure{CommandID: m.CommandID, Name: m.Name, Err: runErr}
	}
	return nil
}

// finish records metrics and logs the dispatch outcome.
func (d *Dispatcher) finish(ctx context.Context, m Match, elapsed time.Duration, err error) {
	d.metrics.RecordAction(ctx, m.Name, elapsed, err != nil)
	if d.logger == nil {
		return
	}
	fields := []any{
		"command", m.Name,
		"command_id", m.CommandID,
		"phrase", m.Phrase(),
		"duration_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		d.logger.Error("command action failed", append(fields, "error", err.Error())...)
		return
	}
	d.logger.Info("command fired", fields...)
}

func (d *Dispatcher) logDebug(message string, fields ...any) {
	if d.logger == nil {
		return
	}
	d.logger.Debug(message, fields...)
}
