// Package session runs the listener lifecycle: it owns the matching engine,
// drives its ticks, and serves the daemon's IPC commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/dispatch"
	"github.com/rbright/hark/internal/fsm"
	"github.com/rbright/hark/internal/matcher"
	"github.com/rbright/hark/internal/registry"
	"github.com/rbright/hark/internal/token"
)

// ErrNotListening rejects utterances while the listener is idle or paused.
var ErrNotListening = errors.New("not listening")

// Engine is the matcher surface the controller drives.
type Engine interface {
	Say(raw string, at time.Time) []token.Token
	Tick(ctx context.Context, now time.Time) (matcher.Report, error)
	Register(spec registry.Spec) (string, error)
	Unregister(id string) bool
	Progress() []matcher.Progress
	Pending() []token.Token
}

// ActionBuilder turns a configured action into a dispatch action.
type ActionBuilder interface {
	Build(action config.ActionConfig, timeout time.Duration) (dispatch.Action, error)
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowListening(context.Context)
	ShowPaused(context.Context)
	ShowFired(ctx context.Context, name string)
	ShowFailure(ctx context.Context, text string)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowListening(context.Context) {}
func (noopIndicator) ShowPaused(context.Context) {}
func (noopIndicator) ShowFired(context.Context, string) {}
func (noopIndicator) ShowFailure(context.Context, string) {}
func (noopIndicator) Hide(context.Context) {}

// Options controls tick cadence.
type Options struct {
	// TickInterval is the fixed tick period. Zero means 100ms.
	TickInterval time.Duration
	// TickOnPush also ticks right after every accepted utterance.
	TickOnPush bool
	// Now overrides the clock used to stamp tokens and ticks.
	Now func() time.Time
}

// Result is the lifecycle summary returned by one Run invocation.
type Result struct {
	State      fsm.State
	Err        error
	Reason     string
	Ticks      int64
	Fired      int64
	Failures   int64
	StartedAt  time.Time
	FinishedAt time.Time
}

// Controller orchestrates listener state transitions and engine ticks.
type Controller struct {
	logger    *slog.Logger
	engine    Engine
	actions   ActionBuilder
	indicator Indicator

	tickInterval time.Duration
	tickOnPush   bool
	now          func() time.Time

	mu    sync.RWMutex
	state fsm.State

	kick chan struct{}
	stop chan struct{}

	ticks    atomic.Int64
	fired    atomic.Int64
	failures atomic.Int64
}

// NewController constructs a controller with safe default fallbacks.
func NewController(logger *slog.Logger, engine Engine, actions ActionBuilder, indicator Indicator, opts Options) *Controller {
	if indicator == nil {
		indicator = noopIndicator{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Controller{
		logger:       logger,
		engine:       engine,
		actions:      actions,
		indicator:    indicator,
		tickInterval: opts.TickInterval,
		tickOnPush:   opts.TickOnPush,
		now:          opts.Now,
		state:        fsm.StateIdle,
		kick:         make(chan struct{}, 1),
		stop:         make(chan struct{}, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) (fsm.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return c.state, err
	}
	c.state = next
	return next, nil
}

// Run listens until a stop request or context cancellation. Both are normal
// shutdowns; Result.Reason tells them apart.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: c.now()}
	finish := func(reason string, err error) Result {
		result.Reason = reason
		result.Err = err
		result.State = c.State()
		result.Ticks = c.ticks.Load()
		result.Fired = c.fired.Load()
		result.Failures = c.failures.Load()
		result.FinishedAt = c.now()
		return result
	}

	if _, err := c.transition(fsm.EventStart); err != nil {
		return finish("start", err)
	}
	c.indicator.ShowListening(ctx)
	c.logInfo("listening", "tick_ms", c.tickInterval.Milliseconds(), "tick_on_push", c.tickOnPush)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
		defer cancel()
		c.indicator.Hide(cleanupCtx)
	}()

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.toIdle()
			return finish("context", nil)
		case <-c.stop:
			c.toIdle()
			return finish("stop", nil)
		case <-ticker.C:
			c.tick(ctx)
		case <-c.kick:
			c.tick(ctx)
		}
	}
}

// Say buffers one recognized utterance. It fails with ErrNotListening unless
// the listener is running and not paused.
func (c *Controller) Say(_ context.Context, text string) ([]token.Token, error) {
	if state := c.State(); !state.Accepting() {
		return nil, fmt.Errorf("%w (state %s)", ErrNotListening, state)
	}

	tokens := c.engine.Say(text, c.now())
	if len(tokens) > 0 && c.tickOnPush {
		select {
		case c.kick <- struct{}{}:
		default:
		}
	}
	return tokens, nil
}

// tick runs one engine tick and surfaces its outcomes.
func (c *Controller) tick(ctx context.Context) {
	report, err := c.engine.Tick(ctx, c.now())
	c.ticks.Add(1)

	// A command can fire more than once per tick; failures pair with its
	// fires in dispatch order.
	failed := make(map[string][]*dispatch.ActionFailure, len(report.Failures))
	for _, failure := range report.Failures {
		failed[failure.CommandID] = append(failed[failure.CommandID], failure)
	}

	for _, m := range report.Fired {
		c.fired.Add(1)
		if pending := failed[m.CommandID]; len(pending) > 0 {
			failed[m.CommandID] = pending[1:]
			c.failures.Add(1)
			c.indicator.ShowFailure(ctx, pending[0].Error())
			continue
		}
		c.indicator.ShowFired(ctx, m.Name)
	}

	if err != nil {
		c.logWarn("tick completed with action failures", "error", err.Error(), "failures", len(report.Failures))
	}
}

// toIdle stops the listener from whatever state it is in.
func (c *Controller) toIdle() {
	if _, err := c.transition(fsm.EventStop); err != nil {
		_, _ = c.transition(fsm.EventFail)
		_, _ = c.transition(fsm.EventReset)
	}
}

func (c *Controller) requestStop() bool {
	select {
	case c.stop <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *Controller) logInfo(message string, fields ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Info(message, fields...)
}

func (c *Controller) logWarn(message string, fields ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(message, fields...)
}
