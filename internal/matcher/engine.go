// Package matcher runs the token-matching engine: it binds buffered spoken
// tokens to registered command patterns, fires commands whose patterns are
// fully satisfied, and consumes the tokens that satisfied them.
//
// All match state is touched only inside Tick, which the engine serializes.
// Say and Push may be called from recognizer goroutines at any time. Actions
// run without the match-state lock held, so they may call Progress, Pending,
// Say or Unregister, but never Tick.
package matcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/hark/internal/buffer"
	"github.com/rbright/hark/internal/dispatch"
	"github.com/rbright/hark/internal/observe"
	"github.com/rbright/hark/internal/registry"
	"github.com/rbright/hark/internal/token"
)

// Comparer decides whether a heard token text satisfies a pattern word.
// A tolerant comparer may accept one heard word for several pattern words;
// unordered binding then searches for a full assignment before giving up.
type Comparer interface {
	Equal(want, heard string) bool
}

// ComparerFunc adapts a function to the Comparer interface.
type ComparerFunc func(want, heard string) bool

func (f ComparerFunc) Equal(want, heard string) bool {
	return f(want, heard)
}

// Exact compares folded texts for equality.
var Exact Comparer = ComparerFunc(func(want, heard string) bool { return want == heard })

// Options configures an Engine. Zero values are usable.
type Options struct {
	Buffer   buffer.Options
	Comparer Comparer
	Logger   *slog.Logger
	Metrics  *observe.Metrics
}

// Report summarizes one tick.
type Report struct {
	At       time.Time
	Expired  []token.Token
	Fired    []dispatch.Match
	Failures []*dispatch.ActionFailure
}

// Progress is a read-only view of one command's match state.
type Progress struct {
	ID        string
	Name      string
	Pattern   []string
	Ordered   bool
	Bound     []string
	Satisfied int
}

// Idle reports whether no slot is bound.
func (p Progress) Idle() bool {
	return p.Satisfied == 0
}

// Engine owns the command registry and spoken buffer.
type Engine struct {
	registry   *registry.Registry
	buffer     *buffer.Buffer
	dispatcher *dispatch.Dispatcher
	comparer   Comparer
	logger     *slog.Logger
	metrics    *observe.Metrics

	// tickMu serializes ticks. stateMu guards slot bindings and is released
	// while an action runs.
	tickMu  sync.Mutex
	stateMu sync.Mutex
}

// New constructs an engine with an empty registry and buffer.
func New(opts Options) *Engine {
	comparer := opts.Comparer
	if comparer == nil {
		comparer = Exact
	}
	return &Engine{
		registry:   registry.New(),
		buffer:     buffer.New(opts.Buffer),
		dispatcher: dispatch.New(opts.Logger, opts.Metrics),
		comparer:   comparer,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Register adds a command; see registry.Registry.Register.
func (e *Engine) Register(spec registry.Spec) (string, error) {
	return e.registry.Register(spec)
}

// Unregister drops a command and its in-progress state. It is safe to call
// from an action during Tick; the command will not complete afterwards.
func (e *Engine) Unregister(id string) bool {
	return e.registry.Unregister(id)
}

// Commands returns the live commands in registration order.
func (e *Engine) Commands() []*registry.Command {
	return e.registry.List()
}

// Say normalizes one recognized utterance and buffers its words.
func (e *Engine) Say(raw string, at time.Time) []token.Token {
	return e.Push(token.Normalize(raw, at)...)
}

// Push buffers already-normalized tokens.
func (e *Engine) Push(tokens ...token.Token) []token.Token {
	stamped := e.buffer.Push(tokens...)
	e.metrics.RecordIngested(context.Background(), len(stamped))
	return stamped
}

// Pending returns the buffered tokens in arrival order.
func (e *Engine) Pending() []token.Token {
	return e.buffer.Snapshot()
}

// Progress reports every live command's slot bindings as of the last tick.
// A binding whose token has since left the buffer reads as unbound. It is
// safe to call from an action.
func (e *Engine) Progress() []Progress {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	texts := make(map[uint64]string)
	for _, tok := range e.buffer.Snapshot() {
		texts[tok.Seq] = tok.Text
	}

	commands := e.registry.List()
	out := make([]Progress, 0, len(commands))
	for _, cmd := range commands {
		bindings := cmd.Bindings()
		bound := make([]string, len(bindings))
		satisfied := 0
		for i, seq := range bindings {
			if text, ok := texts[seq]; ok && seq != 0 {
				bound[i] = text
				satisfied++
			}
		}
		out = append(out, Progress{
			ID:        cmd.ID,
			Name:      cmd.Name,
			Pattern:   append([]string(nil), cmd.Pattern...),
			Ordered:   cmd.Ordered,
			Bound:     bound,
			Satisfied: satisfied,
		})
	}
	return out
}

// Tick expires stale tokens, evaluates every command in registration order,
// dispatches the ones that complete, and consumes their tokens.
//
// Action failures never abort the tick: they are collected in the report and
// joined into the returned error. Actions must not call Tick.
func (e *Engine) Tick(ctx context.Context, now time.Time) (Report, error) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.stateMu.Lock()

	report := Report{At: now, Expired: e.buffer.Expire(now)}
	if len(report.Expired) > 0 {
		e.logDebug("tokens expired", "count", len(report.Expired), "words", token.Texts(report.Expired))
	}

	pool := e.buffer.Snapshot()
	claimed := make(map[uint64]struct{})

	// Repeat passes until one completes nothing, so every command has seen
	// every token left over by later completions and the final bindings all
	// refer to tokens still in the buffer.
	for {
		fired := false
		for _, cmd := range e.registry.List() {
			if cmd.Retired() {
				continue
			}

			seqs, complete := e.bind(cmd, pool, claimed)
			if !complete {
				cmd.Bind(seqs)
				continue
			}
			// An earlier action in this tick may have unregistered cmd.
			if cmd.Retired() {
				continue
			}

			fired = true
			match := dispatch.Match{
				CommandID: cmd.ID,
				Name:      cmd.Name,
				Pattern:   append([]string(nil), cmd.Pattern...),
				Tokens:    pick(pool, seqs),
			}
			for _, seq := range seqs {
				claimed[seq] = struct{}{}
			}
			cmd.Reset()
			e.buffer.Consume(seqs...)

			report.Fired = append(report.Fired, match)
			e.stateMu.Unlock()
			err := e.dispatcher.Dispatch(ctx, cmd.Action, match)
			e.stateMu.Lock()
			if err != nil {
				var failure *dispatch.ActionFailure
				if !errors.As(err, &failure) {
					failure = &dispatch.ActionFailure{CommandID: cmd.ID, Name: cmd.Name, Err: err}
				}
				report.Failures = append(report.Failures, failure)
			}
		}
		if !fired {
			break
		}
	}

	buffered := e.buffer.Len()
	e.stateMu.Unlock()

	e.metrics.RecordTick(ctx, len(report.Expired), len(claimed), buffered)

	if len(report.Failures) == 0 {
		return report, nil
	}
	errs := make([]error, len(report.Failures))
	for i, failure := range report.Failures {
		errs[i] = failure
	}
	return report, errors.Join(errs...)
}

// bind assigns pool tokens to cmd's slots. Tokens in claimed are unavailable.
// It returns the per-slot sequence numbers (0 = unbound) and whether every
// slot is bound.
func (e *Engine) bind(cmd *registry.Command, pool []token.Token, claimed map[uint64]struct{}) ([]uint64, bool) {
	if cmd.Ordered {
		return e.bindOrdered(cmd.Pattern, pool, claimed)
	}
	return e.bindUnordered(cmd.Pattern, pool, claimed)
}

// bindUnordered treats the pattern as a multiset: each slot takes the
// earliest matching token not already taken by another slot. When that
// leaves a slot empty, assignUnordered looks for a complete assignment.
func (e *Engine) bindUnordered(pattern []string, pool []token.Token, claimed map[uint64]struct{}) ([]uint64, bool) {
	seqs := make([]uint64, len(pattern))
	used := make(map[uint64]struct{}, len(pattern))
	complete := true

	for i, want := range pattern {
		for _, tok := range pool {
			if _, taken := claimed[tok.Seq]; taken {
				continue
			}
			if _, taken := used[tok.Seq]; taken {
				continue
			}
			if e.comparer.Equal(want, tok.Text) {
				seqs[i] = tok.Seq
				used[tok.Seq] = struct{}{}
				break
			}
		}
		if seqs[i] == 0 {
			complete = false
		}
	}
	if complete {
		return seqs, true
	}
	if full, ok := e.assignUnordered(pattern, pool, claimed); ok {
		return full, true
	}
	return seqs, false
}

// assignUnordered finds a full slot assignment using augmenting paths, or
// reports false when none exists.
func (e *Engine) assignUnordered(pattern []string, pool []token.Token, claimed map[uint64]struct{}) ([]uint64, bool) {
	free := make([]token.Token, 0, len(pool))
	for _, tok := range pool {
		if _, taken := claimed[tok.Seq]; !taken {
			free = append(free, tok)
		}
	}
	if len(free) < len(pattern) {
		return nil, false
	}

	// owner[j] is the slot index + 1 holding free[j], or 0.
	owner := make([]int, len(free))
	var augment func(slot int, seen []bool) bool
	augment = func(slot int, seen []bool) bool {
		for j, tok := range free {
			if seen[j] || !e.comparer.Equal(pattern[slot], tok.Text) {
				continue
			}
			seen[j] = true
			if owner[j] == 0 || augment(owner[j]-1, seen) {
				owner[j] = slot + 1
				return true
			}
		}
		return false
	}
	for slot := range pattern {
		if !augment(slot, make([]bool, len(free))) {
			return nil, false
		}
	}

	seqs := make([]uint64, len(pattern))
	for j, slot := range owner {
		if slot != 0 {
			seqs[slot-1] = free[j].Seq
		}
	}
	return seqs, true
}

// bindOrdered binds slots left to right; slot i only considers tokens that
// arrived after slot i-1's token, so a later token never satisfies an
// earlier slot.
func (e *Engine) bindOrdered(pattern []string, pool []token.Token, claimed map[uint64]struct{}) ([]uint64, bool) {
	seqs := make([]uint64, len(pattern))
	pos := 0

	for i, want := range pattern {
		for pos < len(pool) {
			tok := pool[pos]
			pos++
			if _, taken := claimed[tok.Seq]; taken {
				continue
			}
			if e.comparer.Equal(want, tok.Text) {
				seqs[i] = tok.Seq
				break
			}
		}
		if seqs[i] == 0 {
			return seqs, false
		}
	}
	return seqs, true
}

// pick returns the pool tokens for seqs, in seqs order.
func pick(pool []token.Token, seqs []uint64) []token.Token {
	bySeq := make(map[uint64]token.Token, len(pool))
	for _, tok := range pool {
		bySeq[tok.Seq] = tok
	}
	out := make([]token.Token, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, bySeq[seq])
	}
	return out
}

func (e *Engine) logDebug(message string, fields ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Debug(message, fields...)
}
