// Package registry stores voice commands and their per-command match state.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/rbright/hark/internal/dispatch"
	"github.com/rbright/hark/internal/token"
)

var (
	// ErrInvalidPattern rejects a registration whose pattern or action is unusable.
	ErrInvalidPattern = errors.New("invalid command pattern")
	// ErrUnknownCommand reports a lookup for an id that is not registered.
	ErrUnknownCommand = errors.New("unknown command")
)

// Spec is the caller-supplied definition of one command.
type Spec struct {
	Name    string
	Pattern []string
	Ordered bool
	Action  dispatch.Action
}

// Command is one registered listener. Pattern and identity are immutable;
// bindings are owned by the matching engine.
type Command struct {
	ID      string
	Name    string
	Pattern []string
	Ordered bool
	Action  dispatch.Action

	order   uint64
	retired atomic.Bool

	// bindings[i] is the Seq of the token satisfying slot i, or 0.
	bindings []uint64
}

// Order is the registration sequence; lower values win ties.
func (c *Command) Order() uint64 {
	return c.order
}

// Retired reports whether the command was unregistered.
func (c *Command) Retired() bool {
	return c.retired.Load()
}

// Bindings returns a copy of the per-slot token bindings (0 = unsatisfied).
func (c *Command) Bindings() []uint64 {
	out := make([]uint64, len(c.bindings))
	copy(out, c.bindings)
	return out
}

// Bind replaces the slot bindings. It is called only by the matching engine.
// Extra entries beyond the pattern length are ignored.
func (c *Command) Bind(seqs []uint64) {
	for i := range c.bindings {
		c.bindings[i] = 0
		if i < len(seqs) {
			c.bindings[i] = seqs[i]
		}
	}
}

// Reset returns the command to idle.
func (c *Command) Reset() {
	for i := range c.bindings {
		c.bindings[i] = 0
	}
}

// Satisfied counts bound slots.
func (c *Command) Satisfied() int {
	n := 0
	for _, seq := range c.bindings {
		if seq != 0 {
			n++
		}
	}
	return n
}

// Registry maps ids to commands and preserves registration order.
type Registry struct {
	mu       sync.RWMutex
	commands []*Command
	byID     map[string]*Command
	next     uint64
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]*Command)}
}

// Register validates and stores a command, returning its id.
func (r *Registry) Register(spec Spec) (string, error) {
	pattern := make([]string, 0, len(spec.Pattern))
	for _, part := range spec.Pattern {
		pattern = append(pattern, token.Fold(part)...)
	}
	if len(pattern) == 0 {
		return "", fmt.Errorf("%w: pattern must contain at least one word", ErrInvalidPattern)
	}
	if spec.Action == nil {
		return "", fmt.Errorf("%w: action must not be nil", ErrInvalidPattern)
	}

	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = strings.Join(pattern, " ")
	}

	cmd := &Command{
		ID:       ulid.Make().String(),
		Name:     name,
		Pattern:  pattern,
		Ordered:  spec.Ordered,
		Action:   spec.Action,
		bindings: make([]uint64, len(pattern)),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	cmd.order = r.next
	r.commands = append(r.commands, cmd)
	r.byID[cmd.ID] = cmd
	return cmd.ID, nil
}

// Unregister removes a command. Unknown ids are a no-op and return false.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd, ok := r.byID[id]
	if !ok {
		return false
	}
	cmd.retired.Store(true)
	delete(r.byID, id)
	for i, existing := range r.commands {
		if existing == cmd {
			r.commands = append(r.commands[:i:i], r.commands[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the command registered under id.
func (r *Registry) Get(id string) (*Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	return cmd, nil
}

// List returns the live commands in registration order. The slice is a
// snapshot; the commands themselves are shared.
func (r *Registry) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of live commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
