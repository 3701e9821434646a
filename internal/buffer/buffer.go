// Package buffer holds recently heard tokens until they are consumed or expire.
package buffer

import (
	"sync"
	"time"

	"github.com/rbright/hark/internal/token"
)

// Options bounds token lifetime and buffer depth. Zero values disable each bound.
type Options struct {
	TTL       time.Duration
	MaxTokens int
}

// Buffer is an arrival-ordered token queue. Push is safe for concurrent
// producers racing with the single matching reader.
type Buffer struct {
	opts Options

	mu      sync.Mutex
	tokens  []token.Token
	nextSeq uint64
	evicted []token.Token
}

// New constructs an empty buffer.
func New(opts Options) *Buffer {
	return &Buffer{opts: opts}
}

// Push stamps each token with a fresh Seq and appends it. When MaxTokens is
// exceeded the oldest tokens are evicted and reported by the next Expire.
func (b *Buffer) Push(tokens ...token.Token) []token.Token {
	if len(tokens) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	stamped := make([]token.Token, len(tokens))
	for i, tok := range tokens {
		b.nextSeq++
		tok.Seq = b.nextSeq
		stamped[i] = tok
	}
	b.tokens = append(b.tokens, stamped...)

	if limit := b.opts.MaxTokens; limit > 0 && len(b.tokens) > limit {
		overflow := len(b.tokens) - limit
		b.evicted = append(b.evicted, b.tokens[:overflow]...)
		b.tokens = append([]token.Token(nil), b.tokens[overflow:]...)
	}
	return stamped
}

// Expire removes tokens older than the TTL at now, plus any capacity
// evictions since the previous call, and returns them in arrival order.
func (b *Buffer) Expire(now time.Time) []token.Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	expired := b.evicted
	b.evicted = nil

	if b.opts.TTL <= 0 || len(b.tokens) == 0 {
		return expired
	}

	kept := b.tokens[:0:0]
	for _, tok := range b.tokens {
		if now.Sub(tok.At) > b.opts.TTL {
			expired = append(expired, tok)
			continue
		}
		kept = append(kept, tok)
	}
	b.tokens = kept
	return expired
}

// Consume removes the tokens with the given identities and returns how many
// were present. A consumed token evicted since the last Expire is no longer
// reported as expired.
func (b *Buffer) Consume(seqs ...uint64) int {
	if len(seqs) == 0 {
		return 0
	}

	drop := make(map[uint64]struct{}, len(seqs))
	for _, seq := range seqs {
		drop[seq] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	kept := b.tokens[:0:0]
	for _, tok := range b.tokens {
		if _, ok := drop[tok.Seq]; ok {
			removed++
			continue
		}
		kept = append(kept, tok)
	}
	b.tokens = kept

	if len(b.evicted) > 0 {
		pending := b.evicted[:0:0]
		for _, tok := range b.evicted {
			if _, ok := drop[tok.Seq]; !ok {
				pending = append(pending, tok)
			}
		}
		b.evicted = pending
	}
	return removed
}

// Snapshot returns a copy of the buffered tokens in arrival order.
func (b *Buffer) Snapshot() []token.Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]token.Token, len(b.tokens))
	copy(out, b.tokens)
	return out
}

// Len returns the number of buffered tokens.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tokens)
}
