// Package phonetic tolerates near-miss recognitions when comparing spoken
// words against command pattern words.
//
// Two words are considered equal when they share a Double Metaphone code and
// their Jaro-Winkler similarity reaches the phonetic threshold, or when no
// code overlaps but the similarity reaches the stricter fuzzy threshold.
// Exact matches always succeed.
package phonetic

import (
	"github.com/antzucaro/matchr"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultPhoneticThreshold = 0.75
	DefaultFuzzyThreshold    = 0.90

	defaultCacheSize = 2048
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum similarity for words with a shared
// phonetic code.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.phoneticThreshold = threshold
		}
	}
}

// WithFuzzyThreshold sets the minimum similarity for words without a shared
// phonetic code.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		if threshold > 0 {
			m.fuzzyThreshold = threshold
		}
	}
}

type codes struct {
	primary   string
	secondary string
}

// Matcher compares folded words phonetically. Safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
	cache             *lru.Cache[string, codes]
}

// New returns a Matcher with default thresholds unless overridden.
func New(opts ...Option) *Matcher {
	cache, err := lru.New[string, codes](defaultCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	m := &Matcher{
		phoneticThreshold: DefaultPhoneticThreshold,
		fuzzyThreshold:    DefaultFuzzyThreshold,
		cache:             cache,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Equal reports whether heard is close enough to want.
func (m *Matcher) Equal(want, heard string) bool {
	if want == heard {
		return true
	}
	if want == "" || heard == "" {
		return false
	}

	score := matchr.JaroWinkler(want, heard, false)
	if m.codesOverlap(want, heard) {
		return score >= m.phoneticThreshold
	}
	return score >= m.fuzzyThreshold
}

func (m *Matcher) codesOverlap(a, b string) bool {
	ca := m.codesFor(a)
	cb := m.codesFor(b)
	for _, x := range []string{ca.primary, ca.secondary} {
		if x == "" {
			continue
		}
		if x == cb.primary || x == cb.secondary {
			return true
		}
	}
	return false
}

func (m *Matcher) codesFor(word string) codes {
	if c, ok := m.cache.Get(word); ok {
		return c
	}
	primary, secondary := matchr.DoubleMetaphone(word)
	c := codes{primary: primary, secondary: secondary}
	m.cache.Add(word, c)
	return c
}
