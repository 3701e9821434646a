// Package token canonicalizes recognized speech into comparable word tokens.
package token

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Token is one recognized word as it sits in the spoken buffer.
type Token struct {
	// Seq is the buffer-assigned identity; zero until pushed.
	Seq  uint64
	Text string
	Raw  string
	At   time.Time
}

// Normalize splits a recognized utterance into folded word tokens stamped with at.
//
// Empty or whitespace-only input yields no tokens.
func Normalize(raw string, at time.Time) []Token {
	fields := strings.FieldsFunc(raw, unicode.IsSpace)
	if len(fields) == 0 {
		return nil
	}

	caser := cases.Fold()
	tokens := make([]Token, 0, len(fields))
	for _, field := range fields {
		word := trimWord(field)
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{
			Text: caser.String(norm.NFC.String(word)),
			Raw:  word,
			At:   at,
		})
	}
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

// Fold canonicalizes one pattern word or phrase the same way Normalize does.
// Phrases are split so "Open Door" folds to ["open", "door"].
func Fold(phrase string) []string {
	tokens := Normalize(phrase, time.Time{})
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		words = append(words, tok.Text)
	}
	return words
}

// Texts returns the canonical text of each token in order.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// trimWord strips recognizer punctuation around a word ("door." -> "door")
// while keeping inner marks such as apostrophes.
func trimWord(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
