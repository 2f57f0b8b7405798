package textnorm

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// Tokenize splits text into lowercase word tokens on any
// non-letter/non-digit boundary.
func Tokenize(text string) []string {
	f := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsNumber(c)
	}
	fields := strings.FieldsFunc(strings.ToLower(text), f)
	return fields
}

// Normalize cleans raw song text into the canonical form consumed by the
// vectorizer: lowercase, newlines stripped, tokens stemmed and rejoined with
// single spaces. Pure and deterministic; empty or punctuation-only input
// yields an empty string.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "\n", " ")
	tokens := Tokenize(raw)
	if len(tokens) == 0 {
		return ""
	}
	stemmed := make([]string, len(tokens))
	for i, tok := range tokens {
		stemmed[i] = english.Stem(tok, false)
	}
	return strings.Join(stemmed, " ")
}
