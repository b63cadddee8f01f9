// Package cloze turns song lyrics into gap-fill exercises. It scores word
// difficulty from corpus frequency, filters the token stream down to gap
// candidates, spreads a bounded selection evenly across the text and renders
// the blanked lyrics together with the typed exercise record.
package cloze

import (
	"context"

	"github.com/eslsoft/clozegen/internal/entity"
)

// Tokenizer produces the ordered token stream for one text.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]entity.Token, error)
}

// TokenizerRegistry resolves the tokenizer for a language.
type TokenizerRegistry interface {
	Tokenizer(lang entity.Language) (Tokenizer, error)
}

// FrequencyOracle reports word commonness on the logarithmic 0-8 Zipf scale.
// Words absent from the underlying corpus return 0.
type FrequencyOracle interface {
	Zipf(word string, lang entity.Language) float64
}

// ProfanityClassifier reports whether a lowercased word is offensive.
type ProfanityClassifier interface {
	IsProfane(word string) bool
}
