package cloze

import (
	"context"
	"strings"
	"unicode"

	"github.com/eslsoft/clozegen/internal/entity"
)

// fakeOracle maps lowercased words to Zipf values; absent words return 0.
type fakeOracle map[string]float64

func (f fakeOracle) Zipf(word string, _ entity.Language) float64 {
	return f[word]
}

// fakeProfanity flags exactly the words in the set.
type fakeProfanity map[string]bool

func (f fakeProfanity) IsProfane(word string) bool {
	return f[word]
}

// fakeTokenizer returns a prepared stream or a fixed error.
type fakeTokenizer struct {
	tokens []entity.Token
	err    error
}

func (f *fakeTokenizer) Tokenize(_ context.Context, _ string) ([]entity.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens, nil
}

type fakeRegistry struct {
	tokenizers map[entity.Language]Tokenizer
}

func (f *fakeRegistry) Tokenizer(lang entity.Language) (Tokenizer, error) {
	tok, ok := f.tokenizers[lang]
	if !ok {
		return nil, entity.ErrUnsupportedLanguage
	}
	return tok, nil
}

func englishRegistry(tok Tokenizer) *fakeRegistry {
	return &fakeRegistry{tokenizers: map[entity.Language]Tokenizer{entity.LanguageEnglish: tok}}
}

// tokensFromWords builds a single-line stream of space-separated word
// tokens tagged NOUN. Tests adjust POS or line breaks afterwards.
func tokensFromWords(words ...string) []entity.Token {
	tokens := make([]entity.Token, len(words))
	for i, w := range words {
		tokens[i] = entity.Token{
			Position:   i,
			Text:       w,
			Whitespace: " ",
			IsAlpha:    isAlphaWord(w),
			POS:        entity.POSNoun,
			Lemma:      strings.ToLower(w),
		}
	}
	if len(tokens) > 0 {
		tokens[len(tokens)-1].Whitespace = ""
	}
	return tokens
}

func isAlphaWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
