// Package nlp provides the language-analysis collaborators behind exercise
// generation: per-language tokenizers with part-of-speech tags and lemmas, a
// word-frequency table on the Zipf scale, and a profanity classifier.
package nlp

import (
	"fmt"
	"sync"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"
)

type lazyTokenizer struct {
	once  sync.Once
	build func() (cloze.Tokenizer, error)
	tok   cloze.Tokenizer
	err   error
}

func (l *lazyTokenizer) get() (cloze.Tokenizer, error) {
	l.once.Do(func() {
		l.tok, l.err = l.build()
	})
	return l.tok, l.err
}

// Registry hands out language tokenizers. Backends load tagger models and
// dictionaries, so each one is constructed on first use and then shared;
// every tokenizer it returns is safe for concurrent use.
type Registry struct {
	tokenizers map[entity.Language]*lazyTokenizer
}

func NewRegistry() *Registry {
	return &Registry{
		tokenizers: map[entity.Language]*lazyTokenizer{
			entity.LanguageEnglish: {build: func() (cloze.Tokenizer, error) {
				return NewEnglishTokenizer()
			}},
			entity.LanguageJapanese: {build: func() (cloze.Tokenizer, error) {
				return NewJapaneseTokenizer()
			}},
		},
	}
}

func (r *Registry) Tokenizer(lang entity.Language) (cloze.Tokenizer, error) {
	lazy, ok := r.tokenizers[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedLanguage, lang)
	}
	return lazy.get()
}
