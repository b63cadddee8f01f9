package nlp

import (
	"context"
	"fmt"
	"strings"

	"github.com/eslsoft/clozegen/internal/entity"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// JapaneseTokenizer segments lyrics with the kagome morphological analyzer
// and the bundled IPA dictionary.
type JapaneseTokenizer struct {
	analyzer *tokenizer.Tokenizer
}

func NewJapaneseTokenizer() (*JapaneseTokenizer, error) {
	analyzer, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load ipa dictionary: %w", err)
	}
	return &JapaneseTokenizer{analyzer: analyzer}, nil
}

// Tokenize analyzes the lyrics line by line. IPA features carry the
// dictionary form at index 6 and the part of speech at index 0; whitespace
// surfaces are folded into the preceding token so the stream reconstructs
// the source text.
func (j *JapaneseTokenizer) Tokenize(_ context.Context, text string) ([]entity.Token, error) {
	lines := strings.Split(text, "\n")
	var out []entity.Token
	for li, line := range lines {
		newline := "\n"
		if li == len(lines)-1 {
			newline = ""
		}
		lineStart := len(out)
		for _, kt := range j.analyzer.Tokenize(line) {
			if kt.Class == tokenizer.DUMMY {
				continue
			}
			surface := kt.Surface
			if strings.TrimSpace(surface) == "" {
				if len(out) > 0 {
					out[len(out)-1].Whitespace += surface
				}
				continue
			}
			features := kt.Features()
			lemma := surface
			if len(features) > 6 && features[6] != "*" {
				lemma = features[6]
			}
			out = append(out, entity.Token{
				Position: len(out),
				Text:     surface,
				IsAlpha:  isAlphaText(surface),
				POS:      mapIPAFeatures(features),
				Lemma:    strings.ToLower(lemma),
			})
		}
		if len(out) > lineStart {
			last := &out[len(out)-1]
			last.Whitespace += newline
			if newline != "" {
				last.EndsLine = true
			}
		} else if len(out) > 0 {
			out[len(out)-1].Whitespace += line + newline
		}
	}
	return out, nil
}

// mapIPAFeatures folds kagome's IPA part-of-speech labels into the coarse
// tag set. Sub-classifications distinguish proper nouns, pronouns and
// numerals inside the noun class.
func mapIPAFeatures(features []string) entity.POSTag {
	if len(features) == 0 {
		return entity.POSOther
	}
	switch features[0] {
	case "名詞":
		if len(features) > 1 {
			switch features[1] {
			case "固有名詞":
				return entity.POSProperNoun
			case "代名詞":
				return entity.POSPronoun
			case "数":
				return entity.POSNumber
			}
		}
		return entity.POSNoun
	case "動詞":
		return entity.POSVerb
	case "形容詞":
		return entity.POSAdjective
	case "副詞":
		return entity.POSAdverb
	case "記号":
		return entity.POSPunct
	default:
		return entity.POSOther
	}
}
