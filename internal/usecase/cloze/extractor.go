package cloze

import (
	"strings"
	"unicode/utf8"

	"github.com/eslsoft/clozegen/internal/entity"
)

// Candidate is a token eligible to become a gap, annotated with its
// location in the lyrics and its difficulty. Immutable once created.
type Candidate struct {
	Position        int
	Word            string
	POS             entity.POSTag
	Difficulty      float64
	LineNumber      int
	WordIndexInLine int
	Lemma           string
	CharCount       int
	IsEndOfLine     bool
}

// Extractor filters a token stream down to gap candidates.
type Extractor struct {
	scorer    *Scorer
	oracle    FrequencyOracle
	profanity ProfanityClassifier
}

func NewExtractor(oracle FrequencyOracle, profanity ProfanityClassifier) *Extractor {
	return &Extractor{
		scorer:    NewScorer(oracle),
		oracle:    oracle,
		profanity: profanity,
	}
}

// Extract walks the token stream in order and returns the tokens that may
// become gaps. Line numbers and per-line word indices count every token,
// not just candidates, so gap positions stay addressable in the original
// lyrics.
func (e *Extractor) Extract(tokens []entity.Token, lang entity.Language, minZipf float64, preferProperNouns bool) []Candidate {
	candidates := make([]Candidate, 0, len(tokens)/4)
	lineNumber, wordIndex := 0, 0
	for i, tok := range tokens {
		if i > 0 {
			if tokens[i-1].EndsLine {
				lineNumber++
				wordIndex = 0
			} else {
				wordIndex++
			}
		}
		if !e.isValidGapWord(tok, lang, minZipf, preferProperNouns) {
			continue
		}
		candidates = append(candidates, Candidate{
			Position:        tok.Position,
			Word:            tok.Text,
			POS:             tok.POS,
			Difficulty:      e.scorer.Score(tok.Text, lang),
			LineNumber:      lineNumber,
			WordIndexInLine: wordIndex,
			Lemma:           strings.ToLower(tok.Lemma),
			CharCount:       utf8.RuneCountInString(tok.Text),
			IsEndOfLine:     tok.EndsLine || i == len(tokens)-1,
		})
	}
	return candidates
}

// isValidGapWord applies the inclusion rules in order, rejecting on the
// first failure. Proper nouns bypass the frequency floor when the tier
// prefers them; every other candidate must be a noun, verb or adjective at
// or above minZipf.
func (e *Extractor) isValidGapWord(tok entity.Token, lang entity.Language, minZipf float64, preferProperNouns bool) bool {
	if !tok.IsAlpha {
		return false
	}
	if utf8.RuneCountInString(tok.Text) < 3 {
		return false
	}
	lower := strings.ToLower(tok.Text)
	if e.profanity.IsProfane(lower) {
		return false
	}
	if preferProperNouns && tok.POS == entity.POSProperNoun {
		return true
	}
	switch tok.POS {
	case entity.POSNoun, entity.POSVerb, entity.POSAdjective:
	default:
		return false
	}
	return e.oracle.Zipf(lower, lang) >= minZipf
}
