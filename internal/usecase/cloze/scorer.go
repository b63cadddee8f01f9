package cloze

import (
	"math"
	"strings"

	"github.com/eslsoft/clozegen/internal/entity"
)

// Scorer maps words onto a 0-10 difficulty scale derived from Zipf
// frequency. Rarer words score higher; words unknown to the oracle score
// the maximum.
type Scorer struct {
	oracle FrequencyOracle
}

func NewScorer(oracle FrequencyOracle) *Scorer {
	return &Scorer{oracle: oracle}
}

// Score returns the difficulty of word in lang, rounded to two decimals.
// Deterministic for a fixed oracle.
func (s *Scorer) Score(word string, lang entity.Language) float64 {
	zipf := s.oracle.Zipf(strings.ToLower(word), lang)
	return round2(clamp((8-zipf)*1.25, 0, 10))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
