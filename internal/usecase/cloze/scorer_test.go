package cloze

import (
	"testing"

	"github.com/eslsoft/clozegen/internal/entity"
)

func TestScorerScore(t *testing.T) {
	oracle := fakeOracle{
		"the":       7.73,
		"love":      6.3,
		"ephemeral": 2.2,
		"ubiquity":  9.0,
	}
	scorer := NewScorer(oracle)

	tests := []struct {
		name string
		word string
		want float64
	}{
		{name: "very common word scores near zero", word: "the", want: 0.34},
		{name: "common word", word: "love", want: 2.13},
		{name: "rare word", word: "ephemeral", want: 7.25},
		{name: "unknown word scores maximum", word: "xylocarp", want: 10},
		{name: "above-scale zipf clamps to zero", word: "ubiquity", want: 0},
		{name: "lookup is case-insensitive", word: "The", want: 0.34},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.word, entity.LanguageEnglish)
			if got != tt.want {
				t.Errorf("Score(%q) = %v, want %v", tt.word, got, tt.want)
			}
			if got < 0 || got > 10 {
				t.Errorf("Score(%q) = %v outside [0,10]", tt.word, got)
			}
		})
	}
}

func TestScorerDeterministic(t *testing.T) {
	scorer := NewScorer(fakeOracle{"river": 5.12})
	first := scorer.Score("river", entity.LanguageEnglish)
	for i := 0; i < 5; i++ {
		if got := scorer.Score("river", entity.LanguageEnglish); got != first {
			t.Fatalf("Score diverged on repeat call: %v != %v", got, first)
		}
	}
}
