package quality

import (
	"fmt"
	"strings"
	"testing"

	"github.com/eslsoft/clozegen/internal/entity"
)

type fakeProfanity map[string]bool

func (f fakeProfanity) IsProfane(word string) bool {
	return f[word]
}

// validEasyExercise builds an exercise that passes every check: 8 gaps on
// the easy tier, matching marker count and a consistent declared average.
func validEasyExercise() *entity.Exercise {
	gaps := make([]entity.GapItem, 8)
	for i := range gaps {
		gaps[i] = entity.GapItem{
			LineNumber:      i / 2,
			WordIndex:       i % 2,
			OriginalWord:    fmt.Sprintf("word%c", 'a'+i),
			Lemma:           fmt.Sprintf("word%c", 'a'+i),
			POSTag:          entity.POSNoun,
			DifficultyScore: 5.0,
			CharCount:       5,
		}
	}
	return &entity.Exercise{
		ExerciseID:         "7b6e3a8c-checked",
		SongID:             42,
		Difficulty:         entity.DifficultyEasy,
		Gaps:               gaps,
		BlankedText:        strings.Repeat("la ___ da ", 8),
		GapCount:           8,
		AvgDifficultyScore: 5.0,
	}
}

func TestCheckValidExercise(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	result := checker.Check(validEasyExercise())

	if !result.Valid {
		t.Fatalf("expected valid exercise, got errors %v", result.Errors)
	}
	if len(result.Errors) != 0 || len(result.Warnings) != 0 {
		t.Fatalf("expected clean result, got errors %v warnings %v", result.Errors, result.Warnings)
	}
}

func TestCheckMissingRequiredFieldsStopsEarly(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	ex.ExerciseID = ""
	ex.Gaps = nil
	ex.GapCount = 99 // would otherwise trip the ceiling check

	result := checker.Check(ex)
	if result.Valid {
		t.Fatal("exercise with missing fields must be invalid")
	}
	if len(result.Errors) != 1 {
		t.Fatalf("missing-field failure must stop checking, got errors %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "exercise_id") || !strings.Contains(result.Errors[0], "gaps") {
		t.Errorf("error should name the missing fields, got %q", result.Errors[0])
	}
}

func TestCheckGapCountMismatchIsWarning(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	ex.GapCount = 9
	ex.BlankedText += " ___" // keep marker count aligned with the declared 9

	result := checker.Check(ex)
	if !result.Valid {
		t.Fatalf("count mismatch alone must not invalidate, errors %v", result.Errors)
	}
	if len(result.Warnings) == 0 || !strings.Contains(result.Warnings[0], "does not match") {
		t.Fatalf("expected mismatch warning, got %v", result.Warnings)
	}
}

func TestCheckGapCountBounds(t *testing.T) {
	t.Run("above ceiling", func(t *testing.T) {
		checker := NewChecker(fakeProfanity{})
		ex := validEasyExercise()
		gaps := make([]entity.GapItem, 21)
		for i := range gaps {
			gaps[i] = ex.Gaps[i%len(ex.Gaps)]
		}
		ex.Gaps = gaps
		ex.GapCount = 21
		ex.BlankedText = strings.Repeat("___ ", 21)

		result := checker.Check(ex)
		if result.Valid {
			t.Fatal("gap_count above 20 must invalidate")
		}
		if !containsSubstring(result.Errors, "ceiling") {
			t.Fatalf("expected ceiling error, got %v", result.Errors)
		}
	})

	t.Run("below one", func(t *testing.T) {
		checker := NewChecker(fakeProfanity{})
		ex := validEasyExercise()
		ex.Gaps = []entity.GapItem{}
		ex.GapCount = 0
		ex.BlankedText = "no markers here"

		result := checker.Check(ex)
		if result.Valid {
			t.Fatal("gap_count below 1 must invalidate")
		}
		if !containsSubstring(result.Errors, "below the minimum") {
			t.Fatalf("expected floor error, got %v", result.Errors)
		}
	})
}

func TestCheckTierBoundsProduceWarningOnly(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	// 12 gaps on the easy tier (bounds 8-10): historical data drift.
	gaps := make([]entity.GapItem, 12)
	for i := range gaps {
		gaps[i] = ex.Gaps[i%len(ex.Gaps)]
	}
	ex.Gaps = gaps
	ex.GapCount = 12
	ex.BlankedText = strings.Repeat("___ ", 12)

	result := checker.Check(ex)
	if !result.Valid {
		t.Fatalf("tier bound drift must stay a warning, errors %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "tier bounds") {
		t.Fatalf("expected tier bound warning, got %v", result.Warnings)
	}
}

func TestCheckGapItemErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*entity.GapItem)
		wantSub string
	}{
		{
			name:    "missing lemma",
			mutate:  func(g *entity.GapItem) { g.Lemma = "" },
			wantSub: "missing lemma",
		},
		{
			name:    "missing pos tag",
			mutate:  func(g *entity.GapItem) { g.POSTag = "" },
			wantSub: "missing pos_tag",
		},
		{
			name:    "non-alphabetic word",
			mutate:  func(g *entity.GapItem) { g.OriginalWord = "w0rd" },
			wantSub: "not alphabetic",
		},
		{
			name:    "difficulty above range",
			mutate:  func(g *entity.GapItem) { g.DifficultyScore = 10.5 },
			wantSub: "outside [0,10]",
		},
		{
			name:    "difficulty below range",
			mutate:  func(g *entity.GapItem) { g.DifficultyScore = -0.2 },
			wantSub: "outside [0,10]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(fakeProfanity{})
			ex := validEasyExercise()
			tt.mutate(&ex.Gaps[3])

			result := checker.Check(ex)
			if result.Valid {
				t.Fatal("per-gap error must invalidate the exercise")
			}
			if !containsSubstring(result.Errors, tt.wantSub) {
				t.Fatalf("expected error containing %q, got %v", tt.wantSub, result.Errors)
			}
		})
	}
}

func TestCheckSpacedWordStaysAlphabetic(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	ex.Gaps[0].OriginalWord = "new york"

	result := checker.Check(ex)
	if !result.Valid {
		t.Fatalf("internal spaces are allowed in gap words, errors %v", result.Errors)
	}
}

func TestCheckProfaneGapWord(t *testing.T) {
	checker := NewChecker(fakeProfanity{"wordc": true})
	ex := validEasyExercise()

	result := checker.Check(ex)
	if result.Valid {
		t.Fatal("profane gap word must invalidate")
	}
	if !containsSubstring(result.Errors, "profane") {
		t.Fatalf("expected profanity error, got %v", result.Errors)
	}
}

func TestCheckMarkerCountMismatchIsError(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	ex.Gaps = append(ex.Gaps, ex.Gaps[0], ex.Gaps[1])
	ex.GapCount = 10
	ex.BlankedText = strings.Repeat("la ___ da ", 9) // 9 markers, 10 declared

	result := checker.Check(ex)
	if result.Valid {
		t.Fatal("marker count mismatch must invalidate")
	}
	if !containsSubstring(result.Errors, "markers") {
		t.Fatalf("expected marker count error, got %v", result.Errors)
	}
}

func TestCheckAverageDriftIsWarning(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	// Gaps recompute to 5.2 while 5.0 stays declared.
	for i := range ex.Gaps {
		ex.Gaps[i].DifficultyScore = 5.2
	}

	result := checker.Check(ex)
	if !result.Valid {
		t.Fatalf("average drift alone must not invalidate, errors %v", result.Errors)
	}
	if !containsSubstring(result.Warnings, "drifts") {
		t.Fatalf("expected drift warning, got %v", result.Warnings)
	}
}

func TestCheckAverageWithinToleranceIsClean(t *testing.T) {
	checker := NewChecker(fakeProfanity{})
	ex := validEasyExercise()
	ex.AvgDifficultyScore = 5.08 // within the 0.1 tolerance of the true 5.0

	result := checker.Check(ex)
	if len(result.Warnings) != 0 {
		t.Fatalf("drift within tolerance must not warn, got %v", result.Warnings)
	}
}

func containsSubstring(items []string, sub string) bool {
	for _, item := range items {
		if strings.Contains(item, sub) {
			return true
		}
	}
	return false
}
