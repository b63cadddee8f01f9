// Package quality re-reads persisted exercises and verifies the structural
// and content invariants the generation engine promises. It never mutates
// anything: errors mark an exercise invalid, warnings flag drift worth a
// look without blocking consumption.
package quality

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"
)

// Hard ceiling on stored gaps regardless of tier, and the tolerated drift
// between the declared and recomputed average difficulty.
const (
	_gapCountCeiling = 20
	_avgDriftLimit   = 0.1
)

// Result is the validation outcome for a single exercise.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Checker validates individual exercises.
type Checker struct {
	profanity cloze.ProfanityClassifier
}

func NewChecker(profanity cloze.ProfanityClassifier) *Checker {
	return &Checker{profanity: profanity}
}

// Check runs every invariant against one exercise. A missing required
// field stops checking immediately; all other findings accumulate so a
// single pass reports everything wrong with the record.
func (c *Checker) Check(ex *entity.Exercise) Result {
	var errs, warns []string

	var missing []string
	if ex.ExerciseID == "" {
		missing = append(missing, "exercise_id")
	}
	if ex.SongID <= 0 {
		missing = append(missing, "song_id")
	}
	if !ex.Difficulty.Valid() {
		missing = append(missing, "difficulty")
	}
	if ex.Gaps == nil {
		missing = append(missing, "gaps")
	}
	if ex.BlankedText == "" {
		missing = append(missing, "blanked_text")
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
		return Result{Valid: false, Errors: errs}
	}

	if ex.GapCount != len(ex.Gaps) {
		warns = append(warns, fmt.Sprintf("gap_count %d does not match %d stored gaps", ex.GapCount, len(ex.Gaps)))
	}
	if ex.GapCount > _gapCountCeiling {
		errs = append(errs, fmt.Sprintf("gap_count %d exceeds the ceiling of %d", ex.GapCount, _gapCountCeiling))
	}
	if ex.GapCount < 1 {
		errs = append(errs, fmt.Sprintf("gap_count %d below the minimum of 1", ex.GapCount))
	}

	if cfg, err := entity.ConfigForDifficulty(ex.Difficulty); err == nil {
		if ex.GapCount < cfg.MinGaps || ex.GapCount > cfg.MaxGaps {
			warns = append(warns, fmt.Sprintf("gap_count %d outside %s tier bounds [%d,%d]",
				ex.GapCount, ex.Difficulty, cfg.MinGaps, cfg.MaxGaps))
		}
	}

	for i, gap := range ex.Gaps {
		errs = append(errs, c.checkGap(i, gap)...)
	}

	if len(ex.Gaps) > 0 {
		var sum float64
		for _, gap := range ex.Gaps {
			sum += gap.DifficultyScore
		}
		recomputed := sum / float64(len(ex.Gaps))
		if math.Abs(recomputed-ex.AvgDifficultyScore) > _avgDriftLimit {
			warns = append(warns, fmt.Sprintf("declared avg difficulty %.2f drifts from recomputed %.2f",
				ex.AvgDifficultyScore, recomputed))
		}
	}

	if markers := strings.Count(ex.BlankedText, cloze.GapMarker); markers != ex.GapCount {
		errs = append(errs, fmt.Sprintf("blanked_text holds %d markers, gap_count declares %d", markers, ex.GapCount))
	}

	return Result{Valid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func (c *Checker) checkGap(idx int, gap entity.GapItem) []string {
	var errs []string

	if gap.OriginalWord == "" {
		errs = append(errs, fmt.Sprintf("gap %d missing original_word", idx))
	}
	if gap.Lemma == "" {
		errs = append(errs, fmt.Sprintf("gap %d missing lemma", idx))
	}
	if gap.POSTag == "" {
		errs = append(errs, fmt.Sprintf("gap %d missing pos_tag", idx))
	}

	if gap.OriginalWord != "" {
		squeezed := strings.ReplaceAll(gap.OriginalWord, " ", "")
		if !isAlphabetic(squeezed) {
			errs = append(errs, fmt.Sprintf("gap %d word %q is not alphabetic", idx, gap.OriginalWord))
		}
		if c.profanity.IsProfane(strings.ToLower(gap.OriginalWord)) {
			errs = append(errs, fmt.Sprintf("gap %d word %q is profane", idx, gap.OriginalWord))
		}
	}

	if gap.DifficultyScore < 0 || gap.DifficultyScore > 10 {
		errs = append(errs, fmt.Sprintf("gap %d difficulty %v outside [0,10]", idx, gap.DifficultyScore))
	}
	return errs
}

func isAlphabetic(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
