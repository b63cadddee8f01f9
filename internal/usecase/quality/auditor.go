package quality

import (
	"context"
	"fmt"
	"strings"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"

	"github.com/sirupsen/logrus"
)

const _defaultAuditPageSize = 200

// Finding records one exercise's validation output for operator triage.
type Finding struct {
	ExerciseID string
	SongID     int64
	Difficulty entity.Difficulty
	Errors     []string
	Warnings   []string
}

// Report aggregates validation over the checked corpus. QualityScore is the
// share of valid exercises on a 0-100 scale; AvgDifficulty is recomputed
// from the stored gaps, independent of the declared per-exercise averages.
type Report struct {
	Checked         int
	Valid           int
	Invalid         int
	WarningCount    int
	QualityScore    float64
	TierCounts      map[entity.Difficulty]int
	POSDistribution map[entity.POSTag]int
	AvgDifficulty   float64
	Findings        []Finding
}

// Auditor streams persisted exercises through the Checker and rolls the
// results up. It can run against a live corpus mid-generation; it reports
// on whatever exists at read time.
type Auditor struct {
	exercises repository.ExerciseRepository
	checker   *Checker
	logger    *logrus.Logger
	pageSize  int
}

func NewAuditor(exercises repository.ExerciseRepository, profanity cloze.ProfanityClassifier, logger *logrus.Logger) *Auditor {
	return &Auditor{
		exercises: exercises,
		checker:   NewChecker(profanity),
		logger:    logger,
		pageSize:  _defaultAuditPageSize,
	}
}

// Run validates every exercise matching query and returns the aggregated
// report. The query's pagination is owned by the auditor; filter and order
// expressions pass through to the repository.
func (a *Auditor) Run(ctx context.Context, query *repository.ListExerciseQuery) (*Report, error) {
	report := &Report{
		TierCounts:      make(map[entity.Difficulty]int),
		POSDistribution: make(map[entity.POSTag]int),
	}

	scoped := repository.ListExerciseQuery{}
	if query != nil {
		scoped.FilterOrder = query.FilterOrder
	}
	scoped.PageSize = a.pageSize

	var difficultySum float64
	var gapsSeen int

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scoped.PageNo = page
		items, _, err := a.exercises.List(ctx, &scoped)
		if err != nil {
			return nil, fmt.Errorf("list exercises: %w", err)
		}
		if len(items) == 0 {
			break
		}

		for _, ex := range items {
			result := a.checker.Check(ex)
			report.Checked++
			report.TierCounts[ex.Difficulty]++
			for _, gap := range ex.Gaps {
				report.POSDistribution[gap.POSTag]++
				difficultySum += gap.DifficultyScore
				gapsSeen++
			}

			if result.Valid {
				report.Valid++
			} else {
				report.Invalid++
				a.logger.Warnf("exercise %s (song %d, %s) failed validation: %s",
					ex.ExerciseID, ex.SongID, ex.Difficulty, strings.Join(result.Errors, "; "))
			}
			report.WarningCount += len(result.Warnings)

			if len(result.Errors) > 0 || len(result.Warnings) > 0 {
				report.Findings = append(report.Findings, Finding{
					ExerciseID: ex.ExerciseID,
					SongID:     ex.SongID,
					Difficulty: ex.Difficulty,
					Errors:     result.Errors,
					Warnings:   result.Warnings,
				})
			}
		}

		if len(items) < scoped.PageSize {
			break
		}
	}

	if report.Checked > 0 {
		report.QualityScore = round2(float64(report.Valid) / float64(report.Checked) * 100)
	}
	if gapsSeen > 0 {
		report.AvgDifficulty = round2(difficultySum / float64(gapsSeen))
	}
	return report, nil
}
