package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/infrastructure/database/types"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/eslsoft/clozegen/pkg/filterexpr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

const exerciseColumns = "id, exercise_id, song_id, difficulty, gaps, blanked_text, gap_count, avg_difficulty_score, created_at, updated_at"

type exerciseRepository struct{ pool *pgxpool.Pool }

// NewExerciseRepository constructs a pgx-backed exercise repository.
func NewExerciseRepository(pool *pgxpool.Pool) repository.ExerciseRepository {
	return &exerciseRepository{pool: pool}
}

func (r *exerciseRepository) Upsert(ctx context.Context, exercise *entity.Exercise) (*entity.Exercise, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	createdAt, updatedAt := exercise.CreatedAt, exercise.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO exercises (exercise_id, song_id, difficulty, gaps, blanked_text, gap_count, avg_difficulty_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (song_id, difficulty) DO UPDATE SET
			exercise_id = EXCLUDED.exercise_id,
			gaps = EXCLUDED.gaps,
			blanked_text = EXCLUDED.blanked_text,
			gap_count = EXCLUDED.gap_count,
			avg_difficulty_score = EXCLUDED.avg_difficulty_score,
			updated_at = EXCLUDED.updated_at
		 RETURNING `+exerciseColumns,
		exercise.ExerciseID,
		exercise.SongID,
		string(exercise.Difficulty),
		toDBGaps(exercise.Gaps),
		exercise.BlankedText,
		exercise.GapCount,
		exercise.AvgDifficultyScore,
		createdAt,
		updatedAt)
	stored, err := scanExercise(row)
	if err != nil {
		return nil, translateExerciseError(err)
	}
	return stored, nil
}

func (r *exerciseRepository) GetByKey(ctx context.Context, songID int64, difficulty entity.Difficulty) (*entity.Exercise, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE song_id = $1 AND difficulty = $2`,
		songID, string(difficulty))
	exercise, err := scanExercise(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrExerciseNotFound
		}
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	return exercise, nil
}

type listExercisesParams struct {
	filterexpr.OrderBy

	Difficulty    string
	Difficulties  []string
	SongID        int64
	MinGapCount   int32
	MaxGapCount   int32
	MinAvgScore   float64
	MaxAvgScore   float64
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

func (r *exerciseRepository) List(ctx context.Context, query *repository.ListExerciseQuery) ([]*entity.Exercise, int64, error) {
	var p listExercisesParams
	if err := filterexpr.Bind(query, &p, listExercisesSchema); err != nil {
		return nil, 0, err
	}

	var (
		conds []string
		args  []any
	)
	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}
	if p.Difficulty != "" {
		add("difficulty = $%d", p.Difficulty)
	}
	if len(p.Difficulties) > 0 {
		add("difficulty = ANY($%d)", p.Difficulties)
	}
	if p.SongID > 0 {
		add("song_id = $%d", p.SongID)
	}
	if p.MinGapCount > 0 {
		add("gap_count >= $%d", p.MinGapCount)
	}
	if p.MaxGapCount > 0 {
		add("gap_count <= $%d", p.MaxGapCount)
	}
	if p.MinAvgScore > 0 {
		add("avg_difficulty_score >= $%d", p.MinAvgScore)
	}
	if p.MaxAvgScore > 0 {
		add("avg_difficulty_score <= $%d", p.MaxAvgScore)
	}
	if !p.CreatedAfter.IsZero() {
		add("created_at >= $%d", p.CreatedAfter)
	}
	if !p.CreatedBefore.IsZero() {
		add("created_at <= $%d", p.CreatedBefore)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	orderBy, err := p.Clause(listExercisesSchema.Order)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM exercises"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count exercises: %w", err)
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM exercises%s ORDER BY %s LIMIT $%d OFFSET $%d",
		exerciseColumns, where, orderBy, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, sqlQuery, append(args, query.PageSize, query.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	exercises := make([]*entity.Exercise, 0, query.PageSize)
	for rows.Next() {
		exercise, err := scanExercise(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, total, nil
}

func scanExercise(row pgx.Row) (*entity.Exercise, error) {
	var (
		exercise   entity.Exercise
		difficulty string
		gaps       types.GapItems
	)
	if err := row.Scan(
		&exercise.ID,
		&exercise.ExerciseID,
		&exercise.SongID,
		&difficulty,
		&gaps,
		&exercise.BlankedText,
		&exercise.GapCount,
		&exercise.AvgDifficultyScore,
		&exercise.CreatedAt,
		&exercise.UpdatedAt,
	); err != nil {
		return nil, err
	}
	exercise.Difficulty = entity.ParseDifficulty(difficulty)
	exercise.Gaps = fromDBGaps(gaps)
	return &exercise, nil
}

func toDBGaps(gaps []entity.GapItem) types.GapItems {
	return lo.Map(gaps, func(gap entity.GapItem, _ int) types.GapItem {
		return types.GapItem{
			LineNumber:      gap.LineNumber,
			WordIndex:       gap.WordIndex,
			OriginalWord:    gap.OriginalWord,
			Lemma:           gap.Lemma,
			POSTag:          string(gap.POSTag),
			DifficultyScore: gap.DifficultyScore,
			CharCount:       gap.CharCount,
			IsEndOfLine:     gap.IsEndOfLine,
		}
	})
}

func fromDBGaps(gaps types.GapItems) []entity.GapItem {
	return lo.Map(gaps, func(item types.GapItem, _ int) entity.GapItem {
		return entity.GapItem{
			LineNumber:      item.LineNumber,
			WordIndex:       item.WordIndex,
			OriginalWord:    item.OriginalWord,
			Lemma:           item.Lemma,
			POSTag:          entity.POSTag(item.POSTag),
			DifficultyScore: item.DifficultyScore,
			CharCount:       item.CharCount,
			IsEndOfLine:     item.IsEndOfLine,
		}
	})
}

func translateExerciseError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return entity.ErrSongNotFound
	}
	return err
}
