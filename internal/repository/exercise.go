package repository

import (
	"context"

	"github.com/eslsoft/clozegen/internal/entity"
)

type ListExerciseQuery struct {
	Pagination
	FilterOrder
}

// ExerciseRepository defines data access for generated exercises. One row
// exists per (song_id, difficulty); Upsert replaces it wholesale.
type ExerciseRepository interface {
	Upsert(ctx context.Context, exercise *entity.Exercise) (*entity.Exercise, error)
	GetByKey(ctx context.Context, songID int64, difficulty entity.Difficulty) (*entity.Exercise, error)
	List(ctx context.Context, query *ListExerciseQuery) ([]*entity.Exercise, int64, error)
}
