package repository

import (
	"context"

	"github.com/eslsoft/clozegen/internal/entity"
)

// SongRepository defines data access for the song catalog.
type SongRepository interface {
	Create(ctx context.Context, song *entity.Song) (*entity.Song, error)
	// CreateBatch inserts songs, skipping rows that collide with an
	// existing (artist, title, language) key. Returns the inserted count.
	CreateBatch(ctx context.Context, songs []*entity.Song) (int64, error)
	GetByID(ctx context.Context, id int64) (*entity.Song, error)
	// ListForGeneration pages songs with id > cursorID in id order. With
	// includeProcessed false only songs still missing an exercise for at
	// least one difficulty tier are returned.
	ListForGeneration(ctx context.Context, cursorID int64, limit int, includeProcessed bool) ([]*entity.Song, error)
}
