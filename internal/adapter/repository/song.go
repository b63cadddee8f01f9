package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const songColumns = "id, title, artist, language, lyrics, created_at, updated_at"

type songRepository struct{ pool *pgxpool.Pool }

// NewSongRepository constructs a pgx-backed song catalog repository.
func NewSongRepository(pool *pgxpool.Pool) repository.SongRepository {
	return &songRepository{pool: pool}
}

func (r *songRepository) Create(ctx context.Context, song *entity.Song) (*entity.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := *song
	s.Normalize(time.Now().UTC())
	row := r.pool.QueryRow(ctx,
		`INSERT INTO songs (title, artist, language, lyrics, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+songColumns,
		s.Title, s.Artist, s.Language.Code(), s.Lyrics, s.CreatedAt, s.UpdatedAt)
	created, err := scanSong(row)
	if err != nil {
		return nil, translateSongError(err)
	}
	return created, nil
}

func (r *songRepository) CreateBatch(ctx context.Context, songs []*entity.Song) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(songs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, song := range songs {
		s := *song
		s.Normalize(now)
		batch.Queue(
			`INSERT INTO songs (title, artist, language, lyrics, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (artist, title, language) DO NOTHING`,
			s.Title, s.Artist, s.Language.Code(), s.Lyrics, s.CreatedAt, s.UpdatedAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for _, song := range songs {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert song %q: %w", song.Title, translateSongError(err))
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (r *songRepository) GetByID(ctx context.Context, id int64) (*entity.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `SELECT `+songColumns+` FROM songs WHERE id = $1`, id)
	song, err := scanSong(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSongNotFound
		}
		return nil, fmt.Errorf("get song: %w", err)
	}
	return song, nil
}

func (r *songRepository) ListForGeneration(ctx context.Context, cursorID int64, limit int, includeProcessed bool) ([]*entity.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// A song is pending while it has fewer exercises than there are tiers.
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.title, s.artist, s.language, s.lyrics, s.created_at, s.updated_at
		 FROM songs s
		 LEFT JOIN exercises e ON e.song_id = s.id
		 WHERE s.id > $1
		 GROUP BY s.id
		 HAVING $3 OR COUNT(e.id) < $4
		 ORDER BY s.id
		 LIMIT $2`,
		cursorID, limit, includeProcessed, len(entity.AllDifficulties))
	if err != nil {
		return nil, fmt.Errorf("list songs for generation: %w", err)
	}
	defer rows.Close()

	songs := make([]*entity.Song, 0, limit)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list songs for generation: %w", err)
	}
	return songs, nil
}

func scanSong(row pgx.Row) (*entity.Song, error) {
	var (
		song     entity.Song
		language string
	)
	if err := row.Scan(&song.ID, &song.Title, &song.Artist, &language, &song.Lyrics, &song.CreatedAt, &song.UpdatedAt); err != nil {
		return nil, err
	}
	song.Language = entity.ParseLanguage(language)
	return &song, nil
}

func translateSongError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return entity.ErrDuplicateSong
	}
	return err
}
