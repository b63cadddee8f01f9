// Package catalog loads song records from external catalog files into the
// database ahead of exercise generation.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/repository"

	_ "github.com/mattn/go-sqlite3"
)

const _insertBatchSize = 500

// Report tallies one import run. Skipped counts rows whose
// (artist, title, language) key already exists in the catalog; Invalid
// counts source rows dropped because a required field was blank.
type Report struct {
	Read     int
	Inserted int64
	Skipped  int64
	Invalid  int
}

// Importer reads songs from a catalog SQLite file and bulk-inserts them,
// leaving already-known songs untouched.
type Importer struct {
	songs  repository.SongRepository
	logger *logrus.Logger
}

func NewImporter(songs repository.SongRepository, logger *logrus.Logger) *Importer {
	return &Importer{songs: songs, logger: logger}
}

// Import reads the songs(title, artist, language, lyrics) table from the
// SQLite file at path and inserts the rows in batches. Rows without a
// language fall back to defaultLang.
func (i *Importer) Import(ctx context.Context, path string, defaultLang entity.Language) (*Report, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}

	rows, err := db.QueryContext(ctx, `SELECT title, artist, language, lyrics FROM songs`)
	if err != nil {
		return nil, fmt.Errorf("read catalog songs: %w", err)
	}
	defer rows.Close()

	report := &Report{}
	pending := make([]*entity.Song, 0, _insertBatchSize)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		inserted, err := i.songs.CreateBatch(ctx, pending)
		report.Inserted += inserted
		if err != nil {
			return fmt.Errorf("insert songs: %w", err)
		}
		report.Skipped += int64(len(pending)) - inserted
		pending = pending[:0]
		return nil
	}

	for rows.Next() {
		var title, artist, language, lyrics sql.NullString
		if err := rows.Scan(&title, &artist, &language, &lyrics); err != nil {
			return report, fmt.Errorf("scan catalog row: %w", err)
		}
		report.Read++

		song, ok := buildSong(title.String, artist.String, language.String, lyrics.String, defaultLang)
		if !ok {
			report.Invalid++
			i.logger.Debugf("catalog row %d: missing title, artist or lyrics, dropped", report.Read)
			continue
		}
		pending = append(pending, song)
		if len(pending) == _insertBatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return report, fmt.Errorf("read catalog songs: %w", err)
	}
	if err := flush(); err != nil {
		return report, err
	}

	i.logger.Infof("catalog import: read %d rows, inserted %d, skipped %d duplicates, dropped %d invalid",
		report.Read, report.Inserted, report.Skipped, report.Invalid)
	return report, nil
}

func buildSong(title, artist, language, lyrics string, defaultLang entity.Language) (*entity.Song, bool) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title == "" || artist == "" || strings.TrimSpace(lyrics) == "" {
		return nil, false
	}
	lang := entity.ParseLanguage(language)
	if lang == entity.LanguageUnspecified {
		lang = entity.NormalizeLanguage(defaultLang)
	}
	return &entity.Song{
		Title:    title,
		Artist:   artist,
		Language: lang,
		Lyrics:   lyrics,
	}, true
}
