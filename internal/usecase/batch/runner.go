// Package batch drives exercise generation across the song catalog.
package batch

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	_defaultWorkers       = 4
	_defaultBatchPageSize = 100
)

// ProgressReporter receives batch lifecycle callbacks. Increment may be
// called concurrently from worker goroutines.
type ProgressReporter interface {
	Start()
	Increment(songID int64)
	Finish(summary Summary)
}

type noopProgress struct{}

func (noopProgress) Start()          {}
func (noopProgress) Increment(int64) {}
func (noopProgress) Finish(Summary)  {}

// Summary tallies one batch run. A tier is skipped when the song cannot
// support it (too short, too few candidates) and failed when a collaborator
// or the store errored.
type Summary struct {
	SongsProcessed   int64
	ExercisesCreated int64
	TiersSkipped     int64
	TiersFailed      int64
}

// Options scope a batch run.
type Options struct {
	// SongID limits the run to a single song when set.
	SongID int64
	// Difficulties defaults to every tier.
	Difficulties []entity.Difficulty
	// IncludeProcessed regenerates songs that already have exercises.
	IncludeProcessed bool
}

type Option func(*Runner)

// WithWorkers caps the number of songs generated concurrently.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithPageSize overrides how many pending songs are pulled per catalog read.
func WithPageSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.pageSize = size
		}
	}
}

// WithProgressReporter registers a reporter for batch progress callbacks.
func WithProgressReporter(reporter ProgressReporter) Option {
	return func(r *Runner) {
		if reporter != nil {
			r.reporter = reporter
		}
	}
}

// Runner generates exercises for pending songs with one worker per song.
// Per-tier failures are counted and logged, never fatal; only context
// cancellation stops a run early.
type Runner struct {
	songs     repository.SongRepository
	exercises repository.ExerciseRepository
	builder   *cloze.Builder
	logger    *logrus.Logger
	reporter  ProgressReporter
	workers   int
	pageSize  int
}

func NewRunner(songs repository.SongRepository, exercises repository.ExerciseRepository, builder *cloze.Builder, logger *logrus.Logger, opts ...Option) *Runner {
	r := &Runner{
		songs:     songs,
		exercises: exercises,
		builder:   builder,
		logger:    logger,
		reporter:  noopProgress{},
		workers:   _defaultWorkers,
		pageSize:  _defaultBatchPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type tally struct {
	processed atomic.Int64
	created   atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

func (t *tally) summary() Summary {
	return Summary{
		SongsProcessed:   t.processed.Load(),
		ExercisesCreated: t.created.Load(),
		TiersSkipped:     t.skipped.Load(),
		TiersFailed:      t.failed.Load(),
	}
}

// Run generates exercises for every pending song (or the one in opts.SongID)
// across the requested tiers and returns the tallied summary.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	tiers := opts.Difficulties
	if len(tiers) == 0 {
		tiers = entity.AllDifficulties
	}
	for _, tier := range tiers {
		if !tier.Valid() {
			return nil, fmt.Errorf("%w: %q", entity.ErrInvalidDifficulty, tier)
		}
	}

	r.reporter.Start()
	var t tally

	if opts.SongID > 0 {
		song, err := r.songs.GetByID(ctx, opts.SongID)
		if err != nil {
			return nil, fmt.Errorf("load song %d: %w", opts.SongID, err)
		}
		r.processSong(ctx, song, tiers, &t)
		summary := t.summary()
		r.reporter.Finish(summary)
		return &summary, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var cursor int64
paging:
	for {
		if err := ctx.Err(); err != nil {
			break
		}
		songs, err := r.songs.ListForGeneration(ctx, cursor, r.pageSize, opts.IncludeProcessed)
		if err != nil {
			_ = g.Wait()
			return nil, fmt.Errorf("list pending songs: %w", err)
		}
		if len(songs) == 0 {
			break
		}
		cursor = songs[len(songs)-1].ID
		for _, song := range songs {
			if gctx.Err() != nil {
				break paging
			}
			g.Go(func() error {
				// A song in flight finishes all its tiers; cancellation
				// takes effect between songs.
				r.processSong(context.WithoutCancel(gctx), song, tiers, &t)
				return nil
			})
		}
		if len(songs) < r.pageSize {
			break
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summary := t.summary()
	r.reporter.Finish(summary)
	return &summary, nil
}

func (r *Runner) processSong(ctx context.Context, song *entity.Song, tiers []entity.Difficulty, t *tally) {
	for _, tier := range tiers {
		exercise, err := r.builder.Build(ctx, song, tier)
		if err != nil {
			if entity.IsInsufficientInput(err) {
				t.skipped.Add(1)
				r.logger.Debugf("song %d: skipping %s tier: %v", song.ID, tier, err)
				continue
			}
			t.failed.Add(1)
			r.logger.Errorf("song %d: generate %s exercise: %v", song.ID, tier, err)
			continue
		}
		if _, err := r.exercises.Upsert(ctx, exercise); err != nil {
			t.failed.Add(1)
			r.logger.Errorf("song %d: store %s exercise: %v", song.ID, tier, err)
			continue
		}
		t.created.Add(1)
	}
	t.processed.Add(1)
	r.reporter.Increment(song.ID)
}
