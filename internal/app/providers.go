package app

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/eslsoft/clozegen/internal/infrastructure/config"
	"github.com/eslsoft/clozegen/internal/nlp"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/eslsoft/clozegen/internal/usecase/batch"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"
)

// provideFrequencyTable loads the bundled Zipf table and merges any extra
// tables configured under nlp.freq_dir.
func provideFrequencyTable(cfg *config.Config) (*nlp.FrequencyTable, error) {
	table, err := nlp.NewFrequencyTable()
	if err != nil {
		return nil, err
	}
	if cfg.NLP.FreqDir != "" {
		if err := table.LoadDir(cfg.NLP.FreqDir); err != nil {
			return nil, fmt.Errorf("load frequency tables from %s: %w", cfg.NLP.FreqDir, err)
		}
	}
	return table, nil
}

// provideRunner applies the generate.* config to the batch runner.
func provideRunner(
	songs repository.SongRepository,
	exercises repository.ExerciseRepository,
	builder *cloze.Builder,
	logger *logrus.Logger,
	cfg *config.Config,
) *batch.Runner {
	return batch.NewRunner(songs, exercises, builder, logger,
		batch.WithWorkers(cfg.Generate.Workers),
		batch.WithPageSize(cfg.Generate.PageSize),
		batch.WithProgressReporter(&batchProgress{logger: logger}),
	)
}

// batchProgress logs generation progress every few songs so long runs stay
// observable without flooding the log.
type batchProgress struct {
	logger *logrus.Logger
	done   atomic.Int64
}

func (p *batchProgress) Start() {
	p.logger.Info("exercise generation started")
}

func (p *batchProgress) Increment(songID int64) {
	n := p.done.Add(1)
	if n%25 == 0 {
		p.logger.Infof("processed %d songs (last song id %d)", n, songID)
	}
}

func (p *batchProgress) Finish(summary batch.Summary) {
	p.logger.Infof("generation finished: %d songs, %d exercises created, %d tiers skipped, %d tiers failed",
		summary.SongsProcessed, summary.ExercisesCreated, summary.TiersSkipped, summary.TiersFailed)
}
