package cloze

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/eslsoft/clozegen/internal/entity"

	"github.com/google/uuid"
)

// Lyrics shorter than this never carry enough gap material for any tier.
const _minLyricsLength = 100

// Builder orchestrates tokenization, candidate extraction, gap selection
// and rendering for one (song, difficulty) pair. It never emits a partial
// exercise: a build either returns a complete record or an error.
type Builder struct {
	registry  TokenizerRegistry
	extractor *Extractor

	clock func() time.Time
	newID func() string
}

func NewBuilder(registry TokenizerRegistry, oracle FrequencyOracle, profanity ProfanityClassifier) *Builder {
	return &Builder{
		registry:  registry,
		extractor: NewExtractor(oracle, profanity),
		clock:     time.Now,
		newID:     uuid.NewString,
	}
}

// Build generates the exercise for song at the given tier. Lyrics under 100
// characters fail with entity.ErrLyricsTooShort and a selection below the
// tier floor fails with entity.ErrInsufficientCandidates; both leave no
// trace. Tokenizer failures propagate wrapped.
func (b *Builder) Build(ctx context.Context, song *entity.Song, difficulty entity.Difficulty) (*entity.Exercise, error) {
	cfg, err := entity.ConfigForDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(song.Lyrics) < _minLyricsLength {
		return nil, fmt.Errorf("song %d: %w", song.ID, entity.ErrLyricsTooShort)
	}

	lang := entity.NormalizeLanguage(song.Language)
	tokenizer, err := b.registry.Tokenizer(lang)
	if err != nil {
		return nil, fmt.Errorf("resolve tokenizer for %q: %w", lang, err)
	}
	tokens, err := tokenizer.Tokenize(ctx, song.Lyrics)
	if err != nil {
		return nil, fmt.Errorf("tokenize song %d: %w", song.ID, err)
	}

	candidates := b.extractor.Extract(tokens, lang, cfg.MinZipf, cfg.PreferProperNouns)
	selected := SelectGaps(candidates, len(tokens), cfg.MinGaps, cfg.MaxGaps, cfg.PreferProperNouns)
	if len(selected) < cfg.MinGaps {
		return nil, fmt.Errorf("song %d tier %s: selected %d of %d required gaps: %w",
			song.ID, difficulty, len(selected), cfg.MinGaps, entity.ErrInsufficientCandidates)
	}

	positions := make(map[int]struct{}, len(selected))
	gaps := make([]entity.GapItem, 0, len(selected))
	var sum float64
	for _, cand := range selected {
		positions[cand.Position] = struct{}{}
		sum += cand.Difficulty
		gaps = append(gaps, entity.GapItem{
			LineNumber:      cand.LineNumber,
			WordIndex:       cand.WordIndexInLine,
			OriginalWord:    strings.ToLower(cand.Word),
			Lemma:           strings.ToLower(cand.Lemma),
			POSTag:          cand.POS,
			DifficultyScore: cand.Difficulty,
			CharCount:       cand.CharCount,
			IsEndOfLine:     cand.IsEndOfLine,
		})
	}

	now := b.clock()
	return &entity.Exercise{
		ExerciseID:         b.newID(),
		SongID:             song.ID,
		Difficulty:         difficulty,
		Gaps:               gaps,
		BlankedText:        Render(tokens, positions),
		GapCount:           len(gaps),
		AvgDifficultyScore: round2(sum / float64(len(gaps))),
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}
