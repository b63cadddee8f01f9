package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/eslsoft/clozegen/internal/entity"
	"github.com/eslsoft/clozegen/internal/repository"
	"github.com/eslsoft/clozegen/internal/usecase/cloze"

	"github.com/sirupsen/logrus"
)

type splitTokenizer struct{}

func (splitTokenizer) Tokenize(_ context.Context, text string) ([]entity.Token, error) {
	fields := strings.Fields(text)
	tokens := make([]entity.Token, len(fields))
	for i, field := range fields {
		whitespace := " "
		if i == len(fields)-1 {
			whitespace = ""
		}
		tokens[i] = entity.Token{
			Position:   i,
			Text:       field,
			Whitespace: whitespace,
			IsAlpha:    isAlphaWord(field),
			POS:        entity.POSNoun,
			Lemma:      strings.ToLower(field),
			EndsLine:   i == len(fields)-1,
		}
	}
	return tokens, nil
}

type failingTokenizer struct{ err error }

func (f failingTokenizer) Tokenize(context.Context, string) ([]entity.Token, error) {
	return nil, f.err
}

type fakeRegistry struct {
	tokenizers map[entity.Language]cloze.Tokenizer
}

func (f fakeRegistry) Tokenizer(lang entity.Language) (cloze.Tokenizer, error) {
	tok, ok := f.tokenizers[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedLanguage, lang)
	}
	return tok, nil
}

type constOracle float64

func (c constOracle) Zipf(string, entity.Language) float64 { return float64(c) }

type noProfanity struct{}

func (noProfanity) IsProfane(string) bool { return false }

func isAlphaWord(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(word) > 0
}

type fakeSongRepo struct {
	mu        sync.RWMutex
	songs     []*entity.Song
	processed map[int64]bool
	listErr   error
}

func (f *fakeSongRepo) Create(_ context.Context, song *entity.Song) (*entity.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	song.ID = int64(len(f.songs) + 1)
	f.songs = append(f.songs, song)
	return song, nil
}

func (f *fakeSongRepo) CreateBatch(_ context.Context, songs []*entity.Song) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, song := range songs {
		song.ID = int64(len(f.songs) + 1)
		f.songs = append(f.songs, song)
	}
	return int64(len(songs)), nil
}

func (f *fakeSongRepo) GetByID(_ context.Context, id int64) (*entity.Song, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, song := range f.songs {
		if song.ID == id {
			return song, nil
		}
	}
	return nil, entity.ErrSongNotFound
}

func (f *fakeSongRepo) ListForGeneration(_ context.Context, cursorID int64, limit int, includeProcessed bool) ([]*entity.Song, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*entity.Song
	for _, song := range f.songs {
		if song.ID <= cursorID {
			continue
		}
		if !includeProcessed && f.processed[song.ID] {
			continue
		}
		out = append(out, song)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeExerciseStore struct {
	mu        sync.RWMutex
	items     map[string]*entity.Exercise
	upsertErr error
}

func newFakeExerciseStore() *fakeExerciseStore {
	return &fakeExerciseStore{items: make(map[string]*entity.Exercise)}
}

func storeKey(songID int64, difficulty entity.Difficulty) string {
	return fmt.Sprintf("%d/%s", songID, difficulty)
}

func (f *fakeExerciseStore) Upsert(_ context.Context, exercise *entity.Exercise) (*entity.Exercise, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[storeKey(exercise.SongID, exercise.Difficulty)] = exercise
	return exercise, nil
}

func (f *fakeExerciseStore) GetByKey(_ context.Context, songID int64, difficulty entity.Difficulty) (*entity.Exercise, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if ex, ok := f.items[storeKey(songID, difficulty)]; ok {
		return ex, nil
	}
	return nil, entity.ErrExerciseNotFound
}

func (f *fakeExerciseStore) List(_ context.Context, _ *repository.ListExerciseQuery) ([]*entity.Exercise, int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*entity.Exercise, 0, len(f.items))
	for _, ex := range f.items {
		out = append(out, ex)
	}
	return out, int64(len(out)), nil
}

func (f *fakeExerciseStore) len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

type countingReporter struct {
	mu      sync.Mutex
	starts  int
	songIDs []int64
	final   *Summary
}

func (c *countingReporter) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
}

func (c *countingReporter) Increment(songID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songIDs = append(c.songIDs, songID)
}

func (c *countingReporter) Finish(s Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.final = &s
}

func songWithWords(id int64, words int) *entity.Song {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%c%c", 'a'+(i/26)%26, 'a'+i%26)
	}
	return &entity.Song{
		ID:       id,
		Title:    fmt.Sprintf("Song %d", id),
		Artist:   "Test Artist",
		Language: entity.LanguageEnglish,
		Lyrics:   strings.Join(parts, " "),
	}
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestRunner(songs *fakeSongRepo, store *fakeExerciseStore, oracle cloze.FrequencyOracle, opts ...Option) *Runner {
	registry := fakeRegistry{tokenizers: map[entity.Language]cloze.Tokenizer{
		entity.LanguageEnglish: splitTokenizer{},
	}}
	builder := cloze.NewBuilder(registry, oracle, noProfanity{})
	return NewRunner(songs, store, builder, discardLogger(), opts...)
}

func TestRunGeneratesAllTiersForPendingSongs(t *testing.T) {
	songs := &fakeSongRepo{}
	for i := int64(1); i <= 5; i++ {
		songs.songs = append(songs.songs, songWithWords(i, 150))
	}
	store := newFakeExerciseStore()
	reporter := &countingReporter{}

	runner := newTestRunner(songs, store, constOracle(5.5),
		WithWorkers(2), WithPageSize(2), WithProgressReporter(reporter))

	summary, err := runner.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	want := Summary{SongsProcessed: 5, ExercisesCreated: 15}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}
	if store.len() != 15 {
		t.Errorf("stored %d exercises, want 15", store.len())
	}
	for i := int64(1); i <= 5; i++ {
		for _, tier := range entity.AllDifficulties {
			ex, err := store.GetByKey(context.Background(), i, tier)
			if err != nil {
				t.Fatalf("missing exercise for song %d tier %s", i, tier)
			}
			if ex.SongID != i || ex.Difficulty != tier {
				t.Errorf("exercise keyed (%d,%s) carries (%d,%s)", i, tier, ex.SongID, ex.Difficulty)
			}
		}
	}

	if reporter.starts != 1 {
		t.Errorf("reporter.Start called %d times, want 1", reporter.starts)
	}
	if len(reporter.songIDs) != 5 {
		t.Errorf("reporter saw %d songs, want 5", len(reporter.songIDs))
	}
	if reporter.final == nil || *reporter.final != want {
		t.Errorf("reporter final summary = %+v, want %+v", reporter.final, want)
	}
}

func TestRunSkipsProcessedSongsByDefault(t *testing.T) {
	songs := &fakeSongRepo{processed: map[int64]bool{2: true}}
	for i := int64(1); i <= 3; i++ {
		songs.songs = append(songs.songs, songWithWords(i, 150))
	}
	store := newFakeExerciseStore()

	summary, err := newTestRunner(songs, store, constOracle(5.5)).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.SongsProcessed != 2 {
		t.Errorf("SongsProcessed = %d, want 2", summary.SongsProcessed)
	}
	if _, err := store.GetByKey(context.Background(), 2, entity.DifficultyEasy); !errors.Is(err, entity.ErrExerciseNotFound) {
		t.Error("song 2 should not have been regenerated")
	}
}

func TestRunIncludeProcessedRegeneratesEverything(t *testing.T) {
	songs := &fakeSongRepo{processed: map[int64]bool{1: true, 2: true, 3: true}}
	for i := int64(1); i <= 3; i++ {
		songs.songs = append(songs.songs, songWithWords(i, 150))
	}
	store := newFakeExerciseStore()

	summary, err := newTestRunner(songs, store, constOracle(5.5)).Run(context.Background(), Options{IncludeProcessed: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.SongsProcessed != 3 || summary.ExercisesCreated != 9 {
		t.Errorf("summary = %+v, want 3 songs and 9 exercises", *summary)
	}
}

func TestRunCountsInsufficientTiersAsSkipped(t *testing.T) {
	songs := &fakeSongRepo{songs: []*entity.Song{songWithWords(1, 150), songWithWords(2, 150)}}
	store := newFakeExerciseStore()

	// Every word sits below the easy tier's frequency floor, so the easy
	// tier yields no candidates while medium and hard still succeed.
	summary, err := newTestRunner(songs, store, constOracle(4.0)).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := Summary{SongsProcessed: 2, ExercisesCreated: 4, TiersSkipped: 2}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}
}

func TestRunSkipsShortLyricsEntirely(t *testing.T) {
	songs := &fakeSongRepo{songs: []*entity.Song{songWithWords(1, 10)}}
	store := newFakeExerciseStore()

	summary, err := newTestRunner(songs, store, constOracle(5.5)).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := Summary{SongsProcessed: 1, TiersSkipped: 3}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}
	if store.len() != 0 {
		t.Errorf("short song produced %d exercises, want 0", store.len())
	}
}

func TestRunCountsStoreFailures(t *testing.T) {
	songs := &fakeSongRepo{songs: []*entity.Song{songWithWords(1, 150)}}
	store := newFakeExerciseStore()
	store.upsertErr = errors.New("connection reset")

	summary, err := newTestRunner(songs, store, constOracle(5.5)).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("store failures must not abort the batch, got %v", err)
	}
	want := Summary{SongsProcessed: 1, TiersFailed: 3}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}
}

func TestRunCountsTokenizerFailures(t *testing.T) {
	songs := &fakeSongRepo{songs: []*entity.Song{songWithWords(1, 150)}}
	store := newFakeExerciseStore()

	registry := fakeRegistry{tokenizers: map[entity.Language]cloze.Tokenizer{
		entity.LanguageEnglish: failingTokenizer{err: errors.New("model not loaded")},
	}}
	builder := cloze.NewBuilder(registry, constOracle(5.5), noProfanity{})
	runner := NewRunner(songs, store, builder, discardLogger())

	summary, err := runner.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("collaborator failures must not abort the batch, got %v", err)
	}
	want := Summary{SongsProcessed: 1, TiersFailed: 3}
	if *summary != want {
		t.Errorf("summary = %+v, want %+v", *summary, want)
	}
}

func TestRunSingleSong(t *testing.T) {
	songs := &fakeSongRepo{}
	for i := int64(1); i <= 3; i++ {
		songs.songs = append(songs.songs, songWithWords(i, 150))
	}
	store := newFakeExerciseStore()

	summary, err := newTestRunner(songs, store, constOracle(5.5)).Run(context.Background(), Options{SongID: 2})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.SongsProcessed != 1 || summary.ExercisesCreated != 3 {
		t.Errorf("summary = %+v, want 1 song and 3 exercises", *summary)
	}
	if _, err := store.GetByKey(context.Background(), 1, entity.DifficultyEasy); !errors.Is(err, entity.ErrExerciseNotFound) {
		t.Error("song 1 should not have been processed in single-song mode")
	}
}

func TestRunSingleSongNotFound(t *testing.T) {
	runner := newTestRunner(&fakeSongRepo{}, newFakeExerciseStore(), constOracle(5.5))

	_, err := runner.Run(context.Background(), Options{SongID: 404})
	if !errors.Is(err, entity.ErrSongNotFound) {
		t.Fatalf("err = %v, want ErrSongNotFound", err)
	}
}

func TestRunRejectsUnknownTier(t *testing.T) {
	runner := newTestRunner(&fakeSongRepo{}, newFakeExerciseStore(), constOracle(5.5))

	_, err := runner.Run(context.Background(), Options{Difficulties: []entity.Difficulty{"brutal"}})
	if !errors.Is(err, entity.ErrInvalidDifficulty) {
		t.Fatalf("err = %v, want ErrInvalidDifficulty", err)
	}
}

func TestRunPropagatesCatalogReadFailure(t *testing.T) {
	songs := &fakeSongRepo{listErr: errors.New("relation does not exist")}
	runner := newTestRunner(songs, newFakeExerciseStore(), constOracle(5.5))

	if _, err := runner.Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected catalog read failure to abort the run")
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	songs := &fakeSongRepo{songs: []*entity.Song{songWithWords(1, 150)}}
	runner := newTestRunner(songs, newFakeExerciseStore(), constOracle(5.5))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
