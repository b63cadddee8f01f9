package entity

import "errors"

// Domain errors for songs, exercises and the generation pipeline.
var (
	ErrSongNotFound           = errors.New("song not found")
	ErrDuplicateSong          = errors.New("song already exists")
	ErrInvalidSongLyrics      = errors.New("invalid song lyrics")
	ErrExerciseNotFound       = errors.New("exercise not found")
	ErrInvalidDifficulty      = errors.New("invalid difficulty tier")
	ErrUnsupportedLanguage    = errors.New("unsupported tokenizer language")
	ErrLyricsTooShort         = errors.New("lyrics too short for exercise generation")
	ErrInsufficientCandidates = errors.New("not enough gap candidates to satisfy tier minimum")
)

// IsInsufficientInput reports whether err marks a song whose lyrics cannot
// yield a valid exercise at the requested tier. Such failures are local to
// one (song, difficulty) pair: nothing is written and the batch moves on.
func IsInsufficientInput(err error) bool {
	return errors.Is(err, ErrLyricsTooShort) || errors.Is(err, ErrInsufficientCandidates)
}
