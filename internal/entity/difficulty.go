package entity

import "strings"

// Difficulty identifies one gap-fill exercise tier.
type Difficulty string

const (
	DifficultyUnspecified Difficulty = ""
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyHard        Difficulty = "hard"
)

// AllDifficulties lists the tiers in generation order.
var AllDifficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d names a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// ParseDifficulty converts an arbitrary string into a supported Difficulty value.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "medium":
		return DifficultyMedium
	case "hard":
		return DifficultyHard
	default:
		return DifficultyUnspecified
	}
}

// DifficultyConfig bounds gap selection for one tier. MinZipf is a word
// frequency floor on the 0-8 Zipf scale and is not enforced for proper
// nouns when PreferProperNouns is set.
type DifficultyConfig struct {
	MinGaps           int
	MaxGaps           int
	PreferProperNouns bool
	MinZipf           float64
}

// ConfigForDifficulty returns the fixed selection bounds for a tier:
// easy picks 8-10 common words (zipf >= 5) and favors proper nouns,
// medium picks 12-15 mid-frequency words (zipf >= 3), hard picks 15-20
// words with no frequency floor.
func ConfigForDifficulty(d Difficulty) (DifficultyConfig, error) {
	switch d {
	case DifficultyEasy:
		return DifficultyConfig{MinGaps: 8, MaxGaps: 10, PreferProperNouns: true, MinZipf: 5.0}, nil
	case DifficultyMedium:
		return DifficultyConfig{MinGaps: 12, MaxGaps: 15, MinZipf: 3.0}, nil
	case DifficultyHard:
		return DifficultyConfig{MinGaps: 15, MaxGaps: 20}, nil
	default:
		return DifficultyConfig{}, ErrInvalidDifficulty
	}
}
