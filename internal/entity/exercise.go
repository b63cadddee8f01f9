package entity

import "time"

// GapItem is the persisted record of one blanked word. Word and lemma are
// stored lowercased; LineNumber/WordIndex locate the gap in the source
// lyrics (both 0-based, WordIndex resets at each line).
type GapItem struct {
	LineNumber      int     `json:"line_number"`
	WordIndex       int     `json:"word_index"`
	OriginalWord    string  `json:"original_word"`
	Lemma           string  `json:"lemma"`
	POSTag          POSTag  `json:"pos_tag"`
	DifficultyScore float64 `json:"difficulty_score"`
	CharCount       int     `json:"char_count"`
	IsEndOfLine     bool    `json:"is_end_of_line"`
}

// Exercise is one generated gap-fill exercise. Exactly one row exists per
// (song, difficulty) pair; regeneration replaces the row wholesale and the
// quality validator only ever reads it.
type Exercise struct {
	ID                 int64      `json:"id"`
	ExerciseID         string     `json:"exercise_id"`
	SongID             int64      `json:"song_id"`
	Difficulty         Difficulty `json:"difficulty"`
	Gaps               []GapItem  `json:"gaps"`
	BlankedText        string     `json:"blanked_text"`
	GapCount           int        `json:"gap_count"`
	AvgDifficultyScore float64    `json:"avg_difficulty_score"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
