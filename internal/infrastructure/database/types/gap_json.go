package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// GapItem mirrors the JSON structure stored in exercises.gaps
type GapItem struct {
	LineNumber      int     `json:"line_number"`
	WordIndex       int     `json:"word_index"`
	OriginalWord    string  `json:"original_word"`
	Lemma           string  `json:"lemma"`
	POSTag          string  `json:"pos_tag"`
	DifficultyScore float64 `json:"difficulty_score"`
	CharCount       int     `json:"char_count"`
	IsEndOfLine     bool    `json:"is_end_of_line"`
}

type GapItems []GapItem

// Scan implements sql.Scanner
func (g *GapItems) Scan(src any) error {
	if src == nil {
		*g = nil
		return nil
	}
	switch data := src.(type) {
	case []byte:
		if len(data) == 0 {
			*g = nil
			return nil
		}
		return json.Unmarshal(data, g)
	case string:
		if data == "" {
			*g = nil
			return nil
		}
		return json.Unmarshal([]byte(data), g)
	default:
		return fmt.Errorf("GapItems: unsupported src type %T", src)
	}
}

// Value implements driver.Valuer
func (g GapItems) Value() (driver.Value, error) {
	if g == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	return b, nil
}
