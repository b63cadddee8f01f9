package entity

import (
	"strings"
	"time"
)

// Song is one catalog record whose lyrics feed exercise generation.
type Song struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Language  Language  `json:"language"`
	Lyrics    string    `json:"lyrics"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize trims identifying fields, defaults the language and stamps
// timestamps ahead of a write.
func (s *Song) Normalize(now time.Time) {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Language = NormalizeLanguage(s.Language)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
