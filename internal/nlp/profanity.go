package nlp

import (
	"strings"

	goaway "github.com/TwiN/go-away"
)

// Profanity classifies single words using the go-away wordlists.
type Profanity struct {
	detector *goaway.ProfanityDetector
}

func NewProfanity() *Profanity {
	return &Profanity{detector: goaway.NewProfanityDetector()}
}

func (p *Profanity) IsProfane(word string) bool {
	return p.detector.IsProfane(strings.ToLower(word))
}
