package cloze

import (
	"strings"

	"github.com/eslsoft/clozegen/internal/entity"
)

// GapMarker is the placeholder substituted for each selected token.
const GapMarker = "___"

// Render produces the blanked lyrics. Tokens at selected positions are
// replaced by GapMarker with their trailing whitespace dropped; all other
// tokens are emitted exactly as tokenized. The dropped whitespace matches
// every blanked_text persisted so far, so changing it would invalidate the
// stored corpus.
func Render(tokens []entity.Token, selected map[int]struct{}) string {
	var b strings.Builder
	for _, tok := range tokens {
		if _, ok := selected[tok.Position]; ok {
			b.WriteString(GapMarker)
			continue
		}
		b.WriteString(tok.Text)
		b.WriteString(tok.Whitespace)
	}
	return b.String()
}
