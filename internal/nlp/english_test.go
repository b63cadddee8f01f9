package nlp

import (
	"context"
	"strings"
	"testing"

	"github.com/eslsoft/clozegen/internal/entity"
)

func rejoinTokens(tokens []entity.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
		b.WriteString(tok.Whitespace)
	}
	return b.String()
}

func TestEnglishTokenizeReconstructsText(t *testing.T) {
	tok, err := NewEnglishTokenizer()
	if err != nil {
		t.Fatalf("NewEnglishTokenizer: %v", err)
	}

	text := "Hello darkness my old friend\nI come to talk  with you again\n\nStop."
	tokens, err := tok.Tokenize(context.Background(), text)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := rejoinTokens(tokens); got != text {
		t.Errorf("rejoined text = %q, want %q", got, text)
	}
	for i, tk := range tokens {
		if tk.Position != i {
			t.Fatalf("token %d has position %d", i, tk.Position)
		}
	}
}

func TestEnglishTokenizeMarksLineEnds(t *testing.T) {
	tok, err := NewEnglishTokenizer()
	if err != nil {
		t.Fatalf("NewEnglishTokenizer: %v", err)
	}

	tokens, err := tok.Tokenize(context.Background(), "Hello darkness my old friend\nI come to talk with you again")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(tokens) != 12 {
		t.Fatalf("got %d tokens, want 12: %+v", len(tokens), tokens)
	}
	for i, tk := range tokens {
		want := i == 4 // "friend" closes the first line
		if tk.EndsLine != want {
			t.Errorf("token %d (%q) EndsLine = %v, want %v", i, tk.Text, tk.EndsLine, want)
		}
	}
}

func TestEnglishTokenizeTagsAndLemmas(t *testing.T) {
	tok, err := NewEnglishTokenizer()
	if err != nil {
		t.Fatalf("NewEnglishTokenizer: %v", err)
	}

	tokens, err := tok.Tokenize(context.Background(), "The cats are running in Paris")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	byText := map[string]entity.Token{}
	for _, tk := range tokens {
		byText[tk.Text] = tk
	}

	if got := byText["cats"]; got.POS != entity.POSNoun || got.Lemma != "cat" {
		t.Errorf("cats tagged %s lemma %q, want NOUN/cat", got.POS, got.Lemma)
	}
	if got := byText["running"]; got.POS != entity.POSVerb || got.Lemma != "run" {
		t.Errorf("running tagged %s lemma %q, want VERB/run", got.POS, got.Lemma)
	}
	if got := byText["Paris"]; got.POS != entity.POSProperNoun {
		t.Errorf("Paris tagged %s, want PROPN", got.POS)
	}
	if got := byText["The"]; got.POS == entity.POSNoun || got.POS == entity.POSVerb {
		t.Errorf("The tagged %s, want a non-content tag", got.POS)
	}
}

func TestEnglishTokenizePunctuation(t *testing.T) {
	tok, err := NewEnglishTokenizer()
	if err != nil {
		t.Fatalf("NewEnglishTokenizer: %v", err)
	}

	tokens, err := tok.Tokenize(context.Background(), "Stop.\nGo.")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	var sawPeriod bool
	for _, tk := range tokens {
		if tk.Text == "." {
			sawPeriod = true
			if tk.IsAlpha {
				t.Error("period token marked alphabetic")
			}
			if tk.POS != entity.POSPunct {
				t.Errorf("period tagged %s, want PUNCT", tk.POS)
			}
		}
	}
	if !sawPeriod {
		t.Fatalf("no period token in %+v", tokens)
	}
}

func TestEnglishTokenizeNormalizesCurlyQuotes(t *testing.T) {
	tok, err := NewEnglishTokenizer()
	if err != nil {
		t.Fatalf("NewEnglishTokenizer: %v", err)
	}

	text := "don’t stop believin’\nHold on to that feelin’"
	tokens, err := tok.Tokenize(context.Background(), text)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := quoteNormalizer.Replace(text)
	if got := rejoinTokens(tokens); got != want {
		t.Errorf("rejoined text = %q, want %q", got, want)
	}
}

func TestMapPennTag(t *testing.T) {
	cases := []struct {
		tag  string
		want entity.POSTag
	}{
		{"NN", entity.POSNoun},
		{"NNS", entity.POSNoun},
		{"NNP", entity.POSProperNoun},
		{"NNPS", entity.POSProperNoun},
		{"VB", entity.POSVerb},
		{"VBD", entity.POSVerb},
		{"VBG", entity.POSVerb},
		{"JJ", entity.POSAdjective},
		{"JJR", entity.POSAdjective},
		{"RB", entity.POSAdverb},
		{"PRP", entity.POSPronoun},
		{"PRP$", entity.POSPronoun},
		{"WP", entity.POSPronoun},
		{"CD", entity.POSNumber},
		{".", entity.POSPunct},
		{",", entity.POSPunct},
		{"``", entity.POSPunct},
		{"DT", entity.POSOther},
		{"IN", entity.POSOther},
		{"", entity.POSOther},
	}
	for _, tc := range cases {
		if got := mapPennTag(tc.tag); got != tc.want {
			t.Errorf("mapPennTag(%q) = %s, want %s", tc.tag, got, tc.want)
		}
	}
}
