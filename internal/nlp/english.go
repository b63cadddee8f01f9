package nlp

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/eslsoft/clozegen/internal/entity"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/jdkato/prose/v2"
)

// quoteNormalizer mirrors the replacements the prose tokenizer applies to
// its input, so tagged surfaces stay aligned with the text we scan for
// whitespace recovery.
var quoteNormalizer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"&rsquo;", "'",
)

// EnglishTokenizer tags lyrics with the prose perceptron tagger and attaches
// dictionary lemmas from golem.
type EnglishTokenizer struct {
	lemmatizer *golem.Lemmatizer
}

func NewEnglishTokenizer() (*EnglishTokenizer, error) {
	lemmatizer, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("load english lemma dictionary: %w", err)
	}
	return &EnglishTokenizer{lemmatizer: lemmatizer}, nil
}

// Tokenize tags the full lyrics in one pass and recovers each token's exact
// trailing whitespace by aligning tagged surfaces against the source text.
// A token whose trailing whitespace crosses a line break is marked EndsLine.
// Leading whitespace before the first token is not preserved; lyrics are
// trimmed on the write path.
func (e *EnglishTokenizer) Tokenize(_ context.Context, text string) ([]entity.Token, error) {
	normalized := quoteNormalizer.Replace(text)
	doc, err := prose.NewDocument(normalized, prose.WithExtraction(false), prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("tag lyrics: %w", err)
	}

	proseTokens := doc.Tokens()
	out := make([]entity.Token, 0, len(proseTokens))
	cursor := 0
	for _, pt := range proseTokens {
		rel := strings.Index(normalized[cursor:], pt.Text)
		if rel < 0 {
			return nil, fmt.Errorf("align token %q against lyrics", pt.Text)
		}
		start := cursor + rel
		if len(out) > 0 {
			gap := normalized[cursor:start]
			out[len(out)-1].Whitespace = gap
			out[len(out)-1].EndsLine = strings.Contains(gap, "\n")
		}
		out = append(out, entity.Token{
			Position: len(out),
			Text:     pt.Text,
			IsAlpha:  isAlphaText(pt.Text),
			POS:      mapPennTag(pt.Tag),
			Lemma:    strings.ToLower(e.lemmatizer.Lemma(pt.Text)),
		})
		cursor = start + len(pt.Text)
	}
	if len(out) > 0 {
		gap := normalized[cursor:]
		out[len(out)-1].Whitespace = gap
		out[len(out)-1].EndsLine = strings.Contains(gap, "\n")
	}
	return out, nil
}

// mapPennTag folds Penn Treebank tags into the coarse tag set gaps are
// selected on. Proper nouns must be checked before the NN prefix.
func mapPennTag(tag string) entity.POSTag {
	switch {
	case strings.HasPrefix(tag, "NNP"):
		return entity.POSProperNoun
	case strings.HasPrefix(tag, "NN"):
		return entity.POSNoun
	case strings.HasPrefix(tag, "VB"):
		return entity.POSVerb
	case strings.HasPrefix(tag, "JJ"):
		return entity.POSAdjective
	case strings.HasPrefix(tag, "RB"):
		return entity.POSAdverb
	case strings.HasPrefix(tag, "PRP") || tag == "WP" || tag == "WP$":
		return entity.POSPronoun
	case tag == "CD":
		return entity.POSNumber
	case isPunctTag(tag):
		return entity.POSPunct
	default:
		return entity.POSOther
	}
}

// Penn punctuation tags carry no letters (".", ",", ":", "``", "$", ...).
func isPunctTag(tag string) bool {
	if tag == "" {
		return false
	}
	for _, r := range tag {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isAlphaText(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
