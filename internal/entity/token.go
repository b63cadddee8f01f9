package entity

// POSTag is the coarse part-of-speech tagset shared by the tokenizer
// collaborators and the gap-fill engine. Tokenizer adapters map their
// native tagsets onto these values.
type POSTag string

const (
	POSNoun       POSTag = "NOUN"
	POSVerb       POSTag = "VERB"
	POSAdjective  POSTag = "ADJ"
	POSProperNoun POSTag = "PROPN"
	POSAdverb     POSTag = "ADV"
	POSPronoun    POSTag = "PRON"
	POSNumber     POSTag = "NUM"
	POSPunct      POSTag = "PUNCT"
	POSOther      POSTag = "X"
)

// Token is one unit of tokenizer output. Position is the 0-based index in
// the token stream. Whitespace carries the text between this token and the
// next exactly as it appeared in the source so that renderers can reproduce
// the original formatting; EndsLine marks tokens immediately followed by a
// line break.
type Token struct {
	Position   int
	Text       string
	Whitespace string
	IsAlpha    bool
	POS        POSTag
	Lemma      string
	EndsLine   bool
}
