package nlp

import (
	"context"
	"testing"

	"github.com/eslsoft/clozegen/internal/entity"
)

func TestJapaneseTokenizeSegmentsNouns(t *testing.T) {
	tok, err := NewJapaneseTokenizer()
	if err != nil {
		t.Fatalf("NewJapaneseTokenizer: %v", err)
	}

	tokens, err := tok.Tokenize(context.Background(), "すもももももももものうち")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}

	wantTexts := []string{"すもも", "も", "もも", "も", "もも", "の", "うち"}
	if len(tokens) != len(wantTexts) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(wantTexts), tokens)
	}
	for i, want := range wantTexts {
		if tokens[i].Text != want {
			t.Errorf("token %d = %q, want %q", i, tokens[i].Text, want)
		}
	}
	if tokens[0].POS != entity.POSNoun {
		t.Errorf("すもも tagged %s, want NOUN", tokens[0].POS)
	}
	if tokens[1].POS != entity.POSOther {
		t.Errorf("も tagged %s, want OTHER", tokens[1].POS)
	}
	if tokens[6].POS != entity.POSNoun {
		t.Errorf("うち tagged %s, want NOUN", tokens[6].POS)
	}
}

func TestJapaneseTokenizeBaseForms(t *testing.T) {
	tok, err := NewJapaneseTokenizer()
	if err != nil {
		t.Fatalf("NewJapaneseTokenizer: %v", err)
	}

	tokens, err := tok.Tokenize(context.Background(), "行った。")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(tokens) < 3 {
		t.Fatalf("got %d tokens, want at least 3: %+v", len(tokens), tokens)
	}
	if tokens[0].POS != entity.POSVerb || tokens[0].Lemma != "行く" {
		t.Errorf("行っ tagged %s lemma %q, want VERB/行く", tokens[0].POS, tokens[0].Lemma)
	}
	last := tokens[len(tokens)-1]
	if last.Text != "。" || last.POS != entity.POSPunct || last.IsAlpha {
		t.Errorf("。 = %+v, want non-alphabetic PUNCT", last)
	}
}

func TestJapaneseTokenizeLines(t *testing.T) {
	tok, err := NewJapaneseTokenizer()
	if err != nil {
		t.Fatalf("NewJapaneseTokenizer: %v", err)
	}

	text := "東京タワー\nすもものうち"
	tokens, err := tok.Tokenize(context.Background(), text)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := rejoinTokens(tokens); got != text {
		t.Errorf("rejoined text = %q, want %q", got, text)
	}
	if tokens[0].Text != "東京" || tokens[0].POS != entity.POSProperNoun {
		t.Errorf("東京 = %+v, want PROPN", tokens[0])
	}

	var lineEnds int
	for i, tk := range tokens {
		if tk.EndsLine {
			lineEnds++
			if i == len(tokens)-1 {
				t.Error("final token should not be marked EndsLine")
			}
		}
	}
	if lineEnds != 1 {
		t.Errorf("%d tokens marked EndsLine, want 1", lineEnds)
	}
}

func TestMapIPAFeatures(t *testing.T) {
	cases := []struct {
		features []string
		want     entity.POSTag
	}{
		{[]string{"名詞", "一般"}, entity.POSNoun},
		{[]string{"名詞", "固有名詞", "地域"}, entity.POSProperNoun},
		{[]string{"名詞", "代名詞", "一般"}, entity.POSPronoun},
		{[]string{"名詞", "数"}, entity.POSNumber},
		{[]string{"動詞", "自立"}, entity.POSVerb},
		{[]string{"形容詞", "自立"}, entity.POSAdjective},
		{[]string{"副詞", "一般"}, entity.POSAdverb},
		{[]string{"記号", "句点"}, entity.POSPunct},
		{[]string{"助詞", "係助詞"}, entity.POSOther},
		{nil, entity.POSOther},
	}
	for _, tc := range cases {
		if got := mapIPAFeatures(tc.features); got != tc.want {
			t.Errorf("mapIPAFeatures(%v) = %s, want %s", tc.features, got, tc.want)
		}
	}
}
