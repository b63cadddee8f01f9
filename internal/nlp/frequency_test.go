package nlp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eslsoft/clozegen/internal/entity"
)

func TestFrequencyTableBundledEnglish(t *testing.T) {
	table, err := NewFrequencyTable()
	if err != nil {
		t.Fatalf("NewFrequencyTable: %v", err)
	}

	the := table.Zipf("the", entity.LanguageEnglish)
	if the < 7.0 || the > 8.0 {
		t.Errorf("Zipf(the) = %v, want a top-of-scale value", the)
	}
	love := table.Zipf("love", entity.LanguageEnglish)
	if love < 5.5 || love > 7.0 {
		t.Errorf("Zipf(love) = %v, want a common-word value", love)
	}
	gossamer := table.Zipf("gossamer", entity.LanguageEnglish)
	if gossamer <= 0 || gossamer >= love {
		t.Errorf("Zipf(gossamer) = %v, want positive and rarer than love", gossamer)
	}
	if the <= love {
		t.Errorf("the (%v) should outrank love (%v)", the, love)
	}

	if z := table.Zipf("ephemeral", entity.LanguageEnglish); z != 0 {
		t.Errorf("Zipf(ephemeral) = %v, want 0 for an out-of-table word", z)
	}
	if got := table.Zipf("LOVE", entity.LanguageEnglish); got != love {
		t.Errorf("Zipf(LOVE) = %v, want case-insensitive %v", got, love)
	}
	if got := table.Zipf("love", entity.LanguageUnspecified); got != love {
		t.Errorf("unspecified language should fall back to english, got %v", got)
	}
	if z := table.Zipf("愛", entity.LanguageJapanese); z != 0 {
		t.Errorf("Zipf(愛, ja) = %v, want 0 without a japanese table", z)
	}
}

func TestFrequencyTableLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeFile("en.tsv", "the\t9.9\nxyzzy\t3.3\n")
	writeFile("ja.tsv", "# comment line\n愛\t5.5\n")
	writeFile("xx.tsv", "ignored\t1.0\n")
	writeFile("notes.txt", "not a table")

	table, err := NewFrequencyTable()
	if err != nil {
		t.Fatalf("NewFrequencyTable: %v", err)
	}
	if err := table.LoadDir(dir); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if got := table.Zipf("the", entity.LanguageEnglish); got != 9.9 {
		t.Errorf("Zipf(the) = %v, want the 9.9 override", got)
	}
	if got := table.Zipf("xyzzy", entity.LanguageEnglish); got != 3.3 {
		t.Errorf("Zipf(xyzzy) = %v, want 3.3", got)
	}
	if got := table.Zipf("love", entity.LanguageEnglish); got <= 0 {
		t.Error("bundled entries should survive a partial override")
	}
	if got := table.Zipf("愛", entity.LanguageJapanese); got != 5.5 {
		t.Errorf("Zipf(愛, ja) = %v, want 5.5", got)
	}
}

func TestFrequencyTableLoadDirRejectsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "en.tsv"), []byte("the\tnot-a-number\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := NewFrequencyTable()
	if err != nil {
		t.Fatalf("NewFrequencyTable: %v", err)
	}
	if err := table.LoadDir(dir); err == nil {
		t.Fatal("expected a parse error for a malformed row")
	}
}

func TestFrequencyTableLoadDirMissing(t *testing.T) {
	table, err := NewFrequencyTable()
	if err != nil {
		t.Fatalf("NewFrequencyTable: %v", err)
	}
	if err := table.LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}
