package nlp

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eslsoft/clozegen/internal/entity"
)

//go:embed data/zipf_en.tsv
var zipfTableEN string

// FrequencyTable answers word-frequency lookups on the Zipf scale (roughly
// 0-8, log10 occurrences per billion tokens). Lookups are case-insensitive;
// a word missing from a table, or a language without one, scores 0.
type FrequencyTable struct {
	tables map[entity.Language]map[string]float64
}

// NewFrequencyTable loads the bundled English table.
func NewFrequencyTable() (*FrequencyTable, error) {
	english, err := parseZipfTable(strings.NewReader(zipfTableEN))
	if err != nil {
		return nil, fmt.Errorf("parse bundled english table: %w", err)
	}
	return &FrequencyTable{
		tables: map[entity.Language]map[string]float64{
			entity.LanguageEnglish: english,
		},
	}, nil
}

func (t *FrequencyTable) Zipf(word string, lang entity.Language) float64 {
	table, ok := t.tables[entity.NormalizeLanguage(lang)]
	if !ok {
		return 0
	}
	return table[strings.ToLower(word)]
}

// LoadDir merges extra tables from dir. Each file must be named
// <language-code>.tsv and hold word<TAB>zipf rows; its entries override the
// bundled values word by word.
func (t *FrequencyTable) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read frequency dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".tsv") {
			continue
		}
		lang := entity.ParseLanguage(strings.TrimSuffix(name, ".tsv"))
		if lang == entity.LanguageUnspecified {
			continue
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		table, err := parseZipfTable(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		if t.tables[lang] == nil {
			t.tables[lang] = make(map[string]float64, len(table))
		}
		for word, zipf := range table {
			t.tables[lang][word] = zipf
		}
	}
	return nil
}

func parseZipfTable(r io.Reader) (map[string]float64, error) {
	table := make(map[string]float64)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want word<TAB>zipf, got %q", lineNo, line)
		}
		zipf, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse zipf value: %w", lineNo, err)
		}
		table[strings.ToLower(fields[0])] = zipf
	}
	return table, scanner.Err()
}
