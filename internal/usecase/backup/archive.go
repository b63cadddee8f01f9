package backup

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Each archive line is a standalone JSON object. The first line carries
// the meta header; every following line is one table row.
type metaLine struct {
	Type       string         `json:"type"`
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	SchemaHash string         `json:"schema_hash"`
	Tables     []string       `json:"tables"`
	RowCounts  map[string]int `json:"row_counts"`
}

type rowLine struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// lineProbe decodes just enough of a line to route it during import.
type lineProbe struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

type archiveWriter struct {
	buf *bufio.Writer
}

func newArchiveWriter(w io.Writer) *archiveWriter {
	return &archiveWriter{buf: bufio.NewWriter(w)}
}

func (w *archiveWriter) writeMeta(schemaHash string, tables []string, counts map[string]int) error {
	return w.writeLine(metaLine{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: time.Now().UTC(),
		SchemaHash: schemaHash,
		Tables:     tables,
		RowCounts:  counts,
	})
}

func (w *archiveWriter) writeRow(table string, payload map[string]any) error {
	return w.writeLine(rowLine{Type: table, Payload: payload})
}

func (w *archiveWriter) writeLine(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

func (w *archiveWriter) flush() error {
	return w.buf.Flush()
}

// forEachLine calls fn for every non-blank line. bufio.Reader instead of
// Scanner so a row larger than the scanner token limit still decodes.
func forEachLine(r io.Reader, fn func(line []byte) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			if ferr := fn(trimmed); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
	}
}

// schemaFingerprint hashes a canonical rendering of the schema so archives
// record which table shapes they were taken from.
func schemaFingerprint(tables []*schema.Table) string {
	type colSig struct {
		Name      string     `json:"name"`
		Type      field.Type `json:"type"`
		Nullable  bool       `json:"nullable"`
		Unique    bool       `json:"unique"`
		Increment bool       `json:"increment"`
	}
	type idxSig struct {
		Name    string   `json:"name"`
		Unique  bool     `json:"unique"`
		Columns []string `json:"columns"`
	}
	type tblSig struct {
		Name       string   `json:"name"`
		Columns    []colSig `json:"columns"`
		PrimaryKey []string `json:"primary_key"`
		Indexes    []idxSig `json:"indexes"`
	}

	sigs := make([]tblSig, 0, len(tables))
	for _, tbl := range tables {
		sig := tblSig{Name: tbl.Name}
		for _, col := range tbl.Columns {
			sig.Columns = append(sig.Columns, colSig{
				Name:      col.Name,
				Type:      col.Type,
				Nullable:  col.Nullable,
				Unique:    col.Unique,
				Increment: col.Increment,
			})
		}
		sort.Slice(sig.Columns, func(i, j int) bool { return sig.Columns[i].Name < sig.Columns[j].Name })
		for _, pk := range tbl.PrimaryKey {
			sig.PrimaryKey = append(sig.PrimaryKey, pk.Name)
		}
		for _, idx := range tbl.Indexes {
			entry := idxSig{Name: idx.Name, Unique: idx.Unique}
			for _, col := range idx.Columns {
				entry.Columns = append(entry.Columns, col.Name)
			}
			sig.Indexes = append(sig.Indexes, entry)
		}
		sort.Slice(sig.Indexes, func(i, j int) bool { return sig.Indexes[i].Name < sig.Indexes[j].Name })
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].Name < sigs[j].Name })

	data, _ := json.Marshal(sigs)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
