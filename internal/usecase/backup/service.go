// Package backup streams the song catalog and its generated exercises to and
// from a line-delimited JSON archive. The format is driver neutral, so a
// Postgres deployment can be restored into SQLite and vice versa.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"entgo.io/ent/dialect/sql/schema"

	"github.com/eslsoft/clozegen/internal/infrastructure/database/migrate"

	_ "github.com/lib/pq"           // postgres for database/sql
	_ "github.com/mattn/go-sqlite3" // sqlite for database/sql
)

const (
	defaultBatchSize = 512
	formatVersion    = 1
)

var errNoTablesSelected = errors.New("backup: no tables selected")

// ProgressReporter receives callbacks while an export streams rows.
type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

// Service exports and imports the full database through database/sql,
// driven by the same schema tables the migrator creates.
type Service struct {
	driver     string
	dsn        string
	batchSize  int
	tables     []*schema.Table
	tableIndex map[string]*schema.Table
	schemaHash string
}

type Option func(*Service)

// WithBatchSize overrides the page size used when reading rows out.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService builds a backup service for the given database/sql driver and DSN.
func NewService(driver, dsn string, opts ...Option) (*Service, error) {
	driver = strings.TrimSpace(strings.ToLower(driver))
	if driver == "" {
		return nil, errors.New("backup: driver is required")
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("backup: DSN is required")
	}

	tables, err := schema.CopyTables(migrate.Tables)
	if err != nil {
		return nil, fmt.Errorf("copy schema tables: %w", err)
	}
	svc := &Service{
		driver:     driver,
		dsn:        dsn,
		batchSize:  defaultBatchSize,
		tables:     tables,
		tableIndex: make(map[string]*schema.Table, len(tables)),
		schemaHash: schemaFingerprint(tables),
	}
	for _, tbl := range tables {
		svc.tableIndex[tbl.Name] = tbl
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	tables   []string
	reporter ProgressReporter
}

// WithTables restricts export to the named tables (snake_case as in the DB).
func WithTables(tables []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(tables) > 0 {
			cfg.tables = append([]string{}, tables...)
		}
	}
}

// WithProgressReporter registers a reporter for per-table export progress.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		if reporter != nil {
			cfg.reporter = reporter
		}
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	tables []string
}

// WithImportTables restricts import to the named tables.
func WithImportTables(tables []string) ImportOption {
	return func(cfg *importConfig) {
		if len(tables) > 0 {
			cfg.tables = append([]string{}, tables...)
		}
	}
}

// Export writes one meta line followed by one line per row. Tables come
// out in schema declaration order, so songs precede the exercises that
// reference them.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{reporter: noopProgress{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	names := make([]string, len(tables))
	counts := make(map[string]int, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name
		n, err := countRows(ctx, db, tbl.Name)
		if err != nil {
			return fmt.Errorf("count table %s: %w", tbl.Name, err)
		}
		counts[tbl.Name] = n
	}

	out := newArchiveWriter(w)
	if err := out.writeMeta(s.schemaHash, names, counts); err != nil {
		return err
	}
	for _, tbl := range tables {
		cfg.reporter.StartTable(tbl.Name, counts[tbl.Name])
		if err := s.dumpTable(ctx, db, tbl, out, cfg.reporter); err != nil {
			return err
		}
		cfg.reporter.FinishTable(tbl.Name)
	}
	return out.flush()
}

// Import replays an archive into the database inside one transaction.
// Existing rows are upserted on the table's conflict key, so replaying
// the same archive twice is safe.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	tables, err := s.selectTables(cfg.tables)
	if err != nil {
		return err
	}
	wanted := make(map[string]*schema.Table, len(tables))
	for _, tbl := range tables {
		wanted[tbl.Name] = tbl
	}

	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	metaVersion := -1
	peaks := make(serialPeaks)
	err = forEachLine(r, func(line []byte) error {
		var probe lineProbe
		if err := json.Unmarshal(line, &probe); err != nil {
			return fmt.Errorf("decode record: %w", err)
		}
		if probe.Type == "meta" {
			metaVersion = probe.Version
			return nil
		}
		tbl, ok := wanted[probe.Type]
		if !ok {
			// Row belongs to a table outside the filter.
			return nil
		}
		if len(probe.Payload) == 0 {
			return fmt.Errorf("backup: missing payload for table %s", probe.Type)
		}
		return s.restoreRow(ctx, tx, tbl, probe.Payload, peaks)
	})
	if err != nil {
		return err
	}

	if metaVersion < 0 {
		return errors.New("backup: missing meta record")
	}
	if metaVersion != formatVersion {
		return fmt.Errorf("backup: unsupported format version %d", metaVersion)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	committed = true

	return s.resyncSerials(ctx, db, peaks)
}

// selectTables resolves requested names against the schema, preserving
// declaration order so foreign key targets import first.
func (s *Service) selectTables(requested []string) ([]*schema.Table, error) {
	if len(requested) == 0 {
		return append([]*schema.Table{}, s.tables...), nil
	}
	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		n := strings.TrimSpace(strings.ToLower(name))
		if n == "" {
			continue
		}
		if _, ok := s.tableIndex[n]; !ok {
			return nil, fmt.Errorf("backup: unsupported table %q", name)
		}
		set[n] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoTablesSelected
	}
	selected := make([]*schema.Table, 0, len(set))
	for _, tbl := range s.tables {
		if _, ok := set[tbl.Name]; ok {
			selected = append(selected, tbl)
		}
	}
	return selected, nil
}

func (s *Service) openDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if s.driver == "sqlite3" || s.driver == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

func countRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	return count, err
}

// resyncSerials bumps postgres sequences past the highest imported id so
// the next insert does not collide. Sqlite keeps its rowid counter itself.
func (s *Service) resyncSerials(ctx context.Context, db *sql.DB, peaks serialPeaks) error {
	if len(peaks) == 0 || (s.driver != "postgres" && s.driver != "postgresql") {
		return nil
	}
	for key, peak := range peaks {
		if peak <= 0 {
			continue
		}
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', '%s'), GREATEST(%d, (SELECT COALESCE(MAX(%s), 0) FROM %s)))",
			key.Table, key.Column, peak, key.Column, key.Table,
		)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("sync sequence for %s.%s: %w", key.Table, key.Column, err)
		}
	}
	return nil
}
