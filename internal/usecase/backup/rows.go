package backup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// tableColumn keys the highest observed value of an autoincrement column.
type tableColumn struct {
	Table  string
	Column string
}

type serialPeaks map[tableColumn]int64

func (p serialPeaks) observe(table, column string, val any) {
	if n, ok := asInt64(val); ok {
		key := tableColumn{Table: table, Column: column}
		if n > p[key] {
			p[key] = n
		}
	}
}

// dumpTable pages through a table in conflict-key order and writes each
// row as one archive line.
func (s *Service) dumpTable(ctx context.Context, db *sql.DB, table *schema.Table, out *archiveWriter, reporter ProgressReporter) error {
	cols := columnNames(table)
	if len(cols) == 0 {
		return nil
	}
	base := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(cols, ", "), table.Name, orderByKey(table))

	for offset := 0; ; offset += s.batchSize {
		query := fmt.Sprintf("%s LIMIT %d OFFSET %d", base, s.batchSize, offset)
		got, err := s.dumpPage(ctx, db, table, cols, query, out, reporter)
		if err != nil {
			return err
		}
		if got < s.batchSize {
			return nil
		}
	}
}

func (s *Service) dumpPage(ctx context.Context, db *sql.DB, table *schema.Table, cols []string, query string, out *archiveWriter, reporter ProgressReporter) (int, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", table.Name, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range dest {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return count, fmt.Errorf("scan %s: %w", table.Name, err)
		}
		payload, err := rowToPayload(table, cols, values)
		if err != nil {
			return count, err
		}
		if err := out.writeRow(table.Name, payload); err != nil {
			return count, err
		}
		reporter.Increment(table.Name, 1)
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("iterate %s: %w", table.Name, err)
	}
	return count, nil
}

// restoreRow upserts one archived row. Values for columns the current
// schema does not know are rejected rather than silently dropped.
func (s *Service) restoreRow(ctx context.Context, tx *sql.Tx, table *schema.Table, payload json.RawMessage, peaks serialPeaks) error {
	values, err := payloadToRow(table, payload)
	if err != nil {
		return fmt.Errorf("decode payload for %s: %w", table.Name, err)
	}
	if len(values) == 0 {
		return nil
	}

	cols := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	for _, col := range table.Columns {
		val, ok := values[col.Name]
		if !ok {
			continue
		}
		if val == nil && !col.Nullable {
			val, ok = zeroValueFor(col)
			if !ok {
				if col.Default == nil {
					return fmt.Errorf("backup: missing required value for %s.%s", table.Name, col.Name)
				}
				val = col.Default
			}
		}
		cols = append(cols, col.Name)
		args = append(args, val)
		if col.Increment {
			peaks.observe(table.Name, col.Name, val)
		}
	}
	if len(cols) == 0 {
		return nil
	}

	stmt, err := insertStatement(s.driver, table, cols)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table.Name, err)
	}
	return nil
}

func insertStatement(driver string, table *schema.Table, cols []string) (string, error) {
	marks, err := placeholderList(driver, len(cols))
	if err != nil {
		return "", err
	}
	suffix, err := upsertSuffix(driver, table, cols)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)%s",
		table.Name, strings.Join(cols, ", "), marks, suffix), nil
}

func placeholderList(driver string, n int) (string, error) {
	switch driver {
	case "postgres", "postgresql":
		marks := make([]string, n)
		for i := range marks {
			marks[i] = "$" + strconv.Itoa(i+1)
		}
		return strings.Join(marks, ", "), nil
	case "sqlite3", "sqlite":
		return strings.TrimSuffix(strings.Repeat("?, ", n), ", "), nil
	default:
		return "", fmt.Errorf("backup: unsupported driver %q", driver)
	}
}

func upsertSuffix(driver string, table *schema.Table, insertCols []string) (string, error) {
	key := conflictKey(table)
	if len(key) == 0 {
		return "", nil
	}
	// Postgres and sqlite differ only in the spelling of the excluded alias.
	var excluded string
	switch driver {
	case "postgres", "postgresql":
		excluded = "EXCLUDED"
	case "sqlite3", "sqlite":
		excluded = "excluded"
	default:
		return "", fmt.Errorf("backup: unsupported driver %q for upsert", driver)
	}
	updates := without(insertCols, key)
	if len(updates) == 0 {
		return fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(key, ", ")), nil
	}
	assignments := make([]string, len(updates))
	for i, col := range updates {
		assignments[i] = fmt.Sprintf("%s = %s.%s", col, excluded, col)
	}
	return fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s",
		strings.Join(key, ", "), strings.Join(assignments, ", ")), nil
}

// conflictKey picks the primary key, or the first unique index when the
// table has no explicit primary key.
func conflictKey(table *schema.Table) []string {
	if len(table.PrimaryKey) > 0 {
		key := make([]string, len(table.PrimaryKey))
		for i, col := range table.PrimaryKey {
			key[i] = col.Name
		}
		return key
	}
	for _, idx := range table.Indexes {
		if idx.Unique && len(idx.Columns) > 0 {
			key := make([]string, len(idx.Columns))
			for i, col := range idx.Columns {
				key[i] = col.Name
			}
			return key
		}
	}
	return nil
}

func orderByKey(table *schema.Table) string {
	cols := make([]string, 0, len(table.Columns))
	if len(table.PrimaryKey) > 0 {
		for _, col := range table.PrimaryKey {
			cols = append(cols, col.Name)
		}
	} else {
		cols = columnNames(table)
	}
	if len(cols) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(cols, ", ")
}

func columnNames(table *schema.Table) []string {
	cols := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = col.Name
	}
	return cols
}

func without(slice, exclude []string) []string {
	set := make(map[string]struct{}, len(exclude))
	for _, item := range exclude {
		set[item] = struct{}{}
	}
	kept := make([]string, 0, len(slice))
	for _, item := range slice {
		if _, ok := set[item]; !ok {
			kept = append(kept, item)
		}
	}
	return kept
}

func lookupColumn(table *schema.Table, name string) *schema.Column {
	for _, col := range table.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

// rowToPayload converts scanned database values into JSON-safe ones.
func rowToPayload(table *schema.Table, cols []string, values []any) (map[string]any, error) {
	payload := make(map[string]any, len(cols))
	for i, name := range cols {
		col := lookupColumn(table, name)
		if col == nil {
			return nil, fmt.Errorf("column %s not found in table %s", name, table.Name)
		}
		val, err := dbValueToJSON(col, values[i])
		if err != nil {
			return nil, fmt.Errorf("convert %s.%s: %w", table.Name, name, err)
		}
		payload[name] = val
	}
	return payload, nil
}

func dbValueToJSON(col *schema.Column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case []byte:
		// database/sql hands text columns back as []byte.
		if col.Type == field.TypeJSON {
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			return cp, nil
		}
		return string(v), nil
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	}
	switch col.Type {
	case field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt, field.TypeInt64:
		return coerceInt64(value)
	case field.TypeFloat32, field.TypeFloat64:
		return coerceFloat64(value)
	default:
		return value, nil
	}
}

// payloadToRow decodes an archived row back into driver-ready values.
func payloadToRow(table *schema.Table, payload json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	values := make(map[string]any, len(raw))
	for name, val := range raw {
		col := lookupColumn(table, name)
		if col == nil {
			return nil, fmt.Errorf("column %s not found in table %s", name, table.Name)
		}
		converted, err := jsonValueToDB(col, val)
		if err != nil {
			return nil, fmt.Errorf("convert %s.%s: %w", table.Name, name, err)
		}
		values[name] = converted
	}
	return values, nil
}

func jsonValueToDB(col *schema.Column, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch col.Type {
	case field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt, field.TypeInt64:
		return coerceInt64(value)
	case field.TypeFloat32, field.TypeFloat64:
		return coerceFloat64(value)
	case field.TypeTime:
		str, err := coerceString(value)
		if err != nil {
			return nil, err
		}
		if str == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case field.TypeJSON:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil
	default:
		return value, nil
	}
}

// zeroValueFor fills a null in a non-nullable column when the archive
// predates the column's NOT NULL constraint.
func zeroValueFor(col *schema.Column) (any, bool) {
	switch col.Type {
	case field.TypeJSON:
		return json.RawMessage("[]"), true
	case field.TypeString:
		return "", true
	case field.TypeInt, field.TypeInt8, field.TypeInt16, field.TypeInt32, field.TypeInt64,
		field.TypeFloat32, field.TypeFloat64:
		return 0, true
	default:
		return nil, false
	}
}

func asInt64(val any) (int64, bool) {
	n, err := coerceInt64(val)
	return n, err == nil
}

func coerceInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported int type %T", value)
	}
}

func coerceFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, fmt.Errorf("unsupported float type %T", value)
	}
}

func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case []byte:
		return string(v), nil
	default:
		return fmt.Sprintf("%v", value), nil
	}
}
