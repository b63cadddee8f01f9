package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// OrderField describes one sortable field of a resource.
type OrderField struct {
	// Expr is the SQL expression the key renders to, e.g. "e.created_at".
	Expr string
	// Nulls is "first", "last" or empty for the dialect default.
	Nulls string
}

// OrderSchema declares the sortable fields of a resource and the defaults
// applied when the request carries no order_by.
type OrderSchema struct {
	// DefaultPrimary is the key used when order_by is empty.
	DefaultPrimary     string
	DefaultPrimaryDesc bool
	// FallbackKey is appended as a secondary key so paging stays stable
	// when the primary key is not unique.
	FallbackKey  string
	FallbackDesc bool
	Fields       map[string]OrderField
}

// OrderBy carries the resolved ordering of a query. Embed it in a params
// struct so Bind can populate it, then render SQL with Clause.
type OrderBy struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// Clause renders the body of an ORDER BY for the resolved keys, using only
// expressions whitelisted by the schema.
func (o OrderBy) Clause(schema OrderSchema) (string, error) {
	primary, err := orderExpr(schema, o.PrimaryKey, o.PrimaryDesc)
	if err != nil {
		return "", err
	}
	secondary, err := orderExpr(schema, o.SecondaryKey, o.SecondaryDesc)
	if err != nil {
		return "", err
	}
	return primary + ", " + secondary, nil
}

func orderExpr(schema OrderSchema, key string, desc bool) (string, error) {
	field, ok := schema.Fields[key]
	if !ok {
		return "", fmt.Errorf("order key %q is not in the schema", key)
	}
	expr := field.Expr
	if desc {
		expr += " DESC"
	} else {
		expr += " ASC"
	}
	switch strings.ToLower(field.Nulls) {
	case "first":
		expr += " NULLS FIRST"
	case "last":
		expr += " NULLS LAST"
	}
	return expr, nil
}

// parseOrderBy resolves an order_by expression of at most two comma
// separated "key [asc|desc]" terms against the schema. When the expression
// yields fewer than two distinct keys, the schema fallback (or the smallest
// remaining key) completes the pair so the ordering is total.
func parseOrderBy(orderBy string, schema OrderSchema) (OrderBy, error) {
	if len(schema.Fields) < 2 {
		return OrderBy{}, errors.New("order schema requires at least two fields")
	}
	ord := OrderBy{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}
	terms := splitOrderTerms(orderBy)
	if len(terms) > 2 {
		return OrderBy{}, fmt.Errorf("order_by supports at most two keys, got %d", len(terms))
	}
	for i, term := range terms {
		key, desc, err := parseOrderTerm(term, schema)
		if err != nil {
			return OrderBy{}, err
		}
		if i == 0 {
			ord.PrimaryKey, ord.PrimaryDesc = key, desc
		} else {
			ord.SecondaryKey, ord.SecondaryDesc = key, desc
		}
	}
	if len(terms) == 2 && ord.SecondaryKey == ord.PrimaryKey {
		return OrderBy{}, fmt.Errorf("duplicate order key %q", ord.PrimaryKey)
	}
	if ord.SecondaryKey == ord.PrimaryKey {
		ord.SecondaryKey = distinctKey(schema, ord.PrimaryKey)
		ord.SecondaryDesc = false
	}
	return ord, nil
}

func splitOrderTerms(orderBy string) []string {
	var terms []string
	for _, raw := range strings.Split(orderBy, ",") {
		if term := strings.TrimSpace(raw); term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}

func parseOrderTerm(term string, schema OrderSchema) (string, bool, error) {
	parts := strings.Fields(term)
	if len(parts) > 2 {
		return "", false, fmt.Errorf("malformed order term %q", term)
	}
	key := parts[0]
	if _, ok := schema.Fields[key]; !ok {
		return "", false, fmt.Errorf("field %q cannot be ordered by", key)
	}
	desc := false
	if len(parts) == 2 {
		switch strings.ToLower(parts[1]) {
		case "asc":
		case "desc":
			desc = true
		default:
			return "", false, fmt.Errorf("order direction must be asc or desc, got %q", parts[1])
		}
	}
	return key, desc, nil
}

// distinctKey picks a deterministic secondary key different from primary.
func distinctKey(schema OrderSchema, primary string) string {
	keys := make([]string, 0, len(schema.Fields))
	for key := range schema.Fields {
		if key != primary {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys[0]
}

// setOrderParams copies the resolved ordering onto the params struct. It
// accepts either an embedded OrderBy or the four flat fields PrimaryKey,
// PrimaryDesc, SecondaryKey and SecondaryDesc.
func setOrderParams(params any, ord OrderBy) error {
	v := reflect.ValueOf(params)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("params must be a non-nil pointer to a struct")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return errors.New("params must point to a struct")
	}
	if f := v.FieldByName("OrderBy"); f.IsValid() && f.Type() == reflect.TypeOf(OrderBy{}) {
		f.Set(reflect.ValueOf(ord))
		return nil
	}
	assignments := []struct {
		name  string
		value any
	}{
		{"PrimaryKey", ord.PrimaryKey},
		{"PrimaryDesc", ord.PrimaryDesc},
		{"SecondaryKey", ord.SecondaryKey},
		{"SecondaryDesc", ord.SecondaryDesc},
	}
	for _, a := range assignments {
		field := v.FieldByName(a.name)
		if !field.IsValid() {
			return fmt.Errorf("params struct has no field %q for ordering", a.name)
		}
		if !field.CanSet() {
			return fmt.Errorf("params field %q cannot be set", a.name)
		}
		field.Set(reflect.ValueOf(a.value))
	}
	return nil
}
