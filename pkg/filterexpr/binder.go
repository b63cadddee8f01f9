// Package filterexpr binds AIP-160 style filter and order_by expressions to
// typed query parameters. A resource declares the fields, operators and
// orderings it supports; Bind parses the request expression with cel-go,
// validates it against that schema and assigns the extracted literals onto a
// params struct.
package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/common/operators"
)

// Query is the request surface Bind consumes. List request types satisfy it
// by exposing their filter and order_by fields through getters.
type Query interface {
	GetFilter() string
	GetOrderBy() string
}

// ValueKind declares the literal type a filter field accepts.
type ValueKind int

const (
	// KindString accepts string literals.
	KindString ValueKind = iota
	// KindNumber accepts int, uint and double literals, normalized to float64.
	KindNumber
	// KindTimestamp accepts timestamp("RFC3339") call literals.
	KindTimestamp
)

// Op is a comparison operator a filter field may allow.
type Op string

const (
	OpEQ  Op = "=="
	OpGTE Op = ">="
	OpLTE Op = "<="
	OpSW  Op = "startsWith"
	OpIN  Op = "in"
)

// SetterFunc assigns a validated literal onto the params struct. value is a
// string, float64, time.Time or a slice of those depending on the field kind
// and operator.
type SetterFunc func(params any, value any) error

// FilterField describes one filterable field of a resource. The schema map
// key is the identifier used in filter expressions, e.g. "difficulty".
type FilterField struct {
	// Kind is the literal type the field accepts.
	Kind ValueKind
	// Ops maps each allowed operator to the params struct field that
	// receives the value. The name is resolved with reflection unless
	// Setter is set.
	Ops map[Op]string
	// Setter overrides reflection-based assignment when set.
	Setter SetterFunc
}

// FilterSchema is the set of filterable fields keyed by expression name.
type FilterSchema map[string]FilterField

// ResourceSchema bundles the filter and order schemas of one resource.
type ResourceSchema struct {
	Filter FilterSchema
	Order  OrderSchema
}

// Bind parses query's filter and order_by expressions against schema and
// assigns the results onto params. The filter must be a conjunction of
// atomic predicates; OR, NOT and ternaries are rejected. A zero filter or
// order_by falls back to the schema defaults for ordering and leaves the
// filter params untouched.
func Bind[Q Query, P any](query Q, params *P, schema ResourceSchema) error {
	if filter := strings.TrimSpace(query.GetFilter()); filter != "" {
		if err := bindFilter(filter, params, schema.Filter); err != nil {
			return err
		}
	}
	ord, err := parseOrderBy(query.GetOrderBy(), schema.Order)
	if err != nil {
		return err
	}
	return setOrderParams(params, ord)
}

func bindFilter[P any](filter string, params *P, schema FilterSchema) error {
	env, err := buildEnv(schema)
	if err != nil {
		return fmt.Errorf("build filter env: %w", err)
	}
	parsed, issues := env.Parse(filter)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("parse filter: %w", issues.Err())
	}
	checked, issues := env.Check(parsed)
	if issues != nil && issues.Err() != nil {
		return fmt.Errorf("check filter: %w", issues.Err())
	}
	conjuncts, err := extractConjuncts(checked.NativeRep().Expr())
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(conjuncts))
	for _, conjunct := range conjuncts {
		pred, err := parseAtomicPredicate(conjunct, schema)
		if err != nil {
			return err
		}
		key := pred.name + string(pred.op)
		if seen[key] {
			return fmt.Errorf("duplicate predicate for %s with %s", pred.name, pred.op)
		}
		seen[key] = true
		if err := assign(params, pred); err != nil {
			return err
		}
	}
	return nil
}

// buildEnv declares one CEL variable per schema field so Check can reject
// references to unknown fields before we walk the AST.
func buildEnv(schema FilterSchema) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(schema))
	for name, field := range schema {
		var t *cel.Type
		switch field.Kind {
		case KindNumber:
			// NOTE: the cel-go checker has no cross-type numeric equality,
			// so number fields are declared dyn and the literal kind is
			// validated after parsing.
			t = cel.DynType
		case KindTimestamp:
			t = cel.TimestampType
		default:
			t = cel.StringType
		}
		opts = append(opts, cel.Variable(name, t))
	}
	return cel.NewEnv(opts...)
}

// extractConjuncts flattens a chain of _&&_ calls into its atomic operands.
// Any other logical structure is rejected.
//
// NOTE: cel-go parses AND chains into nested binary calls rather than one
// variadic node, so the flattening recurses on both operands.
func extractConjuncts(expr ast.Expr) ([]ast.Expr, error) {
	if expr.Kind() != ast.CallKind {
		return nil, errors.New("filter must be a comparison or a conjunction of comparisons")
	}
	call := expr.AsCall()
	switch call.FunctionName() {
	case operators.LogicalAnd:
		var out []ast.Expr
		for _, arg := range call.Args() {
			conjuncts, err := extractConjuncts(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, conjuncts...)
		}
		return out, nil
	case operators.LogicalOr, operators.LogicalNot, operators.Conditional:
		return nil, fmt.Errorf("logical operator %q is not supported; only AND is allowed", call.FunctionName())
	default:
		return []ast.Expr{expr}, nil
	}
}

type predicate struct {
	name  string
	field FilterField
	op    Op
	value any
}

// parseAtomicPredicate validates a single comparison call: the left operand
// must be a declared field, the operator must be allowed for that field and
// the right operand must be a literal of the field's kind.
func parseAtomicPredicate(expr ast.Expr, schema FilterSchema) (predicate, error) {
	call := expr.AsCall()
	var op Op
	var fieldExpr, literalExpr ast.Expr
	switch call.FunctionName() {
	case operators.Equals:
		op = OpEQ
		fieldExpr, literalExpr = call.Args()[0], call.Args()[1]
	case operators.GreaterEquals:
		op = OpGTE
		fieldExpr, literalExpr = call.Args()[0], call.Args()[1]
	case operators.LessEquals:
		op = OpLTE
		fieldExpr, literalExpr = call.Args()[0], call.Args()[1]
	case operators.In, operators.OldIn:
		op = OpIN
		fieldExpr, literalExpr = call.Args()[0], call.Args()[1]
	case "startsWith":
		op = OpSW
		fieldExpr, literalExpr = call.Target(), call.Args()[0]
	default:
		return predicate{}, fmt.Errorf("operator %s is not supported", call.FunctionName())
	}

	if fieldExpr.Kind() != ast.IdentKind {
		return predicate{}, errors.New("left operand must be a field name")
	}
	name := fieldExpr.AsIdent()
	field, ok := schema[name]
	if !ok {
		return predicate{}, fmt.Errorf("field %q cannot be filtered", name)
	}
	if _, ok := field.Ops[op]; !ok {
		return predicate{}, fmt.Errorf("field %q does not allow %s", name, op)
	}

	value, err := parseLiteral(literalExpr, op)
	if err != nil {
		return predicate{}, fmt.Errorf("field %q: %w", name, err)
	}
	if err := validateLiteral(field, op, value); err != nil {
		return predicate{}, fmt.Errorf("field %q: %w", name, err)
	}
	return predicate{name: name, field: field, op: op, value: value}, nil
}

// parseLiteral extracts a Go value from a literal expression. Int and uint
// literals are widened to float64 so numeric fields have one runtime type.
func parseLiteral(expr ast.Expr, op Op) (any, error) {
	switch expr.Kind() {
	case ast.LiteralKind:
		switch v := expr.AsLiteral().Value().(type) {
		case string:
			return v, nil
		case int64:
			return float64(v), nil
		case uint64:
			return float64(v), nil
		case float64:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported literal type %T", v)
		}
	case ast.ListKind:
		if op != OpIN {
			return nil, errors.New("list literals are only valid with in")
		}
		list := expr.AsList()
		elems := list.Elements()
		if len(elems) == 0 {
			return nil, errors.New("in list must not be empty")
		}
		out := make([]string, 0, len(elems))
		for _, elem := range elems {
			if elem.Kind() != ast.LiteralKind {
				return nil, errors.New("in list elements must be literals")
			}
			s, ok := elem.AsLiteral().Value().(string)
			if !ok {
				return nil, errors.New("in list elements must be strings")
			}
			out = append(out, s)
		}
		return out, nil
	case ast.CallKind:
		call := expr.AsCall()
		if call.FunctionName() != "timestamp" || len(call.Args()) != 1 {
			return nil, errors.New("only timestamp() calls are allowed as literals")
		}
		arg := call.Args()[0]
		if arg.Kind() != ast.LiteralKind {
			return nil, errors.New("timestamp() requires a string literal")
		}
		raw, ok := arg.AsLiteral().Value().(string)
		if !ok {
			return nil, errors.New("timestamp() requires a string literal")
		}
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			if ts, err = time.Parse(time.RFC3339, raw); err != nil {
				return nil, fmt.Errorf("parse timestamp %q: %w", raw, err)
			}
		}
		return ts, nil
	default:
		return nil, errors.New("right operand must be a literal")
	}
}

// validateLiteral checks the extracted value against the field's kind.
func validateLiteral(field FilterField, op Op, value any) error {
	if op == OpIN {
		if field.Kind != KindString {
			return errors.New("in is only supported for string fields")
		}
		if _, ok := value.([]string); !ok {
			return errors.New("in requires a list of strings")
		}
		return nil
	}
	switch field.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return errors.New("expected a string literal")
		}
	case KindNumber:
		if _, ok := value.(float64); !ok {
			return errors.New("expected a numeric literal")
		}
	case KindTimestamp:
		if _, ok := value.(time.Time); !ok {
			return errors.New("expected a timestamp() literal")
		}
	}
	return nil
}

// assign routes the predicate value into the params struct, either through
// the field's custom setter or by reflection on the configured field name.
func assign(params any, pred predicate) error {
	if pred.field.Setter != nil {
		return pred.field.Setter(params, pred.value)
	}
	target := pred.field.Ops[pred.op]
	if target == "" {
		return fmt.Errorf("field %q has no binding for %s", pred.name, pred.op)
	}
	return assignValue(params, target, pred.value)
}

func assignValue(params any, fieldName string, value any) error {
	v := reflect.ValueOf(params)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("params must be a non-nil pointer to a struct")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return errors.New("params must point to a struct")
	}
	field := v.FieldByName(fieldName)
	if !field.IsValid() {
		return fmt.Errorf("params struct has no field %q", fieldName)
	}
	if !field.CanSet() {
		return fmt.Errorf("params field %q cannot be set", fieldName)
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if f, ok := value.(float64); ok {
		return assignNumeric(field, fieldName, f)
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to params field %q", value, fieldName)
}

// assignNumeric narrows a float64 literal onto whichever numeric type the
// params field declares, rejecting fractional values for integer fields.
func assignNumeric(field reflect.Value, fieldName string, f float64) error {
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		field.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if f != float64(int64(f)) {
			return fmt.Errorf("params field %q requires an integer", fieldName)
		}
		field.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if f < 0 || f != float64(uint64(f)) {
			return fmt.Errorf("params field %q requires a non-negative integer", fieldName)
		}
		field.SetUint(uint64(f))
	default:
		return fmt.Errorf("cannot assign a number to params field %q", fieldName)
	}
	return nil
}
