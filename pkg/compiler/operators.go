// sieve/pkg/compiler/operators.go

package compiler

import (
	"fmt"
	"strconv"
)

// supportedOperators is the closed set the resolver understands. The parser
// consults it too, so unknown operators are rejected before building starts.
var supportedOperators = map[string]bool{
	"exact":          true,
	"is_not":         true,
	"icontains":      true,
	"not_icontains":  true,
	"regex":          true,
	"not_regex":      true,
	"is_set":         true,
	"is_not_set":     true,
	"gt":             true,
	"gte":            true,
	"lt":             true,
	"lte":            true,
	"is_date_before": true,
	"is_date_after":  true,
	"in":             true,
	"not_in":         true,
}

// IsOperatorSupported reports whether the operator is in the known set.
func IsOperatorSupported(operator string) bool {
	return supportedOperators[operator]
}

// propertyToExpr resolves one property condition into a comparison expression
// bound to the property's access path. It is a pure mapping: same input, same
// tree, no side effects.
func propertyToExpr(p PropertyFilter) (Expr, error) {
	field, err := fieldForProperty(p)
	if err != nil {
		return nil, err
	}

	switch p.Operator {
	case "exact", "in":
		return equalityExpr(field, p.Value, false)
	case "is_not", "not_in":
		return equalityExpr(field, p.Value, true)
	case "icontains":
		return compare(OpILike, field, "%"+stringValue(p.Value)+"%"), nil
	case "not_icontains":
		// A dedicated negated-match opcode exists, so a NOT combinator
		// around ILIKE is never emitted here.
		return compare(OpNotILike, field, "%"+stringValue(p.Value)+"%"), nil
	case "regex":
		return compare(OpRegex, field, stringValue(p.Value)), nil
	case "not_regex":
		return compare(OpNotRegex, field, stringValue(p.Value)), nil
	case "is_set":
		return compare(OpNotEq, field, nil), nil
	case "is_not_set":
		return compare(OpEq, field, nil), nil
	case "gt":
		return compare(OpGt, field, numericValue(p.Value)), nil
	case "gte":
		return compare(OpGtEq, field, numericValue(p.Value)), nil
	case "lt":
		return compare(OpLt, field, numericValue(p.Value)), nil
	case "lte":
		return compare(OpLtEq, field, numericValue(p.Value)), nil
	case "is_date_before":
		return compare(OpLt, field, p.Value), nil
	case "is_date_after":
		return compare(OpGt, field, p.Value), nil
	default:
		return nil, &UnsupportedOperatorError{Operator: p.Operator}
	}
}

// fieldForProperty maps the declared property scope to an access path on the
// record under evaluation.
func fieldForProperty(p PropertyFilter) (*Field, error) {
	if p.Key == "" {
		return nil, &InvalidFilterError{Reason: "missing property key", Entry: p}
	}
	switch p.Type {
	case PropertyTypeEvent:
		return &Field{Chain: []string{"properties", p.Key}}, nil
	case PropertyTypePerson:
		return &Field{Chain: []string{"person", "properties", p.Key}}, nil
	case PropertyTypeGroup:
		if p.GroupTypeIndex == nil {
			return nil, &InvalidFilterError{Reason: "group property without group_type_index", Entry: p}
		}
		group := fmt.Sprintf("group_%d", *p.GroupTypeIndex)
		return &Field{Chain: []string{group, "properties", p.Key}}, nil
	case "":
		return nil, &InvalidFilterError{Reason: "missing property type", Entry: p}
	default:
		return nil, &UnsupportedPropertyTypeError{Type: p.Type}
	}
}

// equalityExpr handles exact/is_not and their set-membership forms. A sequence
// literal expands to OR-of-equals (AND-of-not-equals when negated); a single
// element sequence collapses to the scalar comparison.
func equalityExpr(field *Field, value interface{}, negated bool) (Expr, error) {
	op := OpEq
	if negated {
		op = OpNotEq
	}

	list, ok := valueList(value)
	if !ok {
		return compare(op, field, value), nil
	}
	if len(list) == 0 {
		return nil, &InvalidFilterError{Reason: "empty value list", Entry: value}
	}
	if len(list) == 1 {
		return compare(op, field, list[0]), nil
	}

	exprs := make([]Expr, len(list))
	for i, v := range list {
		exprs[i] = compare(op, field, v)
	}
	if negated {
		return &And{Exprs: exprs}, nil
	}
	return &Or{Exprs: exprs}, nil
}

func compare(op Opcode, field *Field, value interface{}) *Compare {
	return &Compare{Op: op, Left: field, Right: &Constant{Value: value}}
}

func valueList(value interface{}) ([]interface{}, bool) {
	list, ok := value.([]interface{})
	return list, ok
}

// stringValue renders the literal the way the VM's string-match instruction
// expects it.
func stringValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// numericValue coerces the literal for numeric comparisons. If the literal
// cannot be coerced it is passed through untouched; the VM fails closed on
// non-numeric comparisons at evaluation time.
func numericValue(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return v
	default:
		return value
	}
}
