// sieve/pkg/compiler/builder.go

package compiler

import (
	"strconv"

	"sieve/pkg/logging"
)

// BuildFilterExpr converts the raw filter config into a boolean expression
// tree. The grouping rule is part of the evaluator contract: event and
// action entries form one merged OR-set, and the top-level property and
// test-account conditions are AND-folded into every entry of that set. With no
// events or actions the root is a flat AND of those conditions, and with
// nothing at all the root is the constant-true marker.
func BuildFilterExpr(spec *FilterSpec, actions map[int64]*Action, testFilters []PropertyFilter) (Expr, error) {
	var common []Expr
	if spec.FilterTestAccounts {
		for _, p := range testFilters {
			expr, err := propertyToExpr(p)
			if err != nil {
				return nil, err
			}
			common = append(common, expr)
		}
	}

	var props []Expr
	for _, p := range spec.Properties {
		expr, err := propertyToExpr(p)
		if err != nil {
			return nil, err
		}
		props = append(props, expr)
	}

	if len(spec.Events) == 0 && len(spec.Actions) == 0 {
		exprs := concatExprs(common, props)
		if len(exprs) == 0 {
			return &Constant{Value: true}, nil
		}
		return &And{Exprs: exprs}, nil
	}

	var entries []Expr
	for _, event := range spec.Events {
		entry, err := eventFilterExpr(event, common, props)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	for _, ref := range spec.Actions {
		id, err := actionRefID(ref)
		if err != nil {
			return nil, err
		}
		action, ok := actions[id]
		if !ok {
			return nil, &ActionNotFoundError{ID: id}
		}
		actionExpr, err := actionToExpr(action)
		if err != nil {
			return nil, err
		}
		exprs := concatExprs(common, props)
		exprs = append(exprs, actionExpr)
		entries = append(entries, &And{Exprs: exprs})
	}

	logging.Logger.Debug().
		Int("events", len(spec.Events)).
		Int("actions", len(spec.Actions)).
		Int("entries", len(entries)).
		Msg("Built activity OR-set")

	return &Or{Exprs: entries}, nil
}

// eventFilterExpr builds the AND entry for one event filter: the folded-in
// common conditions, an event-name equality unless the filter matches all
// events, and the filter's own properties.
func eventFilterExpr(event EventFilter, common, props []Expr) (Expr, error) {
	exprs := concatExprs(common, props)
	if event.ID != "" && event.ID != AllEventsMarker {
		exprs = append(exprs, eventNameExpr(event.ID))
	}
	own, err := propertyGroupExpr(event.Properties)
	if err != nil {
		return nil, err
	}
	if own != nil {
		exprs = append(exprs, own)
	}
	if len(exprs) == 0 {
		exprs = append(exprs, &Constant{Value: true})
	}
	return &And{Exprs: exprs}, nil
}

// actionToExpr expands an action into the OR of its steps. A step is the AND
// of event-name match, url match and its own properties; a step or action
// with a single operand collapses to that operand.
func actionToExpr(action *Action) (Expr, error) {
	if len(action.Steps) == 0 {
		return &Constant{Value: true}, nil
	}

	stepExprs := make([]Expr, 0, len(action.Steps))
	for _, step := range action.Steps {
		var exprs []Expr
		if step.Event != "" && step.Event != AllEventsMarker {
			exprs = append(exprs, eventNameExpr(step.Event))
		}
		if step.URL != "" {
			exprs = append(exprs, urlMatchExpr(step.URL, step.URLMatching))
		}
		own, err := propertyGroupExpr(step.Properties)
		if err != nil {
			return nil, err
		}
		if own != nil {
			exprs = append(exprs, own)
		}

		switch len(exprs) {
		case 0:
			stepExprs = append(stepExprs, &Constant{Value: true})
		case 1:
			stepExprs = append(stepExprs, exprs[0])
		default:
			stepExprs = append(stepExprs, &And{Exprs: exprs})
		}
	}

	if len(stepExprs) == 1 {
		return stepExprs[0], nil
	}
	return &Or{Exprs: stepExprs}, nil
}

// urlMatchExpr translates a step's url condition into a comparison against
// the canonical URL property.
func urlMatchExpr(url, matching string) Expr {
	field := &Field{Chain: []string{"properties", "$current_url"}}
	switch matching {
	case URLMatchExact:
		return compare(OpEq, field, url)
	case URLMatchRegex:
		return compare(OpRegex, field, url)
	default:
		// contains is the default for unset or unknown modes
		return compare(OpLike, field, "%"+url+"%")
	}
}

// propertyGroupExpr resolves an entry's own property list: nil when empty, the
// bare condition for one property, an AND group otherwise.
func propertyGroupExpr(props []PropertyFilter) (Expr, error) {
	if len(props) == 0 {
		return nil, nil
	}
	exprs := make([]Expr, len(props))
	for i, p := range props {
		expr, err := propertyToExpr(p)
		if err != nil {
			return nil, err
		}
		exprs[i] = expr
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &And{Exprs: exprs}, nil
}

func eventNameExpr(name string) Expr {
	return compare(OpEq, &Field{Chain: []string{"event"}}, name)
}

// actionRefID coerces the loosely typed action id from the raw config.
func actionRefID(ref ActionRef) (int64, error) {
	switch id := ref.ID.(type) {
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, &InvalidFilterError{Reason: "unparsable action id", Entry: ref}
		}
		return parsed, nil
	case float64:
		return int64(id), nil
	case int:
		return int64(id), nil
	case int64:
		return id, nil
	default:
		return 0, &InvalidFilterError{Reason: "missing action id", Entry: ref}
	}
}

// ActionIDs lists the action ids the spec references, in insertion order.
// Callers resolve these before compiling.
func (s *FilterSpec) ActionIDs() ([]int64, error) {
	ids := make([]int64, 0, len(s.Actions))
	for _, ref := range s.Actions {
		id, err := actionRefID(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func concatExprs(lists ...[]Expr) []Expr {
	var out []Expr
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}
