// sieve/pkg/compiler/parser.go

package compiler

import (
	"encoding/json"
	"fmt"
	"strconv"

	"sieve/pkg/logging"
)

// Parse parses raw filter config JSON and validates every entry. A single
// malformed entry fails the whole parse; there is no partial recovery.
func Parse(jsonData []byte) (*FilterSpec, error) {
	logging.Logger.Debug().Str("jsonData", string(jsonData)).Msg("Starting to parse filter config")
	var spec FilterSpec
	if err := json.Unmarshal(jsonData, &spec); err != nil {
		logging.Logger.Error().Err(err).Msg("Failed to unmarshal filter config")
		return nil, fmt.Errorf("invalid JSON format: %v", err)
	}

	for _, event := range spec.Events {
		for _, p := range event.Properties {
			if err := validatePropertyFilter(p); err != nil {
				logging.Logger.Error().Err(err).Str("event", event.ID).Msg("Invalid event filter property")
				return nil, err
			}
		}
	}
	for _, ref := range spec.Actions {
		if _, err := actionRefID(ref); err != nil {
			logging.Logger.Error().Err(err).Str("action", ref.Name).Msg("Invalid action filter")
			return nil, err
		}
	}
	for _, p := range spec.Properties {
		if err := validatePropertyFilter(p); err != nil {
			logging.Logger.Error().Err(err).Str("key", p.Key).Msg("Invalid property filter")
			return nil, err
		}
	}

	logging.Logger.Debug().Interface("spec", spec).Msg("Parsed filter config")
	return &spec, nil
}

// validatePropertyFilter rejects malformed property conditions before the
// builder ever sees them.
func validatePropertyFilter(p PropertyFilter) error {
	if p.Key == "" {
		return &InvalidFilterError{Reason: "empty or missing key field", Entry: p}
	}
	if p.Type == "" {
		return &InvalidFilterError{Reason: "empty or missing type field", Entry: p}
	}
	if p.Operator == "" {
		return &InvalidFilterError{Reason: "empty or missing operator field", Entry: p}
	}
	if !IsOperatorSupported(p.Operator) {
		return &UnsupportedOperatorError{Operator: p.Operator}
	}
	if !isValueValid(p.Operator, p.Value) {
		return &InvalidFilterError{
			Reason: fmt.Sprintf("invalid value %v for operator %q", p.Value, p.Operator),
			Entry:  p,
		}
	}
	return nil
}

// isValueValid checks the literal against what the operator can consume.
func isValueValid(operator string, value interface{}) bool {
	switch operator {
	case "is_set", "is_not_set":
		// Existence tests ignore the value entirely
		return true
	case "gt", "gte", "lt", "lte":
		return isNumeric(value)
	case "icontains", "not_icontains", "regex", "not_regex":
		return value != nil
	case "in", "not_in", "exact", "is_not":
		if list, ok := value.([]interface{}); ok {
			return len(list) > 0
		}
		return value != nil
	default:
		return value != nil
	}
}

func isNumeric(value interface{}) bool {
	switch v := value.(type) {
	case float64, float32, int, int64, int32:
		return true
	case string:
		_, err := strconv.ParseFloat(v, 64)
		return err == nil
	default:
		return false
	}
}
