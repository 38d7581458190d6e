// sieve/pkg/compiler/errors.go
package compiler

import "fmt"

// The compiler never drops a malformed entry: any of these errors fails the
// whole compilation, because a partially compiled filter program could
// silently under- or over-match events.

// InvalidFilterError reports a malformed filter entry (missing key, missing
// type, unparsable action id, and so on).
type InvalidFilterError struct {
	Reason string
	Entry  interface{}
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter entry: %s", e.Reason)
}

// UnsupportedOperatorError reports an operator outside the known set.
type UnsupportedOperatorError struct {
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q", e.Operator)
}

// UnsupportedPropertyTypeError reports a property scope the resolver does not
// recognize.
type UnsupportedPropertyTypeError struct {
	Type string
}

func (e *UnsupportedPropertyTypeError) Error() string {
	return fmt.Sprintf("unsupported property type %q", e.Type)
}

// ActionNotFoundError reports an action id that is absent from the resolved
// actions snapshot.
type ActionNotFoundError struct {
	ID int64
}

func (e *ActionNotFoundError) Error() string {
	return fmt.Sprintf("action %d not found in resolved actions", e.ID)
}
