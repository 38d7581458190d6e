package validator

import (
	"fmt"

	"sieve/pkg/compiler"
)

// ValidateSpec runs cheap structural checks before compilation. An entirely
// empty spec is valid: it compiles to the constant-true program.
func ValidateSpec(spec *compiler.FilterSpec) error {
	if spec == nil {
		return fmt.Errorf("filter spec must not be nil")
	}
	for _, ref := range spec.Actions {
		if ref.ID == nil {
			return fmt.Errorf("action filter must reference an action id")
		}
	}
	for _, event := range spec.Events {
		if event.ID == "" && len(event.Properties) == 0 {
			// Matches every event; legal but worth noticing in review
			continue
		}
	}
	return nil
}
