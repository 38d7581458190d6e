// sieve/pkg/validator/validator_test.go

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sieve/pkg/compiler"
)

func TestValidateSpecNil(t *testing.T) {
	err := ValidateSpec(nil)
	assert.ErrorContains(t, err, "must not be nil")
}

func TestValidateSpecEmpty(t *testing.T) {
	assert.NoError(t, ValidateSpec(&compiler.FilterSpec{}))
}

func TestValidateSpecActionWithoutID(t *testing.T) {
	spec := &compiler.FilterSpec{
		Actions: []compiler.ActionRef{{Name: "No ID"}},
	}
	err := ValidateSpec(spec)
	assert.ErrorContains(t, err, "action id")
}

func TestValidateSpecActionWithID(t *testing.T) {
	spec := &compiler.FilterSpec{
		Actions: []compiler.ActionRef{{ID: "93", Name: "Test Action"}},
	}
	assert.NoError(t, ValidateSpec(spec))
}
