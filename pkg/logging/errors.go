// sieve/pkg/logging/errors.go

package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ErrorType string

const (
	ErrorTypeParse   ErrorType = "PARSE"
	ErrorTypeBuild   ErrorType = "BUILD"
	ErrorTypeCompile ErrorType = "COMPILE"
	ErrorTypeStore   ErrorType = "STORE"
)

// SieveError carries an error type plus structured context fields for logging.
type SieveError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]interface{}
}

func (e *SieveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *SieveError) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, message string, err error, fields map[string]interface{}) *SieveError {
	return &SieveError{
		Type:    errType,
		Message: message,
		Err:     err,
		Fields:  fields,
	}
}

func LogError(logger zerolog.Logger, err error) {
	sieveErr, ok := err.(*SieveError)
	if !ok {
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	event := logger.Error().Err(sieveErr.Err).
		Str("error_type", string(sieveErr.Type)).
		Str("message", sieveErr.Message)

	for k, v := range sieveErr.Fields {
		event = event.Interface(k, v)
	}

	event.Msg(sieveErr.Message)
}
