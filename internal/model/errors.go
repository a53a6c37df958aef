package model

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned for input that is not text (invalid UTF-8,
// NUL bytes) or exceeds the configured document size.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError wraps ErrInvalidInput with a reason
func InvalidInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ConfigurationError reports reference data or configuration that failed to
// load or validate. It is fatal at startup.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
