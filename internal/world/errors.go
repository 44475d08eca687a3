package world

import (
	"errors"
	"fmt"
)

// ErrConfiguration is the sentinel every *ConfigurationError unwraps to.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError means a streaming window cannot establish a valid
// initial coverage. It is never recovered internally.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }
