package types

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every configuration failure
var ErrConfig = errors.New("configuration error")

// ConfigError reports a bad input parameter before any assembly is attempted
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func NewConfigError(param string, value interface{}, format string, args ...interface{}) *ConfigError {
	return &ConfigError{
		Param:  param,
		Value:  value,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid parameter %q: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("invalid parameter %q = %v: %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }
