// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
)

// ErrConfig is the root of every configuration error. Scripts report all
// validation and apply failures through it so the CLI can print the message
// and exit 1.
var ErrConfig = errors.New("configuration error")

// ConfigError is a configuration error carrying a human-readable message.
type ConfigError struct {
	Msg string
	Err error // optional underlying cause
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfig, e.Err}
	}
	return []error{ErrConfig}
}

// NewConfigError creates a configuration error from a format string.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// WrapConfigError turns a system failure during apply into a configuration error.
// A nil err returns nil.
func WrapConfigError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// DependencyError represents a reference to an object that does not exist
// in its companion registry, e.g. an ACL named by a distribute-list.
type DependencyError struct {
	Role          string // "Inbound", "Outbound", "Specified"
	DependsOnType string // "ACL", "prefix-list", "route-map"
	DependsOn     string
	Context       string // optional, e.g. `interface "eth0"`
}

func (e *DependencyError) Error() string {
	msg := fmt.Sprintf("%s %s %q does not exist", e.Role, e.DependsOnType, e.DependsOn)
	if e.Context != "" {
		msg += " on " + e.Context
	}
	return msg + "!"
}

func (e *DependencyError) Unwrap() error {
	return ErrConfig
}

// NewDependencyError creates a dependency error
func NewDependencyError(role, dependsOnType, dependsOn string) *DependencyError {
	return &DependencyError{
		Role:          role,
		DependsOnType: dependsOnType,
		DependsOn:     dependsOn,
	}
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
