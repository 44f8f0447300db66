// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrProfileNotFound = errors.New("country profile not found")
	ErrMissingAPIKey   = errors.New("exchange rate API key not configured")
	ErrRateUnavailable = errors.New("no exchange rate available")
	ErrNoData          = errors.New("no data found")
	ErrConfigInvalid   = errors.New("invalid configuration")
)

// TransportError represents a network-level failure against an upstream API.
type TransportError struct {
	Platform string
	URL      string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s] %s: %v", e.Platform, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError.
func NewTransportError(platform, url string, err error) *TransportError {
	return &TransportError{
		Platform: platform,
		URL:      url,
		Err:      err,
	}
}

// ParseError represents malformed or unexpectedly shaped upstream payloads.
type ParseError struct {
	Platform string
	Detail   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error [%s]: %s: %v", e.Platform, e.Detail, e.Err)
	}
	return fmt.Sprintf("parse error [%s]: %s", e.Platform, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(platform, detail string, err error) *ParseError {
	return &ParseError{
		Platform: platform,
		Detail:   detail,
		Err:      err,
	}
}

// ConfigError represents a missing or invalid configuration value,
// including unknown country profiles and absent rate-API keys.
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error [%s]: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("config error [%s]: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key, message string, err error) *ConfigError {
	return &ConfigError{
		Key:     key,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a record that fails canonical validation,
// such as an unmapped trade-type spelling.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
