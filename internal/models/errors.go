package models

import "fmt"

// ConfigurationError is returned for invalid run parameters, such as a channel
// count other than 3 or 4. It is fatal and raised before any processing.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when an input directory or a stored profile does not exist
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' does not exist", e.Kind, e.Name)
}
