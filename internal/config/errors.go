package config

import "fmt"

// ValidationError reports a config value that is out of range
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config value for %s: %s", e.Field, e.Reason)
}
