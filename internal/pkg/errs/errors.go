package errs

import "fmt"

// ConfigError means a required setting is missing or invalid. Fatal at startup.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("config: %s %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config: %s is required", e.Key)
}

// ExternalAPIError is an upstream failure that survived the client's retry
// policy: a non-retryable status, or a retryable one after attempts were
// exhausted. StatusCode is 0 for transport-level failures.
type ExternalAPIError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ExternalAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// DatabaseError wraps a local-store failure. Fatal to the current task only.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// ValidationError means an upstream payload failed mapping validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}
