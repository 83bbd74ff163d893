package cli

import (
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitLeakDetected = 2
)

// ErrLeakDetected is returned when a scan finds a leak and the caller asked
// for a non-zero exit status.
var ErrLeakDetected = errors.New("potential information leak detected")

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrLeakDetected):
		return ExitLeakDetected
	default:
		return ExitFailure
	}
}
