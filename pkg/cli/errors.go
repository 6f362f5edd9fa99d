package cli

import (
	"errors"
	"fmt"

	"meterline/spendguard/pkg/billing"
	"meterline/spendguard/pkg/config"
)

// Process exit codes. Scripts branch on these: a budget denial is not a
// malfunction and gets its own code.
const (
	// ExitOK means the command succeeded.
	ExitOK = 0

	// ExitError means the command failed.
	ExitError = 1

	// ExitThresholdExceeded means a spending limit blocked the operation.
	ExitThresholdExceeded = 2

	// ExitInvalidConfig means the configuration failed validation.
	ExitInvalidConfig = 3
)

// CommandError wraps a subcommand failure with the command name.
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

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, billing.ErrThresholdExceeded):
		return ExitThresholdExceeded
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitInvalidConfig
	default:
		return ExitError
	}
}
