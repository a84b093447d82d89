package command

import "fmt"

// ErrorType classifies command failures
type ErrorType int

const (
	ErrorUsage ErrorType = iota
	ErrorLookup
	ErrorLocked
	ErrorKeyword
	ErrorPersistence
	ErrorInternal
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	types := []string{
		"usage", "lookup", "locked", "keyword", "persistence", "internal",
	}

	if int(e) >= 0 && int(e) < len(types) {
		return types[e]
	}
	return "unknown"
}

// CommandError is a failure reported to the player as a scrollback line
type CommandError struct {
	Type    ErrorType
	Command string
	Message string
	Cause   error
}

// Error returns the message shown in the terminal
func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// NewCommandError creates a new command error
func NewCommandError(errorType ErrorType, command, message string, cause error) *CommandError {
	return &CommandError{
		Type:    errorType,
		Command: command,
		Message: message,
		Cause:   cause,
	}
}

func usageError(cmd *Command) *CommandError {
	return NewCommandError(ErrorUsage, cmd.Name, "usage: "+cmd.Usage, nil)
}

func notACommand(name string) *CommandError {
	return NewCommandError(ErrorLookup, name, fmt.Sprintf("%q is not a command", name), nil)
}
