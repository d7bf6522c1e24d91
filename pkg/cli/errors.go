package cli

import "fmt"

// ConfigError reports a bad or missing configuration value. Field holds
// the YAML path when one is known ("presets.enabled"); an empty Field
// covers failures before any single key is to blame, like an unreadable
// file.
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError builds a ConfigError for the given field path.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError wraps a failure from one europa subcommand so the entry
// point reports which command fell over while keeping the cause
// inspectable with errors.Is and errors.As.
type CommandError struct {
	Command string
	Err     error
}

// NewCommandError wraps err as a failure of the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
