package cli

import (
	"errors"
	"testing"
)

func TestConfigError_WithField(t *testing.T) {
	err := NewConfigError("search.backend", "unknown backend \"postgres\"")

	want := "config error in search.backend: unknown backend \"postgres\""
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConfigError_WithoutField(t *testing.T) {
	err := NewConfigError("", "failed to load config: open europa.yaml: no such file")

	want := "config error: failed to load config: open europa.yaml: no such file"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError_WrapsCause(t *testing.T) {
	cause := errors.New("run run-42 failed")
	err := NewCommandError("export", cause)

	if err.Error() != "command export failed: run run-42 failed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatal("errors.As failed to match *CommandError")
	}
	if cmdErr.Command != "export" {
		t.Errorf("Command = %q, want %q", cmdErr.Command, "export")
	}
}

func TestCommandError_AsConfigErrorCause(t *testing.T) {
	// Subcommands wrap config failures; callers still match the inner type.
	err := NewCommandError("serve", NewConfigError("telemetry.logging", "unknown log format: xml"))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatal("errors.As failed to reach the ConfigError cause")
	}
	if cfgErr.Field != "telemetry.logging" {
		t.Errorf("Field = %q", cfgErr.Field)
	}
}
