package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// The process-wide configuration. Command entry points call Initialize
// once; everything below them receives *Config explicitly, so the
// singleton stays at the process edges.
var (
	global   atomic.Pointer[Config]
	initOnce sync.Once
)

// Initialize loads the configuration file at path, applies environment
// overrides, validates the result, and installs it as the process
// configuration. Only the first call loads; later calls are no-ops and
// return nil.
func Initialize(path string) error {
	var initErr error
	initOnce.Do(func() {
		cfg, err := LoadConfigWithEnvOverrides(path)
		if err != nil {
			initErr = err
			return
		}
		global.Store(cfg)
	})
	return initErr
}

// GetConfig returns the process configuration, or nil before a
// successful Initialize. Safe for concurrent use.
func GetConfig() *Config {
	return global.Load()
}

// SetConfig installs cfg as the process configuration, bypassing the
// loader. Tests use it to pin a known configuration; restore the
// previous value when done.
func SetConfig(cfg *Config) {
	global.Store(cfg)
}

// ReloadConfig reloads the configuration from path and swaps it in. On
// a load or validation error the running configuration is untouched, so
// a bad edit to the file cannot take down a healthy service.
func ReloadConfig(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}
	global.Store(cfg)
	return nil
}

// MustGetConfig returns the process configuration and panics before
// Initialize. For startup paths that cannot proceed without one; prefer
// GetConfig elsewhere.
func MustGetConfig() *Config {
	cfg := global.Load()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
