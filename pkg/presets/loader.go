package presets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// maxPresetFileSize bounds individual preset files. Presets are small
// request descriptions; anything larger is a misplaced file.
const maxPresetFileSize = 1 << 20 // 1MB

// LoadError describes a failure loading one preset file.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("loading preset %s: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("loading preset %s: %s", e.FilePath, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// LoadFile loads and validates a single preset file. A preset without an
// explicit name takes the file name without extension.
func LoadFile(path string) (*Preset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}

	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > maxPresetFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), maxPresetFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file is not valid UTF-8"}
	}

	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid YAML", Cause: err}
	}

	if preset.Name == "" {
		base := filepath.Base(path)
		preset.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := preset.Validate(); err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid preset", Cause: err}
	}

	return &preset, nil
}

// LoadDir loads every preset file (.yaml, .yml) under dir, recursively.
// Hidden files and directories are skipped. Duplicate preset names are an
// error; the library must be unambiguous.
func LoadDir(dir string) (map[string]*Preset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "preset directory not accessible", Cause: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{FilePath: dir, Message: "not a directory"}
	}

	loaded := make(map[string]*Preset)
	sources := make(map[string]string)

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and directories
		if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		preset, err := LoadFile(path)
		if err != nil {
			return err
		}

		if prev, dup := sources[preset.Name]; dup {
			return &LoadError{
				FilePath: path,
				Message:  fmt.Sprintf("preset %q already defined in %s", preset.Name, prev),
			}
		}
		loaded[preset.Name] = preset
		sources[preset.Name] = path
		return nil
	})
	if err != nil {
		return nil, err
	}

	return loaded, nil
}
