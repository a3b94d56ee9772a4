package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the catalog file inside a store root directory.
const FileName = "cat.yaml"

// File reads and writes a catalog document at a fixed path.
//
// Writes are atomic via temp file + rename with round-trip validation.
// A corrupt or unreadable catalog file is fatal to the registry's
// correctness guarantee, so both Load and Save propagate errors.
type File struct {
	path string
}

// NewFile returns a File for the catalog at path.
func NewFile(path string) File {
	return File{path: path}
}

// Path returns the catalog file path.
func (f File) Path() string {
	return f.path
}

// Ensure creates the catalog file with an empty document if it does not
// exist. Creation races from concurrent processes are tolerated: an
// "already exists" failure is not an error.
func (f File) Ensure() error {
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return fmt.Errorf("create catalog file: %w", err)
	}
	_, werr := fh.WriteString("sources: {}\n")
	cerr := fh.Close()
	if werr != nil {
		return fmt.Errorf("write empty catalog: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close catalog file: %w", cerr)
	}
	return nil
}

// Load reads and parses the whole catalog document.
func (f File) Load() (*Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if doc.Sources == nil {
		doc.Sources = map[string]Entry{}
	}
	return &doc, nil
}

// Save atomically replaces the catalog with doc.
func (f File) Save(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp catalog: %w", err)
	}

	// Round-trip validation: re-read and verify valid YAML before the
	// rename makes it the catalog.
	check, err := os.ReadFile(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("read-back temp catalog: %w", err)
	}
	var verify Document
	if err := yaml.Unmarshal(check, &verify); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("round-trip validation failed: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename catalog file: %w", err)
	}
	return nil
}

// Dir returns the directory containing the catalog file.
func (f File) Dir() string {
	return filepath.Dir(f.path)
}
