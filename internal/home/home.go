// Package home manages the larder root directory layout.
//
// The root directory owns all persistent state: the catalog file, one
// artifact directory per persisted token, and the store identity.
//
// Layout:
//
//	<root>/
//	  cat.yaml      (catalog of persisted sources)
//	  store_id      (persistent store identity)
//	  <token>/
//	    data.lf     (materialized records)
package home

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnvPath names the environment variable overriding the root location.
const EnvPath = "LARDER_PATH"

// Dir represents a larder root directory.
type Dir struct {
	root string
}

// New creates a Dir with an explicit root path.
func New(root string) Dir {
	return Dir{root: root}
}

// Default returns a Dir at the platform-appropriate default location:
//   - Linux:   ~/.config/larder
//   - macOS:   ~/Library/Application Support/larder
//   - Windows: %APPDATA%/larder
func Default() (Dir, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Dir{}, fmt.Errorf("determine config directory: %w", err)
	}
	return Dir{root: filepath.Join(base, "larder")}, nil
}

// Resolve picks the root directory: the explicit path when non-empty,
// else $LARDER_PATH, else the platform default.
func Resolve(explicit string) (Dir, error) {
	if explicit != "" {
		return New(explicit), nil
	}
	if p := os.Getenv(EnvPath); p != "" {
		return New(p), nil
	}
	return Default()
}

// Root returns the root directory path.
func (d Dir) Root() string {
	return d.root
}

// ArtifactDir returns the directory holding one token's materialized data.
func (d Dir) ArtifactDir(token string) string {
	return filepath.Join(d.root, token)
}

// EnsureExists creates the root directory (and parents) if it doesn't exist.
func (d Dir) EnsureExists() error {
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("create root directory %s: %w", d.root, err)
	}
	return nil
}

// StoreID reads the persistent store identity from <root>/store_id.
// If the file doesn't exist, a new UUIDv7 is generated and written.
func (d Dir) StoreID() (string, error) {
	return d.readOrCreate("store_id", func() string {
		return uuid.Must(uuid.NewV7()).String()
	})
}

// readOrCreate reads a single-line value from <root>/<filename>.
// If the file doesn't exist, generate() provides the default which is persisted.
func (d Dir) readOrCreate(filename string, generate func() string) (string, error) {
	p := filepath.Join(d.root, filename)
	data, err := os.ReadFile(p)
	if err == nil {
		if v := strings.TrimSpace(string(data)); v != "" {
			return v, nil
		}
	}
	v := generate()
	if err := os.WriteFile(p, []byte(v+"\n"), 0o640); err != nil {
		return "", fmt.Errorf("write %s: %w", filename, err)
	}
	return v, nil
}
