// Package persist implements the persisted-artifact registry: a store
// tracking materialized copies of data sources, keyed by the token of the
// original source.
//
// The store owns a root directory holding the catalog file plus one
// artifact directory per persisted token. The catalog is loaded eagerly
// on open and mirrored in memory; after any successful mutating operation
// the on-disk file and the mirror agree.
//
// Access is single-process and cooperative. No lock guards the catalog
// file against other processes; Remove re-reads it before mutating so
// out-of-process edits are honored (read-repair), while Add accepts the
// inconsistency window. Within the process the store is safe for
// concurrent use.
package persist

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"larder/internal/callgroup"
	"larder/internal/catalog"
	"larder/internal/logging"
	"larder/internal/source"
	"larder/internal/token"
)

var (
	// ErrNotFound is returned when a token has no catalog entry.
	ErrNotFound = errors.New("token not found in catalog")

	// ErrReconstruct is returned when a persisted entry cannot be turned
	// back into its original source.
	ErrReconstruct = errors.New("cannot reconstruct original source")
)

// removeAll is swapped in tests to exercise non-fatal cleanup failures.
var removeAll = os.RemoveAll

// Config configures a Store.
type Config struct {
	// Dir is the store root directory. Created if missing.
	Dir string

	// Registry resolves driver names when reconstructing sources.
	Registry *source.Registry

	// Logger for structured logging. If nil, logging is disabled.
	// The store scopes this logger with component="persist-store".
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Store is the persisted-artifact registry.
type Store struct {
	mu       sync.RWMutex
	root     string
	file     catalog.File
	doc      *catalog.Document
	registry *source.Registry
	now      func() time.Time
	logger   *slog.Logger

	// refreshes collapses concurrent Refresh calls for the same token
	// into one materialization.
	refreshes callgroup.Group[token.Token, source.Source]
}

// Open opens the store rooted at cfg.Dir, creating the directory and an
// empty catalog if absent. Creation races from concurrent processes are
// tolerated by ignoring "already exists" failures, not by locking.
func Open(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("store dir is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("driver registry is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := logging.Default(cfg.Logger).With("component", "persist-store")

	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", cfg.Dir, err)
	}
	file := catalog.NewFile(filepath.Join(cfg.Dir, catalog.FileName))
	if err := file.Ensure(); err != nil {
		return nil, err
	}
	doc, err := file.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		root:     cfg.Dir,
		file:     file,
		doc:      doc,
		registry: cfg.Registry,
		now:      cfg.Now,
		logger:   logger,
	}
	s.logger.Info("opened store", "path", cfg.Dir, "sources", len(doc.Sources))
	return s, nil
}

// Dir returns the store root directory.
func (s *Store) Dir() string { return s.root }

// Registry returns the driver registry the store reconstructs with.
func (s *Store) Registry() *source.Registry { return s.registry }

func (s *Store) artifactDir(tok token.Token) string {
	return filepath.Join(s.root, string(tok))
}

// ArtifactDir returns the directory path holding a token's materialized
// data. The directory may not exist yet.
func (s *Store) ArtifactDir(v any) (string, error) {
	tok, err := token.Resolve(v)
	if err != nil {
		return "", err
	}
	return s.artifactDir(tok), nil
}

// Add records a persisted source in the catalog under tok, which must be
// the token of the original source the artifact represents. The whole
// catalog is rewritten; the in-memory mirror is updated only after the
// file write succeeds.
func (s *Store) Add(tok token.Token, src source.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &catalog.Document{Sources: maps.Clone(s.doc.Sources)}
	next.Sources[string(tok)] = src.Entry()
	if err := s.file.Save(next); err != nil {
		return fmt.Errorf("add %s: %w", tok, err)
	}
	s.doc = next

	s.logger.Info("added source", "token", tok, "name", src.Name())
	return nil
}

// Get returns the catalog entry for a token, entry, or live source.
func (s *Store) Get(v any) (catalog.Entry, error) {
	tok, err := token.Resolve(v)
	if err != nil {
		return catalog.Entry{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.doc.Sources[string(tok)]
	if !ok {
		return catalog.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, tok)
	}
	return entry, nil
}

// Contains reports whether anything is catalogued for v.
func (s *Store) Contains(v any) bool {
	_, err := s.Get(v)
	return err == nil
}

// Source opens the persisted copy recorded for v.
func (s *Store) Source(v any) (source.Source, error) {
	entry, err := s.Get(v)
	if err != nil {
		return nil, err
	}
	return s.registry.OpenEntry(entry)
}

// Entries returns a copy of the catalog mapping.
func (s *Store) Entries() map[string]catalog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.doc.Sources)
}

// Tokens returns the catalogued tokens, sorted.
func (s *Store) Tokens() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.doc.Sources))
}

// Len returns the number of catalogued entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Sources)
}

// Remove deletes a token's catalog entry. The on-disk catalog is re-read
// first, so ErrNotFound reflects what is actually on disk rather than a
// possibly stale mirror. With deleteFiles, the artifact directory is
// removed best-effort: a deletion failure is logged, not returned. The
// catalog is the source of truth and an orphaned directory is recoverable
// clutter, not data loss.
func (s *Store) Remove(v any, deleteFiles bool) error {
	tok, err := token.Resolve(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.file.Load()
	if err != nil {
		return fmt.Errorf("remove %s: %w", tok, err)
	}
	if _, ok := doc.Sources[string(tok)]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, tok)
	}
	delete(doc.Sources, string(tok))
	if err := s.file.Save(doc); err != nil {
		return fmt.Errorf("remove %s: %w", tok, err)
	}
	s.doc = doc

	if deleteFiles {
		dir := s.artifactDir(tok)
		if err := removeAll(dir); err != nil {
			s.logger.Warn("failed to remove artifact directory", "path", dir, "error", err)
		}
	}

	s.logger.Info("removed source", "token", tok)
	return nil
}

// Clear deletes the entire store: every catalog entry and every artifact
// directory. The root is recreated with an empty catalog so the store
// stays usable afterwards. Failures propagate; there is no partial-failure
// recovery.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if err := os.MkdirAll(s.root, 0o750); err != nil {
		return fmt.Errorf("recreate store dir: %w", err)
	}
	doc := catalog.NewDocument()
	if err := s.file.Save(doc); err != nil {
		return fmt.Errorf("write empty catalog: %w", err)
	}
	s.doc = doc

	s.logger.Info("cleared store")
	return nil
}

// Expired returns the tokens of catalogued entries whose TTL has
// elapsed, sorted.
func (s *Store) Expired() []token.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var toks []token.Token
	for tok, entry := range s.doc.Sources {
		if entry.Metadata.Expired(now) {
			toks = append(toks, token.Token(tok))
		}
	}
	slices.Sort(toks)
	return toks
}

// Prune removes every expired entry, returning the tokens removed.
// Artifact directories go the same best-effort way as in Remove. An
// entry that disappears between listing and removal is skipped; any
// other removal failure stops the prune with the tokens removed so far.
func (s *Store) Prune(deleteFiles bool) ([]token.Token, error) {
	var pruned []token.Token
	for _, tok := range s.Expired() {
		if err := s.Remove(tok, deleteFiles); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return pruned, err
		}
		pruned = append(pruned, tok)
	}
	if len(pruned) > 0 {
		s.logger.Info("pruned expired sources", "count", len(pruned))
	}
	return pruned, nil
}

// PrepareDir allocates a clean artifact directory for a token. Any
// previous contents are discarded, so the directory never carries stale
// files from an earlier materialization of the same token. Idempotent.
func (s *Store) PrepareDir(v any) (string, error) {
	tok, err := token.Resolve(v)
	if err != nil {
		return "", err
	}
	dir := s.artifactDir(tok)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clear artifact dir %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return dir, nil
}

// Backtrack reconstructs the original, pre-persistence source from a
// persisted entry: the stored driver name is resolved through the
// registry, the driver is instantiated with the stored constructor args,
// and the original name and metadata are restored. The result is
// behaviorally equivalent to the source that was persisted, not to the
// persisted copy.
func (s *Store) Backtrack(v any) (source.Source, error) {
	entry, err := s.Get(v)
	if err != nil {
		return nil, err
	}

	meta := entry.Metadata
	if meta.OriginalSource == nil {
		return nil, fmt.Errorf("%w: entry has no original source spec", ErrReconstruct)
	}
	factory, err := s.registry.Lookup(meta.OriginalSource.Driver)
	if err != nil {
		return nil, err
	}
	orig, err := factory(meta.OriginalSource.Args)
	if err != nil {
		return nil, fmt.Errorf("%w: driver %q: %w", ErrReconstruct, meta.OriginalSource.Driver, err)
	}

	orig.SetName(meta.OriginalName)
	if meta.OriginalMetadata != nil {
		orig.SetMetadata(*meta.OriginalMetadata)
	}
	return orig, nil
}

// NeedsRefresh reports whether a source should be (re)materialized: true
// when nothing is catalogued under the source's own token, false when the
// catalogued entry has no TTL, and otherwise true once more time has
// passed since the entry's timestamp than the TTL allows.
func (s *Store) NeedsRefresh(src source.Source) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.doc.Sources[string(src.Token())]
	if !ok {
		return true
	}
	return entry.Metadata.Expired(s.now())
}

// reload replaces the in-memory mirror with the current on-disk catalog.
func (s *Store) reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.file.Load()
	if err != nil {
		return err
	}
	s.doc = doc
	return nil
}
