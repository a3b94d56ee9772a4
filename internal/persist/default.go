package persist

import (
	"sync"

	"larder/internal/home"
	"larder/internal/source"
)

// The process-wide store below exists so callers that do not thread a
// *Store through their call graph still share one catalog mirror per
// process, avoiding two stores fighting over the same file. It is a
// lazily-initialized handle, not a hard singleton: tests and embedders
// swap or drop it with SetDefault/ResetDefault.

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Default returns the process-wide shared store, opening it on first use
// at the resolved root location ($LARDER_PATH or the platform default)
// with the built-in drivers registered.
func Default() (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore != nil {
		return defaultStore, nil
	}

	dir, err := home.Resolve("")
	if err != nil {
		return nil, err
	}
	registry := source.NewRegistry(nil)
	if err := source.RegisterBuiltins(registry); err != nil {
		return nil, err
	}
	s, err := Open(Config{Dir: dir.Root(), Registry: registry})
	if err != nil {
		return nil, err
	}
	defaultStore = s
	return s, nil
}

// SetDefault replaces the process-wide store.
func SetDefault(s *Store) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = s
}

// ResetDefault forgets the process-wide store; the next Default call
// opens a fresh one.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStore = nil
}
