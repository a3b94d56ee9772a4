package source

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"larder/internal/catalog"
	"larder/internal/logging"
)

// Factory creates a source instance from constructor args.
type Factory func(args map[string]any) (Source, error)

// Registry maps driver names to factories.
//
// The registry is populated explicitly, typically in main() via
// RegisterBuiltins plus any application-specific drivers. Reconstruction
// of persisted entries resolves drivers only through this registry; an
// entry whose driver was never registered fails with ErrUnknownDriver
// rather than triggering any dynamic loading.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    *slog.Logger
}

// NewRegistry creates an empty driver registry. A nil logger disables
// logging.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logging.Default(logger).With("component", "driver-registry"),
	}
}

// Register adds a factory under a driver name. Registering the same name
// twice is an error; replacing a driver at runtime is not supported.
func (r *Registry) Register(driver string, factory Factory) error {
	if driver == "" {
		return fmt.Errorf("driver name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("driver %q: factory must not be nil", driver)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.factories[driver]; ok {
		return fmt.Errorf("driver %q already registered", driver)
	}
	r.factories[driver] = factory
	r.logger.Debug("registered driver", "driver", driver)
	return nil
}

// Lookup returns the factory for a driver name.
func (r *Registry) Lookup(driver string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	return factory, nil
}

// Drivers returns the registered driver names, sorted.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Open constructs a source from a spec.
func (r *Registry) Open(spec catalog.Spec) (Source, error) {
	factory, err := r.Lookup(spec.Driver)
	if err != nil {
		return nil, err
	}
	src, err := factory(spec.Args)
	if err != nil {
		return nil, fmt.Errorf("driver %q: %w", spec.Driver, err)
	}
	return src, nil
}

// OpenEntry constructs a source from a catalog entry, restoring the
// entry's name and metadata onto the instance.
func (r *Registry) OpenEntry(entry catalog.Entry) (Source, error) {
	src, err := r.Open(catalog.Spec{Driver: entry.Driver, Args: entry.Args})
	if err != nil {
		return nil, err
	}
	src.SetName(entry.Name)
	src.SetMetadata(entry.Metadata)
	return src, nil
}
