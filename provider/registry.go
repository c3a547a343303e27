package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a new Client from the given configuration.
type Factory func(cfg Config) (Client, error)

// Registry maps provider names to factories.
// Applications build one at startup and pass it where clients are created;
// there is no package-level default.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a provider factory.
// Panics if a provider with the same name is already registered.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider %q already registered", name))
	}
	r.factories[name] = factory
}

// New validates cfg and creates a Client using the named provider.
// The configured Cache and Retry decorators are applied, cache outermost.
// Returns ErrUnknownProvider if the provider is not registered.
func (r *Registry) New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	r.mu.RLock()
	factory, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	client, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Retry.Enabled() {
		client = WithRetry(client, cfg.Retry)
	}
	if cfg.Cache.Enabled() {
		client = WithCache(client, cfg.Cache)
	}
	return client, nil
}

// Available returns the names of all registered providers, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a provider is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[name]
	return ok
}
