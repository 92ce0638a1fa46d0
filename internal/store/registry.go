// Package store selects and opens the users/products store configured by
// STORE_BACKEND.
//
// Each backend package registers itself at init time; import
// internal/store/backends to register all of them.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/core"
)

// OpenFunc connects a backend and verifies the connection.
// The returned store may also implement core.ProductStore.
type OpenFunc func(ctx context.Context, cfg config.StoreConfig) (core.UserStore, error)

// Backend is a registered store driver.
type Backend struct {
	Name string
	Open OpenFunc
}

var (
	registry   = make(map[string]Backend)
	registryMu sync.RWMutex
)

// Register adds a backend to the registry.
// Panics if a backend with the same name is already registered.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[b.Name]; exists {
		panic(fmt.Sprintf("store backend already registered: %s", b.Name))
	}
	registry[b.Name] = b
}

// Get returns a backend by name.
func Get(name string) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	b, ok := registry[name]
	return b, ok
}

// Names returns the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects the backend named by cfg.Backend within cfg.ConnectTimeout.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg config.StoreConfig) (core.UserStore, error) {
	b, ok := Get(cfg.Backend)
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q (registered: %v)", cfg.Backend, Names())
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	s, err := b.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return s, nil
}

// resetRegistry removes all registered backends. Used by tests.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Backend)
}
