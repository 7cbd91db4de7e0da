package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
)

// ErrAdapterRequired is returned when no adapter type is configured.
var ErrAdapterRequired = errors.New("adapter type not specified")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*slog.Logger) Adapter)
)

// Register makes a database adapter available under the name of the dialect
// it applies. Adapter packages call it from init; registering a name twice
// replaces the earlier factory.
func Register(name string, factory func(*slog.Logger) Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[normalize(name)] = factory
}

// Get returns the factory registered under name.
func Get(name string) (func(*slog.Logger) Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[normalize(name)]
	return f, ok
}

// NewAdapter creates an unconnected adapter for cfg.Type. The type is
// matched case-insensitively against the registered dialect names. A nil
// logger is passed through to the factory.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if normalize(cfg.Type) == "" {
		return nil, ErrAdapterRequired
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	return factory(logger), nil
}

// ListAdapters returns the registered adapter names, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// IsRegistered reports whether a target of dialect name can be applied.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnknownAdapterError is returned when no adapter is registered for the
// requested type.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("no database adapter for %q\nAvailable adapters: %s\nHint: set target.type in sqlconvert.yaml or pass --to with --dsn",
		e.Type, strings.Join(e.Available, ", "))
}
