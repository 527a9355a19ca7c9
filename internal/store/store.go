// Package store implements the small persistent key/value store used for
// the cached provider directory, its timestamp, the allow-list cache and
// per-provider enabled flags.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Close releases the underlying resources.
	Close() error
}

// Open returns the store backend named by kind ("sqlite" or "file"),
// rooted in dir.
func Open(ctx context.Context, kind, dir string) (Store, error) {
	switch strings.ToLower(kind) {
	case "sqlite":
		return OpenSQLite(ctx, filepath.Join(dir, "embedrc.db"))
	case "file":
		return NewFile(filepath.Join(dir, "store.tsv")), nil
	default:
		return nil, fmt.Errorf("unknown store %q", kind)
	}
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Close() error { return nil }
