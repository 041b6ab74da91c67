package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var errEmptyMarker = errors.New("storage: marker is empty")

func normalize(marker string) string {
	return strings.ToLower(strings.TrimSpace(marker))
}

// MemoryAdapter keeps markers in process memory.
type MemoryAdapter struct {
	mu      sync.RWMutex
	markers map[string]struct{}
}

// NewMemoryAdapter creates a memory storage adapter seeded with markers.
func NewMemoryAdapter(markers ...string) *MemoryAdapter {
	m := &MemoryAdapter{markers: make(map[string]struct{}, len(markers))}
	for _, marker := range markers {
		if n := normalize(marker); n != "" {
			m.markers[n] = struct{}{}
		}
	}
	return m
}

func (m *MemoryAdapter) AddToken(_ context.Context, token string) error {
	marker := normalize(token)
	if marker == "" {
		return errEmptyMarker
	}
	m.mu.Lock()
	m.markers[marker] = struct{}{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryAdapter) RemoveToken(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.markers, normalize(token))
	m.mu.Unlock()
	return nil
}

func (m *MemoryAdapter) GetTokens(_ context.Context) ([]string, error) {
	m.mu.RLock()
	out := make([]string, 0, len(m.markers))
	for marker := range m.markers {
		out = append(out, marker)
	}
	m.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func (m *MemoryAdapter) TokenExists(_ context.Context, token string) (bool, error) {
	m.mu.RLock()
	_, ok := m.markers[normalize(token)]
	m.mu.RUnlock()
	return ok, nil
}
