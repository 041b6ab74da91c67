package classifier

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMarkers are the substrings that flag a message as advertising.
var DefaultMarkers = []string{
	"http",
	"https",
	"t.me",
	"bit.ly",
	"promo",
	"advertise",
	"buy now",
	"sale",
	"discount",
}

var defaultClassifier = New()

// IsAdvertising reports whether text contains any default marker, ignoring case.
// Matching is by substring, so "hippopromo" is flagged.
func IsAdvertising(text string) bool {
	return defaultClassifier.IsAdvertising(text)
}

// Stats contains runtime classifier metrics.
type Stats struct {
	MarkerCount      int64
	LastLookupNanos  int64
	TotalLookups     int64
	TotalFlagged     int64
	LastReloadNanos  int64
	TotalReloadCount int64
}

type state struct {
	set     map[string]struct{}
	markers []string
}

// Classifier stores advertising markers and executes case-insensitive substring lookup.
type Classifier struct {
	mu    sync.RWMutex
	state state

	lastLookupNanos atomic.Int64
	totalLookups    atomic.Int64
	totalFlagged    atomic.Int64
	lastReloadNanos atomic.Int64
	totalReloads    atomic.Int64
}

// New creates a classifier seeded with DefaultMarkers.
func New() *Classifier {
	c := &Classifier{}
	c.state = buildState(DefaultMarkers)
	return c
}

// NewEmpty creates a classifier without markers.
func NewEmpty() *Classifier {
	return &Classifier{state: state{set: make(map[string]struct{})}}
}

func normalizeMarker(marker string) string {
	return strings.ToLower(strings.TrimSpace(marker))
}

func buildState(markers []string) state {
	next := state{set: make(map[string]struct{}, len(markers))}
	for _, marker := range markers {
		m := normalizeMarker(marker)
		if m == "" {
			continue
		}
		if _, exists := next.set[m]; exists {
			continue
		}
		next.set[m] = struct{}{}
		next.markers = append(next.markers, m)
	}
	return next
}

// AddMarker inserts one marker.
func (c *Classifier) AddMarker(marker string) bool {
	m := normalizeMarker(marker)
	if m == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.state.set[m]; exists {
		return false
	}
	c.state.set[m] = struct{}{}
	c.state.markers = append(c.state.markers, m)
	return true
}

// RemoveMarker deletes one marker.
func (c *Classifier) RemoveMarker(marker string) bool {
	m := normalizeMarker(marker)
	if m == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.state.set[m]; !exists {
		return false
	}
	delete(c.state.set, m)
	markers := make([]string, 0, len(c.state.markers))
	for _, existing := range c.state.markers {
		if existing != m {
			markers = append(markers, existing)
		}
	}
	c.state.markers = markers
	return true
}

// ReplaceAll replaces all markers atomically.
func (c *Classifier) ReplaceAll(markers []string) {
	start := time.Now()
	next := buildState(markers)

	c.mu.Lock()
	c.state = next
	c.mu.Unlock()

	c.lastReloadNanos.Store(time.Since(start).Nanoseconds())
	c.totalReloads.Add(1)
}

// Count returns marker count.
func (c *Classifier) Count() int {
	c.mu.RLock()
	count := len(c.state.set)
	c.mu.RUnlock()
	return count
}

// Markers returns a sorted copy of the current markers.
func (c *Classifier) Markers() []string {
	c.mu.RLock()
	out := append([]string(nil), c.state.markers...)
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// FindMarkers returns every marker contained in text.
func (c *Classifier) FindMarkers(text string) []string {
	return c.lookup(text, false)
}

// IsAdvertising reports whether text contains at least one marker.
func (c *Classifier) IsAdvertising(text string) bool {
	return len(c.lookup(text, true)) > 0
}

func (c *Classifier) lookup(text string, firstOnly bool) []string {
	start := time.Now()
	defer func() {
		c.lastLookupNanos.Store(time.Since(start).Nanoseconds())
		c.totalLookups.Add(1)
	}()

	lower := strings.ToLower(text)
	if lower == "" {
		return nil
	}

	var found []string
	c.mu.RLock()
	for _, m := range c.state.markers {
		if !strings.Contains(lower, m) {
			continue
		}
		found = append(found, m)
		if firstOnly {
			break
		}
	}
	c.mu.RUnlock()

	if len(found) > 0 {
		c.totalFlagged.Add(1)
	}
	return found
}

// Stats returns current metrics.
func (c *Classifier) Stats() Stats {
	return Stats{
		MarkerCount:      int64(c.Count()),
		LastLookupNanos:  c.lastLookupNanos.Load(),
		TotalLookups:     c.totalLookups.Load(),
		TotalFlagged:     c.totalFlagged.Load(),
		LastReloadNanos:  c.lastReloadNanos.Load(),
		TotalReloadCount: c.totalReloads.Load(),
	}
}
