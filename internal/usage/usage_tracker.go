// Package usage accounts for tokens and cost spent on refinement calls.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"e2egen/internal/logging"
)

type contextKey struct{}

const maxEvents = 200

// Tracker manages usage recording and persistence. A Tracker with an empty
// file path never touches disk.
type Tracker struct {
	mu       sync.Mutex
	data     UsageData
	filePath string
	now      func() time.Time
}

// NewTracker creates a tracker persisting to filePath and loads any prior data.
// A corrupt file is logged and replaced on the next Save.
func NewTracker(filePath string) (*Tracker, error) {
	t := &Tracker{
		filePath: filePath,
		data:     emptyData(),
		now:      time.Now,
	}
	if filePath == "" {
		return t, nil
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create usage dir: %w", err)
	}
	if err := t.Load(); err != nil {
		logging.Get(logging.CategoryUsage).Warn("ignoring unreadable usage file %s: %v", filePath, err)
		t.data = emptyData()
	}
	return t, nil
}

func emptyData() UsageData {
	return UsageData{
		Version: "1.0",
		Aggregate: AggregatedStats{
			ByProvider: make(map[string]TokenCounts),
			ByModel:    make(map[string]TokenCounts),
			ByTier:     make(map[string]TokenCounts),
			ByPath:     make(map[string]TokenCounts),
			ByScreen:   make(map[string]TokenCounts),
		},
	}
}

// Load reads the usage data from disk.
func (t *Tracker) Load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.filePath == "" {
		return nil
	}
	data, err := os.ReadFile(t.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	loaded := emptyData()
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	// Ensure maps are initialized if file was empty/partial
	agg := &loaded.Aggregate
	for _, m := range []*map[string]TokenCounts{&agg.ByProvider, &agg.ByModel, &agg.ByTier, &agg.ByPath, &agg.ByScreen} {
		if *m == nil {
			*m = make(map[string]TokenCounts)
		}
	}
	t.data = loaded
	return nil
}

// Save writes the usage data to disk.
func (t *Tracker) Save() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.filePath, data, 0o644)
}

// Track records one billed call. Callers only track completed calls.
func (t *Tracker) Track(ev UsageEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = t.now()
	}
	in, out, cost := ev.InputTokens, ev.OutputTokens, ev.CostUSD

	agg := &t.data.Aggregate
	agg.Total.Add(in, out, cost)
	addToMap(agg.ByProvider, ev.Provider, in, out, cost)
	addToMap(agg.ByModel, ev.Model, in, out, cost)
	addToMap(agg.ByTier, ev.Tier, in, out, cost)
	addToMap(agg.ByPath, ev.Path, in, out, cost)
	addToMap(agg.ByScreen, ev.Screen, in, out, cost)

	t.data.Events = append(t.data.Events, ev)
	if n := len(t.data.Events); n > maxEvents {
		t.data.Events = append([]UsageEvent(nil), t.data.Events[n-maxEvents:]...)
	}

	logging.UsageDebug("tracked %s/%s in=%d out=%d cost=$%.6f", ev.Provider, ev.Model, in, out, cost)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() AggregatedStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.data.Aggregate
	stats.ByProvider = copyTokenCountsMap(stats.ByProvider)
	stats.ByModel = copyTokenCountsMap(stats.ByModel)
	stats.ByTier = copyTokenCountsMap(stats.ByTier)
	stats.ByPath = copyTokenCountsMap(stats.ByPath)
	stats.ByScreen = copyTokenCountsMap(stats.ByScreen)
	return stats
}

// Events returns a copy of the retained events, oldest first.
func (t *Tracker) Events() []UsageEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]UsageEvent(nil), t.data.Events...)
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int, cost float64) {
	if key == "" {
		key = "unknown"
	}
	entry := m[key]
	entry.Add(input, output, cost)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	val, _ := ctx.Value(contextKey{}).(*Tracker)
	return val
}

type attributionKey struct{}

// Attribution labels usage events with the generation run and screen.
type Attribution struct {
	RunID  string
	Screen string
	Test   string
}

// WithAttribution adds attribution metadata to the context.
func WithAttribution(ctx context.Context, a Attribution) context.Context {
	return context.WithValue(ctx, attributionKey{}, a)
}

// AttributionFrom returns the attribution carried by ctx, if any.
func AttributionFrom(ctx context.Context) Attribution {
	a, _ := ctx.Value(attributionKey{}).(Attribution)
	return a
}
