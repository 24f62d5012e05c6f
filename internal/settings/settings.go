// Package settings resolves per-caller provider credentials.
package settings

import (
	"context"
	"os"
	"strings"
	"sync"

	"e2egen/internal/provider"
)

// UserSettings holds one caller's provider keys.
type UserSettings struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`
	GeminiAPIKey    string `yaml:"gemini_api_key,omitempty"`
}

// KeyFor returns the caller's key for p, or "".
func (u *UserSettings) KeyFor(p provider.Name) string {
	if u == nil {
		return ""
	}
	switch p {
	case provider.Anthropic:
		return strings.TrimSpace(u.AnthropicAPIKey)
	case provider.Gemini:
		return strings.TrimSpace(u.GeminiAPIKey)
	}
	return ""
}

// Lookup fetches a caller's settings. Unknown callers yield nil, nil.
type Lookup interface {
	Get(ctx context.Context, callerID string) (*UserSettings, error)
}

// EnvStore answers every caller from process environment variables.
type EnvStore struct {
	getenv func(string) string
}

// NewEnvStore reads ANTHROPIC_API_KEY and GEMINI_API_KEY.
func NewEnvStore() *EnvStore {
	return &EnvStore{getenv: os.Getenv}
}

func (e *EnvStore) Get(_ context.Context, _ string) (*UserSettings, error) {
	s := &UserSettings{
		AnthropicAPIKey: e.getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:    e.getenv("GEMINI_API_KEY"),
	}
	if s.AnthropicAPIKey == "" && s.GeminiAPIKey == "" {
		return nil, nil
	}
	return s, nil
}

// MemoryStore is an in-process Lookup, mostly for tests and embedding.
type MemoryStore struct {
	mu      sync.RWMutex
	callers map[string]UserSettings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{callers: make(map[string]UserSettings)}
}

// Put stores a copy of s for callerID.
func (m *MemoryStore) Put(callerID string, s UserSettings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callers[callerID] = s
}

func (m *MemoryStore) Get(ctx context.Context, callerID string) (*UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.callers[callerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Chain consults each Lookup in order and returns the first hit.
type Chain []Lookup

func (c Chain) Get(ctx context.Context, callerID string) (*UserSettings, error) {
	for _, l := range c {
		s, err := l.Get(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if s != nil {
			return s, nil
		}
	}
	return nil, nil
}
