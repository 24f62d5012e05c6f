package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e2egen/internal/provider"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	secret := []byte("s3cret")

	sealed, err := Seal(secret, "alice", "sk-ant-123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sealed, SealedPrefix))
	assert.NotContains(t, sealed, "sk-ant-123")

	plain, err := Open(secret, "alice", sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-123", plain)

	// Keys are bound to the caller.
	_, err = Open(secret, "bob", sealed)
	assert.ErrorIs(t, err, ErrOpenFailed)

	_, err = Open([]byte("other"), "alice", sealed)
	assert.ErrorIs(t, err, ErrOpenFailed)

	_, err = Open(nil, "alice", sealed)
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = Open(secret, "alice", SealedPrefix+"!!!")
	assert.ErrorIs(t, err, ErrOpenFailed)

	_, err = Seal(nil, "alice", "x")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestOpen_PlainPassthrough(t *testing.T) {
	plain, err := Open(nil, "alice", "sk-plain")
	require.NoError(t, err)
	assert.Equal(t, "sk-plain", plain)
}

func TestFileStore_Get(t *testing.T) {
	secret := []byte("file-secret")
	sealed, err := Seal(secret, "alice", "sk-ant-alice")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "callers:\n" +
		"  alice:\n" +
		"    anthropic_api_key: " + sealed + "\n" +
		"    gemini_api_key: plain-gemini\n" +
		"  bob:\n" +
		"    gemini_api_key: bob-gemini\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store := NewFileStore(path, secret)
	ctx := context.Background()

	alice, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "sk-ant-alice", alice.KeyFor(provider.Anthropic))
	assert.Equal(t, "plain-gemini", alice.KeyFor(provider.Gemini))

	bob, err := store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bob.KeyFor(provider.Anthropic))

	nobody, err := store.Get(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, nobody)
}

func TestFileStore_MissingFileAndPut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	store := NewFileStore(path, []byte("k"))
	ctx := context.Background()

	s, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, store.Put("alice", UserSettings{AnthropicAPIKey: "sk-1"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), SealedPrefix)
	assert.NotContains(t, string(raw), "sk-1")

	s, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "sk-1", s.AnthropicAPIKey)
}

func TestFileStore_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("callers: [unclosed"), 0o600))
	_, err := NewFileStore(bad, nil).Get(ctx, "alice")
	assert.Error(t, err)

	sealedNoSecret := filepath.Join(dir, "sealed.yaml")
	require.NoError(t, os.WriteFile(sealedNoSecret, []byte("callers:\n  alice:\n    anthropic_api_key: sealed:AAAA\n"), 0o600))
	_, err = NewFileStore(sealedNoSecret, nil).Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrNoSecret)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewFileStore(bad, nil).Get(cancelled, "alice")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnvStore(t *testing.T) {
	env := map[string]string{"ANTHROPIC_API_KEY": " sk-env "}
	store := &EnvStore{getenv: func(k string) string { return env[k] }}

	s, err := store.Get(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", s.KeyFor(provider.Anthropic))

	env = map[string]string{}
	s, err = store.Get(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestChainAndMemoryStore(t *testing.T) {
	first := NewMemoryStore()
	second := NewMemoryStore()
	second.Put("alice", UserSettings{GeminiAPIKey: "g"})
	first.Put("bob", UserSettings{AnthropicAPIKey: "a"})

	chain := Chain{first, second}
	ctx := context.Background()

	alice, err := chain.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "g", alice.GeminiAPIKey)

	bob, err := chain.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "a", bob.AnthropicAPIKey)

	none, err := chain.Get(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, none)

	var nilSettings *UserSettings
	assert.Empty(t, nilSettings.KeyFor(provider.Anthropic))
}
