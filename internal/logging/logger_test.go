package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	SetBase(zap.New(core))
	t.Cleanup(Reset)
	return logs
}

func TestGet_NoopBeforeInitialize(t *testing.T) {
	Reset()
	// Must not panic and must not write anywhere.
	Get(CategoryParser).Info("hello %s", "world")
	Refine("nothing %d", 1)
}

func TestGet_WritesNamedEntries(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Get(CategoryRefine).Warn("rate limited: %v", "429")
	ParserDebug("parsed %d tests", 3)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "refine", entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "rate limited: 429", entries[0].Message)
	assert.Equal(t, "parser", entries[1].LoggerName)
	assert.Equal(t, "parsed 3 tests", entries[1].Message)
}

func TestGet_RespectsLevel(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	PipelineDebug("dropped")
	Pipeline("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
}

func TestCategoryFilter(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)
	mu.Lock()
	categories = map[string]bool{"watch": false, "api": true}
	mu.Unlock()

	assert.False(t, IsCategoryEnabled(CategoryWatch))
	assert.True(t, IsCategoryEnabled(CategoryAPI))
	assert.True(t, IsCategoryEnabled(CategoryUsage), "unlisted categories stay enabled")

	Watch("suppressed")
	API("visible")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "visible", logs.All()[0].Message)
}

func TestWith_AddsFields(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	Get(CategoryPipeline).With("run_id", "abc").Info("started")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "abc", logs.All()[0].ContextMap()["run_id"])
}

func TestInitialize_FileOutput(t *testing.T) {
	t.Cleanup(Reset)
	path := filepath.Join(t.TempDir(), "e2egen.log")

	require.NoError(t, Initialize(Config{Level: "debug", Format: "json", File: path}))
	Selector("winner=%s", "modal-workflow")
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "winner=modal-workflow"))
}

func TestInitialize_InvalidLevel(t *testing.T) {
	t.Cleanup(Reset)
	err := Initialize(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestGet_ConcurrentAccess(t *testing.T) {
	observe(t, zapcore.InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			Get(CategoryRender).Info("goroutine %d", i)
		}(i)
	}
	wg.Wait()

	assert.Same(t, Get(CategoryRender), Get(CategoryRender))
}
