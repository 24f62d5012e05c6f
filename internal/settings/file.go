package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"e2egen/internal/logging"
)

// fileData is the on-disk layout:
//
//	callers:
//	  alice:
//	    anthropic_api_key: sealed:...
type fileData struct {
	Callers map[string]UserSettings `yaml:"callers"`
}

// FileStore reads caller settings from a YAML file. The file is re-read
// when its modification time changes.
type FileStore struct {
	path   string
	secret []byte

	mu      sync.Mutex
	modTime int64
	data    fileData
}

// NewFileStore creates a store for path. secret opens sealed values and may be nil.
func NewFileStore(path string, secret []byte) *FileStore {
	return &FileStore{path: path, secret: secret}
}

func (f *FileStore) Get(ctx context.Context, callerID string) (*UserSettings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.reloadLocked(); err != nil {
		return nil, err
	}

	raw, ok := f.data.Callers[callerID]
	if !ok {
		logging.SettingsDebug("no settings for caller %q", callerID)
		return nil, nil
	}

	anthropic, err := Open(f.secret, callerID, raw.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("caller %q anthropic_api_key: %w", callerID, err)
	}
	gemini, err := Open(f.secret, callerID, raw.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("caller %q gemini_api_key: %w", callerID, err)
	}
	return &UserSettings{AnthropicAPIKey: anthropic, GeminiAPIKey: gemini}, nil
}

func (f *FileStore) reloadLocked() error {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.data = fileData{Callers: map[string]UserSettings{}}
		f.modTime = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat settings: %w", err)
	}
	if mt := info.ModTime().UnixNano(); mt == f.modTime && f.data.Callers != nil {
		return nil
	}

	content, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	var data fileData
	if err := yaml.Unmarshal(content, &data); err != nil {
		logging.SettingsWarn("settings file %s is malformed: %v", f.path, err)
		return fmt.Errorf("parse settings: %w", err)
	}
	if data.Callers == nil {
		data.Callers = map[string]UserSettings{}
	}
	f.data = data
	f.modTime = info.ModTime().UnixNano()
	return nil
}

// Put writes s for callerID, sealing keys when a secret is configured.
func (f *FileStore) Put(callerID string, s UserSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.reloadLocked(); err != nil {
		return err
	}

	if len(f.secret) > 0 {
		var err error
		if s.AnthropicAPIKey != "" {
			if s.AnthropicAPIKey, err = Seal(f.secret, callerID, s.AnthropicAPIKey); err != nil {
				return err
			}
		}
		if s.GeminiAPIKey != "" {
			if s.GeminiAPIKey, err = Seal(f.secret, callerID, s.GeminiAPIKey); err != nil {
				return err
			}
		}
	}

	f.data.Callers[callerID] = s

	out, err := yaml.Marshal(&f.data)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, out, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	// Force a re-read on next Get.
	f.modTime = 0
	return nil
}
