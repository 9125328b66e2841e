// Package cache persists the last-known widget configuration so the loader
// can paint instantly on the next start and keep operating through network
// failure. The store is deliberately failure-tolerant: storage that is
// missing, unwritable, or full degrades to cache-miss / no-op, never to an
// error the loader has to handle.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/chatforge/widgetd/internal/widget"
)

// DefaultFileName is the fixed key the cache record lives under.
const DefaultFileName = "chatforge-widget-settings.json"

// Store holds one cache record in a single JSON file. Every write is a full
// overwrite of the record; there is no read-modify-write.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a store rooted at dir. An empty dir uses the OS cache
// directory, falling back to the temp directory.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "chatforge")
	}
	return &Store{path: filepath.Join(dir, DefaultFileName), logger: logger}
}

// Get returns the cached settings, or nil when no usable record exists.
// Read or decode failures are logged and treated as a miss.
func (s *Store) Get() *widget.CachedSettings {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("settings cache read failed", zap.Error(err))
		}
		return nil
	}

	var cached widget.CachedSettings
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Warn("settings cache corrupt, ignoring", zap.Error(err))
		return nil
	}
	return &cached
}

// Set overwrites the cache record with cfg and version. Failures are logged
// and swallowed; the loader continues on the in-memory configuration.
func (s *Store) Set(cfg widget.Config, version string) {
	record := widget.NewCachedSettings(cfg, version)
	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Warn("settings cache encode failed", zap.Error(err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Warn("settings cache dir failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Warn("settings cache write failed", zap.Error(err))
	}
}

// Path returns the file the record is stored at.
func (s *Store) Path() string {
	return s.path
}
