package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
)

const (
	settingsFileName = "settings.json"
	boundsDebounce   = 500 * time.Millisecond
)

var (
	appDataDir      string
	appDataDirOnce  sync.Once
	dataDirOverride string
)

// DefaultSettings returns settings with default values.
func DefaultSettings() AppSettings {
	return AppSettings{
		InstanceURL: "",
		WindowBounds: WindowBounds{
			X:      200,
			Y:      200,
			Width:  1200,
			Height: 800,
		},
		CloseToTray: true,
	}
}

// SetDataDir overrides the data directory. It has no effect once AppDataDir
// has been called.
func SetDataDir(dir string) {
	dataDirOverride = dir
}

// AppDataDir returns the per-user data directory, creating it if needed.
func AppDataDir() string {
	appDataDirOnce.Do(func() {
		if dataDirOverride != "" {
			appDataDir = dataDirOverride
		} else {
			appDataDir = defaultDataDir()
		}
		os.MkdirAll(appDataDir, 0755)
	})
	return appDataDir
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.UserHomeDir()
	}
	if err != nil {
		// Fallback to exe directory
		if exe, err2 := os.Executable(); err2 == nil {
			return filepath.Dir(exe)
		}
		return "."
	}
	return filepath.Join(dir, "docmost-desktop")
}

// DataPath returns the full path for a file inside the data directory.
func DataPath(elem ...string) string {
	parts := append([]string{AppDataDir()}, elem...)
	return filepath.Join(parts...)
}

// SettingsStore reads and writes settings.json. Writers inside the process
// are serialised; concurrent writers in other processes are not.
type SettingsStore struct {
	path string
	mu   sync.Mutex

	boundsMu  sync.Mutex
	pending   *WindowBounds
	debounced func(func())

	onWrite func(AppSettings)
}

// NewSettingsStore returns a store backed by the file at path.
func NewSettingsStore(path string) *SettingsStore {
	return newSettingsStore(path, boundsDebounce)
}

func newSettingsStore(path string, delay time.Duration) *SettingsStore {
	return &SettingsStore{
		path:      path,
		debounced: debounce.New(delay),
	}
}

// Path returns the settings file path.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads settings from disk. A missing or unreadable file yields defaults.
func (s *SettingsStore) Load() AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *SettingsStore) load() AppSettings {
	cfg := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			Log.Debug("settings file not readable, using defaults", "path", s.path, "error", err)
		}
		return cfg
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		Log.Debug("settings file invalid, using defaults", "path", s.path, "error", err)
		return DefaultSettings()
	}

	// Ensure window size has valid defaults
	def := DefaultSettings()
	if cfg.WindowBounds.Width <= 0 {
		cfg.WindowBounds.Width = def.WindowBounds.Width
	}
	if cfg.WindowBounds.Height <= 0 {
		cfg.WindowBounds.Height = def.WindowBounds.Height
	}

	return cfg
}

// Save re-reads the current settings, merges patch over them and writes the
// whole document back. It returns the merged settings.
func (s *SettingsStore) Save(patch SettingsPatch) (AppSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.load()
	patch.apply(&merged)
	if err := s.write(merged); err != nil {
		return merged, err
	}
	return merged, nil
}

func (s *SettingsStore) write(cfg AppSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if s.onWrite != nil {
		s.onWrite(cfg)
	}
	return nil
}

// SaveWindowBoundsDebounced records b and persists it once no further call
// has arrived for the debounce interval. Only the latest bounds are written.
func (s *SettingsStore) SaveWindowBoundsDebounced(b WindowBounds) {
	s.boundsMu.Lock()
	s.pending = &b
	s.boundsMu.Unlock()

	s.debounced(func() {
		if err := s.flushBounds(); err != nil {
			Log.Error("saving window bounds failed", "error", err)
		}
	})
}

// Flush writes pending window bounds immediately, if any.
func (s *SettingsStore) Flush() error {
	return s.flushBounds()
}

func (s *SettingsStore) flushBounds() error {
	s.boundsMu.Lock()
	b := s.pending
	s.pending = nil
	s.boundsMu.Unlock()

	if b == nil {
		return nil
	}
	_, err := s.Save(SettingsPatch{WindowBounds: b})
	return err
}
