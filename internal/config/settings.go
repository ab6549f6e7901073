package config

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/semmidev/offsite/internal/domain"
)

// SettingsStore serves the single Settings record. Reads never block on a
// reload in progress for longer than the swap itself.
type SettingsStore struct {
	mu      sync.RWMutex
	current domain.Settings
}

func NewSettingsStore(s domain.Settings) *SettingsStore {
	return &SettingsStore{current: s}
}

func (s *SettingsStore) Current() (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *SettingsStore) Set(settings domain.Settings) {
	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
}

// WatchSettings reloads the settings section into store whenever the config
// file changes. Invalid edits are reported and the previous settings kept.
func (c *Config) WatchSettings(store *SettingsStore, report func(error)) {
	if c.v == nil {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		var sc SettingsConfig
		if err := c.v.UnmarshalKey("settings", &sc); err != nil {
			report(fmt.Errorf("reload settings from %s: %w", e.Name, err))
			return
		}
		settings, err := sc.ToDomain()
		if err != nil {
			report(fmt.Errorf("reload settings from %s: %w", e.Name, err))
			return
		}
		store.Set(settings)
	})
	c.v.WatchConfig()
}
