package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Manager owns the live configuration: it loads the file, layers env
// overrides, and reloads on file changes. Get always returns a copy so
// callers never observe a half-applied reload.
type Manager struct {
	mu         sync.RWMutex
	configPath string
	config     *Config
	lastMod    time.Time
	stopCh     chan struct{}
	stopOnce   sync.Once
	onReload   []func(*Config)
}

// NewManager builds a manager for the given path and performs the initial
// load. Load failures are logged and fall back to defaults; a service with
// env-provided settings must still come up without a config file.
func NewManager(path string) *Manager {
	m := &Manager{configPath: path, stopCh: make(chan struct{})}
	if err := m.load(); err != nil {
		if path != "" && !os.IsNotExist(err) {
			log.WithError(err).WithField("path", path).Warn("config load failed, using defaults")
		}
		cfg := &Config{}
		applyDefaults(cfg)
		applyEnvOverrides(cfg)
		m.config = cfg
	}
	return m
}

func (m *Manager) load() error {
	if m.configPath == "" {
		return os.ErrNotExist
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	var cfg Config
	ext := strings.ToLower(filepath.Ext(m.configPath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return fmt.Errorf("failed to parse config file (tried YAML and JSON)")
			}
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if info, err := os.Stat(m.configPath); err == nil {
		m.lastMod = info.ModTime()
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	log.WithField("path", m.configPath).Info("configuration loaded")
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := *m.config
	return &cp
}

// OnReload registers a callback invoked with the fresh config after each
// successful reload. Callbacks run on the watcher goroutine.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	m.onReload = append(m.onReload, fn)
	m.mu.Unlock()
}

// Reload re-reads the config file and notifies reload subscribers.
func (m *Manager) Reload() error {
	if err := m.load(); err != nil {
		return err
	}
	cfg := m.Get()
	m.mu.RLock()
	subs := append([]func(*Config){}, m.onReload...)
	m.mu.RUnlock()
	for _, fn := range subs {
		fn(cfg)
	}
	return nil
}

func (m *Manager) checkAndReload() {
	info, err := os.Stat(m.configPath)
	if err != nil {
		return
	}
	m.mu.RLock()
	last := m.lastMod
	m.mu.RUnlock()
	if !info.ModTime().After(last) {
		return
	}
	if err := m.Reload(); err != nil {
		log.WithError(err).Warn("config reload failed; keeping previous configuration")
		return
	}
	log.Info("configuration reloaded")
}

// Stop terminates the file watcher, if running.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
