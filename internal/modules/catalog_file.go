package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// FileCatalog keeps the module catalog in one JSON file per module under
// baseDir. It is the fallback when no PostgreSQL DSN is configured.
type FileCatalog struct {
	mu      sync.RWMutex
	baseDir string
	modules map[string]*Module
}

func NewFileCatalog(baseDir string) (*FileCatalog, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create modules dir: %w", err)
	}
	f := &FileCatalog{baseDir: baseDir, modules: make(map[string]*Module)}
	if err := f.loadAll(); err != nil {
		return nil, err
	}
	log.WithField("dir", baseDir).Info("Using file-based module catalog")
	return f, nil
}

func (f *FileCatalog) loadAll() error {
	files, err := os.ReadDir(f.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.baseDir, file.Name()))
		if err != nil {
			continue
		}
		var m Module
		if err := json.Unmarshal(data, &m); err != nil {
			log.WithField("file", file.Name()).Warn("Skipping unreadable module entry")
			continue
		}
		f.modules[m.Name] = &m
	}
	return nil
}

func (f *FileCatalog) save(m *Module) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.baseDir, m.Name+".json"), data, 0600)
}

func (f *FileCatalog) Get(_ context.Context, name string) (*Module, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.modules[name]
	if !ok {
		return nil, &ErrModuleNotFound{Name: name}
	}
	cp := *m
	return &cp, nil
}

func (f *FileCatalog) List(_ context.Context) ([]Module, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Module, 0, len(f.modules))
	for _, m := range f.modules {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *FileCatalog) Upsert(_ context.Context, m *Module) error {
	if m.Name == "" {
		return fmt.Errorf("module name is empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *m
	now := time.Now().UTC()
	if prev, ok := f.modules[m.Name]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	if err := f.save(&cp); err != nil {
		return err
	}
	f.modules[cp.Name] = &cp
	return nil
}

func (f *FileCatalog) SetEnabled(_ context.Context, name string, enabled bool, lastError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.modules[name]
	if !ok {
		return &ErrModuleNotFound{Name: name}
	}
	m.Enabled = enabled
	m.LastError = lastError
	m.UpdatedAt = time.Now().UTC()
	return f.save(m)
}

func (f *FileCatalog) Health(_ context.Context) error {
	_, err := os.Stat(f.baseDir)
	return err
}

func (f *FileCatalog) Close() error { return nil }
