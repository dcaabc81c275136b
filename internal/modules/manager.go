package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"addonshub-go/internal/addons"
	"addonshub-go/internal/monitoring"
)

// marketplaceDownloader is the slice of the marketplace client the manager
// needs beyond listing.
type marketplaceDownloader interface {
	DownloadModule(ctx context.Context, name string) ([]byte, error)
}

// Manager drives module lifecycle operations against the catalog and the
// marketplace. Operations on the same module are serialized; different
// modules proceed concurrently.
type Manager struct {
	catalog    Catalog
	list       *ListCache
	downloader marketplaceDownloader
	archiveDir string

	locks sync.Map // module name -> *sync.Mutex
}

func NewManager(catalog Catalog, list *ListCache, downloader marketplaceDownloader, archiveDir string) *Manager {
	return &Manager{
		catalog:    catalog,
		list:       list,
		downloader: downloader,
		archiveDir: archiveDir,
	}
}

func (m *Manager) lockFor(name string) *sync.Mutex {
	v, _ := m.locks.LoadOrStore(name, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Upgrade brings the named module to the marketplace version. Returns
// ErrUpgradeNotNeeded when the installed version already matches, and the
// refreshed catalog entry on success.
func (m *Manager) Upgrade(ctx context.Context, name string) (*Module, error) {
	mu := m.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	installed, err := m.catalog.Get(ctx, name)
	if err != nil {
		monitoring.RecordModuleLifecycle("upgrade", "not_found")
		return nil, err
	}

	latest, err := m.latestInfo(ctx, name)
	if err != nil {
		monitoring.RecordModuleLifecycle("upgrade", "marketplace_error")
		return nil, err
	}

	if latest.Version != "" && latest.Version == installed.Version {
		monitoring.RecordModuleLifecycle("upgrade", "no_change")
		return installed, ErrUpgradeNotNeeded
	}

	archive, err := m.downloader.DownloadModule(ctx, name)
	if err != nil {
		monitoring.RecordModuleLifecycle("upgrade", "download_error")
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	if err := m.storeArchive(name, archive); err != nil {
		monitoring.RecordModuleLifecycle("upgrade", "install_error")
		return nil, err
	}

	installed.Version = latest.Version
	if latest.DisplayName != "" {
		installed.DisplayName = latest.DisplayName
	}
	installed.Enabled = true
	installed.LastError = ""
	if err := m.catalog.Upsert(ctx, installed); err != nil {
		monitoring.RecordModuleLifecycle("upgrade", "catalog_error")
		return nil, err
	}

	log.WithFields(log.Fields{"module": name, "version": installed.Version}).Info("Module upgraded")
	monitoring.RecordModuleLifecycle("upgrade", "success")
	return installed, nil
}

// latestInfo resolves the marketplace entry for one module.
func (m *Manager) latestInfo(ctx context.Context, name string) (*addons.ModuleInfo, error) {
	entries, err := m.list.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, &ErrModuleNotFound{Name: name}
}

func (m *Manager) storeArchive(name string, archive []byte) error {
	if m.archiveDir == "" {
		return nil
	}
	if err := os.MkdirAll(m.archiveDir, 0700); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	path := filepath.Join(m.archiveDir, name+".zip")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, archive, 0600); err != nil {
		return fmt.Errorf("write archive %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// Disable turns the module off and records the cause. Used as the fallback
// when an upgrade leaves the module in an unknown state.
func (m *Manager) Disable(ctx context.Context, name, cause string) error {
	mu := m.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := m.catalog.SetEnabled(ctx, name, false, cause); err != nil {
		monitoring.RecordModuleLifecycle("disable", "error")
		return err
	}
	log.WithFields(log.Fields{"module": name, "cause": cause}).Warn("Module disabled")
	monitoring.RecordModuleLifecycle("disable", "success")
	return nil
}

// Enable turns the module back on and clears its last error.
func (m *Manager) Enable(ctx context.Context, name string) error {
	mu := m.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := m.catalog.SetEnabled(ctx, name, true, ""); err != nil {
		monitoring.RecordModuleLifecycle("enable", "error")
		return err
	}
	monitoring.RecordModuleLifecycle("enable", "success")
	return nil
}
