package modules

import (
	"context"
	"errors"
	"time"
)

// Module is one catalog entry of the shop's installed modules.
type Module struct {
	Name           string    `json:"name"`
	DisplayName    string    `json:"display_name"`
	Version        string    `json:"version"`
	IsConfigurable bool      `json:"is_configurable"`
	Enabled        bool      `json:"enabled"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ErrModuleNotFound reports an unknown module name.
type ErrModuleNotFound struct {
	Name string
}

func (e *ErrModuleNotFound) Error() string {
	return "module not found: " + e.Name
}

// ErrUpgradeNotNeeded signals the installed version already matches the
// marketplace. Callers treat it as a non-failure.
var ErrUpgradeNotNeeded = errors.New("module already up to date")

// Catalog is the persistence layer for installed modules.
type Catalog interface {
	// Get returns one module; *ErrModuleNotFound when absent.
	Get(ctx context.Context, name string) (*Module, error)

	// List returns all modules ordered by name.
	List(ctx context.Context) ([]Module, error)

	// Upsert inserts or replaces a module entry.
	Upsert(ctx context.Context, m *Module) error

	// SetEnabled flips the enabled flag and records the last error cause.
	SetEnabled(ctx context.Context, name string, enabled bool, lastError string) error

	Health(ctx context.Context) error
	Close() error
}
