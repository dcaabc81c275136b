package modules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"
	log "github.com/sirupsen/logrus"

	"addonshub-go/internal/constants"
	"addonshub-go/internal/migrations"
)

// PostgresCatalog persists the module catalog in PostgreSQL.
type PostgresCatalog struct {
	db *sql.DB
}

func withPGTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, constants.DefaultStorageTimeout)
}

// NewPostgresCatalog opens the database, verifies connectivity and applies
// pending migrations.
func NewPostgresCatalog(dsn string) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrations.PostgresUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("Connected to PostgreSQL module catalog")
	return &PostgresCatalog{db: db}, nil
}

func (p *PostgresCatalog) Get(ctx context.Context, name string) (*Module, error) {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	var m Module
	err := p.db.QueryRowContext(ctx, `
		SELECT name, display_name, version, is_configurable, enabled, last_error, created_at, updated_at
		FROM modules WHERE name = $1`, name).
		Scan(&m.Name, &m.DisplayName, &m.Version, &m.IsConfigurable, &m.Enabled, &m.LastError, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrModuleNotFound{Name: name}
		}
		return nil, fmt.Errorf("get module %s: %w", name, err)
	}
	return &m, nil
}

func (p *PostgresCatalog) List(ctx context.Context) ([]Module, error) {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
		SELECT name, display_name, version, is_configurable, enabled, last_error, created_at, updated_at
		FROM modules ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var out []Module
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.Name, &m.DisplayName, &m.Version, &m.IsConfigurable, &m.Enabled, &m.LastError, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// GetMany fetches the named modules in a single round trip.
func (p *PostgresCatalog) GetMany(ctx context.Context, names []string) (map[string]*Module, error) {
	if len(names) == 0 {
		return map[string]*Module{}, nil
	}
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `
		SELECT name, display_name, version, is_configurable, enabled, last_error, created_at, updated_at
		FROM modules WHERE name = ANY($1)`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("batch get modules: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*Module, len(names))
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.Name, &m.DisplayName, &m.Version, &m.IsConfigurable, &m.Enabled, &m.LastError, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		result[m.Name] = &m
	}
	return result, rows.Err()
}

func (p *PostgresCatalog) Upsert(ctx context.Context, m *Module) error {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO modules (name, display_name, version, is_configurable, enabled, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (name) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			version = EXCLUDED.version,
			is_configurable = EXCLUDED.is_configurable,
			enabled = EXCLUDED.enabled,
			last_error = EXCLUDED.last_error,
			updated_at = now()`,
		m.Name, m.DisplayName, m.Version, m.IsConfigurable, m.Enabled, m.LastError)
	if err != nil {
		return fmt.Errorf("upsert module %s: %w", m.Name, err)
	}
	return nil
}

func (p *PostgresCatalog) SetEnabled(ctx context.Context, name string, enabled bool, lastError string) error {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()

	res, err := p.db.ExecContext(ctx,
		`UPDATE modules SET enabled = $2, last_error = $3, updated_at = now() WHERE name = $1`,
		name, enabled, lastError)
	if err != nil {
		return fmt.Errorf("set enabled %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &ErrModuleNotFound{Name: name}
	}
	return nil
}

func (p *PostgresCatalog) Health(ctx context.Context) error {
	ctx, cancel := withPGTimeout(ctx)
	defer cancel()
	return p.db.PingContext(ctx)
}

func (p *PostgresCatalog) Close() error {
	return p.db.Close()
}
