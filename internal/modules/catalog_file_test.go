package modules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCatalogUpsertGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat, err := NewFileCatalog(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cat.Upsert(ctx, &Module{
		Name:           "gamification",
		DisplayName:    "Gamification",
		Version:        "2.1.0",
		IsConfigurable: true,
		Enabled:        true,
	}))

	m, err := cat.Get(ctx, "gamification")
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", m.Version)
	assert.True(t, m.IsConfigurable)
	assert.False(t, m.CreatedAt.IsZero())

	_, err = cat.Get(ctx, "missing")
	var nf *ErrModuleNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestFileCatalogSurvivesReload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	cat, err := NewFileCatalog(dir)
	require.NoError(t, err)
	require.NoError(t, cat.Upsert(ctx, &Module{Name: "blockwishlist", Version: "1.0.0", Enabled: true}))

	reopened, err := NewFileCatalog(dir)
	require.NoError(t, err)
	m, err := reopened.Get(ctx, "blockwishlist")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version)
}

func TestFileCatalogSetEnabled(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat, err := NewFileCatalog(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cat.Upsert(ctx, &Module{Name: "mailalerts", Enabled: true}))
	require.NoError(t, cat.SetEnabled(ctx, "mailalerts", false, "upgrade failed"))

	m, err := cat.Get(ctx, "mailalerts")
	require.NoError(t, err)
	assert.False(t, m.Enabled)
	assert.Equal(t, "upgrade failed", m.LastError)

	var nf *ErrModuleNotFound
	assert.ErrorAs(t, cat.SetEnabled(ctx, "missing", false, ""), &nf)
}

func TestFileCatalogListSorted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cat, err := NewFileCatalog(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, cat.Upsert(ctx, &Module{Name: "zzz"}))
	require.NoError(t, cat.Upsert(ctx, &Module{Name: "aaa"}))

	list, err := cat.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "aaa", list[0].Name)
}
