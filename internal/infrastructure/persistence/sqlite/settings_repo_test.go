package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/repository"
)

func testRepo(t *testing.T) repository.SettingsRepository {
	t.Helper()
	db, err := NewConnection(context.Background(), filepath.Join(t.TempDir(), "linktint.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSettingsRepository(db)
}

func TestNewConnection_EmptyPath(t *testing.T) {
	_, err := NewConnection(context.Background(), "")
	require.Error(t, err)
}

func TestRepo_LoadAbsent(t *testing.T) {
	repo := testRepo(t)
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRepo_SaveLoadRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	enabled := false
	want := entity.DefaultSettings()
	want.SiteSettings["example.com"] = entity.SiteSetting{Enabled: &enabled}

	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepo_SaveOverwrites(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := entity.DefaultSettings()
	require.NoError(t, repo.Save(ctx, first))

	second := entity.DefaultSettings()
	second.VisitedColor = "#ff0000"
	require.NoError(t, repo.Save(ctx, second))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", got.VisitedColor)
}

func TestRepo_Clear(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, entity.DefaultSettings()))
	require.NoError(t, repo.Clear(ctx))

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Clear(ctx))
}
