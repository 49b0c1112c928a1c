package persistence

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/milestone-tracker/internal/config"
)

func TestMigrationFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_b.sql", "0001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := MigrationFiles(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop()))
}

func TestDisabledBackends(t *testing.T) {
	ctx := context.Background()

	pg, err := NewPostgres(ctx, config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, pg.Enabled())
	assert.ErrorIs(t, pg.Ping(ctx), ErrNotConfigured)
	assert.Nil(t, pg.PoolHandle())
	pg.Close()

	rd := NewRedis(ctx, config.RedisConfig{}, zap.NewNop())
	assert.False(t, rd.Enabled())
	assert.ErrorIs(t, rd.Ping(ctx), ErrNotConfigured)
	rd.Close()

	var nilPG *Postgres
	assert.ErrorIs(t, nilPG.Ping(ctx), ErrNotConfigured)
}

func TestReplayRunsKeepResultKeyOrder(t *testing.T) {
	dir := filepath.Join("..", "..", DefaultMigrationsDir)
	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	require.NotEmpty(t, files)

	schema, err := os.ReadFile(filepath.Join(dir, files[0]))
	require.NoError(t, err)
	// jsonb re-sorts object keys; results must come back as written.
	assert.Regexp(t, regexp.MustCompile(`(?m)^\s*results\s+JSON\s+NOT NULL`), string(schema))
	assert.NotContains(t, strings.ToUpper(string(schema)), "JSONB")
}
