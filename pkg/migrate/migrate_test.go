package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/teeforge-backend/pkg/config"
)

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, ValidateFS(Embedded()))
	require.NoError(t, ValidateDir(DefaultDir))
}

func TestEmbeddedMigrationsCreateEveryTable(t *testing.T) {
	var all strings.Builder
	err := fs.WalkDir(Embedded(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(Embedded(), path)
		all.Write(b)
		return err
	})
	require.NoError(t, err)

	sql := all.String()
	for _, table := range []string{
		"garments", "discount_codes", "artwork_files", "order_drafts",
		"pending_orders", "orders", "campaigns", "outbox_events", "outbox_dlq",
	} {
		require.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" ", table)
		require.Contains(t, sql, "DROP TABLE IF EXISTS "+table+";", table)
	}
	require.Contains(t, sql, "ux_campaigns_slug ON campaigns (slug)")
	require.Contains(t, sql, "ux_pending_orders_payment_intent")
	require.Contains(t, sql, "ux_orders_pending_order")
	require.Contains(t, sql, "ON outbox_events (event_type, aggregate_id)\n    WHERE event_type = 'order_paid'")
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	ok := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	cases := map[string]fstest.MapFS{
		"bad name": {"create.sql": {Data: []byte(ok)}},
		"duplicate": {
			"20260101000000_a.sql": {Data: []byte(ok)},
			"20260101000000_b.sql": {Data: []byte(ok)},
		},
		"missing down": {"20260101000000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")}},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			require.Error(t, ValidateFS(fsys))
		})
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Campaign Index!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_campaign_index.sql"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), "-- +goose Up")
	require.NoError(t, ValidateDir(filepath.Dir(path)))
}

func TestCreateSQLMigrationRejectsReusedName(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := createAt(dir, "add_mockup_urls", first)
	require.NoError(t, err)

	_, err = createAt(dir, "Add Mockup URLs", first.Add(time.Minute))
	require.ErrorContains(t, err, "already exists")

	_, err = createAt(dir, "!!!", first)
	require.Error(t, err)
}

func TestAutoRunSkipReason(t *testing.T) {
	dev := func(mutate func(*config.Config)) *config.Config {
		cfg := &config.Config{}
		cfg.App.Env = config.AppEnvDev
		cfg.FeatureFlags.AutoMigrate = true
		if mutate != nil {
			mutate(cfg)
		}
		return cfg
	}

	require.Empty(t, autoRunSkipReason(dev(nil)))
	require.Equal(t, "not a dev environment", autoRunSkipReason(dev(func(c *config.Config) { c.App.Env = "prod" })))
	require.Equal(t, "auto migrate disabled", autoRunSkipReason(dev(func(c *config.Config) { c.FeatureFlags.AutoMigrate = false })))
	require.Equal(t, "sqlite database", autoRunSkipReason(dev(func(c *config.Config) { c.FeatureFlags.UseSQLite = true })))
	require.Equal(t, "no config", autoRunSkipReason(nil))
}
