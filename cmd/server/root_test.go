package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rummage/items/internal/config"
	"github.com/rummage/items/internal/models"
	"github.com/rummage/items/internal/storage"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile = ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigInit_WritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	require.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
}

func TestConfigInit_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_address: \":9090\"\n"), 0o600))

	_, err := execute(t, "config", "init", path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), ":9090")
}

func TestMigrate_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "items.db")
	t.Setenv("STORAGE_DRIVER", config.DriverSQLite)
	t.Setenv("SQLITE_PATH", dbPath)

	_, err := execute(t, "migrate")
	require.NoError(t, err)
	require.FileExists(t, dbPath)
}

func TestMigrate_RejectsOtherDrivers(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", config.DriverMemory)

	_, err := execute(t, "migrate")
	require.Error(t, err)
}

func TestReset_EmptiesJSONStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", config.DriverJSON)
	t.Setenv("DATA_DIR", dir)

	file, err := storage.NewJSONStore(dir, "items.json")
	require.NoError(t, err)
	require.NoError(t, file.SaveItems([]*models.Item{
		{ID: "id-1", Title: "lamp", CreatedAt: time.Now().UTC()},
		{ID: "id-2", Title: "chair", CreatedAt: time.Now().UTC()},
	}))

	_, err = execute(t, "reset")
	require.NoError(t, err)

	items, err := file.LoadItems()
	require.NoError(t, err)
	require.Empty(t, items)
}
