package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecore/order-marketplace/internal/infrastructure/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func fileStorageEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketplace.json")
	t.Setenv("STORAGE_DRIVER", "file")
	t.Setenv("LOCAL_SNAPSHOT_PATH", path)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENV", "test")
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, appName+" version dev")
}

func TestSnapshotCommands(t *testing.T) {
	snapshotPath := fileStorageEnv(t)
	exported := filepath.Join(t.TempDir(), "export.json")

	_, err := run(t, "export", "-o", exported)
	require.NoError(t, err)
	raw, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id": "alexander"`)
	assert.Contains(t, string(raw), `"id": "maxim"`)
	assert.FileExists(t, snapshotPath, "first run persists the provisioned executors")

	out, err := run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "counters consistent")

	out, err = run(t, "import", exported)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 0 orders, 0 clients")
}

func TestImportRejectsBadFile(t *testing.T) {
	fileStorageEnv(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))

	_, err := run(t, "import", bad)
	assert.Error(t, err)

	_, err = run(t, "import")
	assert.Error(t, err, "file argument is required")
}

func TestOpenBackend_FileDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverFile, LocalPath: filepath.Join(t.TempDir(), "s.json")}}
	b, err := openBackend(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, b.store)
	assert.NotNil(t, b.idempotency)
	assert.Empty(t, b.checks)
	assert.Empty(t, b.handlers)
	assert.NoError(t, b.Close(context.Background()))
}

func TestOpenBackend_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "etcd"}}
	_, err := openBackend(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown storage driver")
}
