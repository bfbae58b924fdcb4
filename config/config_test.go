package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "json_files", cfg.Storage.ExportsDir)
	assert.Equal(t, "json_uploads", cfg.Storage.UploadsDir)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadSize)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Equal(t, "en-US", cfg.App.Language)
}

func TestLoadFrom_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  port: 9090\nstorage:\n  root: /tmp/photos\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0644))

	t.Setenv("PHOTOMETA_DATABASE_DSN", "custom.db")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/photos", cfg.Storage.Root)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "custom.db", cfg.Database.DSN)
}

func TestLoadFrom_RejectsMirrorWithoutProvider(t *testing.T) {
	t.Setenv("PHOTOMETA_MIRROR_ENABLED", "true")

	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror.provider")
}

func TestLoadFrom_RejectsHTTPSWithoutCertificates(t *testing.T) {
	t.Setenv("PHOTOMETA_SERVER_ENABLE_HTTPS", "true")

	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
}
