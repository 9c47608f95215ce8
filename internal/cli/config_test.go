package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("RECORDSTORE_BACKEND", "")
	v, err := loadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, defaultBackend, v.GetString(cfgKeyBackend))
	assert.Equal(t, defaultLogLevel, v.GetString(cfgKeyLogLevel))
	assert.Equal(t, defaultLogFormat, v.GetString(cfgKeyLogFormat))
	assert.Empty(t, v.GetString(cfgKeyDataDir))
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileExt), []byte("backend: [memory\n"), 0o644))
	_, err := loadConfig(dir)
	assert.Error(t, err)
}

func TestWriteConfigIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), configFileExt)

	written, err := writeConfigIfMissing(path, configFile{Backend: "memory", DataDir: "/tmp/rs"})
	require.NoError(t, err)
	assert.True(t, written)

	t.Setenv("RECORDSTORE_BACKEND", "")
	t.Setenv("RECORDSTORE_DATA_DIR", "")
	v, err := loadConfig(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, "memory", v.GetString(cfgKeyBackend))
	assert.Equal(t, "/tmp/rs", v.GetString(cfgKeyDataDir))

	written, err = writeConfigIfMissing(path, configFile{Backend: "sqlite"})
	require.NoError(t, err)
	assert.False(t, written)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: memory")
}
