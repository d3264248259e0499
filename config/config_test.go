package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "json", cfg.Persistence)
	assert.Equal(t, "records.json", cfg.Data.RecordsFile)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "memory", cfg.MQ.Backend)
	assert.Equal(t, "MAYOR'S OFFICE", cfg.IDPrefix)
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server_port: 9000\npersistence: postgres\nstorage:\n  backend: minio\n  minio:\n    bucket: from-yaml\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := LoadConfig()
	assert.Equal(t, 9100, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.Persistence)
	assert.Equal(t, "minio", cfg.Storage.Backend)
	assert.Equal(t, "from-yaml", cfg.Storage.Minio.Bucket)
	assert.True(t, cfg.Storage.Minio.UseSSL)
	// Values missing from the file keep their defaults.
	assert.Equal(t, "users.json", cfg.Data.UsersFile)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("RK_TEST_INT", "abc")
	assert.Equal(t, 7, getEnvInt("RK_TEST_INT", 7))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("RK_TEST_BOOL", "yes")
	assert.True(t, getEnvBool("RK_TEST_BOOL", false))
	t.Setenv("RK_TEST_BOOL", "nonsense")
	assert.True(t, getEnvBool("RK_TEST_BOOL", true))
}
