package db

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/config"
)

func TestDSN(t *testing.T) {
	cfg := config.Defaults()
	cfg.Database.Password = "p@ss word"

	u, err := url.Parse(DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "localhost:5432", u.Host)
	assert.Equal(t, "/recordkeeper_db", u.Path)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pass)

	cfg.Database.UseSSL = true
	u, err = url.Parse(DSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
