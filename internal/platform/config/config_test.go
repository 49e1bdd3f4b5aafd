package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("LIBRARY_JWT_SECRET", "")
	t.Setenv("LIBRARY_MODE", "")

	cfg, err := Parse([]byte("mode: dev\ndatabase:\n  driver: sqlite3\n"))
	require.NoError(t, err)

	assert.Equal(t, ":8443", cfg.Server.Addr)
	assert.Equal(t, "data/library.db", cfg.DB.Path)
	assert.Equal(t, 14, cfg.Lending.DefaultLoanDays)
	assert.Equal(t, "0.50", cfg.Lending.FeePerDay)
	assert.Equal(t, "@every 1h", cfg.Lending.OverdueScanCron)
	assert.Equal(t, 5*time.Second, cfg.Lending.StoreTimeout())
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestParse_EnvOverridesSecret(t *testing.T) {
	t.Setenv("LIBRARY_JWT_SECRET", "from-env")
	t.Setenv("LIBRARY_DB_PASSWORD", "pw")

	cfg, err := Parse([]byte("mode: release\nauth:\n  jwt_secret: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "pw", cfg.DB.Password)
	assert.Equal(t, "mysql", cfg.DB.Driver)
}

func TestParse_Rejects(t *testing.T) {
	t.Setenv("LIBRARY_JWT_SECRET", "")
	t.Setenv("LIBRARY_MODE", "")

	_, err := Parse([]byte("mode: staging\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("mode: release\n"))
	assert.Error(t, err, "release without jwt secret")

	_, err = Parse([]byte("mode: dev\ndatabase:\n  driver: postgres\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("mode: [dev"))
	assert.Error(t, err)
}
