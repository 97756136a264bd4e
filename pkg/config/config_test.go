package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(DirEnv, dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := useTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, filepath.Join(dir, "opsboard.db"), cfg.DatabasePath)
	assert.Equal(t, string(model.Unpaid), cfg.DefaultPaymentStatus)

	rate, err := cfg.Rate()
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestSaveAndLoad(t *testing.T) {
	useTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.DefaultRate = "120.50"
	cfg.DefaultPaymentStatus = string(model.PartiallyPaid)
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "120.50", loaded.DefaultRate)
	assert.Equal(t, string(model.PartiallyPaid), loaded.DefaultPaymentStatus)
	rate, err := loaded.Rate()
	require.NoError(t, err)
	assert.Equal(t, "120.5", rate.String())
}

func TestEnvironmentOverrides(t *testing.T) {
	useTempDir(t)
	t.Setenv("OPSBOARD_DEFAULT_RATE", "75")
	t.Setenv("OPSBOARD_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "75", cfg.DefaultRate)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidation(t *testing.T) {
	dir := useTempDir(t)

	cases := map[string]string{
		"unknown backend":       `{"backend": "mongo"}`,
		"sheets needs an id":    `{"backend": "sheets"}`,
		"bad payment status":    `{"default_payment_status": "Maybe"}`,
		"negative default rate": `{"default_rate": "-4"}`,
		"non numeric rate":      `{"default_rate": "lots"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(body), 0600))
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestNumericRateInFile(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), []byte(`{"default_rate": 90}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	rate, err := cfg.Rate()
	require.NoError(t, err)
	assert.Equal(t, "90", rate.String())
}
