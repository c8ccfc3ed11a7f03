package common_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectt/autofacture-extractor/internal/common"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"DB_URL", "SQLITE_PATH", "WORKERS", "TOLERANCE", "RULES_PATH", "PDFTOTEXT"} {
		t.Setenv(key, "")
	}
	cfg := common.LoadConfig()

	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, "file::memory:?cache=shared", cfg.Database.SQLitePath)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "0.01", cfg.Batch.Tolerance)
	assert.Equal(t, "pdftotext", cfg.Extract.Pdftotext)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/invoices")
	t.Setenv("WORKERS", "8")
	t.Setenv("TOLERANCE", "0.05")
	t.Setenv("DB_MAX_CONN_LIFETIME", "10m")

	cfg := common.LoadConfig()
	assert.Equal(t, "postgres://localhost/invoices", cfg.Database.DSN)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, 10*time.Minute, cfg.Database.MaxConnLifetime)
	assert.Equal(t, "0.05", cfg.ToleranceDecimal().String())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := common.LoadConfig()
	cfg.Batch.Workers = 0
	assert.Error(t, cfg.Validate())

	cfg = common.LoadConfig()
	cfg.Batch.Tolerance = "not-a-number"
	assert.Error(t, cfg.Validate())
}

func TestToleranceDecimalFallback(t *testing.T) {
	cfg := common.LoadConfig()
	cfg.Batch.Tolerance = "garbage"
	assert.Equal(t, "0.01", cfg.ToleranceDecimal().String())

	cfg.Batch.Tolerance = "-1"
	assert.Equal(t, "0.01", cfg.ToleranceDecimal().String(), "negative tolerance falls back")
}
