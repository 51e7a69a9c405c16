package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faturamento/internal/config"
	applog "faturamento/internal/log"
	"faturamento/internal/projection"
)

func TestLoadConfigWithOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faturamento.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projection:\n  page_size_narrow: 4\n  memo_ttl: 1m\n"), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 4, cfg.Projection.PageSizeNarrow)
	assert.Equal(t, time.Minute, cfg.Projection.MemoTTL)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("DATA_BACKEND", "postgres")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigMissingOverlay(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestBillingConfig(t *testing.T) {
	cfg := config.Load()
	cfg.Projection.PageSizeNarrow = 2

	bc := BillingConfig(cfg, applog.New(applog.DefaultConfig()))
	assert.Equal(t, 2, bc.PageSizeNarrow)
	assert.Equal(t, projection.WidePageSize, bc.PageSizeWide)
	assert.Equal(t, projection.DefaultLimits(), bc.Engine.Limits)
	assert.NotNil(t, bc.Engine.Logger)
}
