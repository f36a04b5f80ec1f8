package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/sheetsync/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SHEETSYNC_TEST_DIR", "/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde", in: "~", want: home},
		{name: "tilde prefix", in: "~/db/app.db", want: filepath.Join(home, "db/app.db")},
		{name: "env var", in: "$SHEETSYNC_TEST_DIR/app.db", want: "/data/app.db"},
		{name: "plain", in: "/var/lib/app.db", want: "/var/lib/app.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoadSheetsConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/env/key.json")

	viper.Set("sheets.read_concurrency", 6)
	cfg, err := LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "/env/key.json", cfg.ServiceAccountPath)
	assert.Equal(t, 6, cfg.ReadConcurrency)
	assert.Equal(t, 3, cfg.RetryAttempts)

	viper.Set("sheets.service_account_path", "/viper/key.json")
	cfg, err = LoadSheetsConfig()
	require.NoError(t, err)
	assert.Equal(t, "/viper/key.json", cfg.ServiceAccountPath, "viper wins over env")
}

func TestLoadSheetsConfig_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET",
		"GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH",
	} {
		t.Setenv(key, "")
	}

	_, err := LoadSheetsConfig()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadAlertThresholds(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	th, err := LoadAlertThresholds()
	require.NoError(t, err)
	assert.InDelta(t, 20.0, th.RevenueDropPct, 1e-9)
	assert.InDelta(t, 30.0, th.ExpenseRisePct, 1e-9)
	assert.InDelta(t, 10.0, th.MinMarginPct, 1e-9)

	viper.Set("alerts.min_margin_pct", 15)
	th, err = LoadAlertThresholds()
	require.NoError(t, err)
	assert.InDelta(t, 15.0, th.MinMarginPct, 1e-9)

	viper.Set("alerts.revenue_drop_pct", -1)
	_, err = LoadAlertThresholds()
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
