package config

import (
	"testing"
	"time"

	"staysync-backend/internal/pkg/errs"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("PMS_API_URL", "https://pms.example.com/api")
	t.Setenv("PMS_TOKEN_URL", "https://pms.example.com/oauth/token")
	t.Setenv("PMS_CLIENT_ID", "client-id")
	t.Setenv("PMS_CLIENT_SECRET", "client-secret")
	t.Setenv("PMS_PROPERTY_IDS", "listing-1, listing-2")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, []string{"listing-1", "listing-2"}, cfg.PropertyIDs)
	assert.Equal(t, 24*time.Hour, cfg.ListingTTL)
	assert.Equal(t, time.Hour, cfg.AvailabilityTTL)
	assert.Equal(t, time.Hour, cfg.SyncInterval)
	assert.Equal(t, 5, cfg.JitterPercent)
	assert.Equal(t, 2.0, cfg.PMSMaxRPS)
	assert.Equal(t, 3, cfg.PMSMaxInflight)
	assert.Equal(t, 7, cfg.AvailabilityPastDays)
	assert.Equal(t, 365, cfg.AvailabilityFutureDays)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LISTING_TTL_HOURS", "6")
	t.Setenv("AVAILABILITY_TTL_MINUTES", "15")
	t.Setenv("SYNC_INTERVAL_MINUTES", "30")
	t.Setenv("SYNC_JITTER_PERCENT", "10")
	t.Setenv("PMS_MAX_RPS", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 6*time.Hour, cfg.ListingTTL)
	assert.Equal(t, 15*time.Minute, cfg.AvailabilityTTL)
	assert.Equal(t, 30*time.Minute, cfg.SyncInterval)
	assert.Equal(t, 10, cfg.JitterPercent)
	assert.Equal(t, 0.5, cfg.PMSMaxRPS)
}

func TestLoadTrimsAPIURLTrailingSlash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PMS_API_URL", "https://pms.example.com/api/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://pms.example.com/api", cfg.PMSAPIURL)
}

func TestLoadMissingCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PMS_CLIENT_SECRET", "")

	_, err := Load()
	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Key, "PMS_CLIENT")
}

func TestLoadMissingPropertyIDs(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PMS_PROPERTY_IDS", " , ")

	_, err := Load()
	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "PMS_PROPERTY_IDS", cfgErr.Key)
}

func TestLoadRejectsJitterOutOfRange(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYNC_JITTER_PERCENT", "80")

	_, err := Load()
	var cfgErr *errs.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SYNC_JITTER_PERCENT", cfgErr.Key)
}
