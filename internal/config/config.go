package config

import (
	"os"
	"strings"
	"time"

	"staysync-backend/internal/pkg/errs"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	RedisURL    string

	// Upstream PMS API
	PMSAPIURL       string
	PMSTokenURL     string
	PMSClientID     string
	PMSClientSecret string
	PMSMaxRPS       float64 // requests-per-second ceiling (safety margin below published limit)
	PMSMaxInflight  int     // max concurrent in-flight requests

	// Sync engine
	PropertyIDs            []string
	ListingTTL             time.Duration
	AvailabilityTTL        time.Duration
	SyncInterval           time.Duration
	JitterPercent          int
	AvailabilityPastDays   int
	AvailabilityFutureDays int

	AdminAPIKey       string
	CORSAllowedSuffix string
}

// Load loads config from env and optional .env file.
// Missing upstream credentials are a ConfigError: the engine cannot run without them.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL_DEV")
	}

	cfg := &Config{
		Env:         env,
		Port:        port,
		DatabaseURL: dbURL,
		RedisURL:    viper.GetString("REDIS_URL"),

		PMSAPIURL:       strings.TrimRight(viper.GetString("PMS_API_URL"), "/"),
		PMSTokenURL:     viper.GetString("PMS_TOKEN_URL"),
		PMSClientID:     viper.GetString("PMS_CLIENT_ID"),
		PMSClientSecret: viper.GetString("PMS_CLIENT_SECRET"),
		PMSMaxRPS:       floatOr("PMS_MAX_RPS", 2),
		PMSMaxInflight:  intOr("PMS_MAX_INFLIGHT", 3),

		PropertyIDs:            splitList(viper.GetString("PMS_PROPERTY_IDS")),
		ListingTTL:             time.Duration(intOr("LISTING_TTL_HOURS", 24)) * time.Hour,
		AvailabilityTTL:        time.Duration(intOr("AVAILABILITY_TTL_MINUTES", 60)) * time.Minute,
		SyncInterval:           time.Duration(intOr("SYNC_INTERVAL_MINUTES", 60)) * time.Minute,
		JitterPercent:          intOr("SYNC_JITTER_PERCENT", 5),
		AvailabilityPastDays:   intOr("AVAILABILITY_PAST_DAYS", 7),
		AvailabilityFutureDays: intOr("AVAILABILITY_FUTURE_DAYS", 365),

		AdminAPIKey:       viper.GetString("ADMIN_API_KEY"),
		CORSAllowedSuffix: viper.GetString("CORS_ALLOWED_SUFFIX"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PMSAPIURL == "" {
		return &errs.ConfigError{Key: "PMS_API_URL"}
	}
	if c.PMSTokenURL == "" {
		return &errs.ConfigError{Key: "PMS_TOKEN_URL"}
	}
	if c.PMSClientID == "" || c.PMSClientSecret == "" {
		return &errs.ConfigError{Key: "PMS_CLIENT_ID/PMS_CLIENT_SECRET"}
	}
	if len(c.PropertyIDs) == 0 {
		return &errs.ConfigError{Key: "PMS_PROPERTY_IDS"}
	}
	if c.JitterPercent < 0 || c.JitterPercent > 50 {
		return &errs.ConfigError{Key: "SYNC_JITTER_PERCENT", Reason: "must be between 0 and 50"}
	}
	return nil
}

func intOr(key string, def int) int {
	if !viper.IsSet(key) || viper.GetString(key) == "" {
		return def
	}
	return viper.GetInt(key)
}

func floatOr(key string, def float64) float64 {
	if !viper.IsSet(key) || viper.GetString(key) == "" {
		return def
	}
	return viper.GetFloat64(key)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
