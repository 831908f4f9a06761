package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Environment variables read by parseEnv.
const (
	EnvAPIURL         = "CASHTRACK_API_URL"
	EnvOrigin         = "CASHTRACK_ORIGIN"
	EnvTimeout        = "CASHTRACK_TIMEOUT"
	EnvDB             = "CASHTRACK_DB"
	EnvDownloadDir    = "CASHTRACK_DOWNLOAD_DIR"
	EnvOpeningBalance = "CASHTRACK_OPENING_BALANCE"
	EnvLogLevel       = "CASHTRACK_LOG_LEVEL"
	EnvLogFormat      = "CASHTRACK_LOG_FORMAT"
	EnvMetricsAddr    = "CASHTRACK_METRICS_ADDR"
)

func getEnv(key string, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// parseEnv overlays cfg with CASHTRACK_* variables. CASHTRACK_TIMEOUT takes
// a Go duration ("15s") or a number of seconds.
func parseEnv(cfg *Config) error {
	cfg.APIURL = getEnv(EnvAPIURL, cfg.APIURL)
	cfg.Origin = getEnv(EnvOrigin, cfg.Origin)
	cfg.DBPath = getEnv(EnvDB, cfg.DBPath)
	cfg.DownloadDir = getEnv(EnvDownloadDir, cfg.DownloadDir)
	cfg.LogLevel = getEnv(EnvLogLevel, cfg.LogLevel)
	cfg.LogFormat = getEnv(EnvLogFormat, cfg.LogFormat)
	cfg.MetricsAddr = getEnv(EnvMetricsAddr, cfg.MetricsAddr)

	if v := getEnv(EnvTimeout, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			secs, convErr := strconv.Atoi(v)
			if convErr != nil {
				return fmt.Errorf("%s: invalid duration %q", EnvTimeout, v)
			}
			d = time.Duration(secs) * time.Second
		}
		cfg.RequestTimeout = d
	}

	if v := getEnv(EnvOpeningBalance, ""); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvOpeningBalance, err)
		}
		cfg.OpeningBalance = d
	}
	return nil
}
