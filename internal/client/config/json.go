package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/flagx"
	"github.com/dmitrijs2005/cashtrack/internal/timex"
	"github.com/shopspring/decimal"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify the timeout either as a
// string like "10s" or as integer nanoseconds. Absent fields leave the
// current value untouched.
type JsonConfig struct {
	APIURL         string           `json:"api_url"`
	Origin         string           `json:"origin"`
	RequestTimeout timex.Duration   `json:"request_timeout"`
	DBPath         string           `json:"db_path"`
	DownloadDir    string           `json:"download_dir"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
	LogLevel       string           `json:"log_level"`
	LogFormat      string           `json:"log_format"`
	MetricsAddr    string           `json:"metrics_addr"`
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config or CASHTRACK_CONFIG. Without a path it does nothing.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.ConfigPath()
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", jsonConfigFile, err)
	}

	setIf(&cfg.APIURL, jc.APIURL)
	setIf(&cfg.Origin, jc.Origin)
	setIf(&cfg.DBPath, jc.DBPath)
	setIf(&cfg.DownloadDir, jc.DownloadDir)
	setIf(&cfg.LogLevel, jc.LogLevel)
	setIf(&cfg.LogFormat, jc.LogFormat)
	setIf(&cfg.MetricsAddr, jc.MetricsAddr)
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
	if jc.OpeningBalance != nil {
		cfg.OpeningBalance = *jc.OpeningBalance
	}
	return nil
}
