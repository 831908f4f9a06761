package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds runtime settings for the CashTrack CLI.
//
// Units: RequestTimeout is a time.Duration (e.g., 10*time.Second).
// OpeningBalance is in the register's currency unit.
type Config struct {
	// APIURL is the API root. A relative value is resolved against Origin.
	APIURL         string
	Origin         string
	RequestTimeout time.Duration
	DBPath         string
	DownloadDir    string
	OpeningBalance decimal.Decimal
	LogLevel       string
	LogFormat      string
	// MetricsAddr enables the Prometheus endpoint when set.
	MetricsAddr string
	Demo        bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIURL = "/api"
	c.Origin = "http://localhost:8000"
	c.RequestTimeout = 10 * time.Second
	c.DBPath = "cashtrack.db"
	c.DownloadDir = "reports"
	c.OpeningBalance = decimal.NewFromInt(5_000_000)
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsAddr = ""
	c.Demo = false
}

// LoadConfig constructs a Config from defaults, then a .env file (if
// present), environment variables, a JSON file and command-line flags.
// Later sources take precedence over earlier ones. The result is validated.
func LoadConfig() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// APIBaseURL returns the absolute API root.
func (c *Config) APIBaseURL() string {
	if u, err := url.Parse(c.APIURL); err == nil && u.IsAbs() {
		return strings.TrimRight(c.APIURL, "/")
	}
	return strings.TrimRight(c.Origin, "/") + "/" + strings.Trim(c.APIURL, "/")
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate reports every problem found in c at once.
func (c *Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.APIBaseURL()); err != nil {
		problems = append(problems, fmt.Sprintf("invalid API URL %q: %v", c.APIBaseURL(), err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("invalid API URL %q: must be an http(s) URL", c.APIBaseURL()))
	}

	if c.RequestTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("invalid request timeout %s: must be positive", c.RequestTimeout))
	}
	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if c.DownloadDir == "" {
		problems = append(problems, "download directory cannot be empty")
	}

	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range logLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		problems = append(problems, fmt.Sprintf("invalid log level %q: must be one of %v", c.LogLevel, logLevels))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.LogFormat))
	}

	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			problems = append(problems, fmt.Sprintf("invalid metrics address %q: %v", c.MetricsAddr, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
