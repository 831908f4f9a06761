// Package config loads runtime configuration for the CashTrack CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory, if any.
//  3. CASHTRACK_* environment variables (see parseEnv).
//  4. Optional JSON file selected via -c/-config or CASHTRACK_CONFIG.
//  5. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// The timeout accepts "10s" or integer nanoseconds:
//
//	{
//	  "api_url": "https://cash.example.com/api",
//	  "request_timeout": "10s",
//	  "db_path": "cashtrack.db",
//	  "download_dir": "reports",
//	  "opening_balance": "5000000",
//	  "log_level": "info",
//	  "metrics_addr": "127.0.0.1:9102"
//	}
package config
