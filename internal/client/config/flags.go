package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/cashtrack/internal/flagx"
)

var knownFlags = []string{"-a", "-o", "-t", "-d", "-r", "-l", "-m"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   API URL, absolute or relative to the origin
//	-o string   origin the relative API URL is joined onto
//	-t int      request timeout in seconds
//	-d string   path of the local session database
//	-r string   directory reports are downloaded into
//	-l string   log level
//	-m string   address of the metrics endpoint
//	-demo       run against the built-in demo data
//
// Only the flags listed above are parsed; see flagx.FilterArgs.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIURL, "a", cfg.APIURL, "API URL")
	fs.StringVar(&cfg.Origin, "o", cfg.Origin, "origin for a relative API URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "session database path")
	fs.StringVar(&cfg.DownloadDir, "r", cfg.DownloadDir, "report download directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	if flagx.HasFlag(os.Args[1:], "-demo") {
		cfg.Demo = true
	}
	return nil
}
