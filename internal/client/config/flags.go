package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	FlagConfig      = "config"
	FlagServer      = "server"
	FlagDB          = "db"
	FlagLogLevel    = "log-level"
	FlagMetricsAddr = "metrics-addr"
	FlagTimeout     = "timeout"
)

// RegisterFlags declares the configuration flags on fs. Flag defaults are
// empty: only flags given on the command line override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to a JSON or YAML config file")
	fs.StringP(FlagServer, "a", "", "backend base URL, e.g. http://localhost:8080/apis")
	fs.String(FlagDB, "", "path to the local session database")
	fs.String(FlagLogLevel, "", "log level: debug, info, warn or error")
	fs.String(FlagMetricsAddr, "", "serve request metrics on this address")
	fs.Duration(FlagTimeout, 0, "per-request timeout")
}

func configPath(fs *pflag.FlagSet) (string, error) {
	if fs == nil || fs.Lookup(FlagConfig) == nil {
		return "", nil
	}
	return fs.GetString(FlagConfig)
}

// applyFlags overlays cfg with the flags that were set explicitly.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	strs := map[string]*string{
		FlagServer:      &cfg.ServerBaseURL,
		FlagDB:          &cfg.DatabasePath,
		FlagLogLevel:    &cfg.LogLevel,
		FlagMetricsAddr: &cfg.MetricsAddr,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
		*dst = v
	}

	if fs.Changed(FlagTimeout) {
		d, err := fs.GetDuration(FlagTimeout)
		if err != nil {
			return fmt.Errorf("flag --%s: %w", FlagTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
