package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/catlog/internal/client/imagesource"
	"github.com/spf13/pflag"
)

// Config holds runtime settings for the catlog CLI.
type Config struct {
	ServerBaseURL  string
	DatabasePath   string
	RequestTimeout time.Duration
	LogLevel       string
	// MetricsAddr, when set, serves the client's request metrics over HTTP.
	MetricsAddr string
	S3          imagesource.S3Config
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080/apis"
	c.DatabasePath = "catlog.db"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.MetricsAddr = ""
	c.S3 = imagesource.S3Config{Region: "us-east-1", PathStyle: true}
}

// Validate checks the fields that would otherwise fail late and obscurely.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server base url %q must be an absolute http(s) URL", c.ServerBaseURL)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}

// Load builds a Config from defaults, the config file, the environment and
// the flags changed on fs, in that order. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := configPath(fs)
	if err != nil {
		return nil, err
	}
	if err := parseFile(cfg, path); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
