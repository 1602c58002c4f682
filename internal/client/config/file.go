package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/catlog/internal/timex"
	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO used exclusively for file decoding. Pointer fields
// tell "absent" apart from "empty" so a file only overrides what it names.
type fileConfig struct {
	ServerBaseURL  *string         `json:"server_base_url" yaml:"server_base_url"`
	DatabasePath   *string         `json:"database_path" yaml:"database_path"`
	RequestTimeout *timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	LogLevel       *string         `json:"log_level" yaml:"log_level"`
	MetricsAddr    *string         `json:"metrics_addr" yaml:"metrics_addr"`
	S3             *fileS3Config   `json:"s3" yaml:"s3"`
}

type fileS3Config struct {
	Region    *string `json:"region" yaml:"region"`
	AccessKey *string `json:"access_key" yaml:"access_key"`
	SecretKey *string `json:"secret_key" yaml:"secret_key"`
	Endpoint  *string `json:"endpoint" yaml:"endpoint"`
	PathStyle *bool   `json:"path_style" yaml:"path_style"`
}

// parseFile overlays cfg with the values present in the file at path. An
// empty path is a no-op.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	setString(&cfg.ServerBaseURL, fc.ServerBaseURL)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if s := fc.S3; s != nil {
		setString(&cfg.S3.Region, s.Region)
		setString(&cfg.S3.AccessKey, s.AccessKey)
		setString(&cfg.S3.SecretKey, s.SecretKey)
		setString(&cfg.S3.Endpoint, s.Endpoint)
		if s.PathStyle != nil {
			cfg.S3.PathStyle = *s.PathStyle
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
