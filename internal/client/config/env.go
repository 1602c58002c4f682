package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CATLOG_"

// dotenvFile is read for variables missing from the process environment.
var dotenvFile = ".env"

type envSource struct {
	dotenv map[string]string
}

func (e envSource) lookup(name string) (string, bool) {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		return v, true
	}
	v, ok := e.dotenv[envPrefix+name]
	return v, ok
}

func loadEnvSource() (envSource, error) {
	m, err := godotenv.Read(dotenvFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return envSource{}, nil
		}
		return envSource{}, fmt.Errorf("read %s: %w", dotenvFile, err)
	}
	return envSource{dotenv: m}, nil
}

// parseEnv overlays cfg with CATLOG_* variables.
func parseEnv(cfg *Config) error {
	env, err := loadEnvSource()
	if err != nil {
		return err
	}

	strs := map[string]*string{
		"SERVER":        &cfg.ServerBaseURL,
		"DB":            &cfg.DatabasePath,
		"LOG_LEVEL":     &cfg.LogLevel,
		"METRICS_ADDR":  &cfg.MetricsAddr,
		"S3_REGION":     &cfg.S3.Region,
		"S3_ACCESS_KEY": &cfg.S3.AccessKey,
		"S3_SECRET_KEY": &cfg.S3.SecretKey,
		"S3_ENDPOINT":   &cfg.S3.Endpoint,
	}
	for name, dst := range strs {
		if v, ok := env.lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := env.lookup("TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := env.lookup("S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sS3_PATH_STYLE: %w", envPrefix, err)
		}
		cfg.S3.PathStyle = b
	}
	return nil
}
