// Package config loads runtime configuration for the catlog CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c/--config. Files ending in .yaml
//     or .yml are read as YAML, anything else as JSON.
//  3. Environment variables prefixed CATLOG_, with a .env file in the working
//     directory filling in variables that are not set.
//  4. Command-line flags explicitly given, which override everything else.
//
// # File schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://localhost:8080/apis",
//	  "database_path": "catlog.db",
//	  "request_timeout": "10s",
//	  "log_level": "info",
//	  "metrics_addr": "127.0.0.1:9102",
//	  "s3": {"region": "us-east-1", "endpoint": "http://127.0.0.1:9000", "path_style": true}
//	}
package config
