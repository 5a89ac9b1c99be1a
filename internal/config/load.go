package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path, applies defaults and environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled}}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)
	applyEnvOverrides(cfg, os.Getenv)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies TORUA_SECTION_FIELD variables. Unparseable
// numeric or duration values are ignored.
func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v := getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("TORUA_REDIRECTOR_LISTEN_ADDRESS", &cfg.Redirector.ListenAddress)
	str("TORUA_REDIRECTOR_COORDINATOR_URL", &cfg.Redirector.CoordinatorURL)
	str("TORUA_REDIRECTOR_LOCAL_ROOT", &cfg.Redirector.LocalRoot)
	str("TORUA_REDIRECTOR_DIRECTIVE_FILE", &cfg.Redirector.DirectiveFile)
	str("TORUA_REDIRECTOR_PRODUCT", &cfg.Redirector.Product)
	boolean("TORUA_REDIRECTOR_TRUST_FORWARDED_FOR", &cfg.Redirector.TrustForwardedFor)

	str("TORUA_COORDINATOR_LISTEN_ADDRESS", &cfg.Coordinator.ListenAddress)
	if v := getenv("TORUA_COORDINATOR_NUM_SHARDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Coordinator.NumShards = n
		}
	}
	duration("TORUA_COORDINATOR_HEALTH_INTERVAL", &cfg.Coordinator.HealthInterval)

	str("TORUA_LOGGING_LEVEL", &cfg.Logging.Level)
	str("TORUA_LOGGING_FORMAT", &cfg.Logging.Format)
	boolean("TORUA_METRICS_ENABLED", &cfg.Metrics.Enabled)
}
