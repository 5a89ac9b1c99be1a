package config

import "time"

const (
	DefaultRedirectorListen  = ":1094"
	DefaultCoordinatorURL    = "http://127.0.0.1:8080"
	DefaultProduct           = "torua"
	DefaultCapabilityHeader  = "X-Torua-Capability"
	DefaultCoordinatorListen = ":8080"
	DefaultNumShards         = 4
	DefaultHealthInterval    = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsEnabled    = true
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled}}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func ApplyDefaults(cfg *Config) {
	r := &cfg.Redirector
	if r.ListenAddress == "" {
		r.ListenAddress = DefaultRedirectorListen
	}
	if r.CoordinatorURL == "" {
		r.CoordinatorURL = DefaultCoordinatorURL
	}
	if r.Product == "" {
		r.Product = DefaultProduct
	}
	if r.CapabilityHeader == "" {
		r.CapabilityHeader = DefaultCapabilityHeader
	}
	if r.ShutdownTimeout == 0 {
		r.ShutdownTimeout = DefaultShutdownTimeout
	}

	c := &cfg.Coordinator
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultCoordinatorListen
	}
	if c.NumShards == 0 {
		c.NumShards = DefaultNumShards
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}
