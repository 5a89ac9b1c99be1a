// Package config loads the YAML configuration shared by the redirector and
// the coordinator.
//
// Loading order is: defaults, YAML file, TORUA_* environment overrides,
// validation. The redirect policy itself is not part of this file; it lives in
// the directive file named by redirector.directive_file and is read by
// package policy.
package config

import "time"

// Config is the root of the configuration file.
type Config struct {
	Redirector  RedirectorConfig  `yaml:"redirector"`
	Coordinator CoordinatorConfig `yaml:"coordinator"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// RedirectorConfig configures the locate front-end.
type RedirectorConfig struct {
	// ListenAddress is where /locate and /space are served.
	ListenAddress string `yaml:"listen_address"`

	// CoordinatorURL is the base URL of the cluster manager.
	CoordinatorURL string `yaml:"coordinator_url"`

	// LocalRoot is the directory where the cluster namespace is mounted on
	// this host. Physical paths for local redirects are LocalRoot + path.
	LocalRoot string `yaml:"local_root"`

	// DirectiveFile holds "<product>.readonlyredirect" style directives.
	DirectiveFile string `yaml:"directive_file"`

	// Product prefixes directive keys.
	Product string `yaml:"product"`

	// TrustForwardedFor takes the client address from X-Forwarded-For.
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`

	// CapabilityHeader carries the client's protocol capability code.
	CapabilityHeader string `yaml:"capability_header"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// CoordinatorConfig configures the cluster manager.
type CoordinatorConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	NumShards       int           `yaml:"num_shards"`
	HealthInterval  time.Duration `yaml:"health_interval"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}
