package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
)

// FieldError is a validation failure on one field.
type FieldError struct {
	Field   string // dotted path, e.g. "redirector.local_root"
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks cfg and returns every problem found, combined with
// multierr. Use multierr.Errors to get them back individually.
func Validate(cfg *Config) error {
	var err error
	fail := func(field, format string, args ...any) {
		err = multierr.Append(err, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	r := cfg.Redirector
	if r.ListenAddress == "" {
		fail("redirector.listen_address", "must not be empty")
	}
	if u, perr := url.Parse(r.CoordinatorURL); perr != nil || u.Scheme == "" || u.Host == "" {
		fail("redirector.coordinator_url", "must be an absolute URL, got %q", r.CoordinatorURL)
	}
	if r.LocalRoot != "" && !filepath.IsAbs(r.LocalRoot) {
		fail("redirector.local_root", "must be an absolute path, got %q", r.LocalRoot)
	}
	if strings.ContainsAny(r.Product, " \t") {
		fail("redirector.product", "must not contain whitespace")
	}
	if r.ShutdownTimeout < 0 {
		fail("redirector.shutdown_timeout", "must not be negative")
	}

	c := cfg.Coordinator
	if c.ListenAddress == "" {
		fail("coordinator.listen_address", "must not be empty")
	}
	if c.NumShards <= 0 {
		fail("coordinator.num_shards", "must be positive, got %d", c.NumShards)
	}
	if c.HealthInterval <= 0 {
		fail("coordinator.health_interval", "must be positive")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		fail("logging.level", "unknown level %q", cfg.Logging.Level)
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "console":
	default:
		fail("logging.format", "unknown format %q", cfg.Logging.Format)
	}
	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		fail("metrics.path", "must start with '/'")
	}
	return err
}
