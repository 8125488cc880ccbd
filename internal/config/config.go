package config

import (
	"time"

	"github.com/campbellco/wolfden/internal/auth"
	"github.com/campbellco/wolfden/internal/cryptox"
)

// Config holds runtime settings for the Wolf Den CLI.
//
// Fields:
//   - DatabaseDSN: path to the local SQLite database file.
//   - LogLevel: minimum log level (debug, info, warn, error).
//   - SessionTTL: how long a login session stays valid.
//   - KDFIterations: PBKDF2 iteration count for password hashing.
type Config struct {
	DatabaseDSN   string
	LogLevel      string
	SessionTTL    time.Duration
	KDFIterations int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "wolfden.db"
	c.LogLevel = "info"
	c.SessionTTL = auth.SessionTTL
	c.KDFIterations = cryptox.DefaultKDFIterations
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
