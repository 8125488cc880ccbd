// Package config loads runtime configuration for the Wolf Den CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path to the local database file
//	-l string   log level (debug, info, warn, error)
//	-t int      session lifetime (minutes)
//	-k int      PBKDF2 iteration count
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "8h" or integer nanoseconds:
//
//	{
//	  "database_dsn": "wolfden.db",
//	  "log_level": "info",
//	  "session_ttl": "8h",
//	  "kdf_iterations": 100000
//	}
//
// Note: This package does not read environment variables; use the JSON file
// or flags to configure values.
package config
