// Package config loads, validates, and normalizes podshelf configuration.
//
// Configuration lives in a TOML file (default ~/.config/podshelf/config.toml,
// falling back to ./podshelf.toml) with an embedded sample for 'config init'.
// API keys may also arrive through the environment, optionally via a .env
// file, and take precedence over file values. Load returns a fully
// normalized config: tilde paths expanded, strings trimmed, thresholds
// validated.
package config
