// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Missing values fall back to defaults suitable for a single-worker
// deployment; routing tunables left at zero use the engines' own defaults.
package config
