// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct tags.
// The normalizer alias-key lists and the fetch fallback templates are part of
// the configuration surface: malformed entries are fatal at startup.
package config
