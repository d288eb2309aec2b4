// Package config provides YAML configuration loading and validation for the
// transcription bot, with environment variable overrides for secrets.
package config
