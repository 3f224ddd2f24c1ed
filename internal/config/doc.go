// Package config provides environment-based configuration.
//
// Maps environment variables to the Config struct, validates required
// fields per storage backend, and applies defaults for the sweep schedule
// and command prefix.
package config
