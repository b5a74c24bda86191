// Package config loads funcanvas settings from a YAML file and validates them.
// Command-line flags are applied on top of the loaded values by the caller.
package config
