// Package config defines the application configuration structure and its
// loading/validation logic. Settings come from an optional YAML file and
// ADMIT_-prefixed environment variables, the latter taking precedence.
package config
