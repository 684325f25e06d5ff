// Package config loads the shopfront client configuration from a YAML file
// with ${ENV_VAR} expansion, falling back to environment-driven defaults
// when no file is given.
package config
