// Package config handles YAML configuration loading with environment
// variable substitution.
//
// Configuration files support ${VAR} syntax for environment variable
// interpolation. Every field has a default, so a missing config file is
// not an error: the mapper runs out of the box.
package config
