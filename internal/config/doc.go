// Package config provides configuration structures and utilities for
// fieldreport: invocation options, the YAML settings file with the
// datasets, cover wording and delivery targets, and secrets read from the
// environment or a dotenv file.
package config
