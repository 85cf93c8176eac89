// Package config loads, defaults, validates, and watches the parrot
// configuration.
//
// Configuration comes from a YAML file with PARROT_* environment
// variable overrides layered on top; either source alone can form a
// complete configuration. The Watcher reloads the file on change so a
// session picks up edited credentials or model lists without a restart.
package config
