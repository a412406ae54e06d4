// Package config loads and validates Taskforge Core configuration.
//
// Configuration comes from three layers, each overriding the last:
// hardcoded defaults, a YAML file, and TASKFORGE_* environment variables.
// The loaded Config is read-only after startup.
package config
