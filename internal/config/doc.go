// Package config defines the controller settings and provides helpers to
// load, validate and save them in YAML format.
//
// Validate fills every omitted cadence, timeout and threshold with the
// defaults the controller was tuned with, so a minimal file only needs the
// bot token, the alert chat and the telemetry key.
package config
