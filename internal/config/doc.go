// Package config defines the settings shared by the room automation binaries
// and provides helpers to load, validate and save them in YAML format.
//
// Values are read from a YAML file, then overridden from environment variables
// named ROOMS_<SECTION>_<FIELD> (for example ROOMS_BROKER_URL or
// ROOMS_SCHEDULER_POLL_INTERVAL), validated, and completed with defaults.
package config
