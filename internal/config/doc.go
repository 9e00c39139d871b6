// Package config defines bootstrap settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the Cassandra data and install directories, the
// service unit to stop, the download timeout, and optional per-version
// strategy overrides.
package config
