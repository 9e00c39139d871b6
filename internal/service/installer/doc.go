// Package installer implements the version-aware bootstrap pipeline:
// stop any existing server, clear its data, fetch and extract the release
// archive for the requested version, patch its config, and launch it.
//
// Every step runs once; the first failure aborts the sequence. Versions
// outside the supported release line succeed as a no-op so CI jobs can
// invoke the bootstrap unconditionally.
package installer
