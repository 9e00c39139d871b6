// Package strategy resolves a Cassandra version specifier into an install
// strategy: the archive download URL, an optional config-file patch, and
// the flags the server is launched with.
//
// Resolution is pure and deterministic. Exact-match overrides (built-in or
// user-supplied) are consulted first; all other versions inside the
// supported release line fall back to a templated archive-repository URL.
package strategy
