package strategy

import (
	"fmt"
	"net/url"
	"path"

	"github.com/Masterminds/semver/v3"
)

// Spec is a validated Cassandra version specifier such as "1.2.19".
type Spec struct {
	raw     string
	version *semver.Version
}

// ParseSpec parses a dotted version string into a Spec.
// Prerelease and build metadata are accepted but unusual for Cassandra releases.
func ParseSpec(raw string) (Spec, error) {
	parsed, err := semver.StrictNewVersion(raw)
	if err != nil {
		return Spec{}, fmt.Errorf("parse version %q: %w", raw, err)
	}

	return Spec{raw: raw, version: parsed}, nil
}

// String returns the version exactly as it was supplied.
func (s Spec) String() string {
	return s.raw
}

// Patch is a textual substitution applied to one file of the extracted tree.
// Find must occur in the file; a missing token fails the installation.
type Patch struct {
	// File is the path of the target file relative to the extracted root.
	File string `yaml:"file"`
	// Find is the exact token to replace.
	Find string `yaml:"find"`
	// Replace is the token written in its place.
	Replace string `yaml:"replace"`
}

// Strategy is the resolved install plan for a single version:
// where to download from, what to patch, and how to launch.
type Strategy struct {
	// DownloadURL is the archive location for this release.
	DownloadURL string `yaml:"download_url"`
	// ArchiveName is the local filename for the downloaded archive.
	// Derived from DownloadURL when empty.
	ArchiveName string `yaml:"archive_name,omitempty"`
	// Patch is an optional config-file substitution applied after extraction.
	Patch *Patch `yaml:"patch,omitempty"`
	// LaunchFlags are passed verbatim to the server start script.
	LaunchFlags []string `yaml:"launch_flags,omitempty"`
	// JVMOptions is injected through the JVM_OPTS environment variable
	// at launch instead of editing a config file.
	JVMOptions string `yaml:"jvm_options,omitempty"`
}

// ArchiveFileName returns the explicit archive name or the base of the download URL.
func (s Strategy) ArchiveFileName() string {
	if s.ArchiveName != "" {
		return s.ArchiveName
	}

	parsed, err := url.Parse(s.DownloadURL)
	if err != nil {
		return path.Base(s.DownloadURL)
	}

	return path.Base(parsed.Path)
}
