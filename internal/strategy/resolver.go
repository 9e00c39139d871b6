package strategy

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// supportedRange is the release line the bootstrap knows how to install.
	// Anything outside it is skipped without error.
	supportedRange = ">= 1.2.0, < 1.3.0"

	// defaultURLTemplate is the archive repository URL for the general case.
	// The version appears in both path segments.
	defaultURLTemplate = "https://archive.apache.org/dist/cassandra/%s/apache-cassandra-%s-bin.tar.gz"

	// legacyVersion is the point release served from a dedicated mirror.
	legacyVersion = "1.2.19"

	// legacyMirrorURL is the fixed mirror location of the legacy release.
	legacyMirrorURL = "https://downloads.apache.org/cassandra/1.2.19/apache-cassandra-1.2.19-bin.tar.gz"

	// stackSizeOption is the thread stack size the server needs to boot
	// on modern kernels. Older releases ship with Xss180k which is too small.
	stackSizeOption = "-Xss512k"

	// defaultPatchFile is the launcher config rewritten for non-legacy releases.
	defaultPatchFile = "conf/cassandra-env.sh"

	// defaultPatchFind is the token replaced by the default patch.
	defaultPatchFind = "Xss180k"

	// defaultPatchReplace is the token written by the default patch.
	defaultPatchReplace = "Xss512k"
)

// Resolver selects an install strategy for a version specifier.
// Resolution is a pure function of the version string: exact-match
// overrides win, every other supported version gets the templated
// archive-repository strategy.
type Resolver struct {
	supported *semver.Constraints
	overrides map[string]Strategy
}

// NewResolver builds a resolver from the built-in strategy table merged
// with user-supplied exact-match overrides. User entries shadow built-ins.
func NewResolver(overrides map[string]Strategy) (*Resolver, error) {
	constraints, err := semver.NewConstraint(supportedRange)
	if err != nil {
		return nil, fmt.Errorf("parse supported range: %w", err)
	}

	merged := builtinOverrides()
	for v, s := range overrides {
		if _, err = ParseSpec(v); err != nil {
			return nil, fmt.Errorf("override key %q: %w", v, err)
		}

		merged[v] = s
	}

	return &Resolver{
		supported: constraints,
		overrides: merged,
	}, nil
}

// Supported reports whether the resolver has a strategy for the given version.
func (r *Resolver) Supported(spec Spec) bool {
	return r.supported.Check(spec.version)
}

// Resolve returns the install strategy for a supported version.
// Calling Resolve for an unsupported version is a caller bug; the returned
// strategy would point at an archive that does not exist.
func (r *Resolver) Resolve(spec Spec) Strategy {
	if override, ok := r.overrides[spec.String()]; ok {
		if override.DownloadURL == "" {
			override.DownloadURL = templatedURL(spec)
		}

		return override
	}

	return defaultStrategy(spec)
}

// defaultStrategy is the templated plan used by every supported version
// without an exact-match override.
func defaultStrategy(spec Spec) Strategy {
	return Strategy{
		DownloadURL: templatedURL(spec),
		Patch: &Patch{
			File:    defaultPatchFile,
			Find:    defaultPatchFind,
			Replace: defaultPatchReplace,
		},
	}
}

// templatedURL substitutes the version into the archive repository template.
func templatedURL(spec Spec) string {
	return fmt.Sprintf(defaultURLTemplate, spec, spec)
}

// builtinOverrides returns the exact-match strategy table shipped with the tool.
// The legacy point release lives on a separate mirror and takes the stack
// size as a launch-time JVM option instead of a config edit.
func builtinOverrides() map[string]Strategy {
	return map[string]Strategy{
		legacyVersion: {
			DownloadURL: legacyMirrorURL,
			JVMOptions:  stackSizeOption,
		},
	}
}
