package strategy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseSpec checks accepted and rejected version strings.
func TestParseSpec(t *testing.T) {
	t.Parallel()

	spec, err := ParseSpec("1.2.19")
	require.NoError(t, err)
	require.Equal(t, "1.2.19", spec.String())

	for _, raw := range []string{"", "latest", "1.2", "1.2.x", "v1.2.3.4"} {
		_, err = ParseSpec(raw)
		require.Error(t, err, "input %q", raw)
	}
}

// TestResolver_Supported verifies the release-line gate.
func TestResolver_Supported(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(nil)
	require.NoError(t, err)

	cases := map[string]bool{
		"1.2.0":  true,
		"1.2.3":  true,
		"1.2.19": true,
		"1.1.12": false,
		"1.3.0":  false,
		"2.0.0":  false,
		"0.8.10": false,
	}
	for raw, want := range cases {
		spec, specErr := ParseSpec(raw)
		require.NoError(t, specErr)
		require.Equal(t, want, resolver.Supported(spec), "version %s", raw)
	}
}

// TestResolver_LegacyMirror ensures the distinguished point release always
// resolves to its fixed mirror URL with the inline JVM flag and no file patch.
func TestResolver_LegacyMirror(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(nil)
	require.NoError(t, err)

	spec, err := ParseSpec("1.2.19")
	require.NoError(t, err)

	got := resolver.Resolve(spec)
	require.Equal(t,
		"https://downloads.apache.org/cassandra/1.2.19/apache-cassandra-1.2.19-bin.tar.gz",
		got.DownloadURL)
	require.Equal(t, "-Xss512k", got.JVMOptions)
	require.Nil(t, got.Patch)
	require.Equal(t, "apache-cassandra-1.2.19-bin.tar.gz", got.ArchiveFileName())
}

// TestResolver_TemplatedDefault checks that ordinary supported versions use the
// archive repository template with the version substituted in both path segments.
func TestResolver_TemplatedDefault(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(nil)
	require.NoError(t, err)

	spec, err := ParseSpec("1.2.3")
	require.NoError(t, err)

	got := resolver.Resolve(spec)
	require.Equal(t,
		"https://archive.apache.org/dist/cassandra/1.2.3/apache-cassandra-1.2.3-bin.tar.gz",
		got.DownloadURL)
	require.Empty(t, got.JVMOptions)
	require.NotNil(t, got.Patch)
	require.Equal(t, "conf/cassandra-env.sh", got.Patch.File)
	require.Equal(t, "Xss180k", got.Patch.Find)
	require.Equal(t, "Xss512k", got.Patch.Replace)
}

// TestResolver_Deterministic ensures repeated resolution yields the same plan.
func TestResolver_Deterministic(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(nil)
	require.NoError(t, err)

	spec, err := ParseSpec("1.2.11")
	require.NoError(t, err)

	require.Equal(t, resolver.Resolve(spec), resolver.Resolve(spec))
}

// TestResolver_UserOverrides verifies user entries shadow built-ins and that
// an override without a URL inherits the templated one.
func TestResolver_UserOverrides(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(map[string]Strategy{
		"1.2.19": {DownloadURL: "https://mirror.example.com/c.tar.gz"},
		"1.2.5":  {LaunchFlags: []string{"-f"}},
	})
	require.NoError(t, err)

	legacy, err := ParseSpec("1.2.19")
	require.NoError(t, err)
	require.Equal(t, "https://mirror.example.com/c.tar.gz", resolver.Resolve(legacy).DownloadURL)

	flagged, err := ParseSpec("1.2.5")
	require.NoError(t, err)

	got := resolver.Resolve(flagged)
	require.Equal(t, []string{"-f"}, got.LaunchFlags)
	require.Equal(t,
		"https://archive.apache.org/dist/cassandra/1.2.5/apache-cassandra-1.2.5-bin.tar.gz",
		got.DownloadURL)
}

// TestResolver_BadOverrideKey rejects override keys that are not versions.
func TestResolver_BadOverrideKey(t *testing.T) {
	t.Parallel()

	_, err := NewResolver(map[string]Strategy{"not-a-version": {}})
	require.Error(t, err)
}
