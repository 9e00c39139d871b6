package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/cassandra-bootstrap/internal/config"
	"github.com/oshokin/cassandra-bootstrap/internal/strategy"
)

// newPatchRunner builds a runner whose install root holds one config file.
func newPatchRunner(t *testing.T, contents string, patch *strategy.Patch) (*runner, string) {
	t.Helper()

	installRoot := t.TempDir()
	target := filepath.Join(installRoot, "conf", "cassandra-env.sh")

	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte(contents), 0o644))

	r := &runner{
		cfg:         &config.Config{DataDir: t.TempDir(), InstallDir: t.TempDir()},
		plan:        strategy.Strategy{Patch: patch},
		installRoot: installRoot,
	}

	return r, target
}

// TestApplyPatch_ReplacesToken rewrites the stack-size token in place,
// preserving file mode and leaving no backup file behind.
func TestApplyPatch_ReplacesToken(t *testing.T) {
	t.Parallel()

	r, target := newPatchRunner(t,
		"JVM_OPTS=\"$JVM_OPTS -Xss180k\"\n",
		&strategy.Patch{File: "conf/cassandra-env.sh", Find: "Xss180k", Replace: "Xss512k"})

	require.NoError(t, r.applyPatch(context.Background()))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(got), "Xss512k")
	require.NotContains(t, string(got), "Xss180k")

	_, err = os.Stat(target + ".old")
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestApplyPatch_MissingTokenFails: the absence of the token is always a
// hard failure, never a silent no-op.
func TestApplyPatch_MissingTokenFails(t *testing.T) {
	t.Parallel()

	r, target := newPatchRunner(t,
		"JVM_OPTS=\"$JVM_OPTS\"\n",
		&strategy.Patch{File: "conf/cassandra-env.sh", Find: "Xss180k", Replace: "Xss512k"})

	err := r.applyPatch(context.Background())
	require.ErrorIs(t, err, errPatchTokenNotFound)

	// The file is untouched on failure.
	got, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	require.Equal(t, "JVM_OPTS=\"$JVM_OPTS\"\n", string(got))
}

// TestApplyPatch_NoPatchIsNoop covers the inline-flag strategy variant.
func TestApplyPatch_NoPatchIsNoop(t *testing.T) {
	t.Parallel()

	r, target := newPatchRunner(t, "JVM_OPTS=\"$JVM_OPTS -Xss180k\"\n", nil)

	require.NoError(t, r.applyPatch(context.Background()))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Contains(t, string(got), "Xss180k")
}

// TestApplyPatch_MissingFileFails reports a strategy pointing at a file the
// release does not ship.
func TestApplyPatch_MissingFileFails(t *testing.T) {
	t.Parallel()

	r, _ := newPatchRunner(t, "anything\n",
		&strategy.Patch{File: "conf/does-not-exist.sh", Find: "a", Replace: "b"})

	err := r.applyPatch(context.Background())
	require.Error(t, err)
}
