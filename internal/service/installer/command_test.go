package installer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/cassandra-bootstrap/internal/config"
)

// chdir switches the working directory for the duration of the test,
// restoring the previous directory on cleanup (stand-in for t.Chdir,
// which requires Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()

	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(oldWD))
	})
}

// TestClearData_Idempotent verifies that clearing twice in a row succeeds
// and leaves an empty directory both times.
func TestClearData_Idempotent(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "system"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "system", "keyspace.db"), []byte("x"), 0o600))

	r := &runner{cfg: &config.Config{DataDir: dataDir, InstallDir: t.TempDir()}}
	ctx := context.Background()

	require.NoError(t, r.clearData(ctx))
	requireEmptyDir(t, dataDir)

	// Second call on the already-empty directory is still success.
	require.NoError(t, r.clearData(ctx))
	requireEmptyDir(t, dataDir)
}

// TestRun_UnsupportedVersionIsNoop checks that versions outside the supported
// release line succeed without touching the filesystem.
func TestRun_UnsupportedVersionIsNoop(t *testing.T) {
	chdir(t, t.TempDir())

	err := Run(context.Background(), &Options{Version: "2.0.0"})
	require.NoError(t, err)

	// No marker, no install directory: the run never started.
	_, err = os.Stat(MarkerFilename)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(config.DefaultInstallDir)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_VersionFromEnvironment exercises the CASS_VERSION fallback.
func TestRun_VersionFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(EnvVersionVariable, "2.0.0")

	require.NoError(t, Run(context.Background(), &Options{}))
}

// TestRun_VersionRequired ensures a missing version is an error, not a silent no-op.
func TestRun_VersionRequired(t *testing.T) {
	t.Setenv(EnvVersionVariable, "")

	err := Run(context.Background(), &Options{})
	require.ErrorIs(t, err, errVersionRequired)
}

// TestRun_InvalidVersion rejects version strings that do not parse.
func TestRun_InvalidVersion(t *testing.T) {
	t.Setenv(EnvVersionVariable, "")

	err := Run(context.Background(), &Options{Version: "latest"})
	require.Error(t, err)
}

// TestRun_MarkerBlocksConcurrentRuns checks the concurrent-run guard.
func TestRun_MarkerBlocksConcurrentRuns(t *testing.T) {
	chdir(t, t.TempDir())

	marker, err := os.Create(MarkerFilename)
	require.NoError(t, err)
	require.NoError(t, marker.Close())

	err = Run(context.Background(), &Options{Version: "1.2.3"})
	require.ErrorIs(t, err, errBootstrapAlreadyRunning)
}

// TestIsPermissionError classifies stop/kill failures.
func TestIsPermissionError(t *testing.T) {
	t.Parallel()

	require.False(t, isPermissionError(nil))
	require.False(t, isPermissionError(os.ErrNotExist))
	require.True(t, isPermissionError(os.ErrPermission))
	require.True(t, isPermissionError(&os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}))
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
