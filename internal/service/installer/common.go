package installer

import (
	"context"
	"crypto"
	"errors"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/cassandra-bootstrap/internal/logger"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// EnvVersionVariable is the environment variable consulted when no
	// version argument is given on the command line.
	EnvVersionVariable = "CASS_VERSION"

	// MarkerFilename marks that the bootstrap is running right now to avoid parallel execution.
	MarkerFilename = "cassandra-bootstrap-marker.bin"

	// DefaultFileMode is used for files created during extraction when the
	// archive carries no usable mode.
	DefaultFileMode os.FileMode = 0o755

	// defaultDirMode is used for directories created by the bootstrap.
	defaultDirMode os.FileMode = 0o755

	// DefaultChecksumFunction verifies the patched config file during apply.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// baseBootstrapExecutable is this binary's name without platform extension.
	baseBootstrapExecutable = "cassandra-bootstrap"

	// baseServerExecutable is the name of the launched server wrapper script.
	baseServerExecutable = "cassandra"

	// markerLifetime is the period after which a stale marker is ignored.
	// Downloads can take minutes, so the marker only counts as stale well past that.
	markerLifetime = 30 * time.Minute
)

// serverProcessNames returns the executable names of a previously launched
// server on the current platform. The host service manager remains the
// authoritative stop mechanism; this set only catches standalone leftovers.
func serverProcessNames() map[string]struct{} {
	return sliceToSet([]string{
		baseServerExecutable,
		baseServerExecutable + ".bat",
	})
}

// IsBootstrapRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsBootstrapRunningNow(ctx context.Context) bool {
	logger.Info(ctx, "Checking for the presence of a bootstrap marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The bootstrap marker is too old, attempting cleanup")

		if err = terminateProcessByName(bootstrapExecutable()); err != nil {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Bootstrap marker not found, continuing")
		return false
	}

	logger.Infof(ctx, "Unable to read bootstrap marker: %v", err)

	return false
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}

	return nil
}

// isPermissionError reports whether an error indicates missing privileges.
// Stop and kill failures of this kind are fatal; everything else
// (service not running, process already gone) is tolerated.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrPermission) {
		return true
	}

	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "operation not permitted") ||
		strings.Contains(msg, "access is denied")
}

// getExecutableExtension returns ".exe" on Windows and "" elsewhere.
func getExecutableExtension() string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return ".exe"
	}

	return ""
}

func bootstrapExecutable() string {
	return baseBootstrapExecutable + getExecutableExtension()
}

// sliceToSet converts a slice to a set for quick lookups.
func sliceToSet[T comparable](elements []T) map[T]struct{} {
	result := make(map[T]struct{}, len(elements))
	for _, value := range elements {
		result[value] = struct{}{}
	}

	return result
}
