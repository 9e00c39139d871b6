package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/oshokin/cassandra-bootstrap/internal/logger"
)

// launchServer starts the extracted server with the strategy's launch flags.
// The launch is fire-and-forget: the bootstrap does not wait for the server
// to reach a ready state, that is the test suite's job. The command is built
// without the run context so the server outlives the bootstrap process.
func (r *runner) launchServer(ctx context.Context) error {
	script := filepath.Join(r.installRoot, "bin", baseServerExecutable)

	if _, err := os.Stat(script); err != nil {
		return fmt.Errorf("launch script: %w", err)
	}

	cmd, err := r.launchCommand(script)
	if err != nil {
		return err
	}

	cmd.Dir = r.installRoot

	if r.plan.JVMOptions != "" {
		cmd.Env = append(os.Environ(), "JVM_OPTS="+r.plan.JVMOptions)
	}

	if err = cmd.Start(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Server launched",
		"pid", cmd.Process.Pid,
		"flags", strings.Join(r.plan.LaunchFlags, " "),
		"jvm_options", r.plan.JVMOptions)

	return nil
}

// launchCommand builds the platform-specific start invocation.
func (r *runner) launchCommand(script string) (*exec.Cmd, error) {
	flags := r.plan.LaunchFlags

	osLC := strings.ToLower(runtime.GOOS)
	switch {
	case strings.Contains(osLC, "linux") || strings.Contains(osLC, "darwin"):
		if r.cfg.Privileged {
			return exec.Command("sudo", append([]string{script}, flags...)...), nil
		}

		return exec.Command(script, flags...), nil
	case strings.Contains(osLC, "windows"):
		return exec.Command("cmd.exe", append([]string{"/C", "start", script + ".bat"}, flags...)...), nil
	default:
		return nil, fmt.Errorf("%s OS is not supported: %w", runtime.GOOS, errUnsupportedOS)
	}
}
