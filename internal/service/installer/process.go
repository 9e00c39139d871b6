package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/cassandra-bootstrap/internal/logger"
)

// noopProgram satisfies service.Interface for control-only use.
// The bootstrap never runs as a service itself; it only stops one.
type noopProgram struct{}

func (noopProgram) Start(service.Service) error { return nil }
func (noopProgram) Stop(service.Service) error  { return nil }

// stopExisting stops the host-managed server unit and kills leftover server
// processes from a previous standalone launch. A server that is not running
// is fine; only permission failures abort the installation.
func (r *runner) stopExisting(ctx context.Context) error {
	if err := r.stopManagedService(ctx); err != nil {
		return fmt.Errorf("stop service %s: %w", r.cfg.ServiceName, err)
	}

	if err := r.killServerProcesses(ctx); err != nil {
		return fmt.Errorf("kill server processes: %w", err)
	}

	return nil
}

// stopManagedService asks the host service manager to stop the configured unit.
func (r *runner) stopManagedService(ctx context.Context) error {
	//nolint:exhaustruct // Only the unit name matters for control actions.
	svc, err := service.New(noopProgram{}, &service.Config{Name: r.cfg.ServiceName})
	if err != nil {
		// Containers and minimal CI images often have no service system at all.
		logger.WarnKV(ctx, "Service manager unavailable, skipping service stop", "error", err)
		return nil
	}

	if err = svc.Stop(); err != nil {
		// Service managers report "unit not found" and "not running" as
		// plain exit failures; only a real permission error is fatal.
		if errors.Is(err, os.ErrPermission) {
			return err
		}

		logger.InfoKV(ctx, "Service was not running",
			"service", r.cfg.ServiceName, "details", err)

		return nil
	}

	logger.InfoKV(ctx, "Service stopped", "service", r.cfg.ServiceName)

	return nil
}

// killServerProcesses sweeps the process table for server executables left
// over from a previous direct launch and kills them.
func (r *runner) killServerProcesses(ctx context.Context) error {
	targets := serverProcessNames()

	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		if _, found := targets[process.Executable()]; !found {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(processID)
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			if errors.Is(err, os.ErrProcessDone) {
				continue
			}

			if isPermissionError(err) {
				return err
			}

			logger.WarnKV(ctx, "Could not kill leftover process",
				"pid", processID, "error", err)

			continue
		}

		logger.InfoKV(ctx, "Killed leftover server process", "pid", processID)
	}

	return nil
}
