package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/oshokin/cassandra-bootstrap/internal/config"
	"github.com/oshokin/cassandra-bootstrap/internal/logger"
	"github.com/oshokin/cassandra-bootstrap/internal/strategy"
)

var (
	errBootstrapAlreadyRunning = errors.New("the bootstrap is already running")
	errVersionRequired         = errors.New("version is not set")
	errBadHTTPStatus           = errors.New("unexpected http status")
	errPatchTokenNotFound      = errors.New("patch token not found")
	errUnsupportedOS           = errors.New("os not supported")
	errUnsafeArchivePath       = errors.New("archive entry escapes the install directory")
	errEmptyArchive            = errors.New("archive contains no entries")
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Version is the Cassandra version to install. When empty, the
	// CASS_VERSION environment variable is read once as a fallback.
	Version string
}

// runner holds the mutable state for a single installation.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	cfg                *config.Config    // Bootstrap settings loaded from YAML.
	spec               strategy.Spec     // Requested server version.
	plan               strategy.Strategy // Resolved install strategy for the version.
	archivePath        string            // Where the downloaded archive lives.
	installRoot        string            // Top-level directory of the extracted release.
	temporaryDirectory string            // Holds the archive until cleanup.
}

// Run installs and launches the requested Cassandra version.
// Versions outside the supported release line are a no-op success, so CI
// configurations can list this step unconditionally. It is the public
// entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "cassandra-bootstrap")

	rawVersion := strings.TrimSpace(opts.Version)
	if rawVersion == "" {
		rawVersion = strings.TrimSpace(os.Getenv(EnvVersionVariable))
	}

	if rawVersion == "" {
		return fmt.Errorf("%w: pass it as an argument or via %s", errVersionRequired, EnvVersionVariable)
	}

	spec, err := strategy.ParseSpec(rawVersion)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	resolver, err := strategy.NewResolver(cfg.Overrides)
	if err != nil {
		return fmt.Errorf("build strategy resolver: %w", err)
	}

	if !resolver.Supported(spec) {
		logger.InfoKV(ctx, "Version is outside the supported release line, skipping installation",
			"version", spec.String())

		return nil
	}

	r, err := newRunner(ctx, cfg, spec, resolver)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.run(ctx); err != nil {
		logger.ErrorKV(ctx, "Bootstrap run failed", "error", err)
		return err
	}

	logger.InfoKV(ctx, "Bootstrap completed", "version", spec.String())

	return nil
}

// newRunner resolves the install plan and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, cfg *config.Config, spec strategy.Spec, resolver *strategy.Resolver) (*runner, error) {
	if IsBootstrapRunningNow(ctx) {
		return nil, errBootstrapAlreadyRunning
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return nil, err
	}

	if err = marker.Close(); err != nil {
		return nil, err
	}

	return &runner{
		cfg:  cfg,
		spec: spec,
		plan: resolver.Resolve(spec),
	}, nil
}

// run executes the installation pipeline:
// 1) Stop any existing server.
// 2) Clear prior data.
// 3) Fetch the release archive.
// 4) Extract it.
// 5) Patch the config if the strategy says so.
// 6) Launch the server.
// Every step is a single attempt; the first failure aborts the sequence.
func (r *runner) run(ctx context.Context) error {
	logger.InfoKV(ctx, "Resolved install strategy",
		"version", r.spec.String(),
		"download_url", r.plan.DownloadURL)

	logger.Info(ctx, "Stopping any existing server")

	if err := r.stopExisting(ctx); err != nil {
		return fmt.Errorf("stop existing server: %w", err)
	}

	logger.Info(ctx, "Clearing prior server data")

	if err := r.clearData(ctx); err != nil {
		return fmt.Errorf("clear data directory: %w", err)
	}

	logger.Info(ctx, "Downloading the release archive")

	if err := r.fetchArchive(ctx); err != nil {
		return fmt.Errorf("fetch archive: %w", err)
	}

	logger.Info(ctx, "Extracting the release archive")

	if err := r.extractArchive(ctx); err != nil {
		return fmt.Errorf("extract archive: %w", err)
	}

	logger.Info(ctx, "Applying the config patch")

	if err := r.applyPatch(ctx); err != nil {
		return fmt.Errorf("apply patch: %w", err)
	}

	logger.Info(ctx, "Launching the server")

	if err := r.launchServer(ctx); err != nil {
		return fmt.Errorf("launch server: %w", err)
	}

	return nil
}

// clearData wipes the server's data directory and recreates it empty.
// Clearing is idempotent: a missing or already-empty directory is success.
func (r *runner) clearData(ctx context.Context) error {
	if err := os.RemoveAll(r.cfg.DataDir); err != nil {
		return err
	}

	if err := os.MkdirAll(r.cfg.DataDir, defaultDirMode); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Data directory cleared", "path", r.cfg.DataDir)

	return nil
}

// cleanup removes temporary artifacts and the running marker.
func (r *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	if r.temporaryDirectory != "" {
		if _, err := os.Stat(r.temporaryDirectory); err == nil {
			_ = os.RemoveAll(r.temporaryDirectory)
		}
	}

	logger.Info(ctx, "The bootstrap has been stopped")
}
