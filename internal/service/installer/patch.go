package installer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/cassandra-bootstrap/internal/logger"
)

// applyPatch rewrites the strategy's token inside the named config file.
// Strategies without a file patch (the inline-flag variant) are a no-op.
// A missing token is always a hard failure: launching an unpatched server
// only moves the breakage to a later, more confusing point of the CI job.
func (r *runner) applyPatch(ctx context.Context) error {
	patch := r.plan.Patch
	if patch == nil {
		logger.Debug(ctx, "No config patch for this version")
		return nil
	}

	target := filepath.Join(r.installRoot, filepath.FromSlash(patch.File))

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("stat config file: %w", err)
	}

	contents, err := os.ReadFile(filepath.Clean(target))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if !bytes.Contains(contents, []byte(patch.Find)) {
		return fmt.Errorf("%q in %s: %w", patch.Find, patch.File, errPatchTokenNotFound)
	}

	patched := bytes.ReplaceAll(contents, []byte(patch.Find), []byte(patch.Replace))

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(patched); err != nil {
		return fmt.Errorf("calculate checksum: %w", err)
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: info.Mode(),
		Checksum:   hasher.Sum(nil),
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(patched), options); err != nil {
		return fmt.Errorf("apply config patch: %w", err)
	}

	oldFileName := target + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.InfoKV(ctx, "Config patched",
		"file", patch.File, "find", patch.Find, "replace", patch.Replace)

	return nil
}
