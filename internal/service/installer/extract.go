package installer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/cassandra-bootstrap/internal/logger"
)

// extractArchive unpacks the downloaded tar.gz into the install directory
// and records the top-level directory of the release as the install root.
func (r *runner) extractArchive(ctx context.Context) error {
	if err := os.MkdirAll(r.cfg.InstallDir, defaultDirMode); err != nil {
		return err
	}

	archiveFile, err := os.Open(r.archivePath)
	if err != nil {
		return err
	}

	defer func() {
		_ = archiveFile.Close()
	}()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}

	defer func() {
		_ = gzipReader.Close()
	}()

	var (
		tarReader = tar.NewReader(gzipReader)
		rootDir   string
	)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("read archive entry: %w", err)
		}

		if !filepath.IsLocal(header.Name) {
			return fmt.Errorf("%s: %w", header.Name, errUnsafeArchivePath)
		}

		if rootDir == "" {
			rootDir = topLevelComponent(header.Name)
		}

		if err = r.extractEntry(header, tarReader); err != nil {
			return err
		}
	}

	if rootDir == "" {
		return errEmptyArchive
	}

	r.installRoot = filepath.Join(r.cfg.InstallDir, rootDir)

	logger.InfoKV(ctx, "Release extracted", "install_root", r.installRoot)

	return nil
}

// extractEntry materializes one archive entry under the install directory.
// Hard links and other exotic entry types are skipped; release tarballs
// only carry directories, regular files and the odd symlink.
func (r *runner) extractEntry(header *tar.Header, contents io.Reader) error {
	target := filepath.Join(r.cfg.InstallDir, filepath.FromSlash(header.Name))

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, entryMode(header))
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
			return err
		}

		outputFile, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entryMode(header))
		if err != nil {
			return err
		}

		//nolint:gosec // Release archives come from the Apache mirrors the strategy selected.
		if _, err = io.Copy(outputFile, contents); err != nil {
			_ = outputFile.Close()

			return err
		}

		return outputFile.Close()
	case tar.TypeSymlink:
		if filepath.IsAbs(header.Linkname) ||
			!filepath.IsLocal(filepath.Join(filepath.Dir(header.Name), header.Linkname)) {
			return fmt.Errorf("%s -> %s: %w", header.Name, header.Linkname, errUnsafeArchivePath)
		}

		if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
			return err
		}

		// Re-extraction over an existing tree must not fail on an old link.
		_ = os.Remove(target)

		return os.Symlink(header.Linkname, target)
	default:
		return nil
	}
}

// entryMode converts a tar header mode into a usable file mode.
func entryMode(header *tar.Header) fs.FileMode {
	mode := fs.FileMode(header.Mode).Perm()
	if mode == 0 {
		mode = DefaultFileMode
	}

	return mode
}

// topLevelComponent returns the first path component of an archive entry name.
func topLevelComponent(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "./")
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}

	return name
}
