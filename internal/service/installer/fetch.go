package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oshokin/cassandra-bootstrap/internal/logger"
	"github.com/oshokin/cassandra-bootstrap/internal/version"
)

// fetchArchive downloads the release archive into a temporary directory.
// One attempt, no retries: a CI bootstrap should fail fast and leave the
// mirror problem visible in the job log.
func (r *runner) fetchArchive(ctx context.Context) error {
	temporaryDirectory, err := os.MkdirTemp("", "cassandra-bootstrap-")
	if err != nil {
		return err
	}

	r.temporaryDirectory = temporaryDirectory

	ctx, cancel := context.WithTimeout(ctx, r.cfg.DownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.plan.DownloadURL, http.NoBody)
	if err != nil {
		return err
	}

	req.Header.Set("User-Agent", version.UserAgent())

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", r.plan.DownloadURL, response.Status, errBadHTTPStatus)
	}

	archivePath := filepath.Clean(filepath.Join(temporaryDirectory, r.plan.ArchiveFileName()))

	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return err
	}

	written, err := io.Copy(archiveFile, response.Body)
	if err != nil {
		_ = archiveFile.Close()

		return err
	}

	if err = archiveFile.Close(); err != nil {
		return err
	}

	r.archivePath = archivePath

	logger.InfoKV(ctx, "Downloaded release archive",
		"path", archivePath, "bytes", written)

	return nil
}
