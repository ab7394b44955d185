package steamcmd

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultDownloadTimeout = 5 * time.Minute

// bootstrapper downloads the steamcmd installer archive and unpacks it
// into the configured directory.
type bootstrapper struct {
	dir         string
	downloadURL string
	logger      *slog.Logger
	client      *http.Client
}

func newBootstrapper(dir, downloadURL string, logger *slog.Logger) *bootstrapper {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(downloadURL) == "" {
		return nil
	}
	return &bootstrapper{
		dir:         dir,
		downloadURL: downloadURL,
		logger:      logger,
		client:      &http.Client{Timeout: defaultDownloadTimeout},
	}
}

func (b *bootstrapper) install(ctx context.Context) error {
	b.logger.Info("steamcmd not found, downloading installer",
		slog.String("url", b.downloadURL),
		slog.String("dir", b.dir))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.downloadURL, nil)
	if err != nil {
		return fmt.Errorf("build steamcmd download request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("download steamcmd: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download steamcmd: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("download steamcmd: %w", err)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create steamcmd directory %q: %w", b.dir, err)
	}
	if err := extractArchive(data, b.dir); err != nil {
		return err
	}
	b.logger.Info("steamcmd installed", slog.String("dir", b.dir))
	return nil
}

func extractArchive(data []byte, dir string) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open steamcmd archive: %w", err)
	}
	for _, file := range reader.File {
		if err := extractOne(file, dir); err != nil {
			return err
		}
	}
	return nil
}

func extractOne(file *zip.File, dir string) error {
	dest := filepath.Join(dir, filepath.FromSlash(file.Name))
	// Reject entries that escape the target directory.
	if rel, err := filepath.Rel(dir, dest); err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("archive entry %q escapes target directory", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %q: %w", file.Name, err)
	}
	defer src.Close()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %q: %w", file.Name, err)
	}
	return out.Close()
}
