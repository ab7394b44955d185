// Package steamcmd wraps the external steamcmd tool as a metadata
// source, bootstrapping it from the official installer archive when it
// is not already present.
package steamcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"luamaker/internal/config"
	"luamaker/internal/logging"
)

// ErrNotInstalled indicates no steamcmd binary could be located.
var ErrNotInstalled = errors.New("steamcmd not installed")

// Runner executes steamcmd to print appinfo for a single app.
type Runner struct {
	dir         string
	downloadURL string
	timeout     time.Duration
	logger      *slog.Logger
	bootstrap   *bootstrapper
}

// New builds a runner from configuration. The logger may be nil.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.SteamCmd.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Runner{
		dir:         cfg.SteamCmd.Dir,
		downloadURL: cfg.SteamCmd.DownloadURL,
		timeout:     timeout,
		logger:      logger,
		bootstrap:   newBootstrapper(cfg.SteamCmd.Dir, cfg.SteamCmd.DownloadURL, logger),
	}
}

// Binary returns the steamcmd executable to run, looking in the
// configured directory first and PATH second.
func (r *Runner) Binary() (string, error) {
	if r.dir != "" {
		local := filepath.Join(r.dir, binaryName())
		if isFile(local) {
			return local, nil
		}
	}
	if found, err := exec.LookPath("steamcmd"); err == nil {
		return found, nil
	}
	return "", ErrNotInstalled
}

// Ensure makes a steamcmd binary available, downloading and unpacking
// the installer archive into the configured directory when missing.
func (r *Runner) Ensure(ctx context.Context) error {
	if _, err := r.Binary(); err == nil {
		return nil
	}
	if r.bootstrap == nil {
		return ErrNotInstalled
	}
	if err := r.bootstrap.install(ctx); err != nil {
		return err
	}
	if _, err := r.Binary(); err != nil {
		return fmt.Errorf("steamcmd bootstrap finished but binary still missing: %w", err)
	}
	return nil
}

// AppInfo runs steamcmd to print appinfo for the given app and returns
// the raw console output with NUL bytes stripped. steamcmd exit codes
// are unreliable, so a nonzero exit is tolerated when output was
// produced.
func (r *Runner) AppInfo(ctx context.Context, appID uint32) (string, error) {
	binary, err := r.Binary()
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := []string{
		"+login", "anonymous",
		"+app_info_update", "1",
		"+app_info_print", strconv.FormatUint(uint64(appID), 10),
		"+quit",
	}
	r.logger.Debug("running steamcmd",
		slog.String("binary", binary),
		slog.Uint64("appid", uint64(appID)))

	cmd := exec.CommandContext(runCtx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	output := strings.ReplaceAll(stdout.String(), "\x00", "")
	if runErr != nil {
		if runCtx.Err() != nil {
			return "", fmt.Errorf("steamcmd timed out after %s", r.timeout)
		}
		if strings.TrimSpace(output) == "" {
			return "", fmt.Errorf("steamcmd failed: %w (stderr: %s)", runErr, strings.TrimSpace(stderr.String()))
		}
		r.logger.Warn("steamcmd exited nonzero, using its output anyway", logging.Error(runErr))
	}
	if strings.TrimSpace(output) == "" {
		return "", errors.New("steamcmd produced no output")
	}
	return output, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "steamcmd.exe"
	}
	return "steamcmd.sh"
}
