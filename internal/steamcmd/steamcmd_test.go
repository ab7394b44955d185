package steamcmd

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"luamaker/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SteamCmd.Dir = filepath.Join(t.TempDir(), "steamcmd")
	return &cfg
}

func TestBinaryMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	runner := New(testConfig(t), nil)
	if _, err := runner.Binary(); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("err = %v, want ErrNotInstalled", err)
	}
}

func TestBinaryPrefersConfiguredDir(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.SteamCmd.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(cfg.SteamCmd.Dir, binaryName())
	if err := os.WriteFile(local, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := New(cfg, nil)
	got, err := runner.Binary()
	if err != nil {
		t.Fatalf("Binary: %v", err)
	}
	if got != local {
		t.Fatalf("binary = %q, want %q", got, local)
	}
}

func TestAppInfoRunsScript(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.SteamCmd.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stub := filepath.Join(cfg.SteamCmd.Dir, binaryName())
	script := "#!/bin/sh\nprintf '\"480\"\\n{\\n}\\n'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := New(cfg, nil)
	out, err := runner.AppInfo(context.Background(), 480)
	if err != nil {
		t.Fatalf("AppInfo: %v", err)
	}
	if !strings.Contains(out, `"480"`) {
		t.Fatalf("output = %q", out)
	}
}

func TestAppInfoNonzeroExitWithOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stub")
	}
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.SteamCmd.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stub := filepath.Join(cfg.SteamCmd.Dir, binaryName())
	script := "#!/bin/sh\necho 'partial output'\nexit 7\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	runner := New(cfg, nil)
	out, err := runner.AppInfo(context.Background(), 480)
	if err != nil {
		t.Fatalf("nonzero exit with output should not fail: %v", err)
	}
	if !strings.Contains(out, "partial output") {
		t.Fatalf("output = %q", out)
	}
}

func installerArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entry, err := zw.Create(binaryName())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := entry.Write([]byte("#!/bin/sh\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestEnsureBootstraps(t *testing.T) {
	archive := installerArchive(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	t.Setenv("PATH", t.TempDir())
	cfg := testConfig(t)
	cfg.SteamCmd.DownloadURL = srv.URL

	runner := New(cfg, nil)
	if err := runner.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.SteamCmd.Dir, binaryName())); err != nil {
		t.Fatalf("binary not extracted: %v", err)
	}
}

func TestExtractArchiveRejectsEscape(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("../escape.txt"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := extractArchive(buf.Bytes(), t.TempDir()); err == nil {
		t.Fatal("expected error for path escape")
	}
}
