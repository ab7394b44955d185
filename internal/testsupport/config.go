package testsupport

import (
	"path/filepath"
	"testing"

	"luamaker/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options. steamcmd is
// disabled so tests never shell out or download anything.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.SteamCmd.Enabled = false
	cfgVal.SteamCmd.Dir = filepath.Join(base, "steamcmd")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure config directories: %v", err)
	}

	return builder.cfg
}

// WithSteamRoot points the test config at an existing Steam tree, such as
// one produced by NewSteamTree.
func WithSteamRoot(root string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Steam.Root = root
	}
}

// WithAppInfoBaseURL overrides the appinfo service endpoint, usually with
// an httptest server URL.
func WithAppInfoBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.AppInfo.BaseURL = url
	}
}

// WithSteamCmd enables steamcmd with the given install dir and download URL.
func WithSteamCmd(dir, downloadURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.SteamCmd.Enabled = true
		b.cfg.SteamCmd.Dir = dir
		b.cfg.SteamCmd.DownloadURL = downloadURL
	}
}
