package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"luamaker/internal/config"
	"luamaker/internal/testsupport"
)

func runCLI(t *testing.T, args []string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("output %q does not contain %q", haystack, needle)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	out, _, err = runCLI(t, []string{"config", "validate", "--config", target})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestParseAppID(t *testing.T) {
	if id, err := parseAppID("480"); err != nil || id != 480 {
		t.Fatalf("parseAppID(480) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "-1", "0", "99999999999"} {
		if _, err := parseAppID(bad); err == nil {
			t.Fatalf("parseAppID(%q) accepted", bad)
		}
	}
}

func TestExportCommand(t *testing.T) {
	tree := testsupport.NewSteamTree(t)
	tree.WriteKeyStore(map[uint32]string{481: "aa11"})
	tree.WriteManifest(481, "111")

	cfg := testsupport.NewConfig(t, testsupport.WithSteamRoot(tree.Root))
	configPath := writeTestConfig(t, cfg)

	infoPath := filepath.Join(t.TempDir(), "appinfo.vdf")
	testsupport.WriteFile(t, infoPath, exportTestAppInfo)

	out, _, err := runCLI(t, []string{
		"export", "480",
		"--config", configPath,
		"--appinfo-file", infoPath,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Spacewar (480)")
	requireContains(t, out, "481")

	scriptPath := filepath.Join(cfg.Paths.OutputDir, "[480] Spacewar", "480.lua")
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	requireContains(t, string(data), `addappid(481,1,"aa11")`)

	out, _, err = runCLI(t, []string{"history", "--config", configPath})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Spacewar")
}

func TestConfigShowAndPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"config", "show", "--config", configPath})
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "paths.output_dir")
	requireContains(t, out, cfg.Paths.OutputDir)

	out, _, err = runCLI(t, []string{"config", "path", "--config", configPath})
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	requireContains(t, out, configPath)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"})
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "luamaker "+version)
}

func TestHistoryEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"history", "--config", configPath})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No exports recorded yet.")
}

const exportTestAppInfo = `"480"
{
	"common"
	{
		"name"		"Spacewar"
	}
	"depots"
	{
		"481"
		{
			"manifests"
			{
				"public"
				{
					"gid"		"111"
				}
			}
		}
	}
}
`
