package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SteamTree is a throwaway Steam install layout for tests: a root with
// config/ and depotcache/ folders that the export flow reads.
type SteamTree struct {
	t    testing.TB
	Root string
}

// NewSteamTree creates an empty Steam install layout under a temp dir.
func NewSteamTree(t testing.TB) *SteamTree {
	t.Helper()

	root := filepath.Join(t.TempDir(), "Steam")
	for _, sub := range []string{"config", "depotcache"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatalf("create steam tree: %v", err)
		}
	}
	return &SteamTree{t: t, Root: root}
}

// WriteKeyStore fills config/config.vdf with a depots block holding the
// given depot decryption keys.
func (s *SteamTree) WriteKeyStore(keys map[uint32]string) {
	s.t.Helper()

	var sb strings.Builder
	sb.WriteString("\"InstallConfigStore\"\n{\n\t\"Software\"\n\t{\n\t\t\"Valve\"\n\t\t{\n\t\t\t\"Steam\"\n\t\t\t{\n\t\t\t\t\"depots\"\n\t\t\t\t{\n")
	for id, key := range keys {
		fmt.Fprintf(&sb, "\t\t\t\t\t\"%d\"\n\t\t\t\t\t{\n\t\t\t\t\t\t\"DecryptionKey\"\t\t\"%s\"\n\t\t\t\t\t}\n", id, key)
	}
	sb.WriteString("\t\t\t\t}\n\t\t\t}\n\t\t}\n\t}\n}\n")

	path := filepath.Join(s.Root, "config", "config.vdf")
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		s.t.Fatalf("write key store: %v", err)
	}
}

// WriteManifest drops a manifest file into depotcache/ and returns its path.
func (s *SteamTree) WriteManifest(depotID uint32, gid string) string {
	s.t.Helper()

	path := filepath.Join(s.Root, "depotcache", fmt.Sprintf("%d_%s.manifest", depotID, gid))
	if err := os.WriteFile(path, []byte("manifest "+gid), 0o644); err != nil {
		s.t.Fatalf("write manifest: %v", err)
	}
	return path
}

// WritePlugin places an existing plugin script for the app under
// config/stplugin/ and returns its path.
func (s *SteamTree) WritePlugin(appID uint32, script string) string {
	s.t.Helper()

	dir := filepath.Join(s.Root, "config", "stplugin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.t.Fatalf("create stplugin dir: %v", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%d.lua", appID))
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		s.t.Fatalf("write plugin script: %v", err)
	}
	return path
}
