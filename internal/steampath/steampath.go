// Package steampath discovers the local Steam installation and the
// directories this tool reads from it.
package steampath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"luamaker/internal/config"
)

// ErrNotFound marks a Steam installation that could not be located or is
// missing the directories an export needs.
var ErrNotFound = errors.New("steam installation not found")

// Paths holds the resolved Steam directories for one run.
type Paths struct {
	Root       string
	ConfigDir  string
	Depotcache string
}

// KeyStorePath returns the config.vdf location inside the install.
func (p Paths) KeyStorePath() string {
	return filepath.Join(p.ConfigDir, "config.vdf")
}

// PluginPath returns where an existing plugin script for the app would
// live inside the install.
func (p Paths) PluginPath(appID uint32) string {
	return filepath.Join(p.ConfigDir, "stplugin", strconv.FormatUint(uint64(appID), 10)+".lua")
}

// Discover resolves the Steam installation for the given configuration.
// Resolution order: explicit config override, then the usual install
// locations for the current platform. The config and depotcache
// directories must exist for the result to be usable.
func Discover(cfg *config.Config) (Paths, error) {
	root := cfg.Steam.Root
	if root == "" {
		found, ok := probeCandidates(candidateRoots())
		if !ok {
			return Paths{}, fmt.Errorf("%w: set steam.root in the config or the STEAM_ROOT environment variable", ErrNotFound)
		}
		root = found
	} else if !isDir(root) {
		return Paths{}, fmt.Errorf("%w: steam.root %q is not a directory", ErrNotFound, root)
	}

	paths := Paths{
		Root:       root,
		ConfigDir:  cfg.Steam.ConfigDir,
		Depotcache: cfg.Steam.DepotcacheDir,
	}
	if paths.ConfigDir == "" {
		paths.ConfigDir = filepath.Join(root, "config")
	}
	if paths.Depotcache == "" {
		paths.Depotcache = filepath.Join(root, "depotcache")
	}

	if !isDir(paths.ConfigDir) {
		return Paths{}, fmt.Errorf("%w: missing config folder at %s", ErrNotFound, paths.ConfigDir)
	}
	if !isDir(paths.Depotcache) {
		return Paths{}, fmt.Errorf("%w: missing depotcache folder at %s", ErrNotFound, paths.Depotcache)
	}
	return paths, nil
}

func probeCandidates(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if isDir(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func candidateRoots() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		var roots []string
		for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
			if base := os.Getenv(env); base != "" {
				roots = append(roots, filepath.Join(base, "Steam"))
			}
		}
		return roots
	case "darwin":
		if home == "" {
			return nil
		}
		return []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	default:
		if home == "" {
			return nil
		}
		return []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", "data", "Steam"),
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
