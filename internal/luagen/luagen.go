// Package luagen emits the Lua plugin script and copies the manifest
// files that go with it into the export directory.
package luagen

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"luamaker/internal/depotcache"
	"luamaker/internal/fileutil"
	"luamaker/internal/logging"
	"luamaker/internal/reconcile"
)

// WriteScript emits the plugin script: one base-app line, then per depot
// a registration line followed by its manifest line, depots in ascending
// ID order.
func WriteScript(w io.Writer, appID uint32, depots []reconcile.Depot) error {
	ordered := make([]reconcile.Depot, len(depots))
	copy(ordered, depots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "addappid(%d)\n", appID)
	for _, depot := range ordered {
		fmt.Fprintf(bw, "addappid(%d,1,\"%s\")\n", depot.ID, depot.DecryptionKey)
		fmt.Fprintf(bw, "setManifestid(%d,\"%s\")\n", depot.ID, depot.ManifestGID)
	}
	return bw.Flush()
}

// WriteScriptFile writes the plugin script to <dir>/<appID>.lua and
// returns the path written.
func WriteScriptFile(dir string, appID uint32, depots []reconcile.Depot) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%d.lua", appID))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create script %q: %w", path, err)
	}
	if err := WriteScript(file, appID, depots); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("write script %q: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close script %q: %w", path, err)
	}
	return path, nil
}

// CopyResult records the outcome of copying one manifest file.
type CopyResult struct {
	DepotID uint32
	Source  string
	Dest    string
	DLCName string
	Err     error
}

// CopyManifests copies each located manifest into destDir. A failed copy
// is logged and recorded but does not stop the remaining files.
func CopyManifests(files []depotcache.ManifestFile, destDir string, logger *slog.Logger) []CopyResult {
	if logger == nil {
		logger = logging.NewNop()
	}
	results := make([]CopyResult, 0, len(files))
	for _, file := range files {
		dest := filepath.Join(destDir, filepath.Base(file.Path))
		result := CopyResult{
			DepotID: file.DepotID,
			Source:  file.Path,
			Dest:    dest,
			DLCName: file.DLCName,
		}
		if err := fileutil.CopyFileVerified(file.Path, dest); err != nil {
			result.Err = err
			logger.Warn("manifest copy failed",
				slog.Uint64("depot", uint64(file.DepotID)),
				slog.String("source", file.Path),
				logging.Error(err))
		} else {
			logger.Info("copied manifest",
				slog.Uint64("depot", uint64(file.DepotID)),
				slog.String("file", filepath.Base(file.Path)))
		}
		results = append(results, result)
	}
	return results
}

var addAppIDPattern = regexp.MustCompile(`addappid\(\s*(\d+)`)

// ScriptDepotIDs extracts every depot/app ID registered by an existing
// plugin script. Used by the plugin passthrough flow to decide which
// manifests to copy. The base app ID appears in the result too; callers
// filter against known depots.
func ScriptDepotIDs(r io.Reader) ([]uint32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read plugin script: %w", err)
	}
	matches := addAppIDPattern.FindAllStringSubmatch(string(data), -1)
	ids := make([]uint32, 0, len(matches))
	seen := make(map[uint32]bool, len(matches))
	for _, match := range matches {
		id, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			continue
		}
		if seen[uint32(id)] {
			continue
		}
		seen[uint32(id)] = true
		ids = append(ids, uint32(id))
	}
	return ids, nil
}
