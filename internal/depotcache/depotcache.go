// Package depotcache locates manifest files in a Steam depotcache
// directory. File names follow the `<depotId>_<manifestGid>.manifest`
// convention; the cache is shared across every installed game, so
// entries for unknown depots are expected and ignored.
package depotcache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const manifestSuffix = ".manifest"

// ManifestFile is one manifest found on disk for a known depot.
type ManifestFile struct {
	DepotID uint32
	Path    string
	// DLCName is the depot's DLC display name when the metadata names
	// one; empty for base-app depots.
	DLCName string
}

// Known describes the depots the caller cares about, mapping depot ID to
// the DLC display name to attach (empty when none applies).
type Known map[uint32]string

// Locate scans dir for manifest files belonging to known depots. Files
// for other depots are skipped silently. Results are sorted by depot ID,
// then by path for depots with multiple cached manifests.
func Locate(dir string, known Known) ([]ManifestFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read depotcache %q: %w", dir, err)
	}

	var found []ManifestFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		depotID, ok := parseManifestName(entry.Name())
		if !ok {
			continue
		}
		dlcName, ok := known[depotID]
		if !ok {
			continue
		}
		found = append(found, ManifestFile{
			DepotID: depotID,
			Path:    filepath.Join(dir, entry.Name()),
			DLCName: dlcName,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].DepotID != found[j].DepotID {
			return found[i].DepotID < found[j].DepotID
		}
		return found[i].Path < found[j].Path
	})
	return found, nil
}

// parseManifestName extracts the depot ID from a
// `<depotId>_<manifestGid>.manifest` file name.
func parseManifestName(name string) (uint32, bool) {
	base, ok := strings.CutSuffix(name, manifestSuffix)
	if !ok {
		return 0, false
	}
	idPart, gidPart, ok := strings.Cut(base, "_")
	if !ok || idPart == "" || gidPart == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}
