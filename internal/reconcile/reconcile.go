// Package reconcile joins app depot metadata with locally known
// decryption keys. Every depot of the app resolves to exactly one
// outcome: exportable, or skipped with a reason.
package reconcile

import (
	"sort"

	"luamaker/internal/appinfo"
)

// Depot is a depot that can be exported: it has both a public manifest
// GID and a decryption key.
type Depot struct {
	ID            uint32
	ManifestGID   string
	DecryptionKey string
}

// SkipReason classifies why a depot was left out of the export.
type SkipReason int

const (
	// SkipNoManifest marks depots without a public manifest GID.
	SkipNoManifest SkipReason = iota
	// SkipNoKey marks depots whose manifest exists but for which the key
	// store has no decryption key. Common for DLC and language depots.
	SkipNoKey
)

func (r SkipReason) String() string {
	switch r {
	case SkipNoManifest:
		return "no public manifest"
	case SkipNoKey:
		return "no decryption key"
	default:
		return "unknown"
	}
}

// Skipped records one depot excluded from the export and why.
type Skipped struct {
	ID     uint32
	Name   string
	Reason SkipReason
}

// Reconcile partitions the app's depots into exportable and skipped
// sets. A depot with no public manifest is skipped regardless of key
// availability; a depot with a manifest but no key is skipped as the
// expected DLC/language-only case. Both slices come back sorted by
// ascending depot ID, and together they cover every depot exactly once.
func Reconcile(app *appinfo.App, keys map[uint32]string) ([]Depot, []Skipped) {
	depots := make([]Depot, 0, len(app.Depots))
	skipped := make([]Skipped, 0)
	seen := make(map[uint32]bool, len(app.Depots))

	for _, d := range app.Depots {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true

		if d.ManifestGID == "" {
			skipped = append(skipped, Skipped{ID: d.ID, Name: d.Name, Reason: SkipNoManifest})
			continue
		}
		key, ok := keys[d.ID]
		if !ok || key == "" {
			skipped = append(skipped, Skipped{ID: d.ID, Name: d.Name, Reason: SkipNoKey})
			continue
		}
		depots = append(depots, Depot{ID: d.ID, ManifestGID: d.ManifestGID, DecryptionKey: key})
	}

	sort.Slice(depots, func(i, j int) bool { return depots[i].ID < depots[j].ID })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].ID < skipped[j].ID })
	return depots, skipped
}
