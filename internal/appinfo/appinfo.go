// Package appinfo extracts the app metadata this tool needs from parsed
// Steam appinfo documents: the app name and, per depot, the public
// manifest GID and any DLC linkage.
package appinfo

import (
	"fmt"
	"strconv"
	"strings"

	"luamaker/internal/vdf"
)

// Depot describes one depot entry from the appinfo depots section.
type Depot struct {
	ID uint32
	// ManifestGID is the GID of the depot's public manifest. Empty when
	// the depot publishes no public manifest (encrypted-only or unused).
	ManifestGID string
	// DLCAppID links the depot to a DLC app when nonzero.
	DLCAppID uint32
	// Name is the depot's display name when the metadata carries one.
	Name string
}

// App is one app's metadata as parsed from a single appinfo response.
type App struct {
	ID     uint32
	Name   string
	Depots []Depot // document order
}

// Depot returns the depot with the given ID, if the app has one.
func (a *App) Depot(id uint32) (Depot, bool) {
	for _, d := range a.Depots {
		if d.ID == id {
			return d, true
		}
	}
	return Depot{}, false
}

// Parse builds an App from a parsed appinfo document. The root may be the
// document keyed by app ID (as steamcmd prints it) or the app block itself.
func Parse(root *vdf.Node, appID uint32) (*App, error) {
	app := root
	if block, ok := root.Child(formatID(appID)); ok && block.Kind == vdf.KindObject {
		app = block
	}

	name, ok := app.GetString("common", "name")
	if !ok || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("appinfo for %d has no common.name", appID)
	}

	depotsNode, ok := app.ChildFold("depots")
	if !ok || depotsNode.Kind != vdf.KindObject {
		return nil, fmt.Errorf("appinfo for %d has no depots section", appID)
	}

	result := &App{ID: appID, Name: strings.TrimSpace(name)}
	for _, key := range depotsNode.Keys() {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			// Non-numeric siblings (branches, baselanguages, ...) live
			// alongside depot entries and are not depots.
			continue
		}
		entry, _ := depotsNode.Child(key)
		if entry.Kind != vdf.KindObject {
			continue
		}
		result.Depots = append(result.Depots, parseDepot(uint32(id), entry))
	}
	return result, nil
}

func parseDepot(id uint32, entry *vdf.Node) Depot {
	depot := Depot{ID: id}
	if name, ok := entry.GetString("name"); ok {
		depot.Name = strings.TrimSpace(name)
	}
	if dlc, ok := entry.GetString("dlcappid"); ok {
		if parsed, err := strconv.ParseUint(strings.TrimSpace(dlc), 10, 32); err == nil {
			depot.DLCAppID = uint32(parsed)
		}
	}
	depot.ManifestGID = publicManifestGID(entry)
	return depot
}

// publicManifestGID reads depots.<id>.manifests.public, accepting both the
// current object form with a nested gid and the older flat string form.
func publicManifestGID(entry *vdf.Node) string {
	manifests, ok := entry.ChildFold("manifests")
	if !ok {
		return ""
	}
	public, ok := manifests.ChildFold("public")
	if !ok {
		return ""
	}
	switch public.Kind {
	case vdf.KindString:
		return strings.TrimSpace(public.Value)
	case vdf.KindObject:
		if gid, ok := public.GetString("gid"); ok {
			return strings.TrimSpace(gid)
		}
	}
	return ""
}

// ExtractAppBlock isolates the `"<appID>" { ... }` block from raw steamcmd
// console output by brace counting. The surrounding output mixes login
// chatter with the VDF payload, so the block has to be cut out before it
// can be parsed.
func ExtractAppBlock(raw string, appID uint32) (string, error) {
	key := `"` + formatID(appID) + `"`
	keyIndex := strings.Index(raw, key)
	if keyIndex < 0 {
		return "", fmt.Errorf("no appinfo section for app %d in output", appID)
	}
	open := strings.IndexByte(raw[keyIndex:], '{')
	if open < 0 {
		return "", fmt.Errorf("appinfo section for app %d has no body", appID)
	}
	open += keyIndex

	depth := 0
	for i := open; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[keyIndex : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unbalanced braces in appinfo section for app %d", appID)
}

func formatID(appID uint32) string {
	return strconv.FormatUint(uint64(appID), 10)
}
