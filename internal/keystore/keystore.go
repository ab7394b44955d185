// Package keystore reads depot decryption keys out of a local Steam
// config.vdf. Keys live under per-depot sections nested at varying depths
// depending on client version, so the reader walks the whole document
// rather than assuming a fixed path.
package keystore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"luamaker/internal/vdf"
)

// ErrUnavailable marks a key store that is missing or unreadable.
var ErrUnavailable = errors.New("key store unavailable")

// Load reads and parses the key store at path. A missing or unreadable
// file wraps ErrUnavailable; malformed content yields a *vdf.ParseError.
func Load(path string) (map[uint32]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer file.Close()
	keys, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse key store %s: %w", path, err)
	}
	return keys, nil
}

// Parse extracts every depot-id to decryption-key mapping from a key
// store document. A well-formed document with no keys returns an empty
// map: having no key for a depot is the expected case, not a failure.
// Duplicate depot IDs resolve last-write-wins in document order.
func Parse(r io.Reader) (map[uint32]string, error) {
	root, err := vdf.Parse(r)
	if err != nil {
		return nil, err
	}

	keys := make(map[uint32]string)
	root.Walk(func(path []string, node *vdf.Node) {
		if node.Kind != vdf.KindObject {
			return
		}
		depotID, err := strconv.ParseUint(path[len(path)-1], 10, 32)
		if err != nil {
			return
		}
		key, ok := decryptionKey(node)
		if !ok {
			return
		}
		keys[uint32(depotID)] = key
	})
	return keys, nil
}

func decryptionKey(node *vdf.Node) (string, bool) {
	child, ok := node.ChildFold("DecryptionKey")
	if !ok || child.Kind != vdf.KindString {
		return "", false
	}
	key := strings.TrimSpace(child.Value)
	if key == "" {
		return "", false
	}
	return key, true
}
