// Package vdf parses Valve Data Format (KeyValues) text documents into a
// tagged recursive node tree. The format pairs a quoted or bare key with
// either a string value or a brace-delimited nested object.
package vdf

import (
	"fmt"
	"io"
	"strings"
)

// Kind discriminates the two node shapes a VDF value can take.
type Kind int

const (
	// KindString is a leaf node holding a string value.
	KindString Kind = iota
	// KindObject is a nested section holding child nodes in document order.
	KindObject
)

// Node is one value in a parsed VDF document. A node is either a string
// leaf or an object; object children preserve document order.
type Node struct {
	Kind     Kind
	Value    string
	keys     []string
	children map[string]*Node
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Kind: KindObject, children: make(map[string]*Node)}
}

// NewString returns a leaf node holding value.
func NewString(value string) *Node {
	return &Node{Kind: KindString, Value: value}
}

// Set inserts or replaces the child stored under key. Replacing keeps the
// key's original document position.
func (n *Node) Set(key string, child *Node) {
	if n.Kind != KindObject {
		return
	}
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
}

// Child returns the child stored under key.
func (n *Node) Child(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// ChildFold returns the child whose key matches under ASCII case folding.
// Valve tooling is inconsistent about key casing across documents.
func (n *Node) ChildFold(key string) (*Node, bool) {
	if n == nil || n.Kind != KindObject {
		return nil, false
	}
	if child, ok := n.children[key]; ok {
		return child, true
	}
	for _, k := range n.keys {
		if strings.EqualFold(k, key) {
			return n.children[k], true
		}
	}
	return nil, false
}

// Keys returns the object's child keys in document order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindObject {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len returns the number of children of an object node.
func (n *Node) Len() int {
	if n == nil || n.Kind != KindObject {
		return 0
	}
	return len(n.keys)
}

// Get walks the given key path and returns the node at its end.
func (n *Node) Get(path ...string) (*Node, bool) {
	current := n
	for _, key := range path {
		child, ok := current.Child(key)
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// GetString walks the given key path and returns the string value at its
// end. It reports false when the path is absent or ends on an object.
func (n *Node) GetString(path ...string) (string, bool) {
	node, ok := n.Get(path...)
	if !ok || node.Kind != KindString {
		return "", false
	}
	return node.Value, true
}

// Walk visits every child of an object node in document order, recursing
// into nested objects depth-first. The visitor receives the key path from
// the root and the node stored there.
func (n *Node) Walk(visit func(path []string, node *Node)) {
	n.walk(nil, visit)
}

func (n *Node) walk(prefix []string, visit func(path []string, node *Node)) {
	if n == nil || n.Kind != KindObject {
		return
	}
	for _, key := range n.keys {
		child := n.children[key]
		path := make([]string, len(prefix)+1)
		copy(path, prefix)
		path[len(prefix)] = key
		visit(path, child)
		if child.Kind == KindObject {
			child.walk(path, visit)
		}
	}
}

// ParseError reports malformed VDF input with the line it was detected on.
type ParseError struct {
	Line    int
	Section string
	Msg     string
}

func (e *ParseError) Error() string {
	if e.Section != "" {
		return fmt.Sprintf("vdf: line %d (in %q): %s", e.Line, e.Section, e.Msg)
	}
	return fmt.Sprintf("vdf: line %d: %s", e.Line, e.Msg)
}

// Parse reads a complete VDF document and returns its root object.
// Malformed input yields a *ParseError naming the offending line.
func Parse(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read vdf input: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a VDF document held in memory.
func ParseString(input string) (*Node, error) {
	p := &parser{input: input, line: 1}
	root := NewObject()
	if err := p.parseInto(root, ""); err != nil {
		return nil, err
	}
	return root, nil
}
