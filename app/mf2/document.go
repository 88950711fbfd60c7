// Package mf2 holds the parsed microformats2 property tree the feed layer reads from.
package mf2

import (
	"slices"
	"sort"
)

const (
	TypeEntry = "h-entry"
	TypeCard  = "h-card"
	TypeFeed  = "h-feed"
)

// Document is the parsed page: top-level microformats plus rel links.
// It is never mutated after Parse returns.
type Document struct {
	Items []*Node
	Rels  map[string][]string
}

// Node is a single microformat (h-entry, h-card, ...).
type Node struct {
	ID         string
	Type       []string
	Properties map[string][]Value
	Value      string // plain text value when the node is itself a property value
	HTML       string // markup when the node is an e-* property value
	Children   []*Node
}

// Value is one entry of a property list: a string, embedded markup, or a nested node.
type Value struct {
	Text     string
	HTML     string
	Alt      string
	Embedded bool
	Node     *Node
}

func (n *Node) HasType(t string) bool {
	if n == nil {
		return false
	}
	return slices.Contains(n.Type, t)
}

// HasProperty reports whether the property key is present, even with no values.
func (n *Node) HasProperty(name string) bool {
	if n == nil || n.Properties == nil {
		return false
	}
	_, ok := n.Properties[name]
	return ok
}

// First returns the first value of a property.
func (n *Node) First(name string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	values := n.Properties[name]
	if len(values) == 0 {
		return Value{}, false
	}
	return values[0], true
}

// FirstString returns the plain text of the first value of a property.
func (n *Node) FirstString(name string) (string, bool) {
	v, ok := n.First(name)
	if !ok {
		return "", false
	}
	return v.String(), true
}

// Strings returns the plain text of every value of a property.
func (n *Node) Strings(name string) []string {
	if n == nil {
		return nil
	}
	var out []string
	for _, v := range n.Properties[name] {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsNode reports whether the value is a nested microformat.
func (v Value) IsNode() bool {
	return v.Node != nil
}

// String returns the plain text form of the value whatever its kind.
func (v Value) String() string {
	switch {
	case v.Node != nil:
		if v.Node.Value != "" {
			return v.Node.Value
		}
		if name, ok := v.Node.FirstString("name"); ok {
			return name
		}
		return ""
	default:
		return v.Text
	}
}

// Flatten lists the microformats of the document: each top-level item followed by the
// microformats nested in its properties, then each direct child followed by its own
// property microformats. Children of children are not visited, so replies nested in an
// entry do not show up as entries of the page.
func (d *Document) Flatten() []*Node {
	if d == nil {
		return nil
	}
	var out []*Node
	for _, item := range d.Items {
		if item == nil {
			continue
		}
		out = append(out, item)
		out = flattenProperties(item, out)
		for _, child := range item.Children {
			if child == nil {
				continue
			}
			out = append(out, child)
			out = flattenProperties(child, out)
		}
	}
	return out
}

// FindByType returns the flattened microformats of the given type in document order.
func (d *Document) FindByType(t string) []*Node {
	var out []*Node
	for _, n := range d.Flatten() {
		if n.HasType(t) {
			out = append(out, n)
		}
	}
	return out
}

// RelURLs returns the URLs linked with the given rel value.
func (d *Document) RelURLs(rel string) []string {
	if d == nil || d.Rels == nil {
		return nil
	}
	return d.Rels[rel]
}

// flattenProperties appends the microformats found in the properties of n, recursively,
// in property name order.
func flattenProperties(n *Node, out []*Node) []*Node {
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, v := range n.Properties[name] {
			if v.Node != nil {
				out = append(out, v.Node)
				out = flattenProperties(v.Node, out)
			}
		}
	}
	return out
}
