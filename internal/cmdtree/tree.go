// SPDX-License-Identifier: MPL-2.0

package cmdtree

import (
	"slices"
	"strings"

	"github.com/taskgrove/grove/internal/registry"
)

// Node is a tree level. A node with a Command is a task; a node with
// children is a group. A node can be both when a task shares its name with
// a group at the same level.
type Node struct {
	Name  string
	About string
	// Segments is the path from the root to this node.
	Segments []string
	Command  *registry.Command
	children map[string]*Node
}

// Build creates the tree for every command in reg. The root has no name.
func Build(reg *registry.Registry) *Node {
	root := newNode("", nil)
	for _, entry := range reg.Iterate() {
		root.insert(entry.Path, entry.Command)
	}
	return root
}

func newNode(name string, segments []string) *Node {
	return &Node{
		Name:     name,
		Segments: segments,
		children: make(map[string]*Node),
	}
}

func (n *Node) insert(path registry.PathKey, cmd *registry.Command) {
	segments := path.Segments()
	current := n
	for i, seg := range segments {
		child, ok := current.children[seg]
		if !ok {
			child = newNode(seg, slices.Clone(segments[:i+1]))
			current.children[seg] = child
		}
		last := i == len(segments)-1
		switch {
		case last:
			child.Command = cmd
			if child.About == "" {
				child.About = cmd.About
			}
		case child.About == "" && i < len(cmd.Groups):
			child.About = cmd.Groups[i].About
		}
		current = child
	}
}

// Path returns the PathKey recomputed from the node's segments.
func (n *Node) Path() registry.PathKey {
	return registry.PathKey(strings.Join(n.Segments, registry.Separator))
}

// IsCommand reports whether the node carries a command.
func (n *Node) IsCommand() bool {
	return n.Command != nil
}

// IsGroup reports whether the node has children.
func (n *Node) IsGroup() bool {
	return len(n.children) > 0
}

// Children returns the child nodes sorted by name.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Child returns the named child.
func (n *Node) Child(name string) (*Node, bool) {
	c, ok := n.children[name]
	return c, ok
}

// Find walks segments from n. It returns the deepest node reached and
// whether every segment matched.
func (n *Node) Find(segments []string) (*Node, bool) {
	current := n
	for _, seg := range segments {
		child, ok := current.children[seg]
		if !ok {
			return current, false
		}
		current = child
	}
	return current, true
}

// Flatten returns the PathKeys of every command node, sorted.
func (n *Node) Flatten() []registry.PathKey {
	var out []registry.PathKey
	n.walk(func(node *Node) {
		if node.Command != nil {
			out = append(out, node.Path())
		}
	})
	slices.Sort(out)
	return out
}

// walk visits n and its descendants depth-first in name order.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children() {
		c.walk(fn)
	}
}

// Complete returns the child names reachable after words, sorted. Empty
// words are ignored. A word that matches no child yields nothing.
func (n *Node) Complete(words []string) []string {
	segments := slices.DeleteFunc(slices.Clone(words), func(w string) bool { return w == "" })
	node, ok := n.Find(segments)
	if !ok {
		return nil
	}
	children := node.Children()
	out := make([]string, 0, len(children))
	for _, c := range children {
		out = append(out, c.Name)
	}
	return out
}
