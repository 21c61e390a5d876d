package walker

import (
	"strconv"

	"github.com/tsawler/pdfbrowse/core"
)

// ContentsLabel labels the synthetic last child of every stream node
const ContentsLabel = "Contents"

// Label is a node's position within its parent: a dictionary key or an
// array index. The zero Label is the empty key used for reference roots.
type Label struct {
	Key     string
	Index   int
	IsIndex bool
}

// Key returns a dictionary key label
func Key(key string) Label {
	return Label{Key: key}
}

// Index returns an array index label
func Index(i int) Label {
	return Label{Index: i, IsIndex: true}
}

func (l Label) String() string {
	if l.IsIndex {
		return strconv.Itoa(l.Index)
	}
	return l.Key
}

// StreamContents stands for the bytes of a stream. It is the object of
// the synthetic "Contents" child of a stream node.
type StreamContents struct {
	Stream *core.Stream
	// Ref is the reference the stream was loaded through, if any
	Ref *core.IndirectRef
}

// Node binds an object to its place in a traversal. Exactly one of Object
// and Contents is set.
type Node struct {
	Object   core.Object
	Contents *StreamContents
	Label    Label
	Depth    int
	// Origin is set when the node was reached by resolving a reference
	Origin *core.IndirectRef
}

// IsContainer reports whether the node can have children
func (n Node) IsContainer() bool {
	switch n.Object.(type) {
	case *core.Dict, core.Array, *core.Stream:
		return true
	}
	return false
}

// Children returns the immediate children of a node in document order.
// Dictionary and stream entries are labelled by key, array elements by
// index; a stream gets a trailing Contents child. References are not
// followed here.
func Children(n Node) []Node {
	depth := n.Depth + 1
	var children []Node

	switch obj := n.Object.(type) {
	case *core.Dict:
		children = dictChildren(obj, depth)
	case *core.Stream:
		children = dictChildren(obj.Dict, depth)
		children = append(children, Node{
			Contents: &StreamContents{Stream: obj, Ref: n.Origin},
			Label:    Key(ContentsLabel),
			Depth:    depth,
		})
	case core.Array:
		children = make([]Node, len(obj))
		for i, elem := range obj {
			children[i] = Node{Object: elem, Label: Index(i), Depth: depth}
		}
	}
	return children
}

func dictChildren(d *core.Dict, depth int) []Node {
	entries := d.Entries()
	children := make([]Node, 0, len(entries)+1)
	for _, e := range entries {
		children = append(children, Node{Object: e.Value, Label: Key(e.Key), Depth: depth})
	}
	return children
}
