// Package walker traverses the object graph of a PDF file.
//
// A walk starts at a root [Node], normally the trailer dictionary, and
// visits nodes in pre-order, left to right, in the order entries appear in
// the file. Indirect references are resolved when they are reached, so
// only the parts of the graph a visitor asks for are ever loaded.
//
// # Basic Usage
//
//	w := walker.New(doc)
//	root, err := walker.NewRoot(ctx, doc, walker.TrailerRoot())
//	err = w.Walk(ctx, root, walker.VisitorFunc(func(ctx context.Context, n walker.Node, d walker.Descend) bool {
//	    fmt.Println(n.Label, n.Depth)
//	    return true
//	}))
//
// # Visitor Control
//
// The visitor's return value decides whether a node's children are
// walked. A visitor that returns false can keep the [Descend] function and
// call it later, possibly with a different visitor, to walk the children
// on demand.
//
// # Cycles
//
// The walker itself does not track which references it has seen. Shared
// and cyclic objects are the visitor's business; visitors that suppress
// re-expansion implement [Deduplicator]. Every walk is bounded by a depth
// ceiling (20 by default) and fails with [ErrMaxDepth] past it:
//
//	w := walker.New(doc, walker.WithMaxDepth(10))
package walker
