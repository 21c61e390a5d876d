// Package visitor renders PDF object graphs walked by package walker.
//
// # Text
//
// [PrettyPrinter] writes one indented line per node and expands every
// indirect object once:
//
//	pp := visitor.NewPrettyPrinter(os.Stdout)
//	err := w.Walk(ctx, root, pp)
//
// Line contents come from [Describe]:
//
//	Trailer (dict)
//	 Root (dict) [id: 1, gen: 0]
//	  Type = /Catalog
//
// # Interactive Tree
//
// [Tree] builds an HTML list whose branches are only walked when their
// [Expander] is toggled. Stream contents carry download links for the
// decoded bytes, the raw bytes and, for images that allow it, a PNG
// rendering. Tree does not deduplicate: expanding a cycle by hand goes on
// until the walker's depth ceiling.
//
// # Bulk Export
//
// [Collector] gathers every stream reachable from a root, visiting each
// indirect object once.
package visitor
