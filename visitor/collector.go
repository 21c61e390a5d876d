package visitor

import (
	"context"

	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/walker"
)

// Collector gathers the contents nodes of every stream in a walk,
// expanding each indirect object once
type Collector struct {
	seen    map[core.IndirectRef]bool
	streams []*walker.StreamContents
}

var _ walker.Deduplicator = (*Collector)(nil)

// NewCollector returns an empty collector
func NewCollector() *Collector {
	return &Collector{seen: make(map[core.IndirectRef]bool)}
}

func (c *Collector) Visit(ctx context.Context, n walker.Node, _ walker.Descend) bool {
	if n.Contents != nil {
		c.streams = append(c.streams, n.Contents)
		return false
	}
	if n.Origin != nil {
		if c.seen[*n.Origin] {
			return false
		}
		c.seen[*n.Origin] = true
	}
	return n.IsContainer()
}

// Seen reports whether ref has been expanded
func (c *Collector) Seen(ref core.IndirectRef) bool {
	return c.seen[ref]
}

// Streams returns the collected streams in walk order
func (c *Collector) Streams() []*walker.StreamContents {
	return c.streams
}
