package visitor

import (
	"context"
	"io"
	"strings"

	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/walker"
)

// PrettyPrinter writes a walk as indented text, one space per level. An
// indirect object reached a second time gets its line but is not
// expanded again.
type PrettyPrinter struct {
	w    io.Writer
	seen map[core.IndirectRef]bool
	err  error
}

var _ walker.Deduplicator = (*PrettyPrinter)(nil)

// NewPrettyPrinter returns a printer writing to w
func NewPrettyPrinter(w io.Writer) *PrettyPrinter {
	return &PrettyPrinter{w: w, seen: make(map[core.IndirectRef]bool)}
}

// Visit writes the node's line. After a write error nothing more is
// written or expanded; see Err.
func (p *PrettyPrinter) Visit(ctx context.Context, n walker.Node, _ walker.Descend) bool {
	if p.err != nil {
		return false
	}
	line := strings.Repeat(" ", n.Depth) + Describe(n) + "\n"
	if _, err := io.WriteString(p.w, line); err != nil {
		p.err = err
		return false
	}

	if n.Origin != nil {
		if p.seen[*n.Origin] {
			return false
		}
		p.seen[*n.Origin] = true
	}
	return true
}

// Seen reports whether ref has been expanded
func (p *PrettyPrinter) Seen(ref core.IndirectRef) bool {
	return p.seen[ref]
}

// Err returns the first write error
func (p *PrettyPrinter) Err() error {
	return p.err
}
