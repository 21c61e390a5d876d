package walker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/pdfbrowse/core"
)

// DefaultMaxDepth is the deepest node a walk will visit
const DefaultMaxDepth = 20

// ErrMaxDepth aborts a walk that reaches a node deeper than the ceiling
var ErrMaxDepth = errors.New("max depth exceeded")

// Resolver loads the object an indirect reference points to
type Resolver interface {
	ResolveReference(ctx context.Context, ref core.IndirectRef) (core.Object, error)
}

// Descend walks the children of the node it was handed out with. It may
// be called after the visit that received it has returned.
type Descend func(ctx context.Context, v Visitor) error

// Visitor is called once for every node of a walk. Returning true walks
// the node's children next; returning false skips them.
type Visitor interface {
	Visit(ctx context.Context, n Node, descend Descend) bool
}

// VisitorFunc adapts a function to the Visitor interface
type VisitorFunc func(ctx context.Context, n Node, descend Descend) bool

// Visit calls f
func (f VisitorFunc) Visit(ctx context.Context, n Node, descend Descend) bool {
	return f(ctx, n, descend)
}

// Deduplicator is implemented by visitors that expand each indirect
// object at most once, whatever the number of paths leading to it.
// Visitors without it rely on the depth ceiling alone to end cycles.
type Deduplicator interface {
	Visitor
	Seen(ref core.IndirectRef) bool
}

// Walker drives depth-first traversals of an object graph
type Walker struct {
	resolver Resolver
	maxDepth int
	log      *logrus.Entry
}

// Option configures the walker
type Option func(*Walker)

// WithMaxDepth sets the depth ceiling (default: 20)
func WithMaxDepth(depth int) Option {
	return func(w *Walker) {
		w.maxDepth = depth
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(log *logrus.Entry) Option {
	return func(w *Walker) {
		w.log = log
	}
}

// New creates a walker resolving references through r
func New(r Resolver, opts ...Option) *Walker {
	w := &Walker{
		resolver: r,
		maxDepth: DefaultMaxDepth,
		log:      logrus.WithField("component", "walker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk visits root and, as the visitor allows, everything reachable from
// it. It stops at the first error: a node deeper than the ceiling, a
// reference that cannot be resolved, or a cancelled context.
func (w *Walker) Walk(ctx context.Context, root Node, v Visitor) error {
	return w.walk(ctx, []Node{root}, v)
}

func (w *Walker) walk(ctx context.Context, stack []Node, v Visitor) error {
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.Depth > w.maxDepth {
			w.log.WithFields(logrus.Fields{"label": node.Label.String(), "depth": node.Depth}).Debug("walk aborted")
			return fmt.Errorf("%w: %q at depth %d", ErrMaxDepth, node.Label, node.Depth)
		}

		if ref, ok := node.Object.(core.IndirectRef); ok {
			obj, err := w.resolver.ResolveReference(ctx, ref)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", ref, err)
			}
			node = Node{Object: obj, Label: node.Label, Depth: node.Depth, Origin: &ref}
		}

		visited := node
		descend := func(ctx context.Context, v Visitor) error {
			return w.walk(ctx, reversedChildren(visited), v)
		}
		if v.Visit(ctx, node, descend) {
			stack = append(stack, reversedChildren(node)...)
		}
	}
	return nil
}

// reversedChildren returns the children last first, so that popping them
// off a stack restores document order.
func reversedChildren(n Node) []Node {
	children := Children(n)
	for i, j := 0, len(children)-1; i < j; i, j = i+1, j-1 {
		children[i], children[j] = children[j], children[i]
	}
	return children
}
