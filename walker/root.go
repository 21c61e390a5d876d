package walker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tsawler/pdfbrowse/core"
)

// TrailerLabel labels a root taken from the trailer dictionary
const TrailerLabel = "Trailer"

// RootSelector names where a walk starts: the trailer, or an indirect
// object given by number and generation.
type RootSelector struct {
	Ref *core.IndirectRef
}

// TrailerRoot selects the trailer dictionary
func TrailerRoot() RootSelector {
	return RootSelector{}
}

// ObjectRoot selects the indirect object num gen
func ObjectRoot(num, gen int) RootSelector {
	return RootSelector{Ref: &core.IndirectRef{Number: num, Generation: gen}}
}

// ParseRootSelector parses "trailer" (or "") and "num,gen"
func ParseRootSelector(s string) (RootSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "trailer") {
		return TrailerRoot(), nil
	}
	numStr, genStr, ok := strings.Cut(s, ",")
	if !ok {
		return RootSelector{}, fmt.Errorf("invalid root %q: want \"trailer\" or \"num,gen\"", s)
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil || num < 0 {
		return RootSelector{}, fmt.Errorf("invalid object number in root %q", s)
	}
	gen, err := strconv.Atoi(strings.TrimSpace(genStr))
	if err != nil || gen < 0 {
		return RootSelector{}, fmt.Errorf("invalid generation in root %q", s)
	}
	return ObjectRoot(num, gen), nil
}

func (s RootSelector) String() string {
	if s.Ref == nil {
		return "trailer"
	}
	return fmt.Sprintf("%d,%d", s.Ref.Number, s.Ref.Generation)
}

// Document is a Resolver that also knows its trailer
type Document interface {
	Resolver
	Trailer() *core.Dict
}

// NewRoot builds the root node for sel. A trailer root is labelled
// "Trailer"; an object root has an empty label and records the reference
// it was loaded through.
func NewRoot(ctx context.Context, doc Document, sel RootSelector) (Node, error) {
	if sel.Ref == nil {
		trailer := doc.Trailer()
		if trailer == nil {
			return Node{}, fmt.Errorf("document has no trailer")
		}
		return Node{Object: trailer, Label: Key(TrailerLabel)}, nil
	}

	ref := *sel.Ref
	obj, err := doc.ResolveReference(ctx, ref)
	if err != nil {
		return Node{}, fmt.Errorf("resolve root %s: %w", ref, err)
	}
	return Node{Object: obj, Origin: &ref}, nil
}
