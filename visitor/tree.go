package visitor

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/charmap"

	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/pngenc"
	"github.com/tsawler/pdfbrowse/walker"
)

// ViewContentsText replaces ContentsText on the tree's contents nodes
const ViewContentsText = "<view contents> "

// Affordance kinds offered on stream contents
const (
	Download    = "download"
	DownloadRaw = "downloadRaw"
	PNG         = "png"
)

// Source provides the stream bytes behind contents nodes
type Source interface {
	StreamBytes(ctx context.Context, ref core.IndirectRef) ([]byte, error)
	RawSlice(start, end int64) ([]byte, error)
}

// Affordance is an export offered for one stream
type Affordance struct {
	Kind     string
	Filename string
	MIMEType string
	Data     []byte
}

// ContentsView is the tree's rendering of one stream contents node
type ContentsView struct {
	Ref         *core.IndirectRef
	Affordances []Affordance
	Expander    *Expander
}

// Affordance returns the affordance of the given kind, if offered
func (v *ContentsView) Affordance(kind string) (Affordance, bool) {
	for _, a := range v.Affordances {
		if a.Kind == kind {
			return a, true
		}
	}
	return Affordance{}, false
}

// Expander is a collapsible list item. The first Toggle loads its
// content; later toggles only show or hide it.
type Expander struct {
	li       *html.Node
	depth    int
	contents bool
	load     func(ctx context.Context) error
	loaded   bool
	expanded bool
}

// Toggle flips the expanded state, loading the content the first time
func (e *Expander) Toggle(ctx context.Context) error {
	e.expanded = !e.expanded
	if e.expanded {
		addClass(e.li, "expanded")
	} else {
		removeClass(e.li, "expanded")
	}
	if e.loaded {
		return nil
	}
	e.loaded = true
	return e.load(ctx)
}

// Expanded reports whether the content is shown
func (e *Expander) Expanded() bool { return e.expanded }

// Loaded reports whether the content has been loaded
func (e *Expander) Loaded() bool { return e.loaded }

// Depth returns the depth of the node the expander belongs to
func (e *Expander) Depth() int { return e.depth }

// Tree is a lazy visitor building an HTML list. It never lets the walker
// descend; each branch is walked when its expander is first toggled.
type Tree struct {
	src       Source
	enc       *pngenc.Encoder
	log       *logrus.Entry
	root      *html.Node
	expanders []*Expander
	contents  []*ContentsView
}

// TreeOption configures a Tree
type TreeOption func(*Tree)

// WithEncoder enables PNG exports of embeddable images
func WithEncoder(enc *pngenc.Encoder) TreeOption {
	return func(t *Tree) {
		t.enc = enc
	}
}

// WithLogger sets the logger used for unavailable exports
func WithLogger(log *logrus.Entry) TreeOption {
	return func(t *Tree) {
		t.log = log
	}
}

// NewTree returns an empty tree reading stream bytes from src
func NewTree(src Source, opts ...TreeOption) *Tree {
	t := &Tree{
		src:  src,
		log:  logrus.WithField("component", "tree"),
		root: element(atom.Ul, "id", "main"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Visit appends the node to the top-level list
func (t *Tree) Visit(ctx context.Context, n walker.Node, descend walker.Descend) bool {
	return t.visit(ctx, t.root, n, descend)
}

func (t *Tree) into(ul *html.Node) walker.Visitor {
	return walker.VisitorFunc(func(ctx context.Context, n walker.Node, descend walker.Descend) bool {
		return t.visit(ctx, ul, n, descend)
	})
}

func (t *Tree) visit(ctx context.Context, ul *html.Node, n walker.Node, descend walker.Descend) bool {
	li := element(atom.Li)
	span := element(atom.Span)
	li.AppendChild(span)

	switch {
	case n.IsContainer():
		span.AppendChild(text(Describe(n)))
		list := element(atom.Ul)
		t.expando(li, list, n.Depth, false, func(ctx context.Context) error {
			return descend(ctx, t.into(list))
		})
	case n.Contents != nil:
		span.AppendChild(text(ViewContentsText))
		t.visitContents(ctx, li, span, n)
	default:
		span.AppendChild(text(Describe(n)))
	}

	ul.AppendChild(li)
	return false
}

// visitContents adds the export links of a stream and an expander
// showing its decoded bytes as Latin-1 text. An export whose bytes cannot
// be produced is logged and left out.
func (t *Tree) visitContents(ctx context.Context, li, span *html.Node, n walker.Node) {
	c := n.Contents
	view := &ContentsView{Ref: c.Ref}
	name := "stream"
	if c.Ref != nil {
		name = fmt.Sprintf("%d_%d", c.Ref.Number, c.Ref.Generation)
	}
	log := t.log.WithField("stream", name)

	var decoded []byte
	var decodeErr error
	if c.Ref == nil {
		decodeErr = fmt.Errorf("stream has no reference")
	} else {
		decoded, decodeErr = t.src.StreamBytes(ctx, *c.Ref)
	}
	if decodeErr != nil {
		log.WithError(decodeErr).Warn("decoded contents unavailable")
	} else {
		view.Affordances = append(view.Affordances, Affordance{
			Kind: Download, Filename: name + ".bin", MIMEType: "application/octet-stream", Data: decoded,
		})
	}

	raw, err := t.src.RawSlice(c.Stream.Start, c.Stream.End)
	if err != nil {
		log.WithError(err).Warn("raw contents unavailable")
	} else {
		view.Affordances = append(view.Affordances, Affordance{
			Kind: DownloadRaw, Filename: name + ".raw", MIMEType: "application/octet-stream", Data: raw,
		})
		if t.enc != nil && pngenc.Embeddable(c.Stream.Dict) {
			if blob, err := t.enc.Encode(ctx, c.Stream.Dict, raw); err != nil {
				log.WithError(err).Warn("png export unavailable")
			} else {
				view.Affordances = append(view.Affordances, Affordance{
					Kind: PNG, Filename: name + ".png", MIMEType: pngenc.MIMEType, Data: blob.Bytes(),
				})
			}
		}
	}

	for _, a := range view.Affordances {
		span.AppendChild(link(a))
		span.AppendChild(text(" "))
	}

	pre := element(atom.Pre)
	view.Expander = t.expando(li, pre, n.Depth, true, func(ctx context.Context) error {
		if decodeErr != nil {
			return decodeErr
		}
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(decoded)
		if err != nil {
			return err
		}
		pre.AppendChild(text(string(s)))
		return nil
	})
	t.contents = append(t.contents, view)
}

func (t *Tree) expando(li, content *html.Node, depth int, contents bool, load func(ctx context.Context) error) *Expander {
	addClass(li, "expando")
	li.AppendChild(content)
	e := &Expander{li: li, depth: depth, contents: contents, load: load}
	t.expanders = append(t.expanders, e)
	return e
}

// Expanders returns every expander in creation order
func (t *Tree) Expanders() []*Expander {
	return t.expanders
}

// Contents returns the stream contents views in creation order
func (t *Tree) Contents() []*ContentsView {
	return t.contents
}

// ExpandLevels toggles open the container expanders of the first levels
// of the tree, loading them as needed. Contents are left collapsed.
func (t *Tree) ExpandLevels(ctx context.Context, levels int) error {
	for level := 0; level < levels; level++ {
		for _, e := range append([]*Expander(nil), t.expanders...) {
			if e.depth != level || e.contents || e.expanded {
				continue
			}
			if err := e.Toggle(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Root returns the top-level list element
func (t *Tree) Root() *html.Node {
	return t.root
}

const treeStyle = `ul { list-style: none; padding-left: 1.2em; font-family: monospace; }
.expando > span { cursor: pointer; }
.expando > ul, .expando > pre { display: none; }
.expando.expanded > ul, .expando.expanded > pre { display: block; }
`

// Render writes the tree as a standalone HTML document
func (t *Tree) Render(w io.Writer) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	head := element(atom.Head)
	style := element(atom.Style)
	style.AppendChild(text(treeStyle))
	head.AppendChild(style)
	body := element(atom.Body)
	root.AppendChild(head)
	root.AppendChild(body)
	doc.AppendChild(root)

	body.AppendChild(t.root)
	defer body.RemoveChild(t.root)
	return html.Render(w, doc)
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func link(a Affordance) *html.Node {
	href := "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
	n := element(atom.A, "href", href, "download", a.Filename)
	n.AppendChild(text(a.Kind))
	return n
}

func addClass(n *html.Node, class string) {
	for i, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return
			}
		}
		n.Attr[i].Val = strings.TrimSpace(attr.Val + " " + class)
		return
	}
	n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
}

func removeClass(n *html.Node, class string) {
	for i, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		var kept []string
		for _, c := range strings.Fields(attr.Val) {
			if c != class {
				kept = append(kept, c)
			}
		}
		n.Attr[i].Val = strings.Join(kept, " ")
		return
	}
}
