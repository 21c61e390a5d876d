package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/pdfbrowse/core"
)

var (
	// ErrObjectNotFound is returned for references with no live xref entry
	ErrObjectNotFound = errors.New("object not found")
	// ErrNotStream is returned by StreamBytes for non-stream objects
	ErrNotStream = errors.New("object is not a stream")
	// ErrRange is returned by RawSlice for offsets outside the source
	ErrRange = errors.New("byte range outside source")
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Reader resolves objects of a PDF file held in memory
type Reader struct {
	data    []byte
	version PDFVersion
	xref    *core.XRefTable
	log     *logrus.Entry

	mu         sync.Mutex
	objCache   map[int]core.Object
	objStreams map[int]*core.ObjectStream
}

// Option configures a Reader
type Option func(*Reader)

// WithLogger sets the logger used for diagnostics
func WithLogger(log *logrus.Entry) Option {
	return func(r *Reader) {
		r.log = log
	}
}

// New parses the header and cross-reference data of a PDF held in data.
// The slice is retained and must not be modified afterwards.
func New(data []byte, opts ...Option) (*Reader, error) {
	r := &Reader{
		data:       data,
		log:        logrus.WithField("component", "reader"),
		objCache:   make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
	}
	for _, opt := range opts {
		opt(r)
	}

	version, err := parseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.version = version

	xref, err := core.LoadXRef(data)
	if err != nil {
		r.log.WithError(err).Warn("cross-reference data unreadable, reconstructing")
		xref, err = core.ReconstructXRef(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load xref: %w", err)
		}
		r.log.WithField("objects", xref.Size()).Debug("reconstructed cross-reference table")
	}
	r.xref = xref
	return r, nil
}

// Open reads a PDF file into memory and returns a Reader for it
func Open(filename string, opts ...Option) (*Reader, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return New(data, opts...)
}

var headerVersion = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// parseHeader finds %PDF-x.y near the start of the file. Some writers
// emit junk before it, so the first kilobyte is searched.
func parseHeader(data []byte) (PDFVersion, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	m := headerVersion.FindSubmatch(head)
	if m == nil {
		return PDFVersion{}, fmt.Errorf("missing %%PDF- header")
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// Version returns the PDF version
func (r *Reader) Version() PDFVersion {
	return r.version
}

// Trailer returns the trailer dictionary
func (r *Reader) Trailer() *core.Dict {
	return r.xref.Trailer
}

// XRefTable returns the cross-reference table
func (r *Reader) XRefTable() *core.XRefTable {
	return r.xref
}

// Data returns the source bytes
func (r *Reader) Data() []byte {
	return r.data
}

// NumObjects returns the object count declared by the trailer
func (r *Reader) NumObjects() int {
	size, _ := r.Trailer().GetInt("Size")
	return int(size)
}

// ResolveReference loads the object a reference points to. The
// generation must match the cross-reference entry.
func (r *Reader) ResolveReference(ctx context.Context, ref core.IndirectRef) (core.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.resolve(ref, nil)
}

// resolve loads ref. chain holds the objects whose parsing led here, so
// that a stream /Length pointing back at its own object fails instead of
// recursing forever.
func (r *Reader) resolve(ref core.IndirectRef, chain map[int]bool) (core.Object, error) {
	entry, ok := r.xref.Get(ref.Number)
	if !ok || entry.Kind == core.XRefFree || ref.Generation != generation(entry) {
		return nil, fmt.Errorf("%s: %w", ref, ErrObjectNotFound)
	}

	r.mu.Lock()
	obj, cached := r.objCache[ref.Number]
	r.mu.Unlock()
	if cached {
		return obj, nil
	}

	if chain[ref.Number] {
		return nil, fmt.Errorf("%s: circular stream length reference", ref)
	}
	next := map[int]bool{ref.Number: true}
	for n := range chain {
		next[n] = true
	}

	var err error
	switch entry.Kind {
	case core.XRefOffset:
		obj, err = r.parseAt(ref, entry.Offset, next)
	case core.XRefCompressed:
		obj, err = r.loadCompressed(ref, entry, next)
	}
	if err != nil {
		return nil, err
	}

	r.log.WithField("ref", ref.String()).Debug("resolved object")
	r.mu.Lock()
	r.objCache[ref.Number] = obj
	r.mu.Unlock()
	return obj, nil
}

// generation returns the generation an entry's object is defined with.
// Objects inside object streams always have generation 0.
func generation(entry core.XRefEntry) int {
	if entry.Kind == core.XRefCompressed {
		return 0
	}
	return entry.Generation
}

func (r *Reader) parseAt(ref core.IndirectRef, offset int64, chain map[int]bool) (core.Object, error) {
	parser, err := core.NewParserAt(r.data, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	parser.SetReferenceResolver(lengthResolver{r: r, chain: chain})

	ind, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ref, err)
	}
	if ind.Ref.Number != ref.Number {
		return nil, fmt.Errorf("object number mismatch: expected %d, got %d", ref.Number, ind.Ref.Number)
	}
	return ind.Object, nil
}

func (r *Reader) loadCompressed(ref core.IndirectRef, entry core.XRefEntry, chain map[int]bool) (core.Object, error) {
	r.mu.Lock()
	objStm, ok := r.objStreams[entry.Stream]
	r.mu.Unlock()

	if !ok {
		container, err := r.resolve(core.IndirectRef{Number: entry.Stream}, chain)
		if err != nil {
			return nil, fmt.Errorf("object stream for %s: %w", ref, err)
		}
		stream, isStream := container.(*core.Stream)
		if !isStream {
			return nil, fmt.Errorf("object stream %d is %T", entry.Stream, container)
		}
		if objStm, err = core.NewObjectStream(stream); err != nil {
			return nil, fmt.Errorf("object stream %d: %w", entry.Stream, err)
		}
		r.mu.Lock()
		r.objStreams[entry.Stream] = objStm
		r.mu.Unlock()
	}

	obj, err := objStm.Lookup(ref.Number, entry.Index)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return obj, nil
}

// lengthResolver lets the parser resolve indirect /Length values
type lengthResolver struct {
	r     *Reader
	chain map[int]bool
}

func (l lengthResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return l.r.resolve(ref, l.chain)
}

// StreamBytes returns the decoded content of the stream ref points to
func (r *Reader) StreamBytes(ctx context.Context, ref core.IndirectRef) ([]byte, error) {
	obj, err := r.ResolveReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("%s is %s: %w", ref, obj.Type(), ErrNotStream)
	}
	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref, err)
	}
	return data, nil
}

// RawSlice returns the undecoded source bytes in [start, end). The
// result aliases the source.
func (r *Reader) RawSlice(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > int64(len(r.data)) {
		return nil, fmt.Errorf("[%d, %d) of %d bytes: %w", start, end, len(r.data), ErrRange)
	}
	return r.data[start:end:end], nil
}

// GetCatalog returns the document catalog (root object)
func (r *Reader) GetCatalog(ctx context.Context) (*core.Dict, error) {
	ref, ok := r.Trailer().GetIndirectRef("Root")
	if !ok {
		return nil, fmt.Errorf("trailer missing /Root entry")
	}
	obj, err := r.ResolveReference(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog: %w", err)
	}
	catalog, ok := obj.(*core.Dict)
	if !ok {
		return nil, fmt.Errorf("catalog is not a dictionary: %T", obj)
	}
	return catalog, nil
}

// IsPDF reports whether data starts like a PDF file
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}
