package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/tsawler/pdfbrowse/pngenc"
	"github.com/tsawler/pdfbrowse/visitor"
	"github.com/tsawler/pdfbrowse/walker"
)

// ManifestName is the manifest's file name inside the store
const ManifestName = "manifest.yaml"

// File extensions of the three export forms
const (
	ExtRaw     = ".raw"
	ExtDecoded = ".bin"
	ExtPNG     = ".png"
)

// Document is what the exporter reads from
type Document interface {
	walker.Document
	visitor.Source
}

// Manifest lists what an export wrote
type Manifest struct {
	Root    string         `yaml:"root"`
	Streams []StreamRecord `yaml:"streams"`
}

// StreamRecord describes the exports of one stream. A form that could
// not be produced is absent and its error listed.
type StreamRecord struct {
	Object  string   `yaml:"object"`
	Subtype string   `yaml:"subtype,omitempty"`
	Raw     *File    `yaml:"raw,omitempty"`
	Decoded *File    `yaml:"decoded,omitempty"`
	PNG     *File    `yaml:"png,omitempty"`
	Errors  []string `yaml:"errors,omitempty"`
}

// Exporter writes every stream reachable from a root to a Store
type Exporter struct {
	doc     Document
	store   *Store
	enc     *pngenc.Encoder
	walker  *walker.Walker
	workers int
	log     *logrus.Entry
}

// Option configures an Exporter
type Option func(*Exporter)

// WithWorkers bounds the number of streams exported at once
func WithWorkers(n int) Option {
	return func(e *Exporter) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(log *logrus.Entry) Option {
	return func(e *Exporter) {
		e.log = log
	}
}

// NewExporter returns an exporter. enc may be nil to skip PNG exports.
func NewExporter(doc Document, store *Store, enc *pngenc.Encoder, opts ...Option) *Exporter {
	e := &Exporter{
		doc:     doc,
		store:   store,
		enc:     enc,
		workers: runtime.GOMAXPROCS(0),
		log:     logrus.WithField("component", "export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.walker = walker.New(doc, walker.WithLogger(e.log))
	return e
}

// Export walks from sel, stores the raw, decoded and (for embeddable
// images) PNG form of every stream, and writes the manifest. A walk
// failure aborts the export; a form that cannot be produced is recorded
// in the manifest and skipped.
func (e *Exporter) Export(ctx context.Context, sel walker.RootSelector) (*Manifest, error) {
	root, err := walker.NewRoot(ctx, e.doc, sel)
	if err != nil {
		return nil, err
	}
	collector := visitor.NewCollector()
	if err := e.walker.Walk(ctx, root, collector); err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	streams := collector.Streams()
	m := &Manifest{Root: sel.String(), Streams: make([]StreamRecord, len(streams))}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i, c := range streams {
		eg.Go(func() error {
			rec, err := e.exportStream(ctx, c)
			if err != nil {
				return err
			}
			m.Streams[i] = rec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := e.writeManifest(m); err != nil {
		return nil, err
	}
	e.log.Infof("exported %d streams to %s", len(streams), e.store.Dir())
	return m, nil
}

// exportStream returns an error only for store failures
func (e *Exporter) exportStream(ctx context.Context, c *walker.StreamContents) (StreamRecord, error) {
	var rec StreamRecord
	if c.Ref != nil {
		rec.Object = fmt.Sprintf("%d %d", c.Ref.Number, c.Ref.Generation)
	}
	if subtype, ok := c.Stream.Dict.GetName("Subtype"); ok {
		rec.Subtype = string(subtype)
	}
	log := e.log.WithField("object", rec.Object)

	skip := func(form string, err error) {
		log.WithError(err).Warnf("%s export unavailable", form)
		rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %v", form, err))
	}

	raw, err := e.doc.RawSlice(c.Stream.Start, c.Stream.End)
	if err != nil {
		skip("raw", err)
	} else if rec.Raw, err = e.store.Put(raw, ExtRaw); err != nil {
		return rec, err
	}

	if c.Ref == nil {
		skip("decoded", fmt.Errorf("stream has no reference"))
	} else if decoded, err := e.doc.StreamBytes(ctx, *c.Ref); err != nil {
		skip("decoded", err)
	} else if rec.Decoded, err = e.store.Put(decoded, ExtDecoded); err != nil {
		return rec, err
	}

	if e.enc != nil && raw != nil && pngenc.Embeddable(c.Stream.Dict) {
		blob, err := e.enc.Encode(ctx, c.Stream.Dict, raw)
		if err != nil {
			skip("png", err)
		} else if rec.PNG, err = e.store.Put(blob.Bytes(), ExtPNG); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

func (e *Exporter) writeManifest(m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := safeWrite(filepath.Join(e.store.Dir(), ManifestName), data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest of an export directory
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
