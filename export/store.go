// Package export writes stream contents to a content-addressed directory.
//
// Every file is named after the CIDv1 (raw codec, SHA2-256) of its bytes
// in base32, followed by an extension telling what it holds. Identical
// streams are stored once. A YAML manifest maps PDF objects to files.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	gocid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/sirupsen/logrus"
)

// Store manages CID-addressed export files on disk
type Store struct {
	dir string
	log *logrus.Entry
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for diagnostics
func WithStoreLogger(log *logrus.Entry) StoreOption {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore creates a Store at the given directory
func NewStore(dir string, opts ...StoreOption) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	s := &Store{dir: dir, log: logrus.WithField("component", "export")}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// ComputeCID computes a CIDv1 (raw codec, SHA2-256) for the given data
func ComputeCID(data []byte) (gocid.Cid, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return gocid.Undef, fmt.Errorf("multihash: %w", err)
	}
	return gocid.NewCidV1(gocid.Raw, mh), nil
}

// Filename returns the base32 encoding of a CID followed by ext
func Filename(c gocid.Cid, ext string) string {
	encoded, _ := multibase.Encode(multibase.Base32, c.Bytes())
	return encoded + ext
}

// File is one stored export
type File struct {
	CID  string `yaml:"cid"`
	Path string `yaml:"path"`
	Size int    `yaml:"size"`
}

// Put writes data under its CID with the given extension. Writing bytes
// that are already stored is a no-op.
func (s *Store) Put(data []byte, ext string) (*File, error) {
	c, err := ComputeCID(data)
	if err != nil {
		return nil, err
	}
	name := Filename(c, ext)
	f := &File{CID: c.String(), Path: name, Size: len(data)}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		s.log.Debugf("%s already stored", name)
		return f, nil
	}
	if err := safeWrite(path, data, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	return f, nil
}

// Get reads the file stored for c with the given extension
func (s *Store) Get(c gocid.Cid, ext string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, Filename(c, ext)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	return data, nil
}

// Has checks if a file is stored for c with the given extension
func (s *Store) Has(c gocid.Cid, ext string) bool {
	_, err := os.Stat(filepath.Join(s.dir, Filename(c, ext)))
	return err == nil
}

// safeWrite writes data to path atomically: tempfile, fsync, rename
func safeWrite(path string, data []byte, perm os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		f.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp, path)
}
