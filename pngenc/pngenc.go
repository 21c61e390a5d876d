// Package pngenc wraps the raw bytes of a PDF image stream in a PNG file
// without recompressing them.
//
// A FlateDecode image stream using a PNG predictor already holds exactly
// what a PNG IDAT chunk holds: zlib data whose rows start with a filter
// byte. Such streams can be exported as PNG by adding a header and
// checksums. Use Embeddable to pick them out before calling Encode.
package pngenc

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/internal/bytebuf"
)

// MIMEType is the media type of encoded blobs
const MIMEType = "image/png"

// Signature starts every PNG file
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

var (
	// ErrUnsupportedColorSpace is returned for colour spaces other than
	// DeviceGray and DeviceRGB
	ErrUnsupportedColorSpace = errors.New("unsupported color space")
	// ErrMissingField is returned when a required image entry is absent
	ErrMissingField = errors.New("missing image field")
)

// PNG colour types
const (
	colorTypeGray = 0
	colorTypeRGB  = 2
)

// Checksummer computes CRC-32 checksums, possibly in the background
type Checksummer interface {
	Compute(ctx context.Context, data []byte) (uint32, error)
}

// Encoder builds PNG files from image stream dictionaries and bytes
type Encoder struct {
	crc Checksummer
}

// New returns an encoder using crc for chunk checksums. One checksummer
// may be shared by any number of encoders and concurrent Encode calls.
func New(crc Checksummer) *Encoder {
	return &Encoder{crc: crc}
}

// Blob is an encoded PNG file
type Blob struct {
	data []byte
}

// Bytes returns the file contents
func (b *Blob) Bytes() []byte { return b.data }

// Len returns the file size
func (b *Blob) Len() int { return len(b.data) }

// WriteTo writes the file to w
func (b *Blob) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	return int64(n), err
}

type header struct {
	width, height, bitsPerComponent int64
	colorType                       int64
}

func readHeader(dict *core.Dict) (header, error) {
	var h header
	for _, f := range []struct {
		key string
		dst *int64
	}{
		{"Width", &h.width},
		{"Height", &h.height},
		{"BitsPerComponent", &h.bitsPerComponent},
	} {
		v, ok := dict.GetInt(f.key)
		if !ok {
			return h, fmt.Errorf("/%s: %w", f.key, ErrMissingField)
		}
		*f.dst = int64(v)
	}

	cs, ok := dict.GetName("ColorSpace")
	if !ok {
		if dict.Has("ColorSpace") {
			return h, fmt.Errorf("/ColorSpace %s: %w", dict.Get("ColorSpace"), ErrUnsupportedColorSpace)
		}
		return h, fmt.Errorf("/ColorSpace: %w", ErrMissingField)
	}
	switch cs {
	case "DeviceGray":
		h.colorType = colorTypeGray
	case "DeviceRGB":
		h.colorType = colorTypeRGB
	default:
		return h, fmt.Errorf("/%s: %w", cs, ErrUnsupportedColorSpace)
	}
	return h, nil
}

// Encode writes the signature followed by IHDR, IDAT and IEND chunks.
// raw goes into IDAT verbatim. Chunks are written in order, each one
// after its checksum arrives.
func (e *Encoder) Encode(ctx context.Context, dict *core.Dict, raw []byte) (*Blob, error) {
	h, err := readHeader(dict)
	if err != nil {
		return nil, err
	}

	ihdr := bytebuf.New(17)
	ihdr.WriteLatin1("IHDR")
	for _, f := range []struct {
		value int64
		width int
	}{
		{h.width, 4},
		{h.height, 4},
		{h.bitsPerComponent, 1},
		{h.colorType, 1},
		{0, 1}, // compression
		{0, 1}, // filter
		{0, 1}, // interlace
	} {
		if err := ihdr.WriteUintBE(f.value, f.width); err != nil {
			return nil, fmt.Errorf("IHDR: %w", err)
		}
	}

	idat := bytebuf.New(len(raw) + 4)
	idat.WriteLatin1("IDAT")
	idat.Write(raw)

	iend := bytebuf.New(4)
	iend.WriteLatin1("IEND")

	out := bytebuf.New(len(Signature) + 3*12 + ihdr.Len() + idat.Len())
	out.Write(Signature)
	for _, chunk := range []*bytebuf.Buffer{ihdr, idat, iend} {
		if err := e.writeChunk(ctx, out, chunk); err != nil {
			return nil, err
		}
	}
	return &Blob{data: out.Committed()}, nil
}

// writeChunk appends length, type and payload, then the CRC of type and
// payload. chunk holds the 4-byte type followed by the payload.
func (e *Encoder) writeChunk(ctx context.Context, out, chunk *bytebuf.Buffer) error {
	body := chunk.Committed()
	if err := out.WriteUintBE(int64(len(body)-4), 4); err != nil {
		return fmt.Errorf("%s length: %w", body[:4], err)
	}
	out.WriteBuffer(chunk)
	crc, err := e.crc.Compute(ctx, body)
	if err != nil {
		return fmt.Errorf("%s checksum: %w", body[:4], err)
	}
	return out.WriteUintBE(int64(crc), 4)
}

// Embeddable reports whether the raw bytes of an image stream with this
// dictionary are valid PNG image data: a DeviceGray or DeviceRGB image,
// FlateDecode alone, with a PNG predictor laid out like the image.
func Embeddable(dict *core.Dict) bool {
	if subtype, _ := dict.GetName("Subtype"); subtype != "Image" {
		return false
	}
	if _, err := readHeader(dict); err != nil {
		return false
	}
	if mask, _ := dict.Get("ImageMask").(core.Bool); mask {
		return false
	}

	var params *core.Dict
	switch f := dict.Get("Filter").(type) {
	case core.Name:
		if f != "FlateDecode" && f != "Fl" {
			return false
		}
		params, _ = dict.GetDict("DecodeParms")
	case core.Array:
		if f.Len() != 1 || (f.Get(0) != core.Name("FlateDecode") && f.Get(0) != core.Name("Fl")) {
			return false
		}
		params, _ = dict.GetDict("DecodeParms")
		if arr, ok := dict.GetArray("DecodeParms"); ok && arr.Len() == 1 {
			params, _ = arr.Get(0).(*core.Dict)
		}
	default:
		return false
	}
	if params == nil {
		return false
	}

	if predictor, _ := params.GetInt("Predictor"); predictor < 10 {
		return false
	}
	width, _ := dict.GetInt("Width")
	if columns, ok := params.GetInt("Columns"); !ok && width != 1 || ok && columns != width {
		return false
	}
	colors := core.Int(1)
	if c, ok := params.GetInt("Colors"); ok {
		colors = c
	}
	cs, _ := dict.GetName("ColorSpace")
	if cs == "DeviceGray" && colors != 1 || cs == "DeviceRGB" && colors != 3 {
		return false
	}
	bpc, _ := dict.GetInt("BitsPerComponent")
	switch {
	case cs == "DeviceGray" && bpc != 1 && bpc != 2 && bpc != 4 && bpc != 8 && bpc != 16:
		return false
	case cs == "DeviceRGB" && bpc != 8 && bpc != 16:
		return false
	}
	if b, ok := params.GetInt("BitsPerComponent"); ok && b != bpc || !ok && bpc != 8 {
		return false
	}
	return true
}
