package pngenc

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/tsawler/pdfbrowse/checksum"
	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/internal/bytebuf"
)

func imageDict(entries ...core.DictEntry) *core.Dict {
	d := core.NewDict(
		core.DictEntry{Key: "Type", Value: core.Name("XObject")},
		core.DictEntry{Key: "Subtype", Value: core.Name("Image")},
		core.DictEntry{Key: "Width", Value: core.Int(1)},
		core.DictEntry{Key: "Height", Value: core.Int(1)},
		core.DictEntry{Key: "BitsPerComponent", Value: core.Int(8)},
		core.DictEntry{Key: "ColorSpace", Value: core.Name("DeviceGray")},
	)
	for _, e := range entries {
		d.Set(e.Key, e.Value)
	}
	return d
}

func newEncoder(t *testing.T) *Encoder {
	t.Helper()
	ch := checksum.NewChannel(checksum.WithWorkers(2))
	t.Cleanup(func() { ch.Close() })
	return New(ch)
}

type chunk struct {
	typ     string
	payload []byte
	crc     uint32
}

func splitChunks(t *testing.T, data []byte) []chunk {
	t.Helper()
	if !bytes.HasPrefix(data, Signature) {
		t.Fatalf("missing PNG signature: % x", data[:8])
	}
	data = data[len(Signature):]
	var chunks []chunk
	for len(data) > 0 {
		if len(data) < 12 {
			t.Fatalf("truncated chunk: % x", data)
		}
		n := binary.BigEndian.Uint32(data)
		c := chunk{
			typ:     string(data[4:8]),
			payload: data[8 : 8+n],
			crc:     binary.BigEndian.Uint32(data[8+n:]),
		}
		chunks = append(chunks, c)
		data = data[12+n:]
	}
	return chunks
}

func TestEncodeGrayPixel(t *testing.T) {
	blob, err := newEncoder(t).Encode(context.Background(), imageDict(), []byte{0x7F})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	chunks := splitChunks(t, blob.Bytes())
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	wantTypes := []string{"IHDR", "IDAT", "IEND"}
	for i, c := range chunks {
		if c.typ != wantTypes[i] {
			t.Errorf("chunk %d type = %s, want %s", i, c.typ, wantTypes[i])
		}
		if want := crc32.ChecksumIEEE(append([]byte(c.typ), c.payload...)); c.crc != want {
			t.Errorf("%s crc = %#08x, want %#08x", c.typ, c.crc, want)
		}
	}

	wantIHDR := []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 0, 0, 0, 0}
	if !bytes.Equal(chunks[0].payload, wantIHDR) {
		t.Errorf("IHDR payload = % x, want % x", chunks[0].payload, wantIHDR)
	}
	if !bytes.Equal(chunks[1].payload, []byte{0x7F}) {
		t.Errorf("IDAT payload = % x", chunks[1].payload)
	}
	if len(chunks[2].payload) != 0 || chunks[2].crc != 0xAE426082 {
		t.Errorf("IEND = %+v", chunks[2])
	}
	if blob.Len() != 8+25+13+12 {
		t.Errorf("Len() = %d", blob.Len())
	}

	var out bytes.Buffer
	if n, err := blob.WriteTo(&out); err != nil || n != int64(blob.Len()) {
		t.Errorf("WriteTo = %d, %v", n, err)
	}
}

func TestEncodeDecodesAsPNG(t *testing.T) {
	// Two RGB pixels, each row prefixed by PNG filter type 0.
	var z bytes.Buffer
	w := zlib.NewWriter(&z)
	w.Write([]byte{0, 255, 0, 0, 0, 0, 255})
	w.Close()

	dict := imageDict(
		core.DictEntry{Key: "Width", Value: core.Int(2)},
		core.DictEntry{Key: "ColorSpace", Value: core.Name("DeviceRGB")},
		core.DictEntry{Key: "Filter", Value: core.Name("FlateDecode")},
		core.DictEntry{Key: "DecodeParms", Value: core.NewDict(
			core.DictEntry{Key: "Predictor", Value: core.Int(15)},
			core.DictEntry{Key: "Colors", Value: core.Int(3)},
			core.DictEntry{Key: "Columns", Value: core.Int(2)},
		)},
	)
	if !Embeddable(dict) {
		t.Fatal("dictionary should be embeddable")
	}

	blob, err := newEncoder(t).Encode(context.Background(), dict, z.Bytes())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(blob.Bytes()))
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if got := color.RGBAModel.Convert(img.At(1, 0)).(color.RGBA); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel (1,0) = %v", got)
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		dict    *core.Dict
		wantErr error
	}{
		{"cmyk", imageDict(core.DictEntry{Key: "ColorSpace", Value: core.Name("DeviceCMYK")}), ErrUnsupportedColorSpace},
		{"icc array", imageDict(core.DictEntry{Key: "ColorSpace", Value: core.Array{core.Name("ICCBased"), core.IndirectRef{Number: 4}}}), ErrUnsupportedColorSpace},
		{"no width", core.NewDict(core.DictEntry{Key: "Height", Value: core.Int(1)}), ErrMissingField},
		{"no color space", core.NewDict(
			core.DictEntry{Key: "Width", Value: core.Int(1)},
			core.DictEntry{Key: "Height", Value: core.Int(1)},
			core.DictEntry{Key: "BitsPerComponent", Value: core.Int(8)},
		), ErrMissingField},
		{"negative width", imageDict(core.DictEntry{Key: "Width", Value: core.Int(-1)}), bytebuf.ErrNegative},
		{"bit depth overflow", imageDict(core.DictEntry{Key: "BitsPerComponent", Value: core.Int(256)}), bytebuf.ErrOverflow},
	}
	enc := newEncoder(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := enc.Encode(context.Background(), tt.dict, nil); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeChecksumFailure(t *testing.T) {
	ch := checksum.NewChannel()
	ch.Close()
	if _, err := New(ch).Encode(context.Background(), imageDict(), []byte{1}); !errors.Is(err, checksum.ErrClosed) {
		t.Errorf("expected checksum.ErrClosed, got %v", err)
	}
}

func TestEmbeddable(t *testing.T) {
	params := func(predictor int) core.DictEntry {
		return core.DictEntry{Key: "DecodeParms", Value: core.NewDict(
			core.DictEntry{Key: "Predictor", Value: core.Int(predictor)},
		)}
	}
	flate := core.DictEntry{Key: "Filter", Value: core.Name("FlateDecode")}

	tests := []struct {
		name string
		dict *core.Dict
		want bool
	}{
		{"flate png predictor", imageDict(flate, params(12)), true},
		{"array filter", imageDict(core.DictEntry{Key: "Filter", Value: core.Array{core.Name("FlateDecode")}},
			core.DictEntry{Key: "DecodeParms", Value: core.Array{core.NewDict(core.DictEntry{Key: "Predictor", Value: core.Int(10)})}}), true},
		{"no predictor", imageDict(flate), false},
		{"tiff predictor", imageDict(flate, params(2)), false},
		{"unfiltered", imageDict(params(12)), false},
		{"dct", imageDict(core.DictEntry{Key: "Filter", Value: core.Name("DCTDecode")}, params(12)), false},
		{"filter chain", imageDict(core.DictEntry{Key: "Filter", Value: core.Array{core.Name("ASCII85Decode"), core.Name("FlateDecode")}}, params(12)), false},
		{"cmyk", imageDict(flate, params(12), core.DictEntry{Key: "ColorSpace", Value: core.Name("DeviceCMYK")}), false},
		{"not an image", imageDict(flate, params(12), core.DictEntry{Key: "Subtype", Value: core.Name("Form")}), false},
		{"columns mismatch", imageDict(flate, params(12), core.DictEntry{Key: "Width", Value: core.Int(4)}), false},
		{"image mask", imageDict(flate, params(12), core.DictEntry{Key: "ImageMask", Value: core.Bool(true)}), false},
		{"rgb with one color", imageDict(flate, params(12), core.DictEntry{Key: "ColorSpace", Value: core.Name("DeviceRGB")}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Embeddable(tt.dict); got != tt.want {
				t.Errorf("Embeddable() = %v, want %v", got, tt.want)
			}
		})
	}
}
