package filters

import (
	"bytes"
	stdlzw "compress/lzw"
	"compress/zlib"
	"errors"
	"testing"
	"time"
)

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("deflate: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("deflate close: %v", err)
	}
	return buf.Bytes()
}

func TestFlateDecode(t *testing.T) {
	want := []byte("BT /F1 12 Tf (Hello) Tj ET")
	got, err := Decode("FlateDecode", deflate(t, want), nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := Decode("Fl", []byte("not zlib"), nil); err == nil {
		t.Error("expected error for invalid zlib data")
	}
}

func TestFlateDecodePNGPredictor(t *testing.T) {
	// Two rows of three one-byte pixels: Sub then Up.
	encoded := []byte{
		1, 10, 5, 5,
		2, 1, 1, 1,
	}
	params := Params{"Predictor": 12, "Columns": 3, "Colors": 1, "BitsPerComponent": 8}
	got, err := Decode("FlateDecode", deflate(t, encoded), params)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []byte{10, 15, 20, 11, 16, 21}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestPNGPredictorAverageAndPaeth(t *testing.T) {
	encoded := []byte{
		0, 100, 50,
		3, 10, 10,
		4, 1, 1,
	}
	got, err := pngPredictor(encoded, 2, 1)
	if err != nil {
		t.Fatalf("pngPredictor failed: %v", err)
	}
	// row1: 100, 50
	// row2 avg: 10+(0+100)/2=60, 10+(60+50)/2=65
	// row3 paeth: 1+paeth(0,60,0)=61, 1+paeth(61,65,60)=66
	want := []byte{100, 50, 60, 65, 61, 66}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := pngPredictor([]byte{9, 0}, 1, 1); err == nil {
		t.Error("expected error for unknown row filter")
	}
}

func TestTIFFPredictor(t *testing.T) {
	got, err := unpredict([]byte{1, 1, 1, 5, 1, 1}, Params{"Predictor": 2, "Columns": 3})
	if err != nil {
		t.Fatalf("unpredict failed: %v", err)
	}
	want := []byte{1, 2, 3, 5, 6, 7}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestASCIIHexDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{"simple", "48656C6C6F>", []byte("Hello")},
		{"whitespace", "48 65\n6c 6c 6f>", []byte("Hello")},
		{"odd digits", "414>", []byte{0x41, 0x40}},
		{"no marker", "4142", []byte("AB")},
		{"empty", ">", []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode("AHx", []byte(tt.input), nil)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ASCIIHexDecode([]byte("4G>")); err == nil {
		t.Error("expected error for invalid digit")
	}
}

func TestASCII85Decode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"hello", "87cURDZ~>", "Hello"},
		{"zero group", "z~>", "\x00\x00\x00\x00"},
		{"framed", "<~87cURDZ~>", "Hello"},
		{"whitespace", " 87cU\nRDZ ~>", "Hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode("ASCII85Decode", []byte(tt.input), nil)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunLengthDecode(t *testing.T) {
	input := []byte{2, 'a', 'b', 'c', 254, 'x', 128, 'z'}
	got, err := Decode("RunLengthDecode", input, nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if string(got) != "abcxxx" {
		t.Errorf("got %q, want %q", got, "abcxxx")
	}

	if _, err := RunLengthDecode([]byte{5, 'a'}); err == nil {
		t.Error("expected error for truncated literal run")
	}
}

func TestDecodeUnknownAndUnsupported(t *testing.T) {
	if _, err := Decode("NoSuchDecode", nil, nil); err == nil {
		t.Error("expected error for unknown filter")
	}
	_, err := Decode("JBIG2Decode", nil, nil)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if !Known("DCT") || Known("JBIG2Decode") {
		t.Error("Known reported the wrong filters")
	}

	jpeg := []byte{0xFF, 0xD8, 0xFF}
	got, err := Decode("DCTDecode", jpeg, nil)
	if err != nil || !bytes.Equal(got, jpeg) {
		t.Errorf("DCTDecode should pass data through, got %v, %v", got, err)
	}
}

func lzwEncode(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := stdlzw.NewWriter(&buf, stdlzw.MSB, 8)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("lzw: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("lzw close: %v", err)
	}
	return buf.Bytes()
}

// TestDecodeRejectsBadGeometry tests that decode parameters describing
// impossible rows fail with ErrInvalidParams instead of panicking,
// allocating without bound or never returning
func TestDecodeRejectsBadGeometry(t *testing.T) {
	pixels := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	flated := deflate(t, pixels)
	lzwed := lzwEncode(t, pixels)
	fax := []byte{0x26, 0xa0, 0x11, 0x9c, 0x7f, 0x00, 0x41, 0xe3, 0x5b, 0x02, 0xd8, 0x90, 0x6e, 0x34, 0x21, 0xaf, 0x0c, 0x77, 0x15}

	tests := []struct {
		name   string
		filter string
		data   []byte
		params Params
	}{
		{"flate zero columns", "FlateDecode", flated, Params{"Predictor": 12, "Columns": 0}},
		{"flate negative columns", "FlateDecode", flated, Params{"Predictor": 12, "Columns": -4}},
		{"flate overflowing columns", "FlateDecode", flated, Params{"Predictor": 12, "Columns": int64(1) << 60}},
		{"flate huge columns", "FlateDecode", flated, Params{"Predictor": 12, "Columns": 1e10}},
		{"flate columns past data", "FlateDecode", flated, Params{"Predictor": 12, "Columns": 100}},
		{"flate zero colors", "FlateDecode", flated, Params{"Predictor": 12, "Colors": 0}},
		{"flate overflowing colors", "FlateDecode", flated, Params{"Predictor": 12, "Colors": int64(1) << 40}},
		{"flate zero bpc", "FlateDecode", flated, Params{"Predictor": 12, "BitsPerComponent": 0}},
		{"flate odd bpc", "FlateDecode", flated, Params{"Predictor": 12, "BitsPerComponent": 3}},
		{"flate negative bpc", "FlateDecode", flated, Params{"Predictor": 12, "BitsPerComponent": -8}},
		{"tiff overflowing columns", "FlateDecode", flated, Params{"Predictor": 2, "Columns": int64(1) << 60}},
		{"lzw zero columns", "LZWDecode", lzwed, Params{"EarlyChange": 0, "Predictor": 12, "Columns": 0}},
		{"lzw overflowing columns", "LZWDecode", lzwed, Params{"EarlyChange": 0, "Predictor": 15, "Columns": int64(1) << 60}},
		{"ccitt zero columns", "CCITTFaxDecode", fax, Params{"K": -1, "Columns": 0}},
		{"ccitt negative columns", "CCITTFaxDecode", fax, Params{"K": -1, "Columns": -5}},
		{"ccitt huge columns", "CCITTFaxDecode", fax, Params{"K": 0, "Columns": int64(1) << 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("Decode panicked: %v", r)
						done <- nil
					}
				}()
				_, err := Decode(tt.filter, tt.data, tt.params)
				done <- err
			}()

			select {
			case err := <-done:
				if !errors.Is(err, ErrInvalidParams) {
					t.Errorf("error = %v, want ErrInvalidParams", err)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Decode did not return")
			}
		})
	}
}

func TestLZWDecodeWithPredictor(t *testing.T) {
	encoded := []byte{1, 10, 5, 5, 2, 1, 1, 1}
	got, err := Decode("LZWDecode", lzwEncode(t, encoded), Params{"EarlyChange": 0, "Predictor": 12, "Columns": 3})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []byte{10, 15, 20, 11, 16, 21}
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
