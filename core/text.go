package core

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// DecodeText converts a PDF text string to UTF-8. Strings starting with a
// UTF-16BE or UTF-8 byte order mark are decoded accordingly; anything else
// is read as Latin-1, which agrees with PDFDocEncoding for printable text.
func DecodeText(s String) string {
	raw := []byte(s)
	switch {
	case bytes.HasPrefix(raw, bomUTF16BE):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return string(out)
		}
	case bytes.HasPrefix(raw, bomUTF8):
		if utf8.Valid(raw[3:]) {
			return string(raw[3:])
		}
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
