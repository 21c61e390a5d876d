package filters

import (
	"errors"
	"fmt"
)

// Params holds decode parameters converted to Go primitives
// (int, float64, bool, string).
type Params map[string]interface{}

// ErrUnsupported is returned for filters that are recognised but not
// implemented, such as JBIG2Decode and Crypt.
var ErrUnsupported = errors.New("unsupported filter")

// ErrInvalidParams is returned when decode parameters describe rows no
// decoder could produce.
var ErrInvalidParams = errors.New("invalid decode parameters")

// Limits on image geometry taken from decode parameters
const (
	maxColumns = 1 << 20
	maxColors  = 32
)

// decoder decodes one filter stage.
type decoder func(data []byte, params Params) ([]byte, error)

var decoders = map[string]decoder{
	"FlateDecode":     FlateDecode,
	"Fl":              FlateDecode,
	"LZWDecode":       LZWDecode,
	"LZW":             LZWDecode,
	"ASCIIHexDecode":  ignoreParams(ASCIIHexDecode),
	"AHx":             ignoreParams(ASCIIHexDecode),
	"ASCII85Decode":   ignoreParams(ASCII85Decode),
	"A85":             ignoreParams(ASCII85Decode),
	"RunLengthDecode": ignoreParams(RunLengthDecode),
	"RL":              ignoreParams(RunLengthDecode),
	"CCITTFaxDecode":  CCITTFaxDecode,
	"CCF":             CCITTFaxDecode,
	"DCTDecode":       passThrough,
	"DCT":             passThrough,
	"JPXDecode":       passThrough,
}

// Decode applies the named filter to data.
func Decode(name string, data []byte, params Params) ([]byte, error) {
	switch name {
	case "JBIG2Decode", "Crypt":
		return nil, fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	dec, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter: %s", name)
	}
	return dec(data, params)
}

// Known reports whether name is a filter this package can decode.
func Known(name string) bool {
	_, ok := decoders[name]
	return ok
}

func ignoreParams(fn func([]byte) ([]byte, error)) decoder {
	return func(data []byte, _ Params) ([]byte, error) {
		return fn(data)
	}
}

func passThrough(data []byte, _ Params) ([]byte, error) {
	return data, nil
}

// intParam extracts an integer parameter, returning def when the key is
// absent or not numeric.
func intParam(params Params, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// validBits reports whether bpc is a bit depth PDF allows for samples
func validBits(bpc int) bool {
	switch bpc {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

func boolParam(params Params, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
