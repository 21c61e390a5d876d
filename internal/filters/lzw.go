package filters

import (
	"bytes"
	stdlzw "compress/lzw"
	"fmt"
	"io"

	"golang.org/x/image/tiff/lzw"
)

// LZWDecode decompresses LZW data. With the default EarlyChange of 1 the
// code width grows one code early, which is the variant TIFF uses.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	var rc io.ReadCloser
	if intParam(params, "EarlyChange", 1) == 1 {
		rc = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		rc = stdlzw.NewReader(bytes.NewReader(data), stdlzw.MSB, 8)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("lzw: %w", err)
	}
	return unpredict(out, params)
}
