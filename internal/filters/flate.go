package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// FlateDecode inflates zlib data and undoes any predictor named in params.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib header: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		// Truncated streams are common; keep what was inflated.
		if len(out) == 0 || err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("inflate: %w", err)
		}
	}
	return unpredict(out, params)
}

// unpredict reverses the Predictor transform shared by Flate and LZW.
func unpredict(data []byte, params Params) ([]byte, error) {
	predictor := intParam(params, "Predictor", 1)
	if predictor <= 1 {
		return data, nil
	}

	colors := intParam(params, "Colors", 1)
	bpc := intParam(params, "BitsPerComponent", 8)
	columns := intParam(params, "Columns", 1)
	if colors < 1 || colors > maxColors || !validBits(bpc) || columns < 1 || columns > maxColumns {
		return nil, fmt.Errorf("%w: predictor colors=%d bpc=%d columns=%d", ErrInvalidParams, colors, bpc, columns)
	}

	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	if len(data) > 0 && rowLen > len(data) {
		return nil, fmt.Errorf("%w: predictor row of %d bytes in %d bytes of data", ErrInvalidParams, rowLen, len(data))
	}

	switch {
	case predictor == 2:
		if bpc != 8 {
			return nil, fmt.Errorf("TIFF predictor with %d bits per component", bpc)
		}
		return tiffPredictor(data, rowLen, bpp), nil
	case predictor >= 10 && predictor <= 15:
		return pngPredictor(data, rowLen, bpp)
	}
	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

func tiffPredictor(data []byte, rowLen, bpp int) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	for start := 0; start < len(out); start += rowLen {
		end := start + rowLen
		if end > len(out) {
			end = len(out)
		}
		for i := start + bpp; i < end; i++ {
			out[i] += out[i-bpp]
		}
	}
	return out
}

// pngPredictor undoes per-row PNG filtering. Every input row carries a
// leading filter-type byte which is dropped from the output.
func pngPredictor(data []byte, rowLen, bpp int) ([]byte, error) {
	stride := rowLen + 1
	rows := len(data) / stride
	out := make([]byte, 0, rows*rowLen)
	prev := make([]byte, rowLen)
	cur := make([]byte, rowLen)

	for r := 0; r < rows; r++ {
		row := data[r*stride : (r+1)*stride]
		kind := row[0]
		copy(cur, row[1:])

		switch kind {
		case 0:
		case 1:
			for i := bpp; i < rowLen; i++ {
				cur[i] += cur[i-bpp]
			}
		case 2:
			for i := 0; i < rowLen; i++ {
				cur[i] += prev[i]
			}
		case 3:
			for i := 0; i < rowLen; i++ {
				var left int
				if i >= bpp {
					left = int(cur[i-bpp])
				}
				cur[i] += byte((left + int(prev[i])) / 2)
			}
		case 4:
			for i := 0; i < rowLen; i++ {
				var left, upLeft byte
				if i >= bpp {
					left = cur[i-bpp]
					upLeft = prev[i-bpp]
				}
				cur[i] += paeth(left, prev[i], upLeft)
			}
		default:
			return nil, fmt.Errorf("row %d: unknown PNG filter type %d", r, kind)
		}

		out = append(out, cur...)
		prev, cur = cur, prev
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
