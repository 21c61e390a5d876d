package filters

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 or Group 4 fax data. K < 0 selects
// Group 4; BlackIs1 maps onto the reader's Invert option.
func CCITTFaxDecode(data []byte, params Params) ([]byte, error) {
	sf := ccitt.Group3
	if intParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}

	columns := intParam(params, "Columns", 1728)
	if columns < 1 || columns > maxColumns {
		return nil, fmt.Errorf("%w: CCITT columns=%d", ErrInvalidParams, columns)
	}
	rows := intParam(params, "Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows,
		&ccitt.Options{Invert: boolParam(params, "BlackIs1", false)})
	return io.ReadAll(r)
}
