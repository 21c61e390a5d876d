// Package filters implements the PDF stream decoding filters.
//
// Filters are looked up by their PDF name (long or abbreviated form) and
// applied one after another when a stream declares a filter chain:
//
//	decoded, err := filters.Decode("FlateDecode", data, filters.Params{
//	    "Predictor": 12,
//	    "Columns":   100,
//	})
//
// # Supported Filters
//
//   - FlateDecode (Fl), with TIFF predictor 2 and PNG predictors 10-15
//   - LZWDecode (LZW), honouring EarlyChange
//   - ASCIIHexDecode (AHx)
//   - ASCII85Decode (A85)
//   - RunLengthDecode (RL)
//   - CCITTFaxDecode (CCF)
//
// DCTDecode and JPXDecode are passed through unchanged: the encoded bytes
// are already a complete JPEG or JPEG 2000 file.
package filters
