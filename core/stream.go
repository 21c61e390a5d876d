package core

import (
	"fmt"

	"github.com/tsawler/pdfbrowse/internal/filters"
)

// Stream is a dictionary followed by binary data. Start and End are
// offsets into the source the stream was parsed from; Data is that
// source range, still encoded.
type Stream struct {
	Dict  *Dict
	Start int64
	End   int64
	Data  []byte
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}
func (*Stream) isObject() {}

// Filters returns the filter names declared by the stream, in the order
// they must be applied.
func (s *Stream) Filters() ([]Name, error) {
	switch f := s.Dict.Get("Filter").(type) {
	case nil, Null:
		return nil, nil
	case Name:
		return []Name{f}, nil
	case Array:
		names := make([]Name, 0, len(f))
		for i, obj := range f {
			n, ok := obj.(Name)
			if !ok {
				return nil, fmt.Errorf("filter %d is not a name: %T", i, obj)
			}
			names = append(names, n)
		}
		return names, nil
	default:
		return nil, fmt.Errorf("invalid /Filter type: %T", f)
	}
}

// Decode applies the stream's filter chain and returns the decoded bytes.
func (s *Stream) Decode() ([]byte, error) {
	names, err := s.Filters()
	if err != nil {
		return nil, err
	}

	data := s.Data
	parms := s.Dict.Get("DecodeParms")
	for i, name := range names {
		var params *Dict
		switch p := parms.(type) {
		case *Dict:
			params = p
		case Array:
			if i < len(p) {
				params, _ = p[i].(*Dict)
			}
		}

		data, err = filters.Decode(string(name), data, toParams(params))
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s): %w", i, name, err)
		}
	}
	return data, nil
}

// toParams converts a DecodeParms dictionary to Go primitives
func toParams(dict *Dict) filters.Params {
	if dict == nil {
		return nil
	}
	params := make(filters.Params, dict.Len())
	for _, e := range dict.Entries() {
		switch v := e.Value.(type) {
		case Int:
			params[e.Key] = int(v)
		case Real:
			params[e.Key] = float64(v)
		case Bool:
			params[e.Key] = bool(v)
		case Name:
			params[e.Key] = string(v)
		case String:
			params[e.Key] = string(v)
		}
	}
	return params
}
