package core

import (
	"fmt"
)

// ObjectStream is a decoded /ObjStm stream (PDF 1.5). It holds N objects
// whose numbers and offsets are listed in a header before /First.
type ObjectStream struct {
	first   int
	decoded []byte
	numbers []int
	offsets []int
}

// NewObjectStream decodes an object stream and parses its header
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if t, _ := stream.Dict.GetName("Type"); t != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream (type /%s)", t)
	}
	n, ok := stream.Dict.GetInt("N")
	if !ok || n < 0 {
		return nil, fmt.Errorf("object stream has invalid /N")
	}
	first, ok := stream.Dict.GetInt("First")
	if !ok || first < 0 {
		return nil, fmt.Errorf("object stream has invalid /First")
	}

	decoded, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode object stream: %w", err)
	}
	if int(first) > len(decoded) {
		return nil, fmt.Errorf("/First %d exceeds decoded length %d", first, len(decoded))
	}

	os := &ObjectStream{
		first:   int(first),
		decoded: decoded,
		numbers: make([]int, 0, n),
		offsets: make([]int, 0, n),
	}
	p := NewParser(decoded[:first])
	for i := 0; i < int(n); i++ {
		num, err := p.expectInt("object number")
		if err != nil {
			return nil, fmt.Errorf("header pair %d: %w", i, err)
		}
		off, err := p.expectInt("object offset")
		if err != nil {
			return nil, fmt.Errorf("header pair %d: %w", i, err)
		}
		os.numbers = append(os.numbers, num)
		os.offsets = append(os.offsets, off)
	}
	return os, nil
}

// N returns the number of objects in the stream
func (os *ObjectStream) N() int {
	return len(os.numbers)
}

// ObjectAt parses the object at the given header index. It returns the
// object and the object number the header records for it.
func (os *ObjectStream) ObjectAt(index int) (Object, int, error) {
	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}
	start := os.first + os.offsets[index]
	if start >= len(os.decoded) {
		return nil, 0, fmt.Errorf("object offset %d exceeds decoded length %d", start, len(os.decoded))
	}
	p, err := NewParserAt(os.decoded, int64(start))
	if err != nil {
		return nil, 0, err
	}
	obj, err := p.ParseObject()
	if err != nil {
		return nil, 0, fmt.Errorf("object at index %d: %w", index, err)
	}
	return obj, os.numbers[index], nil
}

// Lookup finds an object by number, preferring the header index hint
func (os *ObjectStream) Lookup(objNum, hint int) (Object, error) {
	if hint >= 0 && hint < len(os.numbers) && os.numbers[hint] == objNum {
		obj, _, err := os.ObjectAt(hint)
		return obj, err
	}
	for i, num := range os.numbers {
		if num == objNum {
			obj, _, err := os.ObjectAt(i)
			return obj, err
		}
	}
	return nil, fmt.Errorf("object %d not in object stream", objNum)
}
