package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
)

// XRefKind tells where an object's definition lives
type XRefKind int

const (
	// XRefFree marks a deleted or never-used object number
	XRefFree XRefKind = iota
	// XRefOffset marks an object stored at a byte offset in the file
	XRefOffset
	// XRefCompressed marks an object stored inside an object stream
	XRefCompressed
)

// XRefEntry is one cross-reference entry
type XRefEntry struct {
	Kind       XRefKind
	Offset     int64 // file offset, for XRefOffset
	Generation int
	Stream     int // object stream number, for XRefCompressed
	Index      int // index within the object stream, for XRefCompressed
}

// XRefTable maps object numbers to their locations
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer *Dict
}

// NewXRefTable creates an empty table
func NewXRefTable() *XRefTable {
	return &XRefTable{Entries: make(map[int]XRefEntry), Trailer: NewDict()}
}

// Get retrieves an entry by object number
func (x *XRefTable) Get(objNum int) (XRefEntry, bool) {
	e, ok := x.Entries[objNum]
	return e, ok
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// merge adds entries from an older section; existing entries win.
func (x *XRefTable) merge(older map[int]XRefEntry) {
	for num, e := range older {
		if _, ok := x.Entries[num]; !ok {
			x.Entries[num] = e
		}
	}
}

// FindStartXRef returns the offset recorded after the last startxref keyword
func FindStartXRef(data []byte) (int64, error) {
	tail := data
	if len(tail) > 4096 {
		tail = tail[len(tail)-4096:]
	}
	idx := bytes.LastIndex(tail, []byte("startxref"))
	if idx < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	fields := bytes.Fields(tail[idx+len("startxref"):])
	if len(fields) == 0 {
		return 0, fmt.Errorf("startxref has no offset")
	}
	offset, err := strconv.ParseInt(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref offset: %w", err)
	}
	if offset < 0 || offset >= int64(len(data)) {
		return 0, fmt.Errorf("startxref offset %d outside file of %d bytes", offset, len(data))
	}
	return offset, nil
}

// LoadXRef reads the cross-reference chain starting at startxref,
// following /Prev and /XRefStm links. Classic tables and xref streams
// may be mixed; newer sections take precedence.
func LoadXRef(data []byte) (*XRefTable, error) {
	offset, err := FindStartXRef(data)
	if err != nil {
		return nil, err
	}

	table := NewXRefTable()
	seen := make(map[int64]bool)
	first := true
	for pending := []int64{offset}; len(pending) > 0; {
		off := pending[0]
		pending = pending[1:]
		if seen[off] {
			continue
		}
		seen[off] = true

		entries, trailer, err := parseXRefSection(data, off)
		if err != nil {
			return nil, fmt.Errorf("xref section at %d: %w", off, err)
		}
		table.merge(entries)
		if first {
			table.Trailer = trailer
			first = false
		}

		// A hybrid file's XRefStm is consulted before its /Prev.
		if stm, ok := trailer.GetInt("XRefStm"); ok {
			pending = append(pending, int64(stm))
		}
		if prev, ok := trailer.GetInt("Prev"); ok {
			pending = append(pending, int64(prev))
		}
	}
	return table, nil
}

func parseXRefSection(data []byte, offset int64) (map[int]XRefEntry, *Dict, error) {
	p, err := NewParserAt(data, offset)
	if err != nil {
		return nil, nil, err
	}
	if p.isKeyword("xref") {
		return parseXRefTable(p)
	}
	return parseXRefStream(p)
}

// parseXRefTable reads a classic "xref ... trailer <<...>>" section
func parseXRefTable(p *Parser) (map[int]XRefEntry, *Dict, error) {
	p.nextToken()
	entries := make(map[int]XRefEntry)
	for !p.isKeyword("trailer") {
		first, err := p.expectInt("subsection start")
		if err != nil {
			return nil, nil, err
		}
		count, err := p.expectInt("subsection count")
		if err != nil {
			return nil, nil, err
		}
		for i := 0; i < count; i++ {
			off, err := p.expectInt("entry offset")
			if err != nil {
				return nil, nil, err
			}
			gen, err := p.expectInt("entry generation")
			if err != nil {
				return nil, nil, err
			}
			kind := XRefFree
			switch {
			case p.isKeyword("n"):
				kind = XRefOffset
			case p.isKeyword("f"):
			default:
				return nil, nil, fmt.Errorf("entry %d: invalid in-use flag", first+i)
			}
			p.nextToken()
			if _, dup := entries[first+i]; !dup {
				entries[first+i] = XRefEntry{Kind: kind, Offset: int64(off), Generation: gen}
			}
		}
	}
	p.nextToken()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, fmt.Errorf("trailer: %w", err)
	}
	trailer, ok := obj.(*Dict)
	if !ok {
		return nil, nil, fmt.Errorf("trailer is %T, not a dictionary", obj)
	}
	return entries, trailer, nil
}

// parseXRefStream reads a PDF 1.5 cross-reference stream. Its dictionary
// doubles as the trailer.
func parseXRefStream(p *Parser) (map[int]XRefEntry, *Dict, error) {
	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, nil, err
	}
	stream, ok := ind.Object.(*Stream)
	if !ok {
		return nil, nil, fmt.Errorf("expected xref stream, got %T", ind.Object)
	}
	if t, _ := stream.Dict.GetName("Type"); t != "XRef" {
		return nil, nil, fmt.Errorf("stream type is /%s, not /XRef", t)
	}

	w, ok := stream.Dict.GetArray("W")
	if !ok || len(w) != 3 {
		return nil, nil, fmt.Errorf("xref stream has invalid /W")
	}
	var widths [3]int
	rowLen := 0
	for i, obj := range w {
		n, ok := obj.(Int)
		if !ok || n < 0 || n > 8 {
			return nil, nil, fmt.Errorf("xref stream /W[%d] invalid: %v", i, obj)
		}
		widths[i] = int(n)
		rowLen += int(n)
	}
	if rowLen == 0 {
		return nil, nil, fmt.Errorf("xref stream /W is all zero")
	}

	size, _ := stream.Dict.GetInt("Size")
	index := Array{Int(0), size}
	if idx, ok := stream.Dict.GetArray("Index"); ok {
		index = idx
	}

	body, err := stream.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("decode xref stream: %w", err)
	}

	entries := make(map[int]XRefEntry)
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, ok1 := index[i].(Int)
		count, ok2 := index[i+1].(Int)
		if !ok1 || !ok2 {
			return nil, nil, fmt.Errorf("xref stream /Index has non-integer entries")
		}
		for j := 0; j < int(count); j++ {
			if pos+rowLen > len(body) {
				return nil, nil, fmt.Errorf("xref stream truncated at entry %d", int(start)+j)
			}
			row := body[pos : pos+rowLen]
			pos += rowLen

			typ := uint64(1)
			if widths[0] > 0 {
				typ = readField(row[:widths[0]])
			}
			f2 := readField(row[widths[0] : widths[0]+widths[1]])
			f3 := readField(row[widths[0]+widths[1]:])

			var e XRefEntry
			switch typ {
			case 0:
				e = XRefEntry{Kind: XRefFree, Generation: int(f3)}
			case 1:
				e = XRefEntry{Kind: XRefOffset, Offset: int64(f2), Generation: int(f3)}
			case 2:
				e = XRefEntry{Kind: XRefCompressed, Stream: int(f2), Index: int(f3)}
			default:
				// Unknown types are treated as null references.
				continue
			}
			entries[int(start)+j] = e
		}
	}
	return entries, stream.Dict, nil
}

// readField decodes a big-endian unsigned field of up to 8 bytes
func readField(b []byte) uint64 {
	var buf [8]byte
	copy(buf[8-len(b):], b)
	return binary.BigEndian.Uint64(buf[:])
}

var objHeader = regexp.MustCompile(`(?m)(\d+)[ \t\r\n\f\x00]+(\d+)[ \t\r\n\f\x00]+obj\b`)

// ReconstructXRef rebuilds a table by scanning the whole file for object
// headers. It is the fallback for files whose xref data is missing or
// damaged. The trailer is taken from the last "trailer" dictionary, or
// from the last xref stream, or synthesised from a /Catalog object.
func ReconstructXRef(data []byte) (*XRefTable, error) {
	table := NewXRefTable()
	var xrefStreams []int64
	var catalog *IndirectRef

	for _, m := range objHeader.FindAllSubmatchIndex(data, -1) {
		// Object headers start a line
		if m[0] > 0 && !isWhitespace(data[m[0]-1]) {
			continue
		}
		num, err1 := strconv.Atoi(string(data[m[2]:m[3]]))
		gen, err2 := strconv.Atoi(string(data[m[4]:m[5]]))
		if err1 != nil || err2 != nil {
			continue
		}
		table.Entries[num] = XRefEntry{Kind: XRefOffset, Offset: int64(m[0]), Generation: gen}

		p, err := NewParserAt(data, int64(m[0]))
		if err != nil {
			continue
		}
		ind, err := p.ParseIndirectObject()
		if err != nil {
			continue
		}
		var dict *Dict
		switch v := ind.Object.(type) {
		case *Dict:
			dict = v
		case *Stream:
			dict = v.Dict
		}
		switch t, _ := dict.GetName("Type"); t {
		case "XRef":
			xrefStreams = append(xrefStreams, int64(m[0]))
		case "Catalog":
			ref := ind.Ref
			catalog = &ref
		}
	}

	if idx := bytes.LastIndex(data, []byte("trailer")); idx >= 0 {
		p, err := NewParserAt(data, int64(idx+len("trailer")))
		if err == nil {
			if obj, err := p.ParseObject(); err == nil {
				if d, ok := obj.(*Dict); ok {
					table.Trailer = d
				}
			}
		}
	}
	if !table.Trailer.Has("Root") && len(xrefStreams) > 0 {
		last := xrefStreams[len(xrefStreams)-1]
		if entries, trailer, err := parseXRefSection(data, last); err == nil {
			table.Trailer = trailer
			for num, e := range entries {
				if e.Kind == XRefCompressed {
					table.Entries[num] = e
				}
			}
		}
	}
	if !table.Trailer.Has("Root") && catalog != nil {
		table.Trailer.Set("Root", *catalog)
	}

	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("no objects found")
	}
	if !table.Trailer.Has("Root") {
		return nil, fmt.Errorf("no trailer or catalog found")
	}
	return table, nil
}
