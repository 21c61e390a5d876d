// Package pdftest assembles small PDF files in memory for tests. It
// computes the cross-reference offsets so fixtures stay readable.
package pdftest

import (
	"bytes"
	"fmt"
)

type object struct {
	num, gen int
	body     []byte
}

// Builder collects indirect objects and writes them as a PDF file
type Builder struct {
	version string
	objects []object
	trailer string
}

// New creates a builder for a PDF 1.7 file
func New() *Builder {
	return &Builder{version: "1.7"}
}

// Version sets the header version, e.g. "1.4"
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// Object adds "num 0 obj body endobj"
func (b *Builder) Object(num int, body string) *Builder {
	return b.ObjectGen(num, 0, body)
}

// ObjectGen adds an object with an explicit generation number
func (b *Builder) ObjectGen(num, gen int, body string) *Builder {
	b.objects = append(b.objects, object{num: num, gen: gen, body: []byte(body)})
	return b
}

// Stream adds a stream object. entries are the dictionary entries other
// than /Length, which is computed from data.
func (b *Builder) Stream(num int, entries string, data []byte) *Builder {
	var body bytes.Buffer
	fmt.Fprintf(&body, "<< %s /Length %d >>\nstream\n", entries, len(data))
	body.Write(data)
	body.WriteString("\nendstream")
	b.objects = append(b.objects, object{num: num, body: body.Bytes()})
	return b
}

// Trailer sets the trailer entries other than /Size, e.g. "/Root 1 0 R"
func (b *Builder) Trailer(entries string) *Builder {
	b.trailer = entries
	return b
}

// Bytes writes the file with a classic xref table
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", b.version)

	type loc struct {
		offset int
		gen    int
	}
	offsets := make(map[int]loc)
	size := 1
	for _, o := range b.objects {
		offsets[o.num] = loc{buf.Len(), o.gen}
		fmt.Fprintf(&buf, "%d %d obj\n", o.num, o.gen)
		buf.Write(o.body)
		buf.WriteString("\nendobj\n")
		if o.num+1 > size {
			size = o.num + 1
		}
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", size)
	for n := 0; n < size; n++ {
		if l, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d %05d n\r\n", l.offset, l.gen)
		} else {
			buf.WriteString("0000000000 65535 f\r\n")
		}
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", size, b.trailer, xref)
	return buf.Bytes()
}
