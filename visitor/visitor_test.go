package visitor

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/pdfbrowse/core"
	"github.com/tsawler/pdfbrowse/internal/pdftest"
	"github.com/tsawler/pdfbrowse/reader"
	"github.com/tsawler/pdfbrowse/walker"
)

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

var pageContent = deflate([]byte("BT (caf\xe9) Tj ET"))

func openSample(t *testing.T) *reader.Reader {
	t.Helper()
	data := pdftest.New().
		Object(1, "<< /Type /Catalog /Pages 2 0 R >>").
		Object(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>").
		Object(3, "<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>").
		Stream(4, "/Filter /FlateDecode", pageContent).
		Trailer("/Root 1 0 R").
		Bytes()
	r, err := reader.New(data)
	if err != nil {
		t.Fatalf("reader.New failed: %v", err)
	}
	return r
}

func trailerRoot(t *testing.T, r *reader.Reader) walker.Node {
	t.Helper()
	root, err := walker.NewRoot(context.Background(), r, walker.TrailerRoot())
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}
	return root
}

func TestDescribe(t *testing.T) {
	origin := core.IndirectRef{Number: 12, Generation: 3}
	tests := []struct {
		node walker.Node
		want string
	}{
		{walker.Node{Object: core.NewDict(), Label: walker.Key("Root")}, "Root (dict)"},
		{walker.Node{Object: core.Array{}, Label: walker.Key("Kids")}, "Kids (array)"},
		{walker.Node{Object: &core.Stream{Dict: core.NewDict()}, Label: walker.Index(2), Origin: &origin}, "2 (stream) [id: 12, gen: 3]"},
		{walker.Node{Object: core.Name("Catalog"), Label: walker.Key("Type")}, "Type = /Catalog"},
		{walker.Node{Object: core.Int(612), Label: walker.Index(2)}, "2 = 612"},
		{walker.Node{Object: core.Real(0.5), Label: walker.Key("CA")}, "CA = 0.5"},
		{walker.Node{Object: core.Bool(false), Label: walker.Key("Open")}, "Open = false"},
		{walker.Node{Object: core.String("a \"b\"\n"), Label: walker.Key("Title")}, `Title = "a \"b\"\n"`},
		{walker.Node{Object: core.String("\xfe\xff\x00H\x00i"), Label: walker.Key("T")}, `T = "Hi"`},
		{walker.Node{Object: core.Null{}, Label: walker.Key("X")}, "X = null"},
		{walker.Node{Object: core.Int(1), Origin: &origin}, " = 1 [id: 12, gen: 3]"},
		{walker.Node{Contents: &walker.StreamContents{}, Label: walker.Key("Contents")}, "<contents>"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Describe(tt.node); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrettyPrinter(t *testing.T) {
	r := openSample(t)
	var out strings.Builder
	pp := NewPrettyPrinter(&out)
	if err := walker.New(r).Walk(context.Background(), trailerRoot(t, r), pp); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := strings.Join([]string{
		"Trailer (dict)",
		" Size = 5",
		" Root (dict) [id: 1, gen: 0]",
		"  Type = /Catalog",
		"  Pages (dict) [id: 2, gen: 0]",
		"   Type = /Pages",
		"   Kids (array)",
		"    0 (dict) [id: 3, gen: 0]",
		"     Type = /Page",
		"     Parent (dict) [id: 2, gen: 0]",
		"     Contents (stream) [id: 4, gen: 0]",
		"      Filter = /FlateDecode",
		fmt.Sprintf("      Length = %d", len(pageContent)),
		"      <contents>",
		"   Count = 1",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
	}
	if !pp.Seen(core.IndirectRef{Number: 2}) || pp.Seen(core.IndirectRef{Number: 9}) {
		t.Error("Seen() does not match the walk")
	}
}

// TestPrettyPrinterCycle tests that a self-reference is printed once and
// not expanded
func TestPrettyPrinterCycle(t *testing.T) {
	data := pdftest.New().
		Object(1, "<< /Next 2 0 R >>").
		Object(2, "<< /Next 1 0 R >>").
		Trailer("/Root 1 0 R").
		Bytes()
	r, err := reader.New(data)
	if err != nil {
		t.Fatalf("reader.New failed: %v", err)
	}
	root, err := walker.NewRoot(context.Background(), r, walker.ObjectRoot(1, 0))
	if err != nil {
		t.Fatalf("NewRoot failed: %v", err)
	}

	var out strings.Builder
	if err := walker.New(r).Walk(context.Background(), root, NewPrettyPrinter(&out)); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	want := " (dict) [id: 1, gen: 0]\n Next (dict) [id: 2, gen: 0]\n  Next (dict) [id: 1, gen: 0]\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestPrettyPrinterWriteError(t *testing.T) {
	r := openSample(t)
	pp := NewPrettyPrinter(failingWriter{})
	if err := walker.New(r).Walk(context.Background(), trailerRoot(t, r), pp); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if pp.Err() == nil {
		t.Error("expected write error")
	}
}

func TestCollector(t *testing.T) {
	data := pdftest.New().
		Object(1, "<< /Type /Catalog /A 2 0 R /B 2 0 R /C [3 0 R] >>").
		Stream(2, "/Type /Metadata", []byte("<x/>")).
		Stream(3, "", []byte("q Q")).
		Trailer("/Root 1 0 R").
		Bytes()
	r, err := reader.New(data)
	if err != nil {
		t.Fatalf("reader.New failed: %v", err)
	}

	c := NewCollector()
	if err := walker.New(r).Walk(context.Background(), trailerRoot(t, r), c); err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	var nums []int
	for _, s := range c.Streams() {
		nums = append(nums, s.Ref.Number)
	}
	if fmt.Sprint(nums) != "[2 3]" {
		t.Errorf("collected streams %v, want [2 3]", nums)
	}
	if !c.Seen(core.IndirectRef{Number: 3}) {
		t.Error("Seen(3) = false")
	}
}
