package walker

import (
	"context"
	"errors"
	"testing"

	"github.com/tsawler/pdfbrowse/core"
)

func TestParseRootSelector(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "trailer", false},
		{"trailer", "trailer", false},
		{"Trailer", "trailer", false},
		{"12,0", "12,0", false},
		{" 3 , 1 ", "3,1", false},
		{"12", "", true},
		{"a,0", "", true},
		{"1,b", "", true},
		{"-1,0", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sel, err := ParseRootSelector(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %s", sel)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRootSelector failed: %v", err)
			}
			if sel.String() != tt.want {
				t.Errorf("String() = %q, want %q", sel, tt.want)
			}
		})
	}
}

func TestNewRoot(t *testing.T) {
	doc := newMockDoc()
	doc.trailer = core.NewDict(core.DictEntry{Key: "Root", Value: ref(1)})
	doc.AddObject(1, core.NewDict(core.DictEntry{Key: "Type", Value: core.Name("Catalog")}))
	ctx := context.Background()

	root, err := NewRoot(ctx, doc, TrailerRoot())
	if err != nil {
		t.Fatalf("NewRoot(trailer) failed: %v", err)
	}
	if root.Label.String() != TrailerLabel || root.Origin != nil || root.Depth != 0 {
		t.Errorf("trailer root = %+v", root)
	}

	root, err = NewRoot(ctx, doc, ObjectRoot(1, 0))
	if err != nil {
		t.Fatalf("NewRoot(1,0) failed: %v", err)
	}
	if root.Label.String() != "" || root.Origin == nil || root.Origin.Number != 1 {
		t.Errorf("object root = %+v", root)
	}
	if _, ok := root.Object.(*core.Dict); !ok {
		t.Errorf("object root holds %T", root.Object)
	}

	if _, err := NewRoot(ctx, doc, ObjectRoot(8, 0)); !errors.Is(err, errNotFound) {
		t.Errorf("expected errNotFound, got %v", err)
	}
	if _, err := NewRoot(ctx, newMockDoc(), TrailerRoot()); err == nil {
		t.Error("expected error without a trailer")
	}
}
