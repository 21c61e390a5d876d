package core

import (
	"reflect"
	"testing"
)

func TestObjectType(t *testing.T) {
	tests := []struct {
		obj  Object
		want ObjectType
	}{
		{Null{}, ObjNull},
		{Bool(true), ObjBool},
		{Int(1), ObjInt},
		{Real(1.5), ObjReal},
		{String("s"), ObjString},
		{Name("N"), ObjName},
		{Array{}, ObjArray},
		{NewDict(), ObjDict},
		{&Stream{Dict: NewDict()}, ObjStream},
		{IndirectRef{Number: 1}, ObjIndirect},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			if got := tt.obj.Type(); got != tt.want {
				t.Errorf("Type() = %v, want %v", got, tt.want)
			}
		})
	}
	if ObjectType(99).String() != "Unknown" {
		t.Error("unexpected name for unknown type")
	}
}

func TestObjectString(t *testing.T) {
	tests := []struct {
		name string
		obj  Object
		want string
	}{
		{"null", Null{}, "null"},
		{"bool", Bool(false), "false"},
		{"int", Int(-42), "-42"},
		{"real", Real(0.5), "0.5"},
		{"name", Name("Type"), "/Type"},
		{"array", Array{Int(1), Name("A")}, "[1 /A]"},
		{"ref", IndirectRef{Number: 12, Generation: 3}, "12 3 R"},
		{"dict", NewDict(DictEntry{"B", Int(2)}, DictEntry{"A", Int(1)}), "<</B 2 /A 1>>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDictKeepsInsertionOrder(t *testing.T) {
	d := NewDict()
	for _, k := range []string{"Type", "Pages", "Outlines", "Metadata", "AcroForm"} {
		d.Set(k, Name(k))
	}
	d.Set("Pages", Int(7))

	want := []string{"Type", "Pages", "Outlines", "Metadata", "AcroForm"}
	if got := d.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, ok := d.GetInt("Pages"); !ok || v != 7 {
		t.Errorf("replaced value = %v, %v", v, ok)
	}
	if d.Len() != 5 {
		t.Errorf("Len() = %d, want 5", d.Len())
	}
}

func TestDictGetters(t *testing.T) {
	inner := NewDict()
	d := NewDict(
		DictEntry{"Name", Name("X")},
		DictEntry{"Int", Int(3)},
		DictEntry{"Dict", inner},
		DictEntry{"Array", Array{Int(1)}},
		DictEntry{"Ref", IndirectRef{Number: 4}},
	)

	if n, ok := d.GetName("Name"); !ok || n != "X" {
		t.Errorf("GetName = %v, %v", n, ok)
	}
	if _, ok := d.GetName("Int"); ok {
		t.Error("GetName should fail on an Int")
	}
	if got, ok := d.GetDict("Dict"); !ok || got != inner {
		t.Error("GetDict failed")
	}
	if a, ok := d.GetArray("Array"); !ok || a.Len() != 1 {
		t.Error("GetArray failed")
	}
	if r, ok := d.GetIndirectRef("Ref"); !ok || r.Number != 4 {
		t.Error("GetIndirectRef failed")
	}
	if d.Has("Missing") || d.Get("Missing") != nil {
		t.Error("missing key reported present")
	}

	var nilDict *Dict
	if nilDict.Get("X") != nil || nilDict.Len() != 0 || nilDict.Has("X") {
		t.Error("nil dict should behave as empty")
	}
}

func TestArrayGet(t *testing.T) {
	a := Array{Int(1), Int(2)}
	if a.Get(1) != Int(2) {
		t.Error("Get(1) failed")
	}
	if a.Get(-1) != nil || a.Get(2) != nil {
		t.Error("out of range Get should return nil")
	}
}

func TestNumber(t *testing.T) {
	if v, ok := Number(Int(3)); !ok || v != 3 {
		t.Errorf("Number(Int) = %v, %v", v, ok)
	}
	if v, ok := Number(Real(2.5)); !ok || v != 2.5 {
		t.Errorf("Number(Real) = %v, %v", v, ok)
	}
	if _, ok := Number(Name("x")); ok {
		t.Error("Number(Name) should fail")
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   String
		want string
	}{
		{"ascii", String("Hello"), "Hello"},
		{"latin1", String("caf\xe9"), "café"},
		{"utf16", String("\xfe\xff\x00H\x00i\x26\x03"), "Hi☃"},
		{"utf8 bom", String("\xef\xbb\xbfna\xc3\xafve"), "naïve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeText(tt.in); got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}
