package core

import (
	"strings"
)

// DictEntry is a single key/value pair of a dictionary
type DictEntry struct {
	Key   string
	Value Object
}

// Dict represents a PDF dictionary. Keys are kept in the order they were
// first set, which for parsed dictionaries is their order in the file.
type Dict struct {
	entries []DictEntry
	index   map[string]int
}

// NewDict creates a dictionary holding the given entries in order. A
// repeated key replaces the earlier value but keeps its position.
func NewDict(entries ...DictEntry) *Dict {
	d := &Dict{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		d.Set(e.Key, e.Value)
	}
	return d
}

func (d *Dict) Type() ObjectType { return ObjDict }
func (d *Dict) String() string {
	parts := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		parts = append(parts, "/"+e.Key+" "+e.Value.String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}
func (*Dict) isObject() {}

// Len returns the number of entries
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Entries returns the entries in insertion order. The returned slice must
// not be modified.
func (d *Dict) Entries() []DictEntry {
	if d == nil {
		return nil
	}
	return d.entries
}

// Keys returns all keys in insertion order
func (d *Dict) Keys() []string {
	keys := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

// Get retrieves a value from the dictionary, or nil when absent
func (d *Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	if i, ok := d.index[key]; ok {
		return d.entries[i].Value
	}
	return nil
}

// Has checks if a key exists in the dictionary
func (d *Dict) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[key]
	return ok
}

// Set sets a value in the dictionary
func (d *Dict) Set(key string, value Object) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, DictEntry{Key: key, Value: value})
}

// GetName retrieves a name value
func (d *Dict) GetName(key string) (Name, bool) {
	n, ok := d.Get(key).(Name)
	return n, ok
}

// GetInt retrieves an integer value
func (d *Dict) GetInt(key string) (Int, bool) {
	i, ok := d.Get(key).(Int)
	return i, ok
}

// GetDict retrieves a dictionary value
func (d *Dict) GetDict(key string) (*Dict, bool) {
	dict, ok := d.Get(key).(*Dict)
	return dict, ok && dict != nil
}

// GetArray retrieves an array value
func (d *Dict) GetArray(key string) (Array, bool) {
	arr, ok := d.Get(key).(Array)
	return arr, ok
}

// GetIndirectRef retrieves an indirect reference
func (d *Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d.Get(key).(IndirectRef)
	return ref, ok
}
