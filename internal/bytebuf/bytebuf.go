// Package bytebuf provides an append-only byte buffer with explicit
// capacity doubling and big-endian integer writes.
package bytebuf

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the starting capacity when none is given
const DefaultCapacity = 1024

var (
	// ErrWidth is returned for integer widths above 4 bytes
	ErrWidth = errors.New("integer width exceeds 32 bits")
	// ErrNegative is returned for negative integers
	ErrNegative = errors.New("negative integer")
	// ErrOverflow is returned when a value does not fit the width
	ErrOverflow = errors.New("integer overflows width")
	// ErrNotLatin1 is returned for text outside U+0000..U+00FF
	ErrNotLatin1 = errors.New("character outside Latin-1")
)

// Buffer is an append-only byte sequence. Only the first Len bytes of its
// backing store are meaningful.
type Buffer struct {
	data   []byte
	length int
}

// New returns a buffer with the given starting capacity, or
// DefaultCapacity when capacity is not positive
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Len returns the number of bytes written
func (b *Buffer) Len() int { return b.length }

// Cap returns the size of the backing store
func (b *Buffer) Cap() int { return len(b.data) }

// EnsureCapacity grows the backing store, doubling it until n more bytes
// fit.
func (b *Buffer) EnsureCapacity(n int) {
	need := b.length + n
	if need <= len(b.data) {
		return
	}
	size := len(b.data)
	if size == 0 {
		size = DefaultCapacity
	}
	for size < need {
		size *= 2
	}
	grown := make([]byte, size)
	copy(grown, b.data[:b.length])
	b.data = grown
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.EnsureCapacity(len(p))
	copy(b.data[b.length:], p)
	b.length += len(p)
	return len(p), nil
}

// WriteBuffer appends the committed contents of other
func (b *Buffer) WriteBuffer(other *Buffer) {
	b.Write(other.Committed())
}

// WriteUintBE appends value as width big-endian bytes. width is at most
// 4 and value must fit in it.
func (b *Buffer) WriteUintBE(value int64, width int) error {
	if width < 1 || width > 4 {
		return fmt.Errorf("width %d: %w", width, ErrWidth)
	}
	if value < 0 {
		return fmt.Errorf("%d: %w", value, ErrNegative)
	}
	if value > int64(1)<<(8*width)-1 {
		return fmt.Errorf("%d in %d bytes: %w", value, width, ErrOverflow)
	}

	b.EnsureCapacity(width)
	for i := width - 1; i >= 0; i-- {
		b.data[b.length+i] = byte(value)
		value >>= 8
	}
	b.length += width
	return nil
}

// WriteLatin1 appends one byte per character of text. Nothing is written
// if any character is above U+00FF.
func (b *Buffer) WriteLatin1(text string) error {
	n := 0
	for _, r := range text {
		if r > 0xFF {
			return fmt.Errorf("%q: %w", r, ErrNotLatin1)
		}
		n++
	}
	b.EnsureCapacity(n)
	for _, r := range text {
		b.data[b.length] = byte(r)
		b.length++
	}
	return nil
}

// Committed returns the written bytes. The slice aliases the buffer and
// is capped at its length, so appending to it never touches the buffer.
func (b *Buffer) Committed() []byte {
	return b.data[:b.length:b.length]
}
