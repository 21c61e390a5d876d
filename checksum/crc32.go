// Package checksum computes CRC-32 (IEEE) checksums, either inline or on a
// pool of background workers through a Channel.
package checksum

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
)

// Polynomial is the reversed IEEE CRC-32 polynomial
const Polynomial = 0xEDB88320

// Inputs of at least largeInput bytes are checksummed partition by
// partition with the optimised stdlib kernel. Variables so tests can
// exercise the path with small inputs.
var (
	largeInput    = 100 << 20
	partitionSize = 16 << 20
)

var (
	table     = makeTable()
	ieeeTable = crc32.MakeTable(Polynomial)
)

func makeTable() *[256]uint32 {
	var t [256]uint32
	for n := range t {
		c := uint32(n)
		for k := 0; k < 8; k++ {
			if c&1 == 1 {
				c = Polynomial ^ (c >> 1)
			} else {
				c >>= 1
			}
		}
		t[n] = c
	}
	return &t
}

// Update returns the checksum of data appended to input whose checksum
// was crc. Update(0, data) is the checksum of data alone.
func Update(crc uint32, data []byte) uint32 {
	if len(data) >= largeInput {
		for len(data) > 0 {
			n := partitionSize
			if n > len(data) {
				n = len(data)
			}
			crc = crc32.Update(crc, ieeeTable, data[:n])
			data = data[n:]
		}
		return crc
	}

	crc = ^crc
	for _, b := range data {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	return ^crc
}

// Checksum returns the CRC-32 of data
func Checksum(data []byte) uint32 {
	return Update(0, data)
}

// Digest is a streaming CRC-32 implementing hash.Hash32
type Digest struct {
	crc uint32
}

var _ hash.Hash32 = (*Digest)(nil)

// NewDigest returns an empty Digest
func NewDigest() *Digest {
	return &Digest{}
}

func (d *Digest) Write(p []byte) (int, error) {
	d.crc = Update(d.crc, p)
	return len(p), nil
}

// Sum appends the big-endian checksum to b
func (d *Digest) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, d.crc)
}

func (d *Digest) Sum32() uint32  { return d.crc }
func (d *Digest) Reset()         { d.crc = 0 }
func (d *Digest) Size() int      { return 4 }
func (d *Digest) BlockSize() int { return 1 }
