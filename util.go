package opentype

import (
	"encoding/binary"
	"errors"
)

// MaxMemory is the maximum memory that can be allocated when decompressing a font.
var MaxMemory uint32 = 30 * 1024 * 1024

// ErrExceedsMemory is returned if decompressing a font would exceed MaxMemory.
var ErrExceedsMemory = errors.New("memory limit exceeded")

// calcChecksum sums a table as big-endian uint32s, a trailing partial word is zero padded.
func calcChecksum(b []byte) uint32 {
	var sum uint32
	n := len(b) &^ 3
	for i := 0; i < n; i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	if n < len(b) {
		var last [4]byte
		copy(last[:], b[n:])
		sum += binary.BigEndian.Uint32(last[:])
	}
	return sum
}

func uint32ToString(v uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return string(b)
}

func padding(n uint32) uint32 {
	return (4 - n&3) & 3
}
