package opentype

import (
	"encoding/binary"
	"fmt"

	"github.com/tdewolff/parse/v2"
)

// DataBlock is a window of a font's byte buffer. It never copies and every read is checked against the window's length.
type DataBlock struct {
	buf    []byte
	offset uint32
	length uint32
	table  string
}

func newDataBlock(buf []byte, table string) DataBlock {
	return DataBlock{
		buf:    buf,
		length: uint32(len(buf)),
		table:  table,
	}
}

// Offset returns the position of the window in the font buffer.
func (d DataBlock) Offset() uint32 {
	return d.offset
}

// Len returns the length of the window.
func (d DataBlock) Len() uint32 {
	return d.length
}

// Table returns the name of the table the window belongs to.
func (d DataBlock) Table() string {
	return d.table
}

func (d DataBlock) errRange(off, n uint32) error {
	return &FormatError{
		Table: d.table,
		Err:   fmt.Errorf("read of %d bytes at %d exceeds length %d: %w", n, off, d.length, ErrOutOfRange),
	}
}

func (d DataBlock) check(off, n uint32) error {
	if d.length < off || d.length-off < n {
		return d.errRange(off, n)
	}
	return nil
}

// Sub returns the window of n bytes at off.
func (d DataBlock) Sub(off, n uint32) (DataBlock, error) {
	if err := d.check(off, n); err != nil {
		return DataBlock{}, err
	}
	return DataBlock{
		buf:    d.buf,
		offset: d.offset + off,
		length: n,
		table:  d.table,
	}, nil
}

// From returns the window starting at off until the end.
func (d DataBlock) From(off uint32) (DataBlock, error) {
	if d.length < off {
		return DataBlock{}, d.errRange(off, 0)
	}
	return d.Sub(off, d.length-off)
}

func (d DataBlock) withTable(table string) DataBlock {
	d.table = table
	return d
}

// Bytes returns n bytes at off. The returned slice refers to the font buffer.
func (d DataBlock) Bytes(off, n uint32) ([]byte, error) {
	if err := d.check(off, n); err != nil {
		return nil, err
	}
	start := d.offset + off
	return d.buf[start : start+n : start+n], nil
}

// Uint8 reads an unsigned byte at off.
func (d DataBlock) Uint8(off uint32) (uint8, error) {
	if err := d.check(off, 1); err != nil {
		return 0, err
	}
	return d.buf[d.offset+off], nil
}

// Uint16 reads a big-endian uint16 at off.
func (d DataBlock) Uint16(off uint32) (uint16, error) {
	if err := d.check(off, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d.buf[d.offset+off:]), nil
}

// Int16 reads a big-endian int16 at off.
func (d DataBlock) Int16(off uint32) (int16, error) {
	v, err := d.Uint16(off)
	return int16(v), err
}

// Uint32 reads a big-endian uint32 at off.
func (d DataBlock) Uint32(off uint32) (uint32, error) {
	if err := d.check(off, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.buf[d.offset+off:]), nil
}

// Int32 reads a big-endian int32 at off.
func (d DataBlock) Int32(off uint32) (int32, error) {
	v, err := d.Uint32(off)
	return int32(v), err
}

// Tag reads a four byte table tag at off.
func (d DataBlock) Tag(off uint32) (string, error) {
	b, err := d.Bytes(off, 4)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Reader returns a big-endian sequential reader over the window starting at off. Reads past the end return zero, so callers check Len before reading.
func (d DataBlock) Reader(off uint32) *parse.BinaryReader {
	if d.length < off {
		off = d.length
	}
	start, end := d.offset+off, d.offset+d.length
	return parse.NewBinaryReaderBytes(d.buf[start:end:end])
}

// the uint16 values of a table at fixed offsets are validated at construction, so these never fail
func (d DataBlock) u16(off uint32) uint16 {
	v, _ := d.Uint16(off)
	return v
}

func (d DataBlock) i16(off uint32) int16 {
	v, _ := d.Int16(off)
	return v
}
