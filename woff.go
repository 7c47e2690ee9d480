package opentype

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/tdewolff/parse/v2"
)

// ParseWOFF parses the WOFF font format and returns its contained SFNT font format (TTF or OTF). See https://www.w3.org/TR/WOFF/
func ParseWOFF(b []byte) ([]byte, error) {
	if len(b) < 44 {
		return nil, formatErrorf("WOFF", "bad header: %w", ErrOutOfRange)
	}

	r := parse.NewBinaryReaderBytes(b)
	signature := r.ReadString(4)
	flavor := r.ReadUint32()
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	_ = r.ReadUint32() // metaOffset
	_ = r.ReadUint32() // metaLength
	_ = r.ReadUint32() // metaOrigLength
	_ = r.ReadUint32() // privOffset
	_ = r.ReadUint32() // privLength
	if signature != "wOFF" {
		return nil, formatErrorf("WOFF", "bad signature: %w", ErrInvalidMarker)
	} else if uint32ToString(flavor) == "ttcf" {
		return nil, unsupportedErrorf("WOFF", "font collections")
	} else if length != uint32(len(b)) {
		return nil, formatErrorf("WOFF", "length in header must match file size: %w", ErrInvalidFontData)
	} else if numTables == 0 {
		return nil, formatErrorf("WOFF", "numTables in header must not be zero: %w", ErrInvalidFontData)
	} else if reserved != 0 {
		return nil, formatErrorf("WOFF", "reserved in header must be zero: %w", ErrInvalidFontData)
	} else if MaxMemory < totalSfntSize {
		return nil, ErrExceedsMemory
	} else if r.Len() < 20*int64(numTables) {
		return nil, formatErrorf("WOFF", "bad table directory: %w", ErrOutOfRange)
	}

	tables := make([]sfntTable, 0, numTables)
	seen := map[string]bool{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		origChecksum := r.ReadUint32()
		if seen[tag] {
			return nil, formatErrorf("WOFF", "%s: table defined more than once: %w", tag, ErrInvalidFontData)
		} else if origLength < compLength {
			return nil, formatErrorf("WOFF", "%s: compressed table larger than original: %w", tag, ErrInvalidFontData)
		} else if MaxMemory-uncompressedSize < origLength {
			return nil, ErrExceedsMemory
		}
		seen[tag] = true
		uncompressedSize += origLength

		comp, err := newDataBlock(b, "WOFF").Bytes(offset, compLength)
		if err != nil {
			return nil, err
		}
		data := make([]byte, origLength)
		if compLength == origLength {
			copy(data, comp)
		} else {
			zr, err := zlib.NewReader(bytes.NewReader(comp))
			if err != nil {
				return nil, formatErrorf("WOFF", "%s: %w", tag, err)
			}
			_, err = io.ReadFull(zr, data)
			zr.Close()
			if err != nil {
				return nil, formatErrorf("WOFF", "%s: %w", tag, err)
			}
		}
		if tag != "head" && calcChecksum(data) != origChecksum {
			return nil, formatErrorf("WOFF", "%s: bad checksum: %w", tag, ErrInvalidFontData)
		}
		tables = append(tables, sfntTable{tag, data})
	}
	return writeSFNT(flavor, tables)
}
