package opentype

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

type sfntTable struct {
	tag  string
	data []byte
}

// writeSFNT assembles an sfnt font file from its tables. Tables are sorted by tag, padded to four bytes and the head table's checkSumAdjustment is recalculated.
func writeSFNT(flavor uint32, tables []sfntTable) ([]byte, error) {
	if len(tables) == 0 || math.MaxUint16 < len(tables) {
		return nil, ErrInvalidFontData
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].tag < tables[j].tag
	})
	numTables := uint16(len(tables))

	// find values for offset table
	var searchRange uint16 = 1
	var entrySelector uint16
	for searchRange*2 <= numTables {
		searchRange *= 2
		entrySelector++
	}
	searchRange *= 16
	rangeShift := numTables*16 - searchRange

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(flavor)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	iHead := -1
	offset := 12 + 16*uint32(numTables)
	for i, table := range tables {
		length := uint32(len(table.data))
		if math.MaxUint32-length-3 < offset {
			return nil, ErrInvalidFontData
		} else if table.tag == "head" {
			if length < 12 {
				return nil, formatErrorf("head", "bad table: %w", ErrInvalidFontData)
			}
			binary.BigEndian.PutUint32(table.data[8:], 0) // clear checkSumAdjustment
			iHead = i
		}
		w.WriteString(table.tag)
		w.WriteUint32(calcChecksum(table.data))
		w.WriteUint32(offset)
		w.WriteUint32(length)
		offset += length + padding(length)
	}

	var headOffset uint32
	for i, table := range tables {
		if i == iHead {
			headOffset = uint32(len(w.Bytes()))
		}
		w.WriteBytes(table.data)
		for j := uint32(0); j < padding(uint32(len(table.data))); j++ {
			w.WriteUint8(0)
		}
	}

	b := w.Bytes()
	if iHead != -1 {
		binary.BigEndian.PutUint32(b[headOffset+8:], 0xB1B0AFBA-calcChecksum(b))
	}
	return b, nil
}
