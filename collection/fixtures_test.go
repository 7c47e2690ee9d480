package collection

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/tdewolff/opentype"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
	"golang.org/x/text/encoding/unicode"
)

// fontFixture describes a font with a single empty glyph.
type fontFixture struct {
	names       map[opentype.NameID]string
	weight      uint16
	width       uint16
	fsSelection uint16
	proportion  uint8
	macStyle    uint16
	noOS2       bool
	padding     int
}

func newFontFixture(family, subfamily string, weight uint16) fontFixture {
	return fontFixture{
		names: map[opentype.NameID]string{
			opentype.NameFontFamily:    family,
			opentype.NameFontSubfamily: subfamily,
		},
		weight: weight,
		width:  opentype.WidthNormal,
	}
}

func (fx fontFixture) tables() map[string][]byte {
	tables := map[string][]byte{}

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000) // version
	w.WriteUint32(0x00010000) // fontRevision
	w.WriteUint32(0)          // checkSumAdjustment
	w.WriteUint32(0x5F0F3CF5) // magicNumber
	w.WriteUint16(0x000B)     // flags
	w.WriteUint16(1000)       // unitsPerEm
	w.WriteBytes(make([]byte, 16+8))
	w.WriteUint16(fx.macStyle)
	w.WriteUint16(8) // lowestRecPPEM
	w.WriteInt16(2)  // fontDirectionHint
	w.WriteInt16(0)  // indexToLocFormat
	w.WriteInt16(0)  // glyphDataFormat
	tables["head"] = w.Bytes()

	w = parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000)
	w.WriteInt16(800)
	w.WriteInt16(-200)
	w.WriteInt16(0)
	w.WriteBytes(make([]byte, 24))
	w.WriteUint16(1) // numberOfHMetrics
	tables["hhea"] = w.Bytes()

	w = parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00005000)
	w.WriteUint16(1) // numGlyphs
	tables["maxp"] = w.Bytes()

	tables["hmtx"] = []byte{0x01, 0xF4, 0, 0}
	tables["loca"] = []byte{0, 0, 0, 0}
	tables["glyf"] = []byte{0, 0, 0, 0}

	w = parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0)  // version
	w.WriteUint16(1)  // numTables
	w.WriteUint16(3)  // platformID
	w.WriteUint16(1)  // encodingID
	w.WriteUint32(12) // offset
	w.WriteUint16(4)  // format
	w.WriteUint16(24) // length
	w.WriteUint16(0)  // language
	w.WriteUint16(2)  // segCountX2
	w.WriteBytes(make([]byte, 6))
	w.WriteUint16(0xFFFF) // endCode
	w.WriteUint16(0)      // reservedPad
	w.WriteUint16(0xFFFF) // startCode
	w.WriteUint16(1)      // idDelta
	w.WriteUint16(0)      // idRangeOffset
	tables["cmap"] = w.Bytes()

	ids := []int{}
	for id := range fx.names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	encoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	storage := parse.NewBinaryWriter([]byte{})
	w = parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // format
	w.WriteUint16(uint16(len(ids)))
	w.WriteUint16(uint16(6 + 12*len(ids)))
	for _, id := range ids {
		value, err := encoder.String(fx.names[opentype.NameID(id)])
		if err != nil {
			panic(err)
		}
		w.WriteUint16(3) // Windows
		w.WriteUint16(1) // Unicode BMP
		w.WriteUint16(opentype.LanguageWindowsEnglishUS)
		w.WriteUint16(uint16(id))
		w.WriteUint16(uint16(len(value)))
		w.WriteUint16(uint16(len(storage.Bytes())))
		storage.WriteString(value)
	}
	w.WriteBytes(storage.Bytes())
	tables["name"] = w.Bytes()

	if !fx.noOS2 {
		os2 := make([]byte, 78)
		os2[4], os2[5] = byte(fx.weight>>8), byte(fx.weight)
		os2[6], os2[7] = byte(fx.width>>8), byte(fx.width)
		os2[35] = fx.proportion
		os2[62], os2[63] = byte(fx.fsSelection>>8), byte(fx.fsSelection)
		tables["OS/2"] = os2
	}
	if 0 < fx.padding {
		tables["zpad"] = make([]byte, fx.padding)
	}
	return tables
}

// writeFont writes the table directory with offsets relative to the start of the file at base.
func writeFont(tables map[string][]byte, base uint32) []byte {
	tags := []string{}
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000)
	w.WriteUint16(uint16(len(tags)))
	w.WriteBytes(make([]byte, 6)) // searchRange, entrySelector, rangeShift

	offset := base + 12 + 16*uint32(len(tags))
	data := parse.NewBinaryWriter([]byte{})
	for _, tag := range tags {
		table := tables[tag]
		w.WriteString(tag)
		w.WriteUint32(0) // checksum
		w.WriteUint32(offset + uint32(len(data.Bytes())))
		w.WriteUint32(uint32(len(table)))
		data.WriteBytes(table)
		for len(data.Bytes())%4 != 0 {
			data.WriteUint8(0)
		}
	}
	w.WriteBytes(data.Bytes())
	return w.Bytes()
}

func (fx fontFixture) Bytes() []byte {
	return writeFont(fx.tables(), 0)
}

func makeTTC(fonts ...fontFixture) []byte {
	header := 12 + 4*uint32(len(fonts))
	offsets := []uint32{}
	offset := header
	for _, fx := range fonts {
		offsets = append(offsets, offset)
		offset += uint32(len(fx.Bytes()))
	}

	w := parse.NewBinaryWriter([]byte{})
	w.WriteString("ttcf")
	w.WriteUint32(0x00010000)
	w.WriteUint32(uint32(len(fonts)))
	for _, offset := range offsets {
		w.WriteUint32(offset)
	}
	for i, fx := range fonts {
		w.WriteBytes(writeFont(fx.tables(), offsets[i]))
	}
	return w.Bytes()
}

func writeFile(t *testing.T, dir, name string, b []byte) string {
	path := filepath.Join(dir, name)
	test.Error(t, os.MkdirAll(filepath.Dir(path), 0o755))
	test.Error(t, os.WriteFile(path, b, 0o644))
	return path
}
