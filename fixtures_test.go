package opentype

import (
	"sort"
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
	"golang.org/x/text/encoding/unicode"
)

type pt struct {
	x, y int16
	on   bool
}

// fontFixture builds small fonts table by table.
type fontFixture struct {
	unitsPerEm  uint16
	macStyle    uint16
	advances    []uint16
	lsbs        []int16
	numHMetrics uint16
	cmap        []byte
	names       map[NameID]string
	os2         []byte
	kern        []byte
	glyphs      [][]byte // glyf entries, nil for CFF fonts
	cff         []byte
	numGlyphs   uint16 // only for CFF fonts
	replace     map[string][]byte
	omit        map[string]bool
}

func newTrueTypeFixture() *fontFixture {
	return &fontFixture{
		unitsPerEm:  1000,
		advances:    []uint16{500, 600},
		lsbs:        []int16{10, 20, 30, 40},
		numHMetrics: 2,
		cmap:        cmapFormat4(map[rune]uint16{'A': 1, 'B': 2, 'C': 3}),
		names: map[NameID]string{
			NameFontFamily:    "Fixture Sans",
			NameFontSubfamily: "Regular",
		},
		os2:  os2Table(WeightNormal, WidthNormal, 0, 0),
		kern: kernTable([][3]int{{1, 3, 15}, {5, 7, -20}}),
		glyphs: [][]byte{
			nil,
			simpleGlyph([][]pt{{{0, 0, true}, {100, 0, true}, {100, 100, true}, {0, 100, true}}}),
			simpleGlyph([][]pt{{{0, 0, true}, {10, 0, false}, {10, 10, false}, {0, 10, true}}}),
			compositeGlyph(
				component{glyph: 1, dx: 200},
				component{glyph: 2, scale: 8192},
			),
		},
		replace: map[string][]byte{},
		omit:    map[string]bool{},
	}
}

func newCFFFixture(cff []byte, numGlyphs uint16) *fontFixture {
	fx := newTrueTypeFixture()
	fx.glyphs = nil
	fx.cff = cff
	fx.numGlyphs = numGlyphs
	fx.lsbs = make([]int16, numGlyphs)
	fx.numHMetrics = 1
	fx.advances = []uint16{500}
	fx.cmap = cmapFormat4(map[rune]uint16{'A': 1})
	return fx
}

func (fx *fontFixture) tables() []sfntTable {
	tables := map[string][]byte{}
	var numGlyphs uint16
	if fx.glyphs != nil {
		numGlyphs = uint16(len(fx.glyphs))
		glyf, loca := glyfLoca(fx.glyphs)
		tables["glyf"] = glyf
		tables["loca"] = loca
	} else {
		numGlyphs = fx.numGlyphs
		tables["CFF "] = fx.cff
	}
	tables["head"] = headTable(fx.unitsPerEm, fx.macStyle, 1)
	tables["hhea"] = hheaTable(800, -200, 90, fx.numHMetrics)
	tables["maxp"] = maxpTable(numGlyphs)
	tables["hmtx"] = hmtxTable(fx.advances, fx.lsbs)
	tables["cmap"] = fx.cmap
	tables["name"] = nameTable(fx.names)
	if fx.os2 != nil {
		tables["OS/2"] = fx.os2
	}
	if fx.kern != nil {
		tables["kern"] = fx.kern
	}
	for tag, table := range fx.replace {
		tables[tag] = table
	}

	list := []sfntTable{}
	for tag, table := range tables {
		if !fx.omit[tag] {
			data := make([]byte, len(table))
			copy(data, table)
			list = append(list, sfntTable{tag, data})
		}
	}
	return list
}

func (fx *fontFixture) Bytes() []byte {
	flavor := uint32(0x00010000)
	if fx.glyphs == nil {
		flavor = 0x4F54544F // OTTO
	}
	b, err := writeSFNT(flavor, fx.tables())
	if err != nil {
		panic(err)
	}
	return b
}

func (fx *fontFixture) Font(t *testing.T) *Font {
	f, err := ParseFont(fx.Bytes(), 0)
	test.Error(t, err)
	return f
}

////////////////////////////////////////////////////////////////

func headTable(unitsPerEm, macStyle uint16, locaFormat int16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000) // version
	w.WriteUint32(0x00010000) // fontRevision
	w.WriteUint32(0)          // checkSumAdjustment
	w.WriteUint32(0x5F0F3CF5) // magicNumber
	w.WriteUint16(0x000B)     // flags
	w.WriteUint16(unitsPerEm)
	w.WriteBytes(make([]byte, 16)) // created, modified
	w.WriteInt16(0)                // xMin
	w.WriteInt16(0)                // yMin
	w.WriteInt16(100)              // xMax
	w.WriteInt16(100)              // yMax
	w.WriteUint16(macStyle)
	w.WriteUint16(8) // lowestRecPPEM
	w.WriteInt16(2)  // fontDirectionHint
	w.WriteInt16(locaFormat)
	w.WriteInt16(0) // glyphDataFormat
	return w.Bytes()
}

func hheaTable(ascent, descent, lineGap int16, numHMetrics uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000)
	w.WriteInt16(ascent)
	w.WriteInt16(descent)
	w.WriteInt16(lineGap)
	w.WriteBytes(make([]byte, 24))
	w.WriteUint16(numHMetrics)
	return w.Bytes()
}

func maxpTable(numGlyphs uint16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00005000)
	w.WriteUint16(numGlyphs)
	return w.Bytes()
}

func hmtxTable(advances []uint16, lsbs []int16) []byte {
	w := parse.NewBinaryWriter([]byte{})
	for i, advance := range advances {
		w.WriteUint16(advance)
		w.WriteInt16(lsbs[i])
	}
	for _, lsb := range lsbs[len(advances):] {
		w.WriteInt16(lsb)
	}
	return w.Bytes()
}

func os2Table(weight, width uint16, fsSelection uint16, proportion uint8) []byte {
	b := make([]byte, 78)
	b[4], b[5] = byte(weight>>8), byte(weight)
	b[6], b[7] = byte(width>>8), byte(width)
	b[35] = proportion
	b[62], b[63] = byte(fsSelection>>8), byte(fsSelection)
	return b
}

func kernTable(pairs [][3]int) []byte {
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0]<<16|pairs[i][1] < pairs[j][0]<<16|pairs[j][1]
	})
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(1) // nTables
	w.WriteUint16(0) // subtable version
	w.WriteUint16(uint16(14 + 6*len(pairs)))
	w.WriteUint16(1) // coverage
	w.WriteUint16(uint16(len(pairs)))
	w.WriteUint16(0) // searchRange
	w.WriteUint16(0) // entrySelector
	w.WriteUint16(0) // rangeShift
	for _, pair := range pairs {
		w.WriteUint16(uint16(pair[0]))
		w.WriteUint16(uint16(pair[1]))
		w.WriteInt16(int16(pair[2]))
	}
	return w.Bytes()
}

func cmapHeader(platform PlatformID, encoding uint16, subtable []byte) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(1) // numTables
	w.WriteUint16(uint16(platform))
	w.WriteUint16(encoding)
	w.WriteUint32(12)
	w.WriteBytes(subtable)
	return w.Bytes()
}

// cmapFormat4 maps every code point in its own segment.
func cmapFormat4(m map[rune]uint16) []byte {
	runes := []rune{}
	for r := range m {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	segCount := uint16(len(runes) + 1)

	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(4)
	w.WriteUint16(16 + 8*segCount) // length
	w.WriteUint16(0)               // language
	w.WriteUint16(2 * segCount)
	w.WriteUint16(0) // searchRange
	w.WriteUint16(0) // entrySelector
	w.WriteUint16(0) // rangeShift
	for _, r := range runes {
		w.WriteUint16(uint16(r))
	}
	w.WriteUint16(0xFFFF)
	w.WriteUint16(0) // reservedPad
	for _, r := range runes {
		w.WriteUint16(uint16(r))
	}
	w.WriteUint16(0xFFFF)
	for _, r := range runes {
		w.WriteUint16(m[r] - uint16(r))
	}
	w.WriteUint16(1)
	for range runes {
		w.WriteUint16(0)
	}
	w.WriteUint16(0)
	return cmapHeader(PlatformWindows, 1, w.Bytes())
}

// cmapFormat12 writes groups of {start, end, startGlyphID}.
func cmapFormat12(groups [][3]uint32) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(12)
	w.WriteUint16(0)
	w.WriteUint32(16 + 12*uint32(len(groups)))
	w.WriteUint32(0) // language
	w.WriteUint32(uint32(len(groups)))
	for _, group := range groups {
		w.WriteUint32(group[0])
		w.WriteUint32(group[1])
		w.WriteUint32(group[2])
	}
	return cmapHeader(PlatformWindows, 10, w.Bytes())
}

func nameTable(names map[NameID]string) []byte {
	ids := []int{}
	for id := range names {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	encoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	storage := parse.NewBinaryWriter([]byte{})
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // format
	w.WriteUint16(uint16(len(ids)))
	w.WriteUint16(uint16(nameHeaderSize + nameRecordSize*len(ids)))
	for _, id := range ids {
		value, err := encoder.String(names[NameID(id)])
		if err != nil {
			panic(err)
		}
		w.WriteUint16(uint16(PlatformWindows))
		w.WriteUint16(1) // Unicode BMP
		w.WriteUint16(LanguageWindowsEnglishUS)
		w.WriteUint16(uint16(id))
		w.WriteUint16(uint16(len(value)))
		w.WriteUint16(uint16(len(storage.Bytes())))
		storage.WriteString(value)
	}
	w.WriteBytes(storage.Bytes())
	return w.Bytes()
}

func simpleGlyph(contours [][]pt) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteInt16(int16(len(contours)))
	w.WriteBytes(make([]byte, 8)) // bounding box
	end := -1
	points := []pt{}
	for _, contour := range contours {
		end += len(contour)
		w.WriteUint16(uint16(end))
		points = append(points, contour...)
	}
	w.WriteUint16(0) // instructionLength
	for _, p := range points {
		if p.on {
			w.WriteUint8(glyfFlagOnCurve)
		} else {
			w.WriteUint8(0)
		}
	}
	var x, y int16
	for _, p := range points {
		w.WriteInt16(p.x - x)
		x = p.x
	}
	for _, p := range points {
		w.WriteInt16(p.y - y)
		y = p.y
	}
	return w.Bytes()
}

// component is offset by (dx,dy), or aligns parent point dx with its own point dy if match is set.
type component struct {
	glyph  uint16
	dx, dy int16
	scale  int16 // F2Dot14, zero for none
	match  bool
}

func compositeGlyph(components ...component) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteInt16(-1)
	w.WriteBytes(make([]byte, 8))
	for i, c := range components {
		flags := uint16(glyfArgsAreWords | glyfArgsAreXY)
		if c.match {
			flags = glyfArgsAreWords
		}
		if c.scale != 0 {
			flags |= glyfHaveScale
		}
		if i+1 < len(components) {
			flags |= glyfMoreComponents
		}
		w.WriteUint16(flags)
		w.WriteUint16(c.glyph)
		w.WriteInt16(c.dx)
		w.WriteInt16(c.dy)
		if c.scale != 0 {
			w.WriteInt16(c.scale)
		}
	}
	return w.Bytes()
}

func glyfLoca(glyphs [][]byte) ([]byte, []byte) {
	glyf := parse.NewBinaryWriter([]byte{})
	loca := parse.NewBinaryWriter([]byte{})
	for _, glyph := range glyphs {
		loca.WriteUint32(uint32(len(glyf.Bytes())))
		glyf.WriteBytes(glyph)
		for len(glyf.Bytes())%4 != 0 {
			glyf.WriteUint8(0)
		}
	}
	loca.WriteUint32(uint32(len(glyf.Bytes())))
	return glyf.Bytes(), loca.Bytes()
}

////////////////////////////////////////////////////////////////

// charstring builds Type2 charstrings.
type charstring []byte

func (cs charstring) n(vs ...int) charstring {
	for _, v := range vs {
		cs = append(cs, 28, byte(v>>8), byte(v))
	}
	return cs
}

func (cs charstring) op(ops ...int) charstring {
	for _, op := range ops {
		if 0x100 <= op {
			cs = append(cs, 12, byte(op))
		} else {
			cs = append(cs, byte(op))
		}
	}
	return cs
}

func cffINDEX(items [][]byte) []byte {
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(uint16(len(items)))
	if len(items) == 0 {
		return w.Bytes()
	}
	w.WriteUint8(4) // offSize
	offset := uint32(1)
	w.WriteUint32(offset)
	for _, item := range items {
		offset += uint32(len(item))
		w.WriteUint32(offset)
	}
	for _, item := range items {
		w.WriteBytes(item)
	}
	return w.Bytes()
}

// dictInt encodes an operand in its fixed five byte form.
func dictInt(v int) []byte {
	return []byte{29, byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func privateDICT(subrs [][]byte) []byte {
	if subrs == nil {
		return nil
	}
	private := append(dictInt(6), 19)
	return append(private, cffINDEX(subrs)...)
}

// privateSize is the size of the Private DICT without its local subroutines.
func privateSize(subrs [][]byte) int {
	if subrs == nil {
		return 0
	}
	return 6
}

// cffTable builds a name-keyed CFF table.
func cffTable(charStrings, globalSubrs, localSubrs [][]byte) []byte {
	const topSize = 17
	nameINDEX := cffINDEX([][]byte{[]byte("Fixture")})
	gsubrINDEX := cffINDEX(globalSubrs)
	csINDEX := cffINDEX(charStrings)
	private := privateDICT(localSubrs)

	topINDEXSize := 2 + 1 + 4*2 + topSize
	charStringsOffset := 4 + len(nameINDEX) + topINDEXSize + 2 + len(gsubrINDEX)
	privateOffset := charStringsOffset + len(csINDEX)

	top := append(dictInt(charStringsOffset), 17)
	top = append(top, dictInt(privateSize(localSubrs))...)
	top = append(top, dictInt(privateOffset)...)
	top = append(top, 18)

	w := parse.NewBinaryWriter([]byte{})
	w.WriteBytes([]byte{1, 0, 4, 4})
	w.WriteBytes(nameINDEX)
	w.WriteBytes(cffINDEX([][]byte{top}))
	w.WriteUint16(0) // String INDEX
	w.WriteBytes(gsubrINDEX)
	w.WriteBytes(csINDEX)
	w.WriteBytes(private)
	return w.Bytes()
}

// cidCFFTable builds a CID-keyed CFF table with one Font DICT per local subroutine set and FDSelect format 3.
func cidCFFTable(charStrings [][]byte, fdSubrs [][][]byte, ranges [][2]int) []byte {
	const topSize = 37
	nameINDEX := cffINDEX([][]byte{[]byte("Fixture")})
	csINDEX := cffINDEX(charStrings)

	fdSelect := parse.NewBinaryWriter([]byte{})
	fdSelect.WriteUint8(3)
	fdSelect.WriteUint16(uint16(len(ranges)))
	for _, r := range ranges {
		fdSelect.WriteUint16(uint16(r[0]))
		fdSelect.WriteUint8(uint8(r[1]))
	}
	fdSelect.WriteUint16(uint16(len(charStrings)))

	topINDEXSize := 2 + 1 + 4*2 + topSize
	charStringsOffset := 4 + len(nameINDEX) + topINDEXSize + 2 + 2
	fdSelectOffset := charStringsOffset + len(csINDEX)
	fdArrayOffset := fdSelectOffset + len(fdSelect.Bytes())

	// Font DICTs have a fixed size, so the Private DICTs follow the FDArray at known offsets
	fdDICTSize := 11
	privateOffset := fdArrayOffset + 2 + 1 + 4*(len(fdSubrs)+1) + fdDICTSize*len(fdSubrs)
	fdDICTs := [][]byte{}
	privates := []byte{}
	for _, subrs := range fdSubrs {
		private := privateDICT(subrs)
		fd := append(dictInt(privateSize(subrs)), dictInt(privateOffset+len(privates))...)
		fd = append(fd, 18)
		fdDICTs = append(fdDICTs, fd)
		privates = append(privates, private...)
	}

	top := append(dictInt(0), dictInt(0)...)
	top = append(top, dictInt(0)...)
	top = append(top, 12, 30) // ROS
	top = append(top, dictInt(charStringsOffset)...)
	top = append(top, 17)
	top = append(top, dictInt(fdArrayOffset)...)
	top = append(top, 12, 36)
	top = append(top, dictInt(fdSelectOffset)...)
	top = append(top, 12, 37)

	w := parse.NewBinaryWriter([]byte{})
	w.WriteBytes([]byte{1, 0, 4, 4})
	w.WriteBytes(nameINDEX)
	w.WriteBytes(cffINDEX([][]byte{top}))
	w.WriteUint16(0) // String INDEX
	w.WriteUint16(0) // Global Subr INDEX
	w.WriteBytes(csINDEX)
	w.WriteBytes(fdSelect.Bytes())
	w.WriteBytes(cffINDEX(fdDICTs))
	w.WriteBytes(privates)
	return w.Bytes()
}
