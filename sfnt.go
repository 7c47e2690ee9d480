package opentype

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// OutlineKind is the glyph outline format of a font.
type OutlineKind int

// see OutlineKind
const (
	TrueTypeOutlines OutlineKind = iota + 1
	CFFOutlines
)

func (k OutlineKind) String() string {
	switch k {
	case TrueTypeOutlines:
		return "TrueType"
	case CFFOutlines:
		return "CFF"
	}
	return fmt.Sprintf("OutlineKind(%d)", int(k))
}

// TableRecord is an entry of the table directory.
type TableRecord struct {
	Tag      string
	Checksum uint32
	Offset   uint32
	Length   uint32
}

// Font is a parsed OpenType font. It holds views of its tables into the font buffer and decodes on demand. A Font is immutable after construction.
type Font struct {
	data     []byte
	index    int
	version  string
	outlines OutlineKind
	records  []TableRecord

	cmap, head, hhea, hmtx, maxp, name DataBlock
	kern, os2                          DataBlock
	glyf, loca, cffData                DataBlock
	hasKern, hasOS2                    bool

	cmapSubtable DataBlock
	cmapFormat   uint16

	numGlyphs   uint16
	unitsPerEm  uint16
	numHMetrics uint16
	locaFormat  int16
	cff         *cffFont
}

// NumFonts returns the number of fonts in b, which is larger than one only for font collections.
func NumFonts(b []byte) (int, error) {
	d := newDataBlock(b, "")
	tag, err := d.Tag(0)
	if err != nil {
		return 0, err
	} else if tag != "ttcf" {
		return 1, nil
	}
	numFonts, err := d.Uint32(8)
	if err != nil {
		return 0, err
	} else if numFonts == 0 || (d.Len()-12)/4 < numFonts {
		return 0, formatErrorf("", "bad number of fonts %d: %w", numFonts, ErrInvalidFontData)
	}
	return int(numFonts), nil
}

// ParseFonts parses all fonts of an sfnt font file or a font collection.
func ParseFonts(b []byte) ([]*Font, error) {
	n, err := NumFonts(b)
	if err != nil {
		return nil, err
	}
	fonts := make([]*Font, 0, n)
	for i := 0; i < n; i++ {
		font, err := ParseFont(b, i)
		if err != nil {
			if 1 < n {
				return nil, fmt.Errorf("font %d: %w", i, err)
			}
			return nil, err
		}
		fonts = append(fonts, font)
	}
	return fonts, nil
}

// ParseFont parses the font at index of an sfnt font file or a font collection. The index must be zero for non-collections.
func ParseFont(b []byte, index int) (*Font, error) {
	if uint64(0xFFFFFFFF) < uint64(len(b)) {
		return nil, formatErrorf("", "font file exceeds 4GB: %w", ErrInvalidFontData)
	}
	d := newDataBlock(b, "")
	offset, err := sfntOffset(d, index)
	if err != nil {
		return nil, err
	}

	version, err := d.Tag(offset)
	if err != nil {
		return nil, err
	}
	switch version {
	case "\x00\x01\x00\x00", "OTTO", "true", "typ1":
	default:
		return nil, formatErrorf("", "bad sfnt version 0x%08X: %w", binary.BigEndian.Uint32([]byte(version)), ErrInvalidMarker)
	}
	numTables, err := d.Uint16(offset + 4)
	if err != nil {
		return nil, err
	}
	dir, err := d.Sub(offset+12, 16*uint32(numTables))
	if err != nil {
		return nil, formatErrorf("", "bad table directory: %w", ErrInvalidFontData)
	}

	f := &Font{
		data:    b,
		index:   index,
		version: version,
		records: make([]TableRecord, 0, numTables),
	}
	var hasCFF, hasGlyf, hasLoca bool
	present := map[string]bool{}
	r := dir.Reader(0)
	for i := 0; i < int(numTables); i++ {
		record := TableRecord{
			Tag:      r.ReadString(4),
			Checksum: r.ReadUint32(),
			Offset:   r.ReadUint32(),
			Length:   r.ReadUint32(),
		}
		table, err := d.Sub(record.Offset, record.Length)
		if err != nil {
			return nil, formatErrorf(strings.TrimSpace(record.Tag), "bad table offset or length: %w", ErrInvalidFontData)
		}
		table = table.withTable(strings.TrimSpace(record.Tag))
		f.records = append(f.records, record)
		present[record.Tag] = true

		switch record.Tag {
		case "cmap":
			f.cmap = table
		case "head":
			f.head = table
		case "hhea":
			f.hhea = table
		case "hmtx":
			f.hmtx = table
		case "maxp":
			f.maxp = table
		case "name":
			f.name = table
		case "kern":
			f.kern, f.hasKern = table, true
		case "OS/2":
			f.os2, f.hasOS2 = table, true
		case "glyf":
			f.glyf, hasGlyf = table, true
		case "loca":
			f.loca, hasLoca = table, true
		case "CFF ":
			f.cffData, hasCFF = table, true
		}
	}

	for _, tag := range []string{"cmap", "head", "hhea", "hmtx", "maxp", "name"} {
		if !present[tag] {
			return nil, formatErrorf(tag, "%w", ErrMissingTable)
		}
	}
	if hasCFF && hasGlyf {
		return nil, formatErrorf("", "both CFF and glyf outlines: %w", ErrInvalidFontData)
	} else if hasGlyf && !hasLoca {
		return nil, formatErrorf("loca", "%w", ErrMissingTable)
	} else if hasCFF {
		f.outlines = CFFOutlines
	} else if hasGlyf {
		f.outlines = TrueTypeOutlines
	} else {
		return nil, formatErrorf("glyf", "no glyph outlines: %w", ErrMissingTable)
	}

	if err := f.parseHead(); err != nil {
		return nil, err
	} else if err := f.parseMaxp(); err != nil {
		return nil, err
	} else if err := f.parseHhea(); err != nil {
		return nil, err
	} else if err := f.parseHmtx(); err != nil {
		return nil, err
	} else if err := f.parseOS2(); err != nil {
		return nil, err
	} else if err := f.parseCmap(); err != nil {
		return nil, err
	}
	if f.outlines == TrueTypeOutlines {
		if err := f.parseLoca(); err != nil {
			return nil, err
		}
	} else {
		cff, err := parseCFF(f.cffData, f.numGlyphs)
		if err != nil {
			return nil, err
		}
		f.cff = cff
	}
	return f, nil
}

func sfntOffset(d DataBlock, index int) (uint32, error) {
	tag, err := d.Tag(0)
	if err != nil {
		return 0, err
	}
	if tag != "ttcf" {
		if index != 0 {
			return 0, formatErrorf("", "bad font index %d: %w", index, ErrOutOfRange)
		}
		return 0, nil
	}

	version, err := d.Uint32(4)
	if err != nil {
		return 0, err
	} else if version != 0x00010000 && version != 0x00020000 {
		return 0, formatErrorf("", "bad TTC version 0x%08X: %w", version, ErrInvalidMarker)
	}
	numFonts, err := d.Uint32(8)
	if err != nil {
		return 0, err
	} else if index < 0 || numFonts <= uint32(index) {
		return 0, formatErrorf("", "bad font index %d: %w", index, ErrOutOfRange)
	}
	return d.Uint32(12 + 4*uint32(index))
}

// Index returns the index of the font in its font collection.
func (f *Font) Index() int {
	return f.index
}

// Version returns the sfnt version tag.
func (f *Font) Version() string {
	return f.version
}

// Outlines returns the glyph outline format.
func (f *Font) Outlines() OutlineKind {
	return f.outlines
}

// Tables returns the table directory.
func (f *Font) Tables() []TableRecord {
	return f.records
}

// Size returns the size in bytes of the font buffer.
func (f *Font) Size() int {
	return len(f.data)
}

// NumGlyphs returns the number of glyphs the font contains.
func (f *Font) NumGlyphs() uint16 {
	return f.numGlyphs
}

////////////////////////////////////////////////////////////////

func (f *Font) parseHead() error {
	if f.head.Len() < 54 {
		return formatErrorf("head", "bad table: %w", ErrInvalidFontData)
	}
	if magic, _ := f.head.Uint32(12); magic != 0x5F0F3CF5 {
		return formatErrorf("head", "bad magic number: %w", ErrInvalidMarker)
	}
	f.unitsPerEm = f.head.u16(18)
	if f.unitsPerEm < 16 || 16384 < f.unitsPerEm {
		return formatErrorf("head", "bad unitsPerEm %d: %w", f.unitsPerEm, ErrInvalidFontData)
	}
	f.locaFormat = f.head.i16(50)
	return nil
}

func (f *Font) parseMaxp() error {
	if f.maxp.Len() < 6 {
		return formatErrorf("maxp", "bad table: %w", ErrInvalidFontData)
	}
	f.numGlyphs = f.maxp.u16(4)
	if f.numGlyphs == 0 {
		return formatErrorf("maxp", "font has no glyphs: %w", ErrInvalidFontData)
	}
	return nil
}

func (f *Font) parseHhea() error {
	if f.hhea.Len() < 36 {
		return formatErrorf("hhea", "bad table: %w", ErrInvalidFontData)
	}
	f.numHMetrics = f.hhea.u16(34)
	if f.numHMetrics == 0 {
		return formatErrorf("hhea", "bad numberOfHMetrics: %w", ErrInvalidFontData)
	} else if f.numGlyphs < f.numHMetrics {
		f.numHMetrics = f.numGlyphs
	}
	return nil
}

func (f *Font) parseHmtx() error {
	length := 4*uint32(f.numHMetrics) + 2*uint32(f.numGlyphs-f.numHMetrics)
	if f.hmtx.Len() < length {
		return formatErrorf("hmtx", "bad table: %w", ErrInvalidFontData)
	}
	return nil
}

// UnitsPerEm returns the number of font units per em.
func (f *Font) UnitsPerEm() uint16 {
	return f.unitsPerEm
}

// MacStyle returns the macStyle flags of the head table.
func (f *Font) MacStyle() uint16 {
	return f.head.u16(44)
}

// Ascent returns the typographic ascent of the hhea table.
func (f *Font) Ascent() int16 {
	return f.hhea.i16(4)
}

// Descent returns the typographic descent of the hhea table, which is usually negative.
func (f *Font) Descent() int16 {
	return f.hhea.i16(6)
}

// LineGap returns the typographic line gap of the hhea table.
func (f *Font) LineGap() int16 {
	return f.hhea.i16(8)
}

// AdvanceWidth returns the advance width of a glyph in font units.
func (f *Font) AdvanceWidth(glyphID uint16) uint16 {
	if f.numHMetrics <= glyphID {
		glyphID = f.numHMetrics - 1
	}
	return f.hmtx.u16(4 * uint32(glyphID))
}

// LeftSideBearing returns the left side bearing of a glyph in font units.
func (f *Font) LeftSideBearing(glyphID uint16) int16 {
	if glyphID < f.numHMetrics {
		return f.hmtx.i16(4*uint32(glyphID) + 2)
	} else if f.numGlyphs <= glyphID {
		return 0
	}
	return f.hmtx.i16(4*uint32(f.numHMetrics) + 2*uint32(glyphID-f.numHMetrics))
}

// Kerning returns the horizontal kerning between two glyphs in font units. Only the first subtable of the kern table is used and only when it is in format 0 with horizontal coverage.
func (f *Font) Kerning(left, right uint16) int16 {
	if !f.hasKern {
		return 0
	} else if version, err := f.kern.Uint16(0); err != nil || version != 0 {
		return 0
	} else if coverage, err := f.kern.Uint16(8); err != nil || coverage != 1 {
		return 0
	}
	nPairs, err := f.kern.Uint16(10)
	if err != nil {
		return 0
	}

	key := uint32(left)<<16 | uint32(right)
	lo, hi := uint32(0), uint32(nPairs)
	for lo < hi {
		mid := (lo + hi) / 2 // can be rounded down if odd
		pairKey, err := f.kern.Uint32(18 + 6*mid)
		if err != nil {
			return 0
		}
		if pairKey < key {
			lo = mid + 1
		} else if key < pairKey {
			hi = mid
		} else {
			v, _ := f.kern.Int16(18 + 6*mid + 4)
			return v
		}
	}
	return 0
}
