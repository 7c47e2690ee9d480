package opentype

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF2/

// Other implementations:
// https://github.com/google/woff2/tree/master/src
// https://github.com/fonttools/fonttools/blob/master/Lib/fontTools/ttLib/woff2.py

type woff2Table struct {
	tag              string
	origLength       uint32
	transformVersion int
	transformLength  uint32
	data             []byte
}

var woff2TableTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

func errWOFF2(format string, a ...interface{}) error {
	return formatErrorf("WOFF2", format, a...)
}

// ParseWOFF2 parses the WOFF2 font format and returns its contained SFNT font format (TTF or OTF). See https://www.w3.org/TR/WOFF2/
func ParseWOFF2(b []byte) ([]byte, error) {
	if len(b) < 48 {
		return nil, errWOFF2("bad header: %w", ErrOutOfRange)
	}

	r := parse.NewBinaryReaderBytes(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return nil, errWOFF2("bad signature: %w", ErrInvalidMarker)
	}
	flavor := r.ReadUint32()
	if uint32ToString(flavor) == "ttcf" {
		return nil, unsupportedErrorf("WOFF2", "font collections")
	}
	length := r.ReadUint32()              // length
	numTables := r.ReadUint16()           // numTables
	reserved := r.ReadUint16()            // reserved
	_ = r.ReadUint32()                    // totalSfntSize
	totalCompressedSize := r.ReadUint32() // totalCompressedSize
	_ = r.ReadUint16()                    // majorVersion
	_ = r.ReadUint16()                    // minorVersion
	_ = r.ReadUint32()                    // metaOffset
	_ = r.ReadUint32()                    // metaLength
	_ = r.ReadUint32()                    // metaOrigLength
	_ = r.ReadUint32()                    // privOffset
	_ = r.ReadUint32()                    // privLength
	if length != uint32(len(b)) {
		return nil, errWOFF2("length in header must match file size: %w", ErrInvalidFontData)
	} else if numTables == 0 {
		return nil, errWOFF2("numTables in header must not be zero: %w", ErrInvalidFontData)
	} else if reserved != 0 {
		return nil, errWOFF2("reserved in header must be zero: %w", ErrInvalidFontData)
	}

	tagTableIndex := map[string]int{}
	tables := []woff2Table{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		if r.Len() < 1 {
			return nil, errWOFF2("bad table directory: %w", ErrOutOfRange)
		}
		flags := r.ReadUint8()
		tagIndex := int(flags & 0x3F)
		transformVersion := int((flags & 0xC0) >> 6)

		var tag string
		if tagIndex == 63 {
			if r.Len() < 4 {
				return nil, errWOFF2("bad table directory: %w", ErrOutOfRange)
			}
			tag = uint32ToString(r.ReadUint32())
		} else {
			tag = woff2TableTags[tagIndex]
		}

		origLength, err := readUintBase128(r)
		if err != nil {
			return nil, err
		}

		var transformLength uint32
		if (tag == "glyf" || tag == "loca") && transformVersion == 0 || tag == "hmtx" && transformVersion == 1 {
			transformLength, err = readUintBase128(r)
			if err != nil || tag != "loca" && transformLength == 0 {
				return nil, errWOFF2("%s: transformLength must be set: %w", tag, ErrInvalidFontData)
			}
			if math.MaxUint32-uncompressedSize < transformLength {
				return nil, ErrExceedsMemory
			}
			uncompressedSize += transformLength
		} else if transformVersion == 0 || transformVersion == 3 && (tag == "glyf" || tag == "loca") {
			if math.MaxUint32-uncompressedSize < origLength {
				return nil, ErrExceedsMemory
			}
			uncompressedSize += origLength
		} else {
			return nil, errWOFF2("%s: invalid transformation: %w", tag, ErrInvalidFontData)
		}

		if _, hasGlyf := tagTableIndex["glyf"]; tag == "loca" && !hasGlyf {
			return nil, errWOFF2("loca: must come after glyf table: %w", ErrInvalidFontData)
		} else if _, ok := tagTableIndex[tag]; ok {
			return nil, errWOFF2("%s: table defined more than once: %w", tag, ErrInvalidFontData)
		}

		tagTableIndex[tag] = len(tables)
		tables = append(tables, woff2Table{
			tag:              tag,
			origLength:       origLength,
			transformVersion: transformVersion,
			transformLength:  transformLength,
		})
	}

	iGlyf, hasGlyf := tagTableIndex["glyf"]
	iLoca, hasLoca := tagTableIndex["loca"]
	if hasGlyf != hasLoca || hasGlyf && tables[iGlyf].transformVersion != tables[iLoca].transformVersion {
		return nil, errWOFF2("glyf and loca tables must be both present and either be both transformed or untransformed: %w", ErrInvalidFontData)
	} else if hasLoca && tables[iLoca].transformLength != 0 {
		return nil, errWOFF2("loca: transformLength must be zero: %w", ErrInvalidFontData)
	}

	// decompress font data using Brotli
	if r.Len() < int64(totalCompressedSize) {
		return nil, errWOFF2("compressed data: %w", ErrOutOfRange)
	} else if MaxMemory < uncompressedSize {
		return nil, ErrExceedsMemory
	}
	compData := r.ReadBytes(int64(totalCompressedSize))
	rBrotli := brotli.NewReader(bytes.NewReader(compData))
	data := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(rBrotli, data); err != nil {
		return nil, errWOFF2("brotli: %w", err)
	} else if n, _ := rBrotli.Read(make([]byte, 1)); n != 0 {
		return nil, errWOFF2("sum of table lengths must match decompressed font data size: %w", ErrInvalidFontData)
	}

	// read font data
	var offset uint32
	for i := range tables {
		if tables[i].tag == "loca" && tables[i].transformVersion == 0 {
			continue // will be reconstructed
		}

		n := tables[i].origLength
		if tables[i].transformLength != 0 {
			n = tables[i].transformLength
		}
		if uint32(len(data))-offset < n {
			return nil, errWOFF2("%s: %w", tables[i].tag, ErrOutOfRange)
		}
		tables[i].data = data[offset : offset+n : offset+n]
		offset += n
	}

	// detransform font data tables
	if hasGlyf && tables[iGlyf].transformVersion == 0 {
		var err error
		tables[iGlyf].data, tables[iLoca].data, err = reconstructGlyfLoca(tables[iGlyf].data, tables[iLoca].origLength)
		if err != nil {
			return nil, err
		}
	}

	if iHmtx, hasHmtx := tagTableIndex["hmtx"]; hasHmtx && tables[iHmtx].transformVersion == 1 {
		iHead, hasHead := tagTableIndex["head"]
		iMaxp, hasMaxp := tagTableIndex["maxp"]
		iHhea, hasHhea := tagTableIndex["hhea"]
		if !hasHead || !hasGlyf || !hasMaxp || !hasHhea {
			return nil, errWOFF2("hmtx: head, glyf, loca, maxp and hhea must be defined to rebuild hmtx: %w", ErrMissingTable)
		}
		var err error
		tables[iHmtx].data, err = reconstructHmtx(tables[iHmtx].data, tables[iHead].data, tables[iGlyf].data, tables[iLoca].data, tables[iMaxp].data, tables[iHhea].data)
		if err != nil {
			return nil, err
		}
	}

	iHead, hasHead := tagTableIndex["head"]
	if !hasHead || len(tables[iHead].data) < 18 {
		return nil, errWOFF2("head: %w", ErrMissingTable)
	} else if flags := binary.BigEndian.Uint16(tables[iHead].data[16:]); flags&0x0800 == 0 {
		return nil, errWOFF2("head: bit 11 in flags must be set: %w", ErrInvalidFontData)
	} else if _, hasDSIG := tagTableIndex["DSIG"]; hasDSIG {
		return nil, errWOFF2("DSIG: must be removed: %w", ErrInvalidFontData)
	}

	sfntTables := make([]sfntTable, 0, len(tables))
	for _, table := range tables {
		sfntTables = append(sfntTables, sfntTable{table.tag, table.data})
	}
	return writeSFNT(flavor, sfntTables)
}

// subReader splits the next n bytes off r as a separate stream.
func subReader(r *parse.BinaryReader, n uint32) *parse.BinaryReader {
	return parse.NewBinaryReaderBytes(r.ReadBytes(int64(n)))
}

// bitmapReader reads bits from most to least significant, including the final bit of the buffer.
type bitmapReader struct {
	b   []byte
	pos uint32
}

func (r *bitmapReader) Read() bool {
	if uint32(len(r.b))*8 <= r.pos {
		return false
	}
	bit := r.b[r.pos>>3]&(0x80>>(r.pos&7)) != 0
	r.pos++
	return bit
}

func signInt16(flag byte, pos uint) int16 {
	if flag&(1<<pos) != 0 {
		return 1 // positive if bit on position is set
	}
	return -1
}

func reconstructGlyfLoca(b []byte, origLocaLength uint32) ([]byte, []byte, error) {
	if len(b) < 36 {
		return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
	}

	r := parse.NewBinaryReaderBytes(b)
	_ = r.ReadUint16() // version
	optionFlags := r.ReadUint16()
	numGlyphs := r.ReadUint16()
	indexFormat := r.ReadUint16()
	nContourStreamSize := r.ReadUint32()
	nPointsStreamSize := r.ReadUint32()
	flagStreamSize := r.ReadUint32()
	glyphStreamSize := r.ReadUint32()
	compositeStreamSize := r.ReadUint32()
	bboxStreamSize := r.ReadUint32()
	instructionStreamSize := r.ReadUint32()
	bitmapSize := ((uint32(numGlyphs) + 31) >> 5) << 2
	if nContourStreamSize != 2*uint32(numGlyphs) || bboxStreamSize < bitmapSize {
		return nil, nil, errWOFF2("glyf: %w", ErrInvalidFontData)
	}

	streamsSize := uint64(nContourStreamSize) + uint64(nPointsStreamSize) + uint64(flagStreamSize) + uint64(glyphStreamSize) + uint64(compositeStreamSize) + uint64(bboxStreamSize) + uint64(instructionStreamSize)
	if optionFlags&0x0001 != 0 { // overlapSimpleBitmap present
		streamsSize += uint64(bitmapSize)
	}
	if uint64(r.Len()) < streamsSize {
		return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
	}

	nContourStream := subReader(r, nContourStreamSize)
	nPointsStream := subReader(r, nPointsStreamSize)
	flagStream := subReader(r, flagStreamSize)
	glyphStream := subReader(r, glyphStreamSize)
	compositeStream := subReader(r, compositeStreamSize)
	bboxBitmap := &bitmapReader{b: r.ReadBytes(int64(bitmapSize))}
	bboxStream := subReader(r, bboxStreamSize-bitmapSize)
	instructionStream := subReader(r, instructionStreamSize)
	var overlapSimpleBitmap *bitmapReader
	if optionFlags&0x0001 != 0 {
		overlapSimpleBitmap = &bitmapReader{b: r.ReadBytes(int64(bitmapSize))}
	}

	locaLength := (uint32(numGlyphs) + 1) * 2
	if indexFormat != 0 {
		locaLength *= 2
	}
	if locaLength != origLocaLength {
		return nil, nil, errWOFF2("loca: origLength must match numGlyphs+1 entries: %w", ErrInvalidFontData)
	}

	w := parse.NewBinaryWriter([]byte{})
	loca := parse.NewBinaryWriter([]byte{})
	writeLoca := func() {
		if indexFormat == 0 {
			loca.WriteUint16(uint16(len(w.Bytes()) >> 1))
		} else {
			loca.WriteUint32(uint32(len(w.Bytes())))
		}
	}
	for iGlyph := uint16(0); iGlyph < numGlyphs; iGlyph++ {
		writeLoca()

		explicitBbox := bboxBitmap.Read()       // EOF cannot occur
		nContours := nContourStream.ReadInt16() // EOF cannot occur
		if nContours == 0 {                     // empty glyph
			if explicitBbox {
				return nil, nil, errWOFF2("glyf: empty glyph cannot have bbox definition: %w", ErrInvalidFontData)
			}
			continue
		} else if 0 < nContours { // simple glyph
			var xMin, yMin, xMax, yMax int16
			if explicitBbox {
				if bboxStream.Len() < 8 {
					return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
				}
				xMin = bboxStream.ReadInt16()
				yMin = bboxStream.ReadInt16()
				xMax = bboxStream.ReadInt16()
				yMax = bboxStream.ReadInt16()
			}

			var nPoints uint16
			endPtsOfContours := make([]uint16, nContours)
			for iContour := int16(0); iContour < nContours; iContour++ {
				nPoint, err := read255Uint16(nPointsStream)
				if err != nil {
					return nil, nil, err
				} else if math.MaxUint16-nPoints < nPoint {
					return nil, nil, errWOFF2("glyf: %w", ErrInvalidFontData)
				}
				nPoints += nPoint
				endPtsOfContours[iContour] = nPoints - 1
			}
			if flagStream.Len() < int64(nPoints) {
				return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
			}

			var x, y int16
			outlineFlags := make([]byte, 0, nPoints)
			xCoordinates := make([]int16, 0, nPoints)
			yCoordinates := make([]int16, 0, nPoints)
			for iPoint := uint16(0); iPoint < nPoints; iPoint++ {
				flag := flagStream.ReadUint8()
				onCurve := (flag & 0x80) == 0
				flag &= 0x7f
				if glyphStream.Len() < woff2TripletLength(flag) {
					return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
				}

				var dx, dy int16
				if flag < 10 {
					coord0 := int16(glyphStream.ReadUint8())
					dy = signInt16(flag, 0) * (int16(flag&0x0E)<<7 + coord0)
				} else if flag < 20 {
					coord0 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (int16((flag-10)&0x0E)<<7 + coord0)
				} else if flag < 84 {
					coord0 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (1 + int16((flag-20)&0x30) + coord0>>4)
					dy = signInt16(flag, 1) * (1 + int16((flag-20)&0x0C)<<2 + (coord0 & 0x0F))
				} else if flag < 120 {
					coord0 := int16(glyphStream.ReadUint8())
					coord1 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (1 + int16((flag-84)/12)<<8 + coord0)
					dy = signInt16(flag, 1) * (1 + (int16((flag-84)%12)>>2)<<8 + coord1)
				} else if flag < 124 {
					coord0 := int16(glyphStream.ReadUint8())
					coord1 := int16(glyphStream.ReadUint8())
					coord2 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (coord0<<4 + coord1>>4)
					dy = signInt16(flag, 1) * ((coord1&0x0F)<<8 + coord2)
				} else {
					coord0 := int16(glyphStream.ReadUint8())
					coord1 := int16(glyphStream.ReadUint8())
					coord2 := int16(glyphStream.ReadUint8())
					coord3 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (coord0<<8 + coord1)
					dy = signInt16(flag, 1) * (coord2<<8 + coord3)
				}
				xCoordinates = append(xCoordinates, dx)
				yCoordinates = append(yCoordinates, dy)

				// bits 1-5 stay zero: coordinates are two bytes long and flags are not repeated
				var outlineFlag byte
				if onCurve {
					outlineFlag |= glyfFlagOnCurve
				}
				if overlapSimpleBitmap != nil && overlapSimpleBitmap.Read() {
					outlineFlag |= 0x40 // OVERLAP_SIMPLE
				}
				outlineFlags = append(outlineFlags, outlineFlag)

				if !explicitBbox {
					if 0 < x && math.MaxInt16-x < dx || x < 0 && dx < math.MinInt16-x ||
						0 < y && math.MaxInt16-y < dy || y < 0 && dy < math.MinInt16-y {
						return nil, nil, errWOFF2("glyf: %w", ErrInvalidFontData)
					}
					x += dx
					y += dy
					if iPoint == 0 {
						xMin, xMax = x, x
						yMin, yMax = y, y
					} else {
						if x < xMin {
							xMin = x
						} else if xMax < x {
							xMax = x
						}
						if y < yMin {
							yMin = y
						} else if yMax < y {
							yMax = y
						}
					}
				}
			}
			instructions, err := readInstructions(glyphStream, instructionStream)
			if err != nil {
				return nil, nil, err
			}

			w.WriteInt16(nContours)
			w.WriteInt16(xMin)
			w.WriteInt16(yMin)
			w.WriteInt16(xMax)
			w.WriteInt16(yMax)
			for _, endPtsOfContour := range endPtsOfContours {
				w.WriteUint16(endPtsOfContour)
			}
			w.WriteUint16(uint16(len(instructions)))
			w.WriteBytes(instructions)
			w.WriteBytes(outlineFlags)
			for _, xCoordinate := range xCoordinates {
				w.WriteInt16(xCoordinate)
			}
			for _, yCoordinate := range yCoordinates {
				w.WriteInt16(yCoordinate)
			}
		} else { // composite glyph
			if !explicitBbox {
				return nil, nil, errWOFF2("glyf: composite glyph must have bbox definition: %w", ErrInvalidFontData)
			}

			if bboxStream.Len() < 8 {
				return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
			}
			xMin := bboxStream.ReadInt16()
			yMin := bboxStream.ReadInt16()
			xMax := bboxStream.ReadInt16()
			yMax := bboxStream.ReadInt16()

			w.WriteInt16(nContours)
			w.WriteInt16(xMin)
			w.WriteInt16(yMin)
			w.WriteInt16(xMax)
			w.WriteInt16(yMax)

			hasInstructions := false
			for {
				if compositeStream.Len() < 2 {
					return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
				}
				compositeFlag := compositeStream.ReadUint16()
				numBytes := glyfComponentLength(compositeFlag)
				if compositeStream.Len() < numBytes {
					return nil, nil, errWOFF2("glyf: %w", ErrOutOfRange)
				}
				compositeBytes := compositeStream.ReadBytes(numBytes)

				w.WriteUint16(compositeFlag)
				w.WriteBytes(compositeBytes)

				if compositeFlag&0x0100 != 0 { // WE_HAVE_INSTRUCTIONS
					hasInstructions = true
				}
				if compositeFlag&glyfMoreComponents == 0 {
					break
				}
			}

			if hasInstructions {
				instructions, err := readInstructions(glyphStream, instructionStream)
				if err != nil {
					return nil, nil, err
				}
				w.WriteUint16(uint16(len(instructions)))
				w.WriteBytes(instructions)
			}
		}

		// offsets for loca table should be 4-byte aligned
		for len(w.Bytes())%4 != 0 {
			w.WriteUint8(0x00)
		}
	}
	writeLoca()
	return w.Bytes(), loca.Bytes(), nil
}

func reconstructHmtx(b, head, glyf, loca, maxp, hhea []byte) ([]byte, error) {
	headBlock := newDataBlock(head, "head")
	indexFormat, err := headBlock.Int16(50)
	if err != nil {
		return nil, err
	}
	numGlyphs, err := newDataBlock(maxp, "maxp").Uint16(4)
	if err != nil {
		return nil, err
	}
	numHMetrics, err := newDataBlock(hhea, "hhea").Uint16(34)
	if err != nil {
		return nil, err
	} else if numHMetrics < 1 {
		return nil, errWOFF2("hmtx: must have at least one entry: %w", ErrInvalidFontData)
	} else if numGlyphs < numHMetrics {
		return nil, errWOFF2("hmtx: more entries than glyphs in glyf: %w", ErrInvalidFontData)
	}

	locaLength := (uint32(numGlyphs) + 1) * 2
	if indexFormat != 0 {
		locaLength *= 2
	}
	if locaLength != uint32(len(loca)) {
		return nil, errWOFF2("loca: %w", ErrInvalidFontData)
	}
	locaBlock := newDataBlock(loca, "loca")
	locaOffset := func(glyphID uint16) uint32 {
		if indexFormat != 0 {
			v, _ := locaBlock.Uint32(4 * uint32(glyphID))
			return v
		}
		return 2 * uint32(locaBlock.u16(2*uint32(glyphID)))
	}

	if len(b) < 1 {
		return nil, errWOFF2("hmtx: %w", ErrOutOfRange)
	}
	r := parse.NewBinaryReaderBytes(b)
	flags := r.ReadUint8()
	reconstructProportional := flags&0x01 != 0
	reconstructMonospaced := flags&0x02 != 0
	if flags&0xFC != 0 {
		return nil, errWOFF2("hmtx: reserved bits in flags must not be set: %w", ErrInvalidFontData)
	} else if !reconstructProportional && !reconstructMonospaced {
		return nil, errWOFF2("hmtx: must reconstruct at least one left side bearing array: %w", ErrInvalidFontData)
	}

	n := 1 + uint32(numHMetrics)*2
	if !reconstructProportional {
		n += uint32(numHMetrics) * 2
	} else if !reconstructMonospaced {
		n += (uint32(numGlyphs) - uint32(numHMetrics)) * 2
	}
	if n != uint32(len(b)) {
		return nil, errWOFF2("hmtx: %w", ErrInvalidFontData)
	}

	advanceWidths := make([]uint16, numHMetrics)
	lsbs := make([]int16, numGlyphs)
	for i := range advanceWidths {
		advanceWidths[i] = r.ReadUint16()
	}
	if !reconstructProportional {
		for i := uint16(0); i < numHMetrics; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}
	if !reconstructMonospaced {
		for i := numHMetrics; i < numGlyphs; i++ {
			lsbs[i] = r.ReadInt16()
		}
	}

	// the left side bearings are the xMin values of the glyphs
	glyfBlock := newDataBlock(glyf, "glyf")
	first, last := uint16(0), numGlyphs
	if !reconstructProportional {
		first = numHMetrics
	} else if !reconstructMonospaced {
		last = numHMetrics
	}
	for glyphID := first; glyphID < last; glyphID++ {
		offset, next := locaOffset(glyphID), locaOffset(glyphID+1)
		if offset == next {
			lsbs[glyphID] = 0
			continue
		}
		xMin, err := glyfBlock.Int16(offset + 2)
		if err != nil {
			return nil, err
		}
		lsbs[glyphID] = xMin
	}

	w := parse.NewBinaryWriter([]byte{})
	for i, advanceWidth := range advanceWidths {
		w.WriteUint16(advanceWidth)
		w.WriteInt16(lsbs[i])
	}
	for _, lsb := range lsbs[numHMetrics:] {
		w.WriteInt16(lsb)
	}
	return w.Bytes(), nil
}

func readUintBase128(r *parse.BinaryReader) (uint32, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	var accum uint32
	for i := 0; i < 5; i++ {
		if r.Len() < 1 {
			return 0, errWOFF2("UIntBase128: %w", ErrOutOfRange)
		}
		dataByte := r.ReadUint8()
		if i == 0 && dataByte == 0x80 {
			return 0, errWOFF2("UIntBase128: must not start with leading zeros: %w", ErrInvalidFontData)
		}
		if (accum & 0xFE000000) != 0 {
			return 0, errWOFF2("UIntBase128: overflow: %w", ErrInvalidFontData)
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum, nil
		}
	}
	return 0, errWOFF2("UIntBase128: exceeds 5 bytes: %w", ErrInvalidFontData)
}

func read255Uint16(r *parse.BinaryReader) (uint16, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if r.Len() < 1 {
		return 0, errWOFF2("255UInt16: %w", ErrOutOfRange)
	}
	code := r.ReadUint8()
	if code == 253 {
		if r.Len() < 2 {
			return 0, errWOFF2("255UInt16: %w", ErrOutOfRange)
		}
		return r.ReadUint16(), nil
	} else if code == 254 || code == 255 {
		if r.Len() < 1 {
			return 0, errWOFF2("255UInt16: %w", ErrOutOfRange)
		}
		if code == 255 {
			return uint16(r.ReadUint8()) + 253, nil
		}
		return uint16(r.ReadUint8()) + 253*2, nil
	}
	return uint16(code), nil
}

// readInstructions reads the instruction length from the glyph stream and the instructions from the instruction stream.
func readInstructions(glyphStream, instructionStream *parse.BinaryReader) ([]byte, error) {
	instructionLength, err := read255Uint16(glyphStream)
	if err != nil {
		return nil, err
	} else if instructionStream.Len() < int64(instructionLength) {
		return nil, errWOFF2("glyf: %w", ErrOutOfRange)
	}
	return instructionStream.ReadBytes(int64(instructionLength)), nil
}

// woff2TripletLength returns the number of glyph stream bytes of a point with the given flag.
func woff2TripletLength(flag byte) int64 {
	if flag < 84 {
		return 1
	} else if flag < 120 {
		return 2
	} else if flag < 124 {
		return 3
	}
	return 4
}
