package opentype

// MaxCmapSegments is the maximum number of cmap segments that will be accepted.
const MaxCmapSegments = 20000

// parseCmap selects the subtable used for character to glyph mapping. Unicode with format 4 or Windows UCS-4 end the search, Windows BMP and other Unicode subtables are remembered while the search continues.
func (f *Font) parseCmap() error {
	if f.cmap.Len() < 4 {
		return formatErrorf("cmap", "bad table: %w", ErrInvalidFontData)
	} else if version := f.cmap.u16(0); version != 0 {
		return formatErrorf("cmap", "bad version %d: %w", version, ErrInvalidFontData)
	}
	numTables := f.cmap.u16(2)
	if f.cmap.Len() < 4+8*uint32(numTables) {
		return formatErrorf("cmap", "bad table: %w", ErrInvalidFontData)
	}

	selected := -1
	var selectedOffset uint32
	for j := 0; j < int(numTables); j++ {
		platformID := PlatformID(f.cmap.u16(4 + 8*uint32(j)))
		encodingID := f.cmap.u16(4 + 8*uint32(j) + 2)
		offset, _ := f.cmap.Uint32(4 + 8*uint32(j) + 4)
		if platformID == PlatformISO {
			platformID = PlatformUnicode
		}

		if platformID == PlatformUnicode && encodingID != 5 {
			format, err := f.cmap.Uint16(offset)
			if err != nil {
				return formatErrorf("cmap", "bad subtable %d: %w", j, ErrInvalidFontData)
			}
			selected, selectedOffset = j, offset
			if format == 4 {
				break
			}
		} else if platformID == PlatformWindows && encodingID == 10 {
			selected, selectedOffset = j, offset
			break
		} else if platformID == PlatformWindows && encodingID == 1 {
			selected, selectedOffset = j, offset
		}
	}
	if selected == -1 {
		return formatErrorf("cmap", "%w", ErrNoUnicodeMapping)
	}

	subtable, err := f.cmap.From(selectedOffset)
	if err != nil {
		return formatErrorf("cmap", "bad subtable %d: %w", selected, ErrInvalidFontData)
	}
	format, err := subtable.Uint16(0)
	if err != nil {
		return formatErrorf("cmap", "bad subtable %d: %w", selected, ErrInvalidFontData)
	}

	var length, minLength uint32
	switch format {
	case 0:
		length = uint32(subtable.u16(2))
		minLength = 6 + 256
	case 4:
		length = uint32(subtable.u16(2))
		segCountX2, err := subtable.Uint16(6)
		if err != nil {
			return formatErrorf("cmap", "bad subtable %d: %w", selected, ErrInvalidFontData)
		} else if segCountX2 == 0 || segCountX2%2 != 0 {
			return formatErrorf("cmap", "bad segCount in subtable %d: %w", selected, ErrInvalidFontData)
		} else if MaxCmapSegments < segCountX2/2 {
			return formatErrorf("cmap", "too many segments in subtable %d: %w", selected, ErrInvalidFontData)
		}
		minLength = 16 + 4*uint32(segCountX2)
	case 6:
		length = uint32(subtable.u16(2))
		entryCount, err := subtable.Uint16(8)
		if err != nil {
			return formatErrorf("cmap", "bad subtable %d: %w", selected, ErrInvalidFontData)
		}
		minLength = 10 + 2*uint32(entryCount)
	case 12, 13:
		length, _ = subtable.Uint32(4)
		numGroups, err := subtable.Uint32(12)
		if err != nil {
			return formatErrorf("cmap", "bad subtable %d: %w", selected, ErrInvalidFontData)
		} else if MaxCmapSegments < numGroups {
			return formatErrorf("cmap", "too many segments in subtable %d: %w", selected, ErrInvalidFontData)
		}
		minLength = 16 + 12*numGroups
	default:
		return unsupportedErrorf("cmap", "format %d: %w", format, ErrUnsupportedCmapFormat)
	}

	// format 4 lengths overflow for large subtables, trust the table bounds instead
	if length < minLength || subtable.Len() < length {
		length = subtable.Len()
	}
	if length < minLength {
		return formatErrorf("cmap", "bad subtable %d: %w", selected, ErrInvalidFontData)
	}
	f.cmapSubtable, _ = subtable.Sub(0, length)
	f.cmapFormat = format
	return nil
}

// CmapFormat returns the format of the cmap subtable in use.
func (f *Font) CmapFormat() uint16 {
	return f.cmapFormat
}

// GlyphIndex returns the glyph ID for a code point, or zero if the font doesn't map it.
func (f *Font) GlyphIndex(r rune) uint16 {
	if r < 0 {
		return 0
	}
	var glyphID uint32
	switch f.cmapFormat {
	case 0:
		glyphID = f.cmapFormat0(uint32(r))
	case 4:
		glyphID = f.cmapFormat4(uint32(r))
	case 6:
		glyphID = f.cmapFormat6(uint32(r))
	case 12, 13:
		glyphID = f.cmapFormat12(uint32(r), f.cmapFormat == 13)
	}
	if uint32(f.numGlyphs) <= glyphID {
		return 0
	}
	return uint16(glyphID)
}

func (f *Font) cmapFormat0(r uint32) uint32 {
	if 256 <= r {
		return 0
	}
	v, _ := f.cmapSubtable.Uint8(6 + r)
	return uint32(v)
}

func (f *Font) cmapFormat4(r uint32) uint32 {
	if 0xFFFF < r {
		return 0
	}
	t := f.cmapSubtable
	segCountX2 := uint32(t.u16(6))
	endCodes := uint32(14)
	startCodes := endCodes + segCountX2 + 2
	idDeltas := startCodes + segCountX2
	idRangeOffsets := idDeltas + segCountX2

	// find the first segment whose endCode is not below r
	lo, hi := uint32(0), segCountX2/2
	for lo < hi {
		mid := (lo + hi) / 2
		if uint32(t.u16(endCodes+2*mid)) < r {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == segCountX2/2 {
		return 0
	}

	i := lo
	startCode := uint32(t.u16(startCodes + 2*i))
	if r < startCode {
		return 0
	}
	idDelta := t.u16(idDeltas + 2*i)
	idRangeOffset := uint32(t.u16(idRangeOffsets + 2*i))
	if idRangeOffset == 0 {
		// modulo 65536 through uint16 overflow
		return uint32(uint16(r) + idDelta)
	}
	// idRangeOffset is relative to its own position in the idRangeOffset array
	pos := idRangeOffsets + 2*i + idRangeOffset + 2*(r-startCode)
	glyphID, err := t.Uint16(pos)
	if err != nil || glyphID == 0 {
		return 0
	}
	return uint32(glyphID + idDelta)
}

func (f *Font) cmapFormat6(r uint32) uint32 {
	t := f.cmapSubtable
	firstCode := uint32(t.u16(6))
	entryCount := uint32(t.u16(8))
	if r < firstCode || entryCount <= r-firstCode {
		return 0
	}
	return uint32(t.u16(10 + 2*(r-firstCode)))
}

func (f *Font) cmapFormat12(r uint32, manyToOne bool) uint32 {
	t := f.cmapSubtable
	numGroups, _ := t.Uint32(12)
	lo, hi := uint32(0), numGroups
	for lo < hi {
		mid := (lo + hi) / 2
		group := 16 + 12*mid
		startCharCode, _ := t.Uint32(group)
		endCharCode, _ := t.Uint32(group + 4)
		if endCharCode < r {
			lo = mid + 1
		} else if r < startCharCode {
			hi = mid
		} else {
			startGlyphID, _ := t.Uint32(group + 8)
			if manyToOne {
				return startGlyphID
			}
			return startGlyphID + (r - startCharCode)
		}
	}
	return 0
}
