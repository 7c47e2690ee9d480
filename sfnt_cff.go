package opentype

import (
	"math"
	"strconv"

	"github.com/tdewolff/parse/v2"
)

type cffFont struct {
	charStrings cffIndex
	globalSubrs cffIndex
	localSubrs  cffIndex

	// CID-keyed fonts select local subroutines per glyph
	isCID          bool
	fdSelect       DataBlock
	fdSelectFormat uint8
	fdSubrs        []cffIndex
}

func parseCFF(b DataBlock, numGlyphs uint16) (*cffFont, error) {
	major, err := b.Uint8(0)
	if err != nil {
		return nil, err
	} else if major != 1 {
		return nil, formatErrorf("CFF", "bad version %d: %w", major, ErrInvalidMarker)
	}
	hdrSize, err := b.Uint8(2)
	if err != nil {
		return nil, err
	} else if hdrSize < 4 {
		return nil, formatErrorf("CFF", "bad hdrSize: %w", ErrInvalidFontData)
	}

	// Name, Top DICT, String and Global Subrs INDEX follow each other
	nameINDEX, pos, err := parseCFFIndex(b, uint32(hdrSize))
	if err != nil {
		return nil, err
	}
	topINDEX, pos, err := parseCFFIndex(b, pos)
	if err != nil {
		return nil, err
	} else if topINDEX.Len() == 0 || topINDEX.Len() != nameINDEX.Len() {
		return nil, formatErrorf("CFF", "bad Top INDEX count: %w", ErrBadIndex)
	}
	_, pos, err = parseCFFIndex(b, pos) // String INDEX
	if err != nil {
		return nil, err
	}
	globalSubrs, _, err := parseCFFIndex(b, pos)
	if err != nil {
		return nil, err
	}

	topData, err := topINDEX.Get(0)
	if err != nil {
		return nil, err
	}
	top, err := parseCFFDict(topData)
	if err != nil {
		return nil, err
	}
	if charstringType := top.int(0x100|6, 2); charstringType != 2 {
		return nil, unsupportedErrorf("CFF", "Type %d charstrings: %w", charstringType, ErrUnsupportedCharstringType)
	}

	charStringsOffset, ok := top.offset(17)
	if !ok {
		return nil, formatErrorf("CFF", "missing CharStrings offset: %w", ErrBadDict)
	}
	charStrings, _, err := parseCFFIndex(b, charStringsOffset)
	if err != nil {
		return nil, err
	} else if charStrings.Len() == 0 {
		return nil, formatErrorf("CFF", "empty CharStrings INDEX: %w", ErrBadIndex)
	}

	cff := &cffFont{
		charStrings: charStrings,
		globalSubrs: globalSubrs,
	}
	if fdArrayOffset, ok := top.offset(0x100 | 36); ok {
		fdSelectOffset, ok := top.offset(0x100 | 37)
		if !ok {
			return nil, formatErrorf("CFF", "missing FDSelect offset: %w", ErrBadDict)
		}
		if err := cff.parseFDArray(b, fdArrayOffset); err != nil {
			return nil, err
		} else if err := cff.parseFDSelect(b, fdSelectOffset, numGlyphs); err != nil {
			return nil, err
		}
	} else if private, ok := top[18]; ok {
		if cff.localSubrs, err = parsePrivateSubrs(b, private); err != nil {
			return nil, err
		}
	}
	return cff, nil
}

// parsePrivateSubrs parses the local subroutines of the Private DICT at [size, offset].
func parsePrivateSubrs(b DataBlock, private []float64) (cffIndex, error) {
	if len(private) != 2 || private[0] < 0 || private[1] < 0 {
		return cffIndex{}, formatErrorf("CFF", "bad Private DICT location: %w", ErrBadDict)
	}
	size, offset := uint32(private[0]), uint32(private[1])
	data, err := b.Sub(offset, size)
	if err != nil {
		return cffIndex{}, formatErrorf("CFF", "bad Private DICT location: %w", ErrBadDict)
	}
	dict, err := parseCFFDict(data)
	if err != nil {
		return cffIndex{}, err
	}
	subrs, ok := dict.offset(19)
	if !ok {
		return cffIndex{}, nil
	}
	index, _, err := parseCFFIndex(b, offset+subrs)
	return index, err
}

func (cff *cffFont) parseFDArray(b DataBlock, offset uint32) error {
	fdArray, _, err := parseCFFIndex(b, offset)
	if err != nil {
		return err
	} else if fdArray.Len() == 0 || 256 < fdArray.Len() {
		return formatErrorf("CFF", "bad FDArray count: %w", ErrBadIndex)
	}

	cff.isCID = true
	cff.fdSubrs = make([]cffIndex, fdArray.Len())
	for i := range cff.fdSubrs {
		data, err := fdArray.Get(uint32(i))
		if err != nil {
			return err
		}
		dict, err := parseCFFDict(data)
		if err != nil {
			return err
		}
		if private, ok := dict[18]; ok {
			if cff.fdSubrs[i], err = parsePrivateSubrs(b, private); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cff *cffFont) parseFDSelect(b DataBlock, offset uint32, numGlyphs uint16) error {
	format, err := b.Uint8(offset)
	if err != nil {
		return err
	}
	var length uint32
	switch format {
	case 0:
		length = uint32(numGlyphs)
	case 3:
		nRanges, err := b.Uint16(offset + 1)
		if err != nil {
			return err
		} else if nRanges == 0 {
			return formatErrorf("CFF", "FDSelect has no ranges: %w", ErrInvalidFontData)
		}
		length = 2 + 3*uint32(nRanges) + 2
	default:
		return formatErrorf("CFF", "bad FDSelect format %d: %w", format, ErrInvalidFontData)
	}
	if cff.fdSelect, err = b.Sub(offset+1, length); err != nil {
		return err
	}
	cff.fdSelectFormat = format
	return nil
}

// fd returns the Font DICT index for a glyph.
func (cff *cffFont) fd(glyphID uint16) (int, error) {
	if cff.fdSelectFormat == 0 {
		fd, err := cff.fdSelect.Uint8(uint32(glyphID))
		return int(fd), err
	}

	// binary search for the last range whose first glyph is not beyond glyphID
	nRanges := uint32(cff.fdSelect.u16(0))
	sentinel := cff.fdSelect.u16(2 + 3*nRanges)
	if first := cff.fdSelect.u16(2); glyphID < first || sentinel <= glyphID {
		return 0, formatErrorf("CFF", "glyph %d not in FDSelect: %w", glyphID, ErrInvalidFontData)
	}
	lo, hi := uint32(0), nRanges
	for 1 < hi-lo {
		mid := (lo + hi) / 2
		if glyphID < cff.fdSelect.u16(2+3*mid) {
			hi = mid
		} else {
			lo = mid
		}
	}
	fd, err := cff.fdSelect.Uint8(2 + 3*lo + 2)
	return int(fd), err
}

// subrs returns the local subroutines for a glyph.
func (cff *cffFont) subrs(glyphID uint16) (cffIndex, error) {
	if !cff.isCID {
		return cff.localSubrs, nil
	}
	fd, err := cff.fd(glyphID)
	if err != nil {
		return cffIndex{}, err
	} else if len(cff.fdSubrs) <= fd {
		return cffIndex{}, formatErrorf("CFF", "bad Font DICT %d for glyph %d: %w", fd, glyphID, ErrInvalidFontData)
	}
	return cff.fdSubrs[fd], nil
}

// subrBias returns the bias added to subroutine numbers for an INDEX with count entries.
func subrBias(count int) int32 {
	if count < 1240 {
		return 107
	} else if count < 33900 {
		return 1131
	}
	return 32768
}

////////////////////////////////////////////////////////////////

// cffIndex is an INDEX structure, its window starts at the count field.
type cffIndex struct {
	d       DataBlock
	count   uint32
	offSize uint32
}

// parseCFFIndex parses the INDEX at pos and returns the position following it.
func parseCFFIndex(b DataBlock, pos uint32) (cffIndex, uint32, error) {
	count, err := b.Uint16(pos)
	if err != nil {
		return cffIndex{}, 0, formatErrorf("CFF", "INDEX at %d: %w", pos, ErrBadIndex)
	} else if count == 0 {
		return cffIndex{}, pos + 2, nil
	}
	offSize, err := b.Uint8(pos + 2)
	if err != nil || offSize == 0 || 4 < offSize {
		return cffIndex{}, 0, formatErrorf("CFF", "INDEX at %d: bad offSize: %w", pos, ErrBadIndex)
	}

	index := cffIndex{
		count:   uint32(count),
		offSize: uint32(offSize),
	}
	header := 3 + (index.count+1)*index.offSize
	if index.d, err = b.Sub(pos, header); err != nil {
		return cffIndex{}, 0, formatErrorf("CFF", "INDEX at %d: %w", pos, ErrBadIndex)
	}
	last, err := index.offset(index.count)
	if err != nil {
		return cffIndex{}, 0, err
	}
	if index.d, err = b.Sub(pos, header+last-1); err != nil {
		return cffIndex{}, 0, formatErrorf("CFF", "INDEX at %d: %w", pos, ErrBadIndex)
	}
	return index, pos + header + last - 1, nil
}

// Len returns the number of entries.
func (index cffIndex) Len() int {
	return int(index.count)
}

func (index cffIndex) offset(i uint32) (uint32, error) {
	pos := 3 + i*index.offSize
	var offset uint32
	for j := uint32(0); j < index.offSize; j++ {
		b, err := index.d.Uint8(pos + j)
		if err != nil {
			return 0, formatErrorf("CFF", "%w", ErrBadIndex)
		}
		offset = offset<<8 | uint32(b)
	}
	if offset == 0 {
		return 0, formatErrorf("CFF", "bad offset: %w", ErrBadIndex)
	}
	return offset, nil
}

// Get returns the data of entry i.
func (index cffIndex) Get(i uint32) (DataBlock, error) {
	if index.count <= i {
		return DataBlock{}, formatErrorf("CFF", "entry %d beyond INDEX count %d: %w", i, index.count, ErrBadIndex)
	}
	start, err := index.offset(i)
	if err != nil {
		return DataBlock{}, err
	}
	end, err := index.offset(i + 1)
	if err != nil {
		return DataBlock{}, err
	} else if end < start {
		return DataBlock{}, formatErrorf("CFF", "bad offsets for entry %d: %w", i, ErrBadIndex)
	}
	base := 3 + (index.count+1)*index.offSize - 1 // offsets are 1-based
	data, err := index.d.Sub(base+start, end-start)
	if err != nil {
		return DataBlock{}, formatErrorf("CFF", "entry %d: %w", i, ErrBadIndex)
	}
	return data, nil
}

////////////////////////////////////////////////////////////////

// cffDict maps DICT operators to their operands, escaped operators are 0x100|b1.
type cffDict map[int][]float64

func (dict cffDict) int(op int, def int) int {
	if operands, ok := dict[op]; ok && len(operands) == 1 {
		return int(operands[0])
	}
	return def
}

func (dict cffDict) offset(op int) (uint32, bool) {
	operands, ok := dict[op]
	if !ok || len(operands) != 1 || operands[0] < 0 || math.MaxUint32 < operands[0] {
		return 0, false
	}
	return uint32(operands[0]), true
}

func parseCFFDict(b DataBlock) (cffDict, error) {
	dict := cffDict{}
	operands := make([]float64, 0, 48)
	r := b.Reader(0)
	for 0 < r.Len() {
		b0 := r.ReadUint8()
		if b0 <= 21 {
			op := int(b0)
			if b0 == 12 {
				if r.Len() < 1 {
					return nil, formatErrorf("CFF", "unexpected end: %w", ErrBadDict)
				}
				op = 0x100 | int(r.ReadUint8())
			}
			dict[op] = append([]float64{}, operands...)
			operands = operands[:0]
		} else if b0 == 28 || b0 == 29 || b0 == 30 || 32 <= b0 && b0 <= 254 {
			if 48 <= len(operands) {
				return nil, formatErrorf("CFF", "too many operands: %w", ErrBadDict)
			}
			v, ok := parseDICTNumber(b0, r)
			if !ok {
				return nil, formatErrorf("CFF", "bad number: %w", ErrBadDict)
			}
			operands = append(operands, v)
		} else {
			return nil, formatErrorf("CFF", "reserved byte %d: %w", b0, ErrBadDict)
		}
	}
	if len(operands) != 0 {
		return nil, formatErrorf("CFF", "operands without operator: %w", ErrBadDict)
	}
	return dict, nil
}

// parseDICTNumber returns false for malformed or truncated numbers.
func parseDICTNumber(b0 uint8, r *parse.BinaryReader) (float64, bool) {
	switch {
	case b0 == 28:
		if r.Len() < 2 {
			return 0, false
		}
		return float64(r.ReadInt16()), true
	case b0 == 29:
		if r.Len() < 4 {
			return 0, false
		}
		return float64(r.ReadInt32()), true
	case b0 == 30:
		num := []byte{}
		for 0 < r.Len() {
			b := r.ReadUint8()
			for i := 0; i < 2; i++ {
				switch b >> 4 {
				case 0x0A:
					num = append(num, '.')
				case 0x0B:
					num = append(num, 'E')
				case 0x0C:
					num = append(num, 'E', '-')
				case 0x0D:
					return 0, false
				case 0x0E:
					num = append(num, '-')
				case 0x0F:
					f, err := strconv.ParseFloat(string(num), 64)
					return f, err == nil
				default:
					num = append(num, '0'+b>>4)
				}
				b <<= 4
			}
		}
		return 0, false
	case b0 <= 246:
		return float64(int(b0) - 139), true
	case r.Len() < 1:
		return 0, false
	case b0 <= 250:
		b1 := int(r.ReadUint8())
		return float64((int(b0)-247)*256 + b1 + 108), true
	}
	b1 := int(r.ReadUint8())
	return float64(-(int(b0)-251)*256 - b1 - 108), true
}
