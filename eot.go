package opentype

import (
	"encoding/binary"

	"github.com/tdewolff/parse/v2"
)

// ParseEOT parses the EOT font format and returns its contained SFNT font format (TTF or OTF). Compressed (MTX) fonts are not supported. See https://www.w3.org/Submission/EOT/
func ParseEOT(b []byte) ([]byte, error) {
	errTruncated := formatErrorf("EOT", "%w", ErrOutOfRange)

	r := parse.NewBinaryReaderBytes(b)
	r.ByteOrder = binary.LittleEndian
	if r.Len() < 82 {
		return nil, errTruncated
	}
	_ = r.ReadUint32()             // EOTSize
	fontDataSize := r.ReadUint32() // FontDataSize
	version := r.ReadUint32()      // Version
	if version != 0x00010000 && version != 0x00020001 && version != 0x00020002 {
		return nil, formatErrorf("EOT", "unsupported version 0x%08X: %w", version, ErrInvalidMarker)
	}
	flags := r.ReadUint32()       // Flags
	_ = r.ReadBytes(10)           // FontPANOSE
	_ = r.ReadUint8()             // Charset
	_ = r.ReadUint8()             // Italic
	_ = r.ReadUint32()            // Weight
	_ = r.ReadUint16()            // fsType
	magicNumber := r.ReadUint16() // MagicNumber
	if magicNumber != 0x504C {
		return nil, formatErrorf("EOT", "bad magic number: %w", ErrInvalidMarker)
	}
	_ = r.ReadBytes(24) // Unicode and CodePage ranges
	_ = r.ReadUint32()  // CheckSumAdjustment
	_ = r.ReadBytes(16) // Reserved
	_ = r.ReadUint16()  // Padding1

	// FamilyName, StyleName, VersionName and FullName
	for i := 0; i < 4; i++ {
		if 0 < i {
			if r.Len() < 2 {
				return nil, errTruncated
			}
			_ = r.ReadUint16() // Padding
		}
		if r.Len() < 2 {
			return nil, errTruncated
		}
		size := int64(r.ReadUint16())
		if r.Len() < size {
			return nil, errTruncated
		}
		_ = r.ReadBytes(size)
	}

	if version == 0x00020001 || version == 0x00020002 {
		if r.Len() < 4 {
			return nil, errTruncated
		}
		_ = r.ReadUint16()                      // Padding5
		rootStringSize := int64(r.ReadUint16()) // RootStringSize
		if r.Len() < rootStringSize {
			return nil, errTruncated
		}
		_ = r.ReadBytes(rootStringSize) // RootString
	}
	if version == 0x00020002 {
		if r.Len() < 12 {
			return nil, errTruncated
		}
		_ = r.ReadUint32()                     // RootStringCheckSum
		_ = r.ReadUint32()                     // EUDCCodePage
		_ = r.ReadUint16()                     // Padding6
		signatureSize := int64(r.ReadUint16()) // SignatureSize
		if r.Len() < signatureSize+8 {
			return nil, errTruncated
		}
		_ = r.ReadBytes(signatureSize)        // Signature
		_ = r.ReadUint32()                    // EUDCFlags
		eudcFontSize := int64(r.ReadUint32()) // EUDCFontSize
		if r.Len() < eudcFontSize {
			return nil, errTruncated
		}
		_ = r.ReadBytes(eudcFontSize) // EUDCFontData
	}

	if MaxMemory < fontDataSize {
		return nil, ErrExceedsMemory
	} else if r.Len() < int64(fontDataSize) {
		return nil, errTruncated
	}
	fontData := r.ReadBytes(int64(fontDataSize))

	if flags&0x00000004 != 0 {
		return nil, unsupportedErrorf("EOT", "MTX compression")
	}

	// the font data refers to the input buffer, copy before deobfuscating
	sfnt := make([]byte, len(fontData))
	copy(sfnt, fontData)
	if flags&0x10000000 != 0 {
		for i := range sfnt {
			sfnt[i] ^= 0x50
		}
	}
	return sfnt, nil
}
