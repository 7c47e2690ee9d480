package opentype

import "encoding/binary"

// MediaType returns the media type (MIME) of a font file, detected from its first bytes.
func MediaType(b []byte) (string, error) {
	if len(b) < 4 {
		return "", formatErrorf("", "unknown font format: %w", ErrOutOfRange)
	}
	switch string(b[:4]) {
	case "wOFF":
		return "font/woff", nil
	case "wOF2":
		return "font/woff2", nil
	case "true", "\x00\x01\x00\x00":
		return "font/ttf", nil
	case "OTTO":
		return "font/otf", nil
	case "typ1":
		return "font/sfnt", nil
	case "ttcf":
		return "font/collection", nil
	}
	if 36 <= len(b) && binary.LittleEndian.Uint16(b[34:]) == 0x504C {
		return "application/vnd.ms-fontobject", nil
	}
	return "", formatErrorf("", "unknown font format: %w", ErrInvalidMarker)
}

// ToSFNT converts a WOFF, WOFF2 or EOT font file to an sfnt font file (TTF or OTF). sfnt files and collections are returned as is.
func ToSFNT(b []byte) ([]byte, error) {
	mediatype, err := MediaType(b)
	if err != nil {
		return nil, err
	}
	switch mediatype {
	case "font/woff":
		return ParseWOFF(b)
	case "font/woff2":
		return ParseWOFF2(b)
	case "application/vnd.ms-fontobject":
		return ParseEOT(b)
	}
	return b, nil
}
