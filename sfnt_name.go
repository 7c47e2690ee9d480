package opentype

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PlatformID is the platform of a name or cmap record.
type PlatformID uint16

// see PlatformID
const (
	PlatformUnicode   PlatformID = 0
	PlatformMacintosh PlatformID = 1
	PlatformISO       PlatformID = 2 // deprecated, read as PlatformUnicode
	PlatformWindows   PlatformID = 3
	PlatformCustom    PlatformID = 4
)

func (platform PlatformID) String() string {
	switch platform {
	case PlatformUnicode:
		return "Unicode"
	case PlatformMacintosh:
		return "Macintosh"
	case PlatformISO:
		return "ISO"
	case PlatformWindows:
		return "Windows"
	case PlatformCustom:
		return "Custom"
	}
	return "Unknown"
}

// NameID identifies the meaning of a name record.
type NameID uint16

// see NameID
const (
	NameCopyrightNotice      NameID = 0
	NameFontFamily           NameID = 1
	NameFontSubfamily        NameID = 2
	NameUniqueIdentifier     NameID = 3
	NameFull                 NameID = 4
	NameVersion              NameID = 5
	NamePostScript           NameID = 6
	NameTrademark            NameID = 7
	NameManufacturer         NameID = 8
	NameDesigner             NameID = 9
	NameDescription          NameID = 10
	NameVendorURL            NameID = 11
	NameDesignerURL          NameID = 12
	NameLicense              NameID = 13
	NameLicenseURL           NameID = 14
	NameTypographicFamily    NameID = 16
	NameTypographicSubfamily NameID = 17
	NameCompatibleFull       NameID = 18
	NameSampleText           NameID = 19
	NameWWSFamily            NameID = 21
	NameWWSSubfamily         NameID = 22
)

// Language and encoding IDs for English records.
const (
	LanguageWindowsEnglishUS = 0x0409
	LanguageMacintoshEnglish = 0
	EncodingMacintoshRoman   = 0
)

const (
	nameHeaderSize = 6
	nameRecordSize = 12
)

// NameRecord is a string of the name table. Value refers to the font buffer.
type NameRecord struct {
	Platform PlatformID
	Encoding uint16
	Language uint16
	Name     NameID
	Value    []byte
}

// String decodes the record as UTF-16BE for the Unicode and Windows platforms, and as Mac Roman for Macintosh Roman.
func (record NameRecord) String() string {
	var decoder *encoding.Decoder
	if record.Platform == PlatformUnicode || record.Platform == PlatformWindows {
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	} else if record.Platform == PlatformMacintosh && record.Encoding == EncodingMacintoshRoman {
		decoder = charmap.Macintosh.NewDecoder()
	} else {
		return string(record.Value)
	}
	s, _, err := transform.String(decoder, string(record.Value))
	if err == nil {
		return s
	}
	return string(record.Value)
}

// NameRecords returns all records of the name table.
func (f *Font) NameRecords() ([]NameRecord, error) {
	count, err := f.name.Uint16(2)
	if err != nil {
		return nil, err
	}
	storageOffset, err := f.name.Uint16(4)
	if err != nil {
		return nil, err
	}
	storage, err := f.name.From(uint32(storageOffset))
	if err != nil {
		return nil, formatErrorf("name", "bad storageOffset: %w", ErrInvalidFontData)
	}

	records := make([]NameRecord, 0, count)
	for i := uint32(0); i < uint32(count); i++ {
		entry, err := f.name.Sub(nameHeaderSize+nameRecordSize*i, nameRecordSize)
		if err != nil {
			return nil, err
		}
		platform := PlatformID(entry.u16(0))
		if platform == PlatformISO {
			platform = PlatformUnicode
		}
		length, offset := entry.u16(8), entry.u16(10)
		value, err := storage.Bytes(uint32(offset), uint32(length))
		if err != nil {
			return nil, formatErrorf("name", "bad record %d: %w", i, ErrInvalidFontData)
		}
		records = append(records, NameRecord{
			Platform: platform,
			Encoding: entry.u16(2),
			Language: entry.u16(4),
			Name:     NameID(entry.u16(6)),
			Value:    value,
		})
	}
	return records, nil
}

// Name returns the English (US) string for the name ID, preferring the Windows platform, then Unicode, then Macintosh. It returns an empty string if none exists.
func (f *Font) Name(id NameID) string {
	records, err := f.NameRecords()
	if err != nil {
		return ""
	}
	if record, ok := EnglishName(records, id); ok {
		return record.String()
	}
	return ""
}

// EnglishName selects the English (US) record for the name ID.
func EnglishName(records []NameRecord, id NameID) (NameRecord, bool) {
	var unicodeRecord, macRecord *NameRecord
	for i, record := range records {
		if record.Name != id {
			continue
		}
		switch record.Platform {
		case PlatformWindows:
			if record.Language == LanguageWindowsEnglishUS {
				return record, true
			}
		case PlatformUnicode:
			if unicodeRecord == nil {
				unicodeRecord = &records[i]
			}
		case PlatformMacintosh:
			if macRecord == nil && record.Language == LanguageMacintoshEnglish {
				macRecord = &records[i]
			}
		}
	}
	if unicodeRecord != nil {
		return *unicodeRecord, true
	} else if macRecord != nil {
		return *macRecord, true
	}
	return NameRecord{}, false
}
