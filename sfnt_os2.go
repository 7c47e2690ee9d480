package opentype

// Weight classes of the OS/2 table.
const (
	WeightThin       = 100
	WeightExtraLight = 200
	WeightLight      = 300
	WeightNormal     = 400
	WeightMedium     = 500
	WeightSemiBold   = 600
	WeightBold       = 700
	WeightExtraBold  = 800
	WeightBlack      = 900
)

// Width classes of the OS/2 table.
const (
	WidthUltraCondensed = 1
	WidthExtraCondensed = 2
	WidthCondensed      = 3
	WidthSemiCondensed  = 4
	WidthNormal         = 5
	WidthSemiExpanded   = 6
	WidthExpanded       = 7
	WidthExtraExpanded  = 8
	WidthUltraExpanded  = 9
)

// FsSelection flags of the OS/2 table.
const (
	FsSelectionItalic  = 0x0001
	FsSelectionBold    = 0x0020
	FsSelectionRegular = 0x0040
	FsSelectionOblique = 0x0200
)

// MacStyle flags of the head table.
const (
	MacStyleBold   = 0x0001
	MacStyleItalic = 0x0002
)

// ProportionMonospaced is the PANOSE bProportion value of monospaced fonts.
const ProportionMonospaced = 9

func (f *Font) parseOS2() error {
	if f.hasOS2 && f.os2.Len() < 64 {
		return formatErrorf("OS/2", "bad table: %w", ErrInvalidFontData)
	}
	return nil
}

// HasOS2 returns true if the font has an OS/2 table.
func (f *Font) HasOS2() bool {
	return f.hasOS2
}

// WeightClass returns usWeightClass of the OS/2 table, or WeightNormal if absent.
func (f *Font) WeightClass() uint16 {
	if !f.hasOS2 {
		return WeightNormal
	}
	return f.os2.u16(4)
}

// WidthClass returns usWidthClass of the OS/2 table, or WidthNormal if absent.
func (f *Font) WidthClass() uint16 {
	if !f.hasOS2 {
		return WidthNormal
	}
	return f.os2.u16(6)
}

// Proportion returns the PANOSE bProportion value of the OS/2 table.
func (f *Font) Proportion() uint8 {
	if !f.hasOS2 {
		return 0
	}
	v, _ := f.os2.Uint8(35)
	return v
}

// FsSelection returns the fsSelection flags of the OS/2 table.
func (f *Font) FsSelection() uint16 {
	if !f.hasOS2 {
		return 0
	}
	return f.os2.u16(62)
}

// IsMonospaced returns true if the PANOSE proportion marks the font as monospaced.
func (f *Font) IsMonospaced() bool {
	return f.Proportion() == ProportionMonospaced
}

// IsItalic returns true if either the OS/2 or the head table flag the font as italic.
func (f *Font) IsItalic() bool {
	return f.FsSelection()&FsSelectionItalic != 0 || f.MacStyle()&MacStyleItalic != 0
}
