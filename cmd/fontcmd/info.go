package main

import (
	"encoding/hex"
	"fmt"
	"math"
	"os"

	"github.com/tdewolff/opentype"
)

type Info struct {
	Index   int    `short:"i" desc:"Font index for font collections"`
	Table   string `short:"t" desc:"OpenType table name, prints its raw data"`
	GlyphID uint16 `short:"g" name:"glyph" desc:"Glyph ID"`
	Char    string `short:"c" desc:"Unicode character"`
	Input   string `index:"0" desc:"Input file"`
}

var nameIDs = []opentype.NameID{
	opentype.NameFontFamily,
	opentype.NameFontSubfamily,
	opentype.NameFull,
	opentype.NameVersion,
	opentype.NamePostScript,
	opentype.NameManufacturer,
	opentype.NameDesigner,
	opentype.NameTypographicFamily,
	opentype.NameTypographicSubfamily,
	opentype.NameWWSFamily,
	opentype.NameWWSSubfamily,
}

var nameLabels = map[opentype.NameID]string{
	opentype.NameFontFamily:           "Family",
	opentype.NameFontSubfamily:        "Subfamily",
	opentype.NameFull:                 "Full name",
	opentype.NameVersion:              "Version",
	opentype.NamePostScript:           "PostScript name",
	opentype.NameManufacturer:         "Manufacturer",
	opentype.NameDesigner:             "Designer",
	opentype.NameTypographicFamily:    "Typographic family",
	opentype.NameTypographicSubfamily: "Typographic subfamily",
	opentype.NameWWSFamily:            "WWS family",
	opentype.NameWWSSubfamily:         "WWS subfamily",
}

func (cmd *Info) Run() error {
	f, b, mimetype, n, err := readFont(cmd.Input, cmd.Index)
	if err != nil {
		return fmt.Errorf("%v: %w", cmd.Input, err)
	}

	if cmd.Table != "" {
		for _, record := range f.Tables() {
			if record.Tag == cmd.Table || (len(cmd.Table) < 4 && record.Tag == fmt.Sprintf("%-4s", cmd.Table)) {
				if uint64(len(b)) < uint64(record.Offset)+uint64(record.Length) {
					return fmt.Errorf("table %s out of range", record.Tag)
				}
				fmt.Print(hex.Dump(b[record.Offset : record.Offset+record.Length]))
				return nil
			}
		}
		return fmt.Errorf("table %s not found", cmd.Table)
	}

	numFonts, _ := opentype.NumFonts(b)
	fmt.Printf("File: %s\n", cmd.Input)
	fmt.Printf("Type: %s (%s)\n", mimetype, formatBytes(uint64(n)))
	if 1 < numFonts {
		fmt.Printf("Font: %d of %d\n", f.Index()+1, numFonts)
	}
	fmt.Printf("\nsfntVersion: %q (%v outlines)\n", f.Version(), f.Outlines())
	fmt.Printf("\nTable directory:\n")
	nLen := int(math.Log10(float64(len(b))) + 1)
	for i, record := range f.Tables() {
		fmt.Printf("  %2d  %s  checksum=0x%08X  offset=%*d  length=%*d\n", i, record.Tag, record.Checksum, nLen, record.Offset, nLen, record.Length)
	}

	fmt.Printf("\nMetrics:\n")
	fmt.Printf("  Glyphs: %d\n", f.NumGlyphs())
	fmt.Printf("  Units per em: %d\n", f.UnitsPerEm())
	fmt.Printf("  Ascent: %d\n", f.Ascent())
	fmt.Printf("  Descent: %d\n", f.Descent())
	fmt.Printf("  Line gap: %d\n", f.LineGap())
	fmt.Printf("  Cmap format: %d\n", f.CmapFormat())
	if f.HasOS2() {
		fmt.Printf("  Weight class: %d\n", f.WeightClass())
		fmt.Printf("  Width class: %d\n", f.WidthClass())
		fmt.Printf("  fsSelection: 0x%04X\n", f.FsSelection())
	}
	fmt.Printf("  Monospaced: %v\n", f.IsMonospaced())
	fmt.Printf("  Italic: %v\n", f.IsItalic())

	fmt.Printf("\nNames:\n")
	for _, id := range nameIDs {
		if name := f.Name(id); name != "" {
			fmt.Printf("  %s: %s\n", nameLabels[id], name)
		}
	}

	if cmd.Char != "" || cmd.GlyphID != 0 {
		id, err := glyphID(f, cmd.Char, cmd.GlyphID)
		if err != nil {
			return err
		}
		fmt.Printf("\nGlyph %d:\n", id)
		fmt.Printf("  Advance width: %d\n", f.AdvanceWidth(id))
		fmt.Printf("  Left side bearing: %d\n", f.LeftSideBearing(id))
		bounds, ok, err := f.GlyphBounds(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  Outline: %v\n", err)
		} else if !ok {
			fmt.Printf("  Outline: empty\n")
		} else {
			fmt.Printf("  Bounds: (%g,%g)-(%g,%g)\n", bounds.XMin, bounds.YMin, bounds.XMax, bounds.YMax)
		}
	}
	return nil
}
