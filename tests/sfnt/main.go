//go:build gofuzz
// +build gofuzz

package fuzz

import (
	"io"

	"github.com/tdewolff/opentype"
)

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	fonts, err := opentype.ParseFonts(data)
	if err != nil {
		return 0
	}

	var d opentype.Decoder
	for _, f := range fonts {
		_ = f.Name(opentype.NameFontFamily)
		for _, r := range "Aa0 é中" {
			_ = f.GlyphIndex(r)
		}
		for glyphID := 0; glyphID < int(f.NumGlyphs()) && glyphID < 64; glyphID++ {
			_ = f.AdvanceWidth(uint16(glyphID))
			_ = f.Kerning(uint16(glyphID), 1)
			if ok, err := d.Setup(f, 12.0, uint16(glyphID)); err != nil || !ok {
				continue
			}
			for {
				if _, err := d.Move(); err == io.EOF {
					break
				} else if err != nil {
					return 0
				}
			}
		}
	}
	return 1
}
