package main

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"unicode"

	"github.com/tdewolff/opentype"
	"github.com/tdewolff/prompt"
)

func printableRune(r rune) string {
	if unicode.IsGraphic(r) {
		return fmt.Sprintf("%c", r)
	} else if r < 128 {
		return fmt.Sprintf("0x%02X", r)
	}
	return fmt.Sprintf("%U", r)
}

func printASCII(img image.Image) {
	palette := []byte("$@B%8&WM#*oahkbdpqwmZO0QLCJUYXzcvunxrjft/\\|()1{}[]?-_+~<>i!lI;:,\"^`'. ")

	size := img.Bounds().Max
	for j := 0; j < size.Y; j++ {
		for i := 0; i < size.X; i++ {
			r, g, b, _ := img.At(i, j).RGBA()
			y, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(b>>8))
			idx := int(float64(y)/255.0*float64(len(palette)-1) + 0.5)
			fmt.Print(string(palette[idx]))
		}
		fmt.Print("\n")
	}
}

func formatBytes(size uint64) string {
	if size < 10 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}
	scale := int(math.Floor((math.Log10(float64(size)) + math.Log10(2.0)) / 3.0))
	value := float64(size) / math.Pow10(scale*3.0)
	format := "%.0f %s"
	if value < 10.0 {
		format = "%.1f %s"
	}
	return fmt.Sprintf(format, value, units[scale])
}

// readFont reads a font file or stdin if filename is "-". It returns the font, the sfnt data, the media type and size of the input.
func readFont(filename string, index int) (*opentype.Font, []byte, string, int, error) {
	var err error
	var r *os.File
	if filename == "-" {
		r = os.Stdin
	} else if r, err = os.Open(filename); err != nil {
		return nil, nil, "", 0, err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		r.Close()
		return nil, nil, "", 0, err
	} else if err := r.Close(); err != nil {
		return nil, nil, "", 0, err
	}

	n := len(b)
	mimetype, _ := opentype.MediaType(b)
	if b, err = opentype.ToSFNT(b); err != nil {
		return nil, nil, "", 0, err
	}

	f, err := opentype.ParseFont(b, index)
	if err != nil {
		return nil, nil, "", 0, err
	}
	return f, b, mimetype, n, nil
}

// glyphID returns the glyph of a character if set, or else the glyph ID.
func glyphID(f *opentype.Font, char string, id uint16) (uint16, error) {
	if char == "" {
		if f.NumGlyphs() <= id {
			return 0, fmt.Errorf("glyph ID %d out of range, font has %d glyphs", id, f.NumGlyphs())
		}
		return id, nil
	}
	rs := []rune(char)
	if len(rs) != 1 {
		return 0, fmt.Errorf("expected a single character: %q", char)
	}
	id = f.GlyphIndex(rs[0])
	if id == 0 {
		Warning.Printf("font has no glyph for %s\n", printableRune(rs[0]))
	}
	return id, nil
}

func writeFile(filename string, force bool, b []byte) error {
	var err error
	var w io.WriteCloser
	if filename == "-" {
		w = os.Stdout
	} else {
		if _, err := os.Stat(filename); err == nil {
			if !force && !prompt.YesNo(fmt.Sprintf("%s already exists, overwrite?", filename), false) {
				return fmt.Errorf("file already exists")
			}
		}
		if w, err = os.Create(filename); err != nil {
			return err
		}
	}

	if _, err := w.Write(b); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
