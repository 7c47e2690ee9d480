package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"

	"github.com/tdewolff/opentype"
	"golang.org/x/image/vector"
)

type Draw struct {
	Index   int     `short:"i" desc:"Font index for font collections"`
	GlyphID uint16  `short:"g" name:"glyph" desc:"Glyph ID"`
	Char    string  `short:"c" desc:"Unicode character"`
	Size    float64 `short:"s" desc:"Size in pixels per em, 40 if not set"`
	Force   bool    `short:"f" desc:"Force overwriting existing files"`
	Output  string  `short:"o" desc:"Output PNG file, prints to terminal if not set"`
	Input   string  `index:"0" desc:"Input file"`
}

// rasterizer flips the y-axis of glyph outlines to image coordinates.
type rasterizer struct {
	*vector.Rasterizer
	height float64
}

func (r rasterizer) MoveTo(x, y float64) {
	r.Rasterizer.MoveTo(float32(x), float32(r.height-y))
}

func (r rasterizer) LineTo(x, y float64) {
	r.Rasterizer.LineTo(float32(x), float32(r.height-y))
}

func (r rasterizer) QuadTo(cpx, cpy, x, y float64) {
	r.Rasterizer.QuadTo(float32(cpx), float32(r.height-cpy), float32(x), float32(r.height-y))
}

func (r rasterizer) CubeTo(cpx1, cpy1, cpx2, cpy2, x, y float64) {
	r.Rasterizer.CubeTo(float32(cpx1), float32(r.height-cpy1), float32(cpx2), float32(r.height-cpy2), float32(x), float32(r.height-y))
}

func (r rasterizer) Close() {
	r.Rasterizer.ClosePath()
}

func (cmd *Draw) Run() error {
	if cmd.Size == 0 {
		cmd.Size = 40.0
	} else if cmd.Size < 0 || 10000 < cmd.Size {
		return fmt.Errorf("invalid size: %v", cmd.Size)
	}

	f, _, _, _, err := readFont(cmd.Input, cmd.Index)
	if err != nil {
		return fmt.Errorf("%v: %w", cmd.Input, err)
	}
	id, err := glyphID(f, cmd.Char, cmd.GlyphID)
	if err != nil {
		return err
	}

	img, err := rasterize(f, id, cmd.Size)
	if err != nil {
		return err
	}

	if cmd.Output == "" {
		printASCII(img)
		return nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return writeFile(cmd.Output, cmd.Force, buf.Bytes())
}

// rasterize draws a glyph in black on white with a margin of one pixel.
func rasterize(f *opentype.Font, glyphID uint16, size float64) (*image.Gray, error) {
	bounds, ok, err := f.GlyphBounds(glyphID)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("glyph %d has no outline", glyphID)
	}

	scale := size / float64(f.UnitsPerEm())
	x0 := math.Floor(bounds.XMin*scale) - 1.0
	y0 := math.Floor(bounds.YMin*scale) - 1.0
	w := int(math.Ceil(bounds.XMax*scale)-x0) + 1
	h := int(math.Ceil(bounds.YMax*scale)-y0) + 1

	r := rasterizer{vector.NewRasterizer(w, h), float64(h)}
	if err := f.GlyphPath(r, glyphID, size, -x0, -y0); err != nil {
		return nil, err
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	img := image.NewGray(mask.Bounds())
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.DrawMask(img, img.Bounds(), image.Black, image.Point{}, mask, image.Point{}, draw.Over)
	return img, nil
}
