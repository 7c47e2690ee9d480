package opentype

import (
	"fmt"
	"io"
)

// PathOp is the kind of a path command.
type PathOp uint8

// see PathOp
const (
	MoveTo PathOp = iota + 1
	LineTo
	QuadTo
	CubeTo
)

func (op PathOp) String() string {
	switch op {
	case MoveTo:
		return "MoveTo"
	case LineTo:
		return "LineTo"
	case QuadTo:
		return "QuadTo"
	case CubeTo:
		return "CubeTo"
	}
	return fmt.Sprintf("PathOp(%d)", uint8(op))
}

// PathCommand is a single outline segment in pixel coordinates with the y-axis pointing up. QuadTo uses the first control point, CubeTo both.
type PathCommand struct {
	Op       PathOp
	X, Y     float64
	CX1, CY1 float64
	CX2, CY2 float64
}

func (cmd PathCommand) String() string {
	switch cmd.Op {
	case QuadTo:
		return fmt.Sprintf("%v(%g,%g %g,%g)", cmd.Op, cmd.CX1, cmd.CY1, cmd.X, cmd.Y)
	case CubeTo:
		return fmt.Sprintf("%v(%g,%g %g,%g %g,%g)", cmd.Op, cmd.CX1, cmd.CY1, cmd.CX2, cmd.CY2, cmd.X, cmd.Y)
	}
	return fmt.Sprintf("%v(%g,%g)", cmd.Op, cmd.X, cmd.Y)
}

// Draw passes the command to a Pather, translated by (x,y).
func (cmd PathCommand) Draw(p Pather, x, y float64) {
	switch cmd.Op {
	case MoveTo:
		p.MoveTo(x+cmd.X, y+cmd.Y)
	case LineTo:
		p.LineTo(x+cmd.X, y+cmd.Y)
	case QuadTo:
		p.QuadTo(x+cmd.CX1, y+cmd.CY1, x+cmd.X, y+cmd.Y)
	case CubeTo:
		p.CubeTo(x+cmd.CX1, y+cmd.CY1, x+cmd.CX2, y+cmd.CY2, x+cmd.X, y+cmd.Y)
	}
}

// Pather is an interface to append a glyph's path to.
type Pather interface {
	MoveTo(float64, float64)
	LineTo(float64, float64)
	QuadTo(float64, float64, float64, float64)
	CubeTo(float64, float64, float64, float64, float64, float64)
	Close()
}

// Rect is a bounding box.
type Rect struct {
	XMin, YMin, XMax, YMax float64
}

// Decoder yields the outline of a glyph as a sequence of path commands. It works for both TrueType and CFF outlines and can be reused for many glyphs, but is not safe for concurrent use.
type Decoder struct {
	kind   OutlineKind
	ready  bool
	scale  float64
	bounds Rect

	cff  cffDecoder
	glyf glyfDecoder
}

// Setup prepares the decoder for a glyph at a size in pixels per em. It decodes the complete outline once to compute its bounds. It returns false if the glyph has no outline.
func (d *Decoder) Setup(f *Font, pixelSize float64, glyphID uint16) (bool, error) {
	d.ready = false
	d.bounds = Rect{}
	if f.numGlyphs <= glyphID {
		return false, formatErrorf("", "bad glyph %d: %w", glyphID, ErrOutOfRange)
	}

	d.kind = f.outlines
	d.scale = pixelSize / float64(f.unitsPerEm)
	var err error
	if d.kind == CFFOutlines {
		err = d.cff.setup(f, d.scale, glyphID)
	} else {
		err = d.glyf.setup(f, d.scale, glyphID)
	}
	if err != nil {
		return false, err
	}

	bbox := newBBoxPather()
	moved := false
	for {
		cmd, ok, err := d.next()
		if err != nil {
			return false, err
		} else if !ok {
			break
		}
		moved = moved || cmd.Op == MoveTo
		cmd.Draw(bbox, 0.0, 0.0)
	}
	d.rewind()
	if !moved {
		return false, nil
	}
	d.bounds = bbox.Rect
	d.ready = true
	return true, nil
}

func (d *Decoder) next() (PathCommand, bool, error) {
	if d.kind == CFFOutlines {
		return d.cff.next()
	}
	return d.glyf.next()
}

func (d *Decoder) rewind() {
	if d.kind == CFFOutlines {
		d.cff.rewind()
	} else {
		d.glyf.rewind()
	}
}

// Move returns the next path command, or io.EOF after the last one. It returns ErrInvalidOperation if Setup did not succeed.
func (d *Decoder) Move() (PathCommand, error) {
	if !d.ready {
		return PathCommand{}, ErrInvalidOperation
	}
	cmd, ok, err := d.next()
	if err != nil {
		return PathCommand{}, err
	} else if !ok {
		return PathCommand{}, io.EOF
	}
	return cmd, nil
}

// Rewind restarts the command sequence of the current glyph.
func (d *Decoder) Rewind() {
	if d.ready {
		d.rewind()
	}
}

// Bounds returns the bounding box of the glyph in pixels, including control points.
func (d *Decoder) Bounds() Rect {
	return d.bounds
}

// Scale returns the number of pixels per font unit.
func (d *Decoder) Scale() float64 {
	return d.scale
}

// GlyphPath draws the outline of a glyph at a size in pixels per em with its origin at (x,y). Every contour is closed.
func (f *Font) GlyphPath(p Pather, glyphID uint16, size, x, y float64) error {
	var d Decoder
	if ok, err := d.Setup(f, size, glyphID); err != nil || !ok {
		return err
	}
	first := true
	for {
		cmd, err := d.Move()
		if err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		if cmd.Op == MoveTo && !first {
			p.Close()
		}
		cmd.Draw(p, x, y)
		first = false
	}
	p.Close()
	return nil
}

// GlyphBounds returns the bounding box of a glyph in font units. It returns false if the glyph has no outline.
func (f *Font) GlyphBounds(glyphID uint16) (Rect, bool, error) {
	var d Decoder
	ok, err := d.Setup(f, float64(f.unitsPerEm), glyphID)
	return d.Bounds(), ok, err
}
