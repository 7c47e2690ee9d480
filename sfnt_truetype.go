package opentype

import "math"

const (
	maxCompositeDepth  = 8
	maxGlyphPoints     = 1 << 16
	maxGlyphComponents = 1 << 12 // decoded components over all nesting levels
)

// composite glyph flags
const (
	glyfArgsAreWords   = 0x0001
	glyfArgsAreXY      = 0x0002
	glyfHaveScale      = 0x0008
	glyfMoreComponents = 0x0020
	glyfHaveXYScale    = 0x0040
	glyfHaveTwoByTwo   = 0x0080
)

// simple glyph point flags
const (
	glyfFlagOnCurve         = 0x01
	glyfFlagXShort          = 0x02
	glyfFlagYShort          = 0x04
	glyfFlagRepeat          = 0x08
	glyfFlagXSameOrPositive = 0x10
	glyfFlagYSameOrPositive = 0x20
)

func (f *Font) parseLoca() error {
	var length uint32
	switch f.locaFormat {
	case 0:
		length = 2 * (uint32(f.numGlyphs) + 1)
	case 1:
		length = 4 * (uint32(f.numGlyphs) + 1)
	default:
		return formatErrorf("head", "bad indexToLocFormat %d: %w", f.locaFormat, ErrInvalidFontData)
	}
	if f.loca.Len() < length {
		return formatErrorf("loca", "bad table: %w", ErrInvalidFontData)
	}
	return nil
}

func (f *Font) locaOffset(glyphID uint32) uint32 {
	if f.locaFormat == 0 {
		return 2 * uint32(f.loca.u16(2*glyphID))
	}
	v, _ := f.loca.Uint32(4 * glyphID)
	return v
}

// glyphData returns the glyf entry of a glyph, which is empty for glyphs without outline.
func (f *Font) glyphData(glyphID uint16) (DataBlock, error) {
	if f.numGlyphs <= glyphID {
		return DataBlock{}, formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrOutOfRange)
	}
	start, end := f.locaOffset(uint32(glyphID)), f.locaOffset(uint32(glyphID)+1)
	if end < start {
		return DataBlock{}, formatErrorf("loca", "bad offsets for glyph %d: %w", glyphID, ErrInvalidFontData)
	}
	data, err := f.glyf.Sub(start, end-start)
	if err != nil {
		return DataBlock{}, formatErrorf("glyf", "bad offsets for glyph %d: %w", glyphID, ErrInvalidFontData)
	}
	return data, nil
}

type glyfPoint struct {
	X, Y float64
	On   bool
}

// glyfDecoder flattens a glyph, including its components, into contours and emits their path commands one contour at a time.
type glyfDecoder struct {
	font  *Font
	scale float64

	points []glyfPoint
	ends   []int
	flags  []byte

	components int

	contour int
	queue   []PathCommand
	queued  int
}

func (d *glyfDecoder) setup(f *Font, scale float64, glyphID uint16) error {
	d.font = f
	d.scale = scale
	d.points = d.points[:0]
	d.ends = d.ends[:0]
	d.components = 0
	if err := d.decode(glyphID, 0); err != nil {
		return err
	}
	d.rewind()
	return nil
}

func (d *glyfDecoder) rewind() {
	d.contour = 0
	d.queue = d.queue[:0]
	d.queued = 0
}

// next returns the next path command, it returns false after the final command.
func (d *glyfDecoder) next() (PathCommand, bool, error) {
	for d.queued == len(d.queue) {
		if d.contour == len(d.ends) {
			return PathCommand{}, false, nil
		}
		d.queue = d.queue[:0]
		d.queued = 0
		start := 0
		if 0 < d.contour {
			start = d.ends[d.contour-1]
		}
		d.emitContour(d.points[start:d.ends[d.contour]])
		d.contour++
	}
	cmd := d.queue[d.queued]
	d.queued++
	return cmd, true, nil
}

func (d *glyfDecoder) decode(glyphID uint16, depth int) error {
	data, err := d.font.glyphData(glyphID)
	if err != nil {
		return err
	} else if data.Len() == 0 {
		return nil
	} else if data.Len() < 10 {
		return formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrInvalidFontData)
	}

	numberOfContours := data.i16(0)
	if 0 < numberOfContours {
		return d.decodeSimple(data, glyphID, int(numberOfContours))
	} else if numberOfContours < 0 {
		return d.decodeComposite(data, glyphID, depth)
	}
	return nil
}

func (d *glyfDecoder) decodeSimple(data DataBlock, glyphID uint16, numberOfContours int) error {
	r := data.Reader(10)
	if r.Len() < 2*int64(numberOfContours)+2 {
		return formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrOutOfRange)
	}
	base := len(d.points)
	prevEnd := -1
	for i := 0; i < numberOfContours; i++ {
		end := int(r.ReadUint16())
		if end <= prevEnd && 0 < i {
			return formatErrorf("glyf", "bad contour end points of glyph %d: %w", glyphID, ErrInvalidFontData)
		}
		d.ends = append(d.ends, base+end+1)
		prevEnd = end
	}
	numPoints := prevEnd + 1
	if maxGlyphPoints < base+numPoints {
		return formatErrorf("glyf", "too many points in glyph %d: %w", glyphID, ErrInvalidFontData)
	}

	instructionLength := r.ReadUint16()
	if r.Len() < int64(instructionLength) {
		return formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrOutOfRange)
	}
	_ = r.ReadBytes(int64(instructionLength))

	if cap(d.flags) < numPoints {
		d.flags = make([]byte, numPoints)
	}
	flags := d.flags[:numPoints]
	var xLength, yLength int64
	for i := 0; i < numPoints; {
		if r.Len() < 1 {
			return formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrOutOfRange)
		}
		flag := r.ReadUint8()
		repeat := 0
		if flag&glyfFlagRepeat != 0 {
			if r.Len() < 1 {
				return formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrOutOfRange)
			}
			repeat = int(r.ReadUint8())
		}
		for ; i < numPoints && 0 <= repeat; repeat-- {
			flags[i] = flag
			xLength += glyfCoordinateLength(flag, glyfFlagXShort, glyfFlagXSameOrPositive)
			yLength += glyfCoordinateLength(flag, glyfFlagYShort, glyfFlagYSameOrPositive)
			i++
		}
	}
	if r.Len() < xLength+yLength {
		return formatErrorf("glyf", "bad glyph %d: %w", glyphID, ErrOutOfRange)
	}

	var x, y int16
	for i := 0; i < numPoints; i++ {
		if flags[i]&glyfFlagXShort != 0 {
			dx := int16(r.ReadUint8())
			if flags[i]&glyfFlagXSameOrPositive == 0 {
				x -= dx
			} else {
				x += dx
			}
		} else if flags[i]&glyfFlagXSameOrPositive == 0 {
			x += r.ReadInt16()
		}
		d.points = append(d.points, glyfPoint{X: float64(x), On: flags[i]&glyfFlagOnCurve != 0})
	}
	for i := 0; i < numPoints; i++ {
		if flags[i]&glyfFlagYShort != 0 {
			dy := int16(r.ReadUint8())
			if flags[i]&glyfFlagYSameOrPositive == 0 {
				y -= dy
			} else {
				y += dy
			}
		} else if flags[i]&glyfFlagYSameOrPositive == 0 {
			y += r.ReadInt16()
		}
		d.points[base+i].Y = float64(y)
	}
	return nil
}

// glyfCoordinateLength returns the number of bytes of a point's x or y coordinate.
func glyfCoordinateLength(flag, short, same byte) int64 {
	if flag&short != 0 {
		return 1
	} else if flag&same == 0 {
		return 2
	}
	return 0
}

func f2dot14(v int16) float64 {
	return float64(v) / 16384.0
}

// glyfComponentLength returns the length of a component record after its flags.
func glyfComponentLength(flags uint16) int64 {
	length := int64(2 + 2)
	if flags&glyfArgsAreWords != 0 {
		length += 2
	}
	if flags&glyfHaveScale != 0 {
		length += 2
	} else if flags&glyfHaveXYScale != 0 {
		length += 4
	} else if flags&glyfHaveTwoByTwo != 0 {
		length += 8
	}
	return length
}

func (d *glyfDecoder) decodeComposite(data DataBlock, glyphID uint16, depth int) error {
	if maxCompositeDepth <= depth {
		return formatErrorf("glyf", "glyph %d: %w", glyphID, ErrCompositeDepth)
	}

	base := len(d.points)
	r := data.Reader(10)
	for {
		if r.Len() < 2 {
			return formatErrorf("glyf", "bad composite glyph %d: %w", glyphID, ErrOutOfRange)
		}
		flags := r.ReadUint16()
		if r.Len() < glyfComponentLength(flags) {
			return formatErrorf("glyf", "bad composite glyph %d: %w", glyphID, ErrOutOfRange)
		}
		component := r.ReadUint16()
		var arg1, arg2 int32
		if flags&glyfArgsAreWords != 0 {
			if flags&glyfArgsAreXY != 0 {
				arg1, arg2 = int32(r.ReadInt16()), int32(r.ReadInt16())
			} else {
				arg1, arg2 = int32(r.ReadUint16()), int32(r.ReadUint16())
			}
		} else {
			if flags&glyfArgsAreXY != 0 {
				arg1, arg2 = int32(r.ReadInt8()), int32(r.ReadInt8())
			} else {
				arg1, arg2 = int32(r.ReadUint8()), int32(r.ReadUint8())
			}
		}

		// x' = xx*x + yx*y and y' = xy*x + yy*y
		xx, xy, yx, yy := 1.0, 0.0, 0.0, 1.0
		if flags&glyfHaveScale != 0 {
			xx = f2dot14(r.ReadInt16())
			yy = xx
		} else if flags&glyfHaveXYScale != 0 {
			xx = f2dot14(r.ReadInt16())
			yy = f2dot14(r.ReadInt16())
		} else if flags&glyfHaveTwoByTwo != 0 {
			xx = f2dot14(r.ReadInt16())
			xy = f2dot14(r.ReadInt16())
			yx = f2dot14(r.ReadInt16())
			yy = f2dot14(r.ReadInt16())
		}

		d.components++
		if maxGlyphComponents < d.components {
			return formatErrorf("glyf", "glyph %d: %w", glyphID, ErrComponentCount)
		}
		start := len(d.points)
		if err := d.decode(component, depth+1); err != nil {
			return err
		}
		for i := start; i < len(d.points); i++ {
			p := &d.points[i]
			p.X, p.Y = xx*p.X+yx*p.Y, xy*p.X+yy*p.Y
		}

		var dx, dy float64
		if flags&glyfArgsAreXY != 0 {
			// offsets are scaled by the lengths of the transformed axes
			dx = float64(arg1) * math.Hypot(xx, xy)
			dy = float64(arg2) * math.Hypot(yx, yy)
		} else {
			// align point arg1 of the composite so far with point arg2 of the component
			parent, child := base+int(arg1), start+int(arg2)
			if start <= parent || len(d.points) <= child {
				return formatErrorf("glyf", "bad matching points of composite glyph %d: %w", glyphID, ErrInvalidFontData)
			}
			dx = d.points[parent].X - d.points[child].X
			dy = d.points[parent].Y - d.points[child].Y
		}
		for i := start; i < len(d.points); i++ {
			d.points[i].X += dx
			d.points[i].Y += dy
		}

		if flags&glyfMoreComponents == 0 {
			break
		}
	}
	return nil
}

func midpoint(a, b glyfPoint) glyfPoint {
	return glyfPoint{X: (a.X + b.X) / 2.0, Y: (a.Y + b.Y) / 2.0, On: true}
}

// emitContour converts a contour of quadratic B-splines to path commands. Two consecutive off-curve points imply an on-curve point at their midpoint.
func (d *glyfDecoder) emitContour(points []glyfPoint) {
	n := len(points)
	if n == 0 {
		return
	}

	var start glyfPoint
	first := 0
	if points[0].On {
		start, first = points[0], 1
	} else if points[n-1].On {
		start, n = points[n-1], n-1
	} else {
		start = midpoint(points[n-1], points[0])
	}
	d.push(MoveTo, glyfPoint{}, start)

	cur := start
	var ctrl glyfPoint
	hasCtrl := false
	for _, p := range points[first:n] {
		if p.On {
			if hasCtrl {
				d.push(QuadTo, ctrl, p)
				hasCtrl = false
			} else {
				d.push(LineTo, glyfPoint{}, p)
			}
			cur = p
		} else {
			if hasCtrl {
				mid := midpoint(ctrl, p)
				d.push(QuadTo, ctrl, mid)
				cur = mid
			}
			ctrl, hasCtrl = p, true
		}
	}
	if hasCtrl {
		d.push(QuadTo, ctrl, start)
	} else if cur.X != start.X || cur.Y != start.Y {
		d.push(LineTo, glyfPoint{}, start)
	}
}

func (d *glyfDecoder) push(op PathOp, ctrl, p glyfPoint) {
	cmd := PathCommand{Op: op, X: p.X * d.scale, Y: p.Y * d.scale}
	if op == QuadTo {
		cmd.CX1, cmd.CY1 = ctrl.X*d.scale, ctrl.Y*d.scale
	}
	d.queue = append(d.queue, cmd)
}
