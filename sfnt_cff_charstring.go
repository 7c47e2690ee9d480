package opentype

import (
	"math"
)

const (
	cffMaxOperands   = 48
	cffMaxCallDepth  = 10
	cffMaxHints      = 96
	cffTransientSize = 32
)

type cffFrame struct {
	d   DataBlock
	pos uint32
}

// cffDecoder interprets a Type2 charstring one operator at a time. Operands are 16.16 fixed-point numbers and positions are kept in the same representation, so coordinates are only scaled when emitted.
type cffDecoder struct {
	scale       float64
	charString  DataBlock
	localSubrs  cffIndex
	globalSubrs cffIndex
	localBias   int32
	globalBias  int32

	cur       cffFrame
	calls     [cffMaxCallDepth]cffFrame
	depth     int
	stack     [cffMaxOperands]int32
	n         int
	transient [cffTransientSize]int32
	seed      uint32

	x, y           int32
	startX, startY int32
	hints          int
	seenWidth      bool
	ended          bool

	queue  []PathCommand
	queued int
}

func (d *cffDecoder) setup(f *Font, scale float64, glyphID uint16) error {
	cff := f.cff
	charString, err := cff.charStrings.Get(uint32(glyphID))
	if err != nil {
		return formatErrorf("CFF", "glyph %d: %w", glyphID, ErrBadIndex)
	}
	localSubrs, err := cff.subrs(glyphID)
	if err != nil {
		return err
	}

	d.scale = scale / 65536.0
	d.charString = charString
	d.localSubrs = localSubrs
	d.globalSubrs = cff.globalSubrs
	d.localBias = subrBias(localSubrs.Len())
	d.globalBias = subrBias(cff.globalSubrs.Len())
	d.rewind()
	return nil
}

func (d *cffDecoder) rewind() {
	d.cur = cffFrame{d.charString, 0}
	d.depth = 0
	d.n = 0
	d.transient = [cffTransientSize]int32{}
	d.seed = 0
	d.x, d.y = 0, 0
	d.startX, d.startY = 0, 0
	d.hints = 0
	d.seenWidth = false
	d.ended = false
	d.queue = d.queue[:0]
	d.queued = 0
}

// next returns the next path command, it returns false after the final command.
func (d *cffDecoder) next() (PathCommand, bool, error) {
	for d.queued == len(d.queue) {
		if d.ended {
			return PathCommand{}, false, nil
		}
		d.queue = d.queue[:0]
		d.queued = 0
		if err := d.step(); err != nil {
			d.ended = true
			return PathCommand{}, false, err
		}
	}
	cmd := d.queue[d.queued]
	d.queued++
	return cmd, true, nil
}

func (d *cffDecoder) point(x, y int32) (float64, float64) {
	return float64(x) * d.scale, float64(y) * d.scale
}

func (d *cffDecoder) moveTo(dx, dy int32) {
	d.closePath()
	d.x += dx
	d.y += dy
	d.startX, d.startY = d.x, d.y
	x, y := d.point(d.x, d.y)
	d.queue = append(d.queue, PathCommand{Op: MoveTo, X: x, Y: y})
}

func (d *cffDecoder) lineTo(dx, dy int32) {
	d.x += dx
	d.y += dy
	x, y := d.point(d.x, d.y)
	d.queue = append(d.queue, PathCommand{Op: LineTo, X: x, Y: y})
}

func (d *cffDecoder) cubeTo(dxa, dya, dxb, dyb, dxc, dyc int32) {
	xa, ya := d.x+dxa, d.y+dya
	xb, yb := xa+dxb, ya+dyb
	d.x, d.y = xb+dxc, yb+dyc
	cmd := PathCommand{Op: CubeTo}
	cmd.CX1, cmd.CY1 = d.point(xa, ya)
	cmd.CX2, cmd.CY2 = d.point(xb, yb)
	cmd.X, cmd.Y = d.point(d.x, d.y)
	d.queue = append(d.queue, cmd)
}

// closePath draws a line back to the start of the subpath if the current point is elsewhere. The current point is kept, since a following moveto is relative to it.
func (d *cffDecoder) closePath() {
	if d.x != d.startX || d.y != d.startY {
		x, y := d.point(d.startX, d.startY)
		d.queue = append(d.queue, PathCommand{Op: LineTo, X: x, Y: y})
	}
}

func (d *cffDecoder) push(v int32) error {
	if d.n == cffMaxOperands {
		return &InterpreterOverflowError{Table: "CFF", Err: ErrOperandStackOverflow}
	}
	d.stack[d.n] = v
	d.n++
	return nil
}

func (d *cffDecoder) pop() int32 {
	d.n--
	return d.stack[d.n]
}

func errOperands(name string) error {
	return formatErrorf("CFF", "%v: bad number of operands: %w", name, ErrInvalidFontData)
}

// step reads operands up to and including the next operator and executes it.
func (d *cffDecoder) step() error {
	for {
		b0, err := d.cur.d.Uint8(d.cur.pos)
		if err != nil {
			return formatErrorf("CFF", "charstring must end with endchar: %w", ErrInvalidFontData)
		}
		d.cur.pos++
		if b0 != 28 && b0 < 32 {
			return d.operator(b0)
		}
		v, err := d.readNumber(b0)
		if err != nil {
			return err
		} else if err := d.push(v); err != nil {
			return err
		}
	}
}

func (d *cffDecoder) readNumber(b0 uint8) (int32, error) {
	switch {
	case b0 == 28:
		v, err := d.cur.d.Int16(d.cur.pos)
		d.cur.pos += 2
		return int32(v) << 16, err
	case b0 <= 246:
		return (int32(b0) - 139) << 16, nil
	case b0 <= 250:
		b1, err := d.cur.d.Uint8(d.cur.pos)
		d.cur.pos++
		return ((int32(b0)-247)*256 + int32(b1) + 108) << 16, err
	case b0 <= 254:
		b1, err := d.cur.d.Uint8(d.cur.pos)
		d.cur.pos++
		return (-(int32(b0)-251)*256 - int32(b1) - 108) << 16, err
	}
	v, err := d.cur.d.Int32(d.cur.pos)
	d.cur.pos += 4
	return v, err
}

func (d *cffDecoder) operator(b0 uint8) error {
	op := int(b0)
	if b0 == 12 {
		b1, err := d.cur.d.Uint8(d.cur.pos)
		if err != nil {
			return formatErrorf("CFF", "charstring must end with endchar: %w", ErrInvalidFontData)
		}
		d.cur.pos++
		op = 0x100 | int(b1)
	}

	// the first stack-clearing operator may be preceded by the advance width
	switch op {
	case 1, 3, 4, 14, 18, 19, 20, 21, 22, 23:
		if !d.seenWidth {
			d.seenWidth = true
			hasWidth := d.n%2 == 1
			if op == 4 || op == 22 {
				hasWidth = !hasWidth
			}
			if hasWidth && 0 < d.n {
				copy(d.stack[:], d.stack[1:d.n])
				d.n--
			}
		}
	}

	args := d.stack[:d.n]
	switch op {
	case 21: // rmoveto
		if len(args) != 2 {
			return errOperands("rmoveto")
		}
		d.moveTo(args[0], args[1])
	case 22: // hmoveto
		if len(args) != 1 {
			return errOperands("hmoveto")
		}
		d.moveTo(args[0], 0)
	case 4: // vmoveto
		if len(args) != 1 {
			return errOperands("vmoveto")
		}
		d.moveTo(0, args[0])
	case 5: // rlineto
		if len(args) == 0 || len(args)%2 != 0 {
			return errOperands("rlineto")
		}
		for i := 0; i < len(args); i += 2 {
			d.lineTo(args[i], args[i+1])
		}
	case 6, 7: // hlineto, vlineto
		if len(args) == 0 {
			return errOperands("hlineto/vlineto")
		}
		vertical := op == 7
		for _, arg := range args {
			if vertical {
				d.lineTo(0, arg)
			} else {
				d.lineTo(arg, 0)
			}
			vertical = !vertical
		}
	case 8: // rrcurveto
		if len(args) == 0 || len(args)%6 != 0 {
			return errOperands("rrcurveto")
		}
		for i := 0; i < len(args); i += 6 {
			d.cubeTo(args[i], args[i+1], args[i+2], args[i+3], args[i+4], args[i+5])
		}
	case 26, 27: // vvcurveto, hhcurveto
		if len(args) < 4 || len(args)%4 != 0 && len(args)%4 != 1 {
			return errOperands("vvcurveto/hhcurveto")
		}
		var d1 int32
		if len(args)%4 == 1 {
			d1 = args[0]
			args = args[1:]
		}
		for i := 0; i < len(args); i += 4 {
			if op == 26 {
				d.cubeTo(d1, args[i], args[i+1], args[i+2], 0, args[i+3])
			} else {
				d.cubeTo(args[i], d1, args[i+1], args[i+2], args[i+3], 0)
			}
			d1 = 0
		}
	case 30, 31: // vhcurveto, hvcurveto
		if len(args) < 4 || len(args)%8 != 0 && len(args)%8 != 1 && len(args)%8 != 4 && len(args)%8 != 5 {
			return errOperands("vhcurveto/hvcurveto")
		}
		vertical := op == 30
		for i := 0; i+4 <= len(args); i += 4 {
			var last int32
			if len(args)-i == 5 {
				last = args[i+4]
			}
			if vertical {
				d.cubeTo(0, args[i], args[i+1], args[i+2], args[i+3], last)
			} else {
				d.cubeTo(args[i], 0, args[i+1], args[i+2], last, args[i+3])
			}
			vertical = !vertical
		}
	case 24: // rcurveline
		if len(args) < 8 || (len(args)-2)%6 != 0 {
			return errOperands("rcurveline")
		}
		i := 0
		for ; i < len(args)-2; i += 6 {
			d.cubeTo(args[i], args[i+1], args[i+2], args[i+3], args[i+4], args[i+5])
		}
		d.lineTo(args[i], args[i+1])
	case 25: // rlinecurve
		if len(args) < 8 || (len(args)-6)%2 != 0 {
			return errOperands("rlinecurve")
		}
		i := 0
		for ; i < len(args)-6; i += 2 {
			d.lineTo(args[i], args[i+1])
		}
		d.cubeTo(args[i], args[i+1], args[i+2], args[i+3], args[i+4], args[i+5])
	case 0x100 | 35: // flex
		if len(args) != 13 {
			return errOperands("flex")
		}
		d.cubeTo(args[0], args[1], args[2], args[3], args[4], args[5])
		d.cubeTo(args[6], args[7], args[8], args[9], args[10], args[11])
	case 0x100 | 34: // hflex
		if len(args) != 7 {
			return errOperands("hflex")
		}
		y := d.y
		d.cubeTo(args[0], 0, args[1], args[2], args[3], 0)
		d.cubeTo(args[4], 0, args[5], y-d.y, args[6], 0)
	case 0x100 | 36: // hflex1
		if len(args) != 9 {
			return errOperands("hflex1")
		}
		y := d.y
		d.cubeTo(args[0], args[1], args[2], args[3], args[4], 0)
		d.cubeTo(args[5], 0, args[6], args[7], args[8], y-d.y-args[7])
	case 0x100 | 37: // flex1
		if len(args) != 11 {
			return errOperands("flex1")
		}
		var dx, dy int32
		for i := 0; i < 10; i += 2 {
			dx += args[i]
			dy += args[i+1]
		}
		d.cubeTo(args[0], args[1], args[2], args[3], args[4], args[5])
		if abs32(dy) < abs32(dx) {
			// horizontal flex, the end point returns to the starting y
			d.cubeTo(args[6], args[7], args[8], args[9], args[10], -dy)
		} else {
			d.cubeTo(args[6], args[7], args[8], args[9], -dx, args[10])
		}
	case 14: // endchar
		if len(args) == 4 {
			return unsupportedErrorf("CFF", "%w", ErrSeac)
		} else if len(args) != 0 {
			return errOperands("endchar")
		}
		d.closePath()
		d.ended = true
	case 1, 3, 18, 23: // hstem, vstem, hstemhm, vstemhm
		if len(args)%2 != 0 {
			return errOperands("stem")
		}
		d.hints += len(args) / 2
		if cffMaxHints < d.hints {
			return formatErrorf("CFF", "too many stem hints: %w", ErrInvalidFontData)
		}
	case 19, 20: // hintmask, cntrmask
		// operands before the first hintmask are an implicit vstem
		d.hints += len(args) / 2
		if cffMaxHints < d.hints {
			return formatErrorf("CFF", "too many stem hints: %w", ErrInvalidFontData)
		}
		d.cur.pos += uint32(d.hints+7) / 8
		if d.cur.d.Len() < d.cur.pos {
			return formatErrorf("CFF", "hintmask: %w", ErrOutOfRange)
		}
	case 10, 29: // callsubr, callgsubr
		if len(args) == 0 {
			return errOperands("callsubr")
		}
		return d.call(op == 29)
	case 0x100 | 0: // dotsection
	case 11: // return
		if d.depth == 0 {
			return formatErrorf("CFF", "return outside subroutine: %w", ErrInvalidFontData)
		}
		d.depth--
		d.cur = d.calls[d.depth]
		return nil
	default:
		if 0x100|3 <= op && op <= 0x100|30 {
			return d.arithmetic(op)
		}
		return formatErrorf("CFF", "unsupported operator %d: %w", op, ErrInvalidFontData)
	}
	d.n = 0
	return nil
}

func (d *cffDecoder) call(global bool) error {
	subrs, bias := d.localSubrs, d.localBias
	if global {
		subrs, bias = d.globalSubrs, d.globalBias
	}
	i := d.pop()>>16 + bias
	if i < 0 || subrs.Len() <= int(i) {
		return formatErrorf("CFF", "bad subroutine %d: %w", i, ErrInvalidFontData)
	} else if d.depth == cffMaxCallDepth {
		return &InterpreterOverflowError{Table: "CFF", Err: ErrSubrStackOverflow}
	}
	subr, err := subrs.Get(uint32(i))
	if err != nil {
		return err
	}
	d.calls[d.depth] = d.cur
	d.depth++
	d.cur = cffFrame{subr, 0}
	return nil
}

// arithmetic executes the arithmetic and storage operators, which leave their results on the stack.
func (d *cffDecoder) arithmetic(op int) error {
	need := map[int]int{
		0x100 | 3: 2, 0x100 | 4: 2, 0x100 | 5: 1, 0x100 | 9: 1, 0x100 | 10: 2, 0x100 | 11: 2,
		0x100 | 12: 2, 0x100 | 14: 1, 0x100 | 15: 2, 0x100 | 18: 1, 0x100 | 20: 2, 0x100 | 21: 1,
		0x100 | 22: 4, 0x100 | 23: 0, 0x100 | 24: 2, 0x100 | 26: 1, 0x100 | 27: 1, 0x100 | 28: 2,
		0x100 | 29: 1, 0x100 | 30: 2,
	}
	n, ok := need[op]
	if !ok {
		return formatErrorf("CFF", "unsupported operator %d: %w", op, ErrInvalidFontData)
	} else if d.n < n {
		return errOperands("arithmetic")
	}

	bool16 := func(b bool) int32 {
		if b {
			return 1 << 16
		}
		return 0
	}
	switch op & 0xFF {
	case 3: // and
		b, a := d.pop(), d.pop()
		return d.push(bool16(a != 0 && b != 0))
	case 4: // or
		b, a := d.pop(), d.pop()
		return d.push(bool16(a != 0 || b != 0))
	case 5: // not
		return d.push(bool16(d.pop() == 0))
	case 9: // abs
		return d.push(abs32(d.pop()))
	case 10: // add
		b, a := d.pop(), d.pop()
		return d.push(a + b)
	case 11: // sub
		b, a := d.pop(), d.pop()
		return d.push(a - b)
	case 12: // div
		b, a := d.pop(), d.pop()
		if b == 0 {
			return formatErrorf("CFF", "division by zero: %w", ErrInvalidFontData)
		}
		return d.push(int32(int64(a) << 16 / int64(b)))
	case 14: // neg
		return d.push(-d.pop())
	case 15: // eq
		b, a := d.pop(), d.pop()
		return d.push(bool16(a == b))
	case 18: // drop
		d.n--
	case 20: // put
		i, v := d.pop()>>16, d.pop()
		if i < 0 || cffTransientSize <= i {
			return formatErrorf("CFF", "bad transient index %d: %w", i, ErrInvalidFontData)
		}
		d.transient[i] = v
	case 21: // get
		i := d.pop() >> 16
		if i < 0 || cffTransientSize <= i {
			return formatErrorf("CFF", "bad transient index %d: %w", i, ErrInvalidFontData)
		}
		return d.push(d.transient[i])
	case 22: // ifelse
		v2, v1, s2, s1 := d.pop(), d.pop(), d.pop(), d.pop()
		if v1 <= v2 {
			return d.push(s1)
		}
		return d.push(s2)
	case 23: // random, a deterministic sequence in (0,1]
		d.seed = d.seed*1103515245 + 12345
		return d.push(int32(d.seed>>16&0xFFFF) + 1)
	case 24: // mul
		b, a := d.pop(), d.pop()
		return d.push(int32(int64(a) * int64(b) >> 16))
	case 26: // sqrt
		a := d.pop()
		if a < 0 {
			return formatErrorf("CFF", "square root of negative number: %w", ErrInvalidFontData)
		}
		return d.push(int32(math.Sqrt(float64(a)/65536.0) * 65536.0))
	case 27: // dup
		a := d.stack[d.n-1]
		return d.push(a)
	case 28: // exch
		d.stack[d.n-1], d.stack[d.n-2] = d.stack[d.n-2], d.stack[d.n-1]
	case 29: // index
		i := d.pop() >> 16
		if i < 0 {
			i = 0
		}
		if int32(d.n) <= i {
			return errOperands("index")
		}
		return d.push(d.stack[d.n-1-int(i)])
	case 30: // roll
		j, n := d.pop()>>16, d.pop()>>16
		if n < 0 || int32(d.n) < n {
			return errOperands("roll")
		} else if n == 0 {
			return nil
		}
		elems := d.stack[d.n-int(n) : d.n]
		j = (j%n + n) % n
		rolled := make([]int32, n)
		for k := range elems {
			rolled[(int32(k)+j)%n] = elems[k]
		}
		copy(elems, rolled)
	}
	return nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
