package opentype

import (
	"errors"
	"math"
	"testing"

	"github.com/tdewolff/test"
)

const (
	rlineto    = 5
	callsubr   = 10
	ret        = 11
	endchar    = 14
	rmoveto    = 21
	hmoveto    = 22
	rrcurveto  = 8
	rcurveline = 24
	rlinecurve = 25
	vvcurveto  = 26
	hhcurveto  = 27
	callgsubr  = 29
	vhcurveto  = 30
	hvcurveto  = 31
	opHflex    = 0x100 | 34
	opFlex     = 0x100 | 35
	opHflex1   = 0x100 | 36
	opFlex1    = 0x100 | 37
	opAdd      = 0x100 | 10
	opDiv      = 0x100 | 12
	hintmask   = 19
	hstemhm    = 18
	dotsection = 0x100 | 0
)

func cffFixtureFont(t *testing.T, charStrings, globalSubrs, localSubrs [][]byte) *Font {
	f := newCFFFixture(cffTable(charStrings, globalSubrs, localSubrs), uint16(len(charStrings))).Font(t)
	test.T(t, f.Outlines(), CFFOutlines)
	return f
}

func cffGlyphError(t *testing.T, charString charstring) error {
	f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, nil, nil)
	var d Decoder
	_, err := d.Setup(f, 1000.0, 1)
	return err
}

func TestCFFSubrBias(t *testing.T) {
	test.T(t, subrBias(0), int32(107))
	test.T(t, subrBias(1239), int32(107))
	test.T(t, subrBias(1240), int32(1131))
	test.T(t, subrBias(33899), int32(1131))
	test.T(t, subrBias(33900), int32(32768))
}

func TestCFFIndex(t *testing.T) {
	b := cffINDEX([][]byte{[]byte("ab"), []byte(""), []byte("cde")})
	index, end, err := parseCFFIndex(newDataBlock(b, "CFF"), 0)
	test.Error(t, err)
	test.T(t, index.Len(), 3)
	test.T(t, end, uint32(len(b)))

	item, err := index.Get(2)
	test.Error(t, err)
	v, _ := item.Bytes(0, item.Len())
	test.T(t, string(v), "cde")
	item, err = index.Get(1)
	test.Error(t, err)
	test.T(t, item.Len(), uint32(0))
	_, err = index.Get(3)
	test.T(t, err != nil, true)

	// offsets must be increasing
	b[3+4*2+3] = 1
	index, _, err = parseCFFIndex(newDataBlock(b, "CFF"), 0)
	test.Error(t, err)
	_, err = index.Get(1)
	test.T(t, errors.Is(err, ErrBadIndex), true, err)

	index, end, err = parseCFFIndex(newDataBlock([]byte{0, 0}, "CFF"), 0)
	test.Error(t, err)
	test.T(t, index.Len(), 0)
	test.T(t, end, uint32(2))
}

func TestCFFDict(t *testing.T) {
	b := []byte{139, 17} // 0 CharStrings
	b = append(b, 247, 0, 28, 0x01, 0x00, 18)
	b = append(b, 30, 0x1A, 0x5F, 12, 6) // 1.5 CharstringType
	dict, err := parseCFFDict(newDataBlock(b, "CFF"))
	test.Error(t, err)
	test.T(t, dict[17], []float64{0})
	test.T(t, dict[18], []float64{108, 256})
	test.T(t, dict[0x100|6], []float64{1.5})
	test.T(t, dict.int(0x100|7, 42), 42)

	_, err = parseCFFDict(newDataBlock([]byte{139, 139}, "CFF"))
	test.T(t, errors.Is(err, ErrBadDict), true, err)

	// truncated operands and operators
	for _, b := range [][]byte{{28, 0x01}, {29, 0, 0, 1}, {247}, {30, 0x1A}, {139, 12}} {
		_, err = parseCFFDict(newDataBlock(b, "CFF"))
		test.T(t, errors.Is(err, ErrBadDict), true, b)
	}
}

func TestCFFCharstring(t *testing.T) {
	triangle := []PathCommand{
		{Op: MoveTo, X: 10, Y: 10},
		{Op: LineTo, X: 20, Y: 10},
		{Op: LineTo, X: 15, Y: 20},
		{Op: LineTo, X: 10, Y: 10},
	}
	var tests = []struct {
		name       string
		charString charstring
		expected   []PathCommand
	}{
		{"triangle", charstring{}.n(10, 10).op(rmoveto).n(10, 0).op(rlineto).n(-5, 10).op(rlineto, endchar), triangle},
		{"width", charstring{}.n(500, 10, 10).op(rmoveto).n(10, 0, -5, 10).op(rlineto, endchar), triangle},
		{"small numbers", charstring{149, 149, rmoveto, 149, 139, 134, 149, rlineto, endchar}, triangle},
		{"hmoveto width", charstring{}.n(500, 10).op(hmoveto).n(0, 10).op(rlineto, endchar), []PathCommand{
			{Op: MoveTo, X: 10, Y: 0},
			{Op: LineTo, X: 10, Y: 10},
			{Op: LineTo, X: 10, Y: 0},
		}},
		{"hints", charstring{}.n(0, 10, 20, 10).op(hstemhm).n(0, 5).op(hintmask).op(0x80).op(dotsection).n(10, 10).op(rmoveto).n(10, 0, -5, 10).op(rlineto, endchar), triangle},
		{"rrcurveto", charstring{}.n(0, 0).op(rmoveto).n(10, 0, 10, 10, 0, 10).op(rrcurveto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 0, CX2: 20, CY2: 10, X: 20, Y: 20},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"hvcurveto", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 10, 10).op(hvcurveto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 0, CX2: 20, CY2: 10, X: 20, Y: 20},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"flex1", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 10, 10, 10, 0, 10, 0, 10, -10, 10).op(opFlex1, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 10, CX2: 20, CY2: 20, X: 30, Y: 20},
			{Op: CubeTo, CX1: 40, CY1: 20, CX2: 50, CY2: 10, X: 60, Y: 0},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"hvcurveto odd", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 10, 10, 10, 10, 10, 10, 5).op(hvcurveto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 0, CX2: 20, CY2: 10, X: 20, Y: 20},
			{Op: CubeTo, CX1: 20, CY1: 30, CX2: 30, CY2: 40, X: 40, Y: 45},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"vhcurveto odd", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 10, 10, 5).op(vhcurveto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 0, CY1: 10, CX2: 10, CY2: 20, X: 20, Y: 25},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"vvcurveto", charstring{}.n(0, 0).op(rmoveto).n(5, 10, 10, 10, 10, 10, -10, -10, -10).op(vvcurveto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 5, CY1: 10, CX2: 15, CY2: 20, X: 15, Y: 30},
			{Op: CubeTo, CX1: 15, CY1: 40, CX2: 5, CY2: 30, X: 5, Y: 20},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"hhcurveto", charstring{}.n(0, 0).op(rmoveto).n(5, 10, 10, 10, 10).op(hhcurveto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 5, CX2: 20, CY2: 15, X: 30, Y: 15},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"rcurveline", charstring{}.n(0, 0).op(rmoveto).n(10, 0, 10, 10, 0, 10, -10, 0).op(rcurveline, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 0, CX2: 20, CY2: 10, X: 20, Y: 20},
			{Op: LineTo, X: 10, Y: 20},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"rlinecurve", charstring{}.n(0, 0).op(rmoveto).n(10, 0, 0, 10, -10, 10, -10, 0).op(rlinecurve, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: LineTo, X: 10, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 10, CX2: 0, CY2: 20, X: -10, Y: 20},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"flex", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 10, 10, 10, 0, 10, 0, 10, -10, 10, -10, 50).op(opFlex, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 10, CX2: 20, CY2: 20, X: 30, Y: 20},
			{Op: CubeTo, CX1: 40, CY1: 20, CX2: 50, CY2: 10, X: 60, Y: 0},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"hflex", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 10, 10, 10, 10, 10).op(opHflex, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 0, CX2: 20, CY2: 10, X: 30, Y: 10},
			{Op: CubeTo, CX1: 40, CY1: 10, CX2: 50, CY2: 0, X: 60, Y: 0},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"hflex1", charstring{}.n(0, 0).op(rmoveto).n(10, 5, 10, 5, 10, 10, 10, -5, 10).op(opHflex1, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 5, CX2: 20, CY2: 10, X: 30, Y: 10},
			{Op: CubeTo, CX1: 40, CY1: 10, CX2: 50, CY2: 5, X: 60, Y: 0},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"flex1 vertical", charstring{}.n(0, 0).op(rmoveto).n(10, 10, 5, 10, 5, 10, 5, 10, -20, 10, 10).op(opFlex1, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: CubeTo, CX1: 10, CY1: 10, CX2: 15, CY2: 20, X: 20, Y: 30},
			{Op: CubeTo, CX1: 25, CY1: 40, CX2: 5, CY2: 50, X: 0, Y: 60},
			{Op: LineTo, X: 0, Y: 0},
		}},
		{"two subpaths", charstring{}.n(0, 0).op(rmoveto).n(10, 0).op(rlineto).n(5, 5).op(rmoveto).n(0, 10).op(rlineto, endchar), []PathCommand{
			{Op: MoveTo, X: 0, Y: 0},
			{Op: LineTo, X: 10, Y: 0},
			{Op: LineTo, X: 0, Y: 0},
			{Op: MoveTo, X: 15, Y: 5},
			{Op: LineTo, X: 15, Y: 15},
			{Op: LineTo, X: 15, Y: 5},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), tt.charString}, nil, nil)
			test.T(t, glyphCommands(t, f, 1), tt.expected)
		})
	}
}

func TestCFFBounds(t *testing.T) {
	triangle := charstring{}.n(10, 10).op(rmoveto).n(10, 0, -5, 10).op(rlineto, endchar)
	f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), triangle}, nil, nil)

	bounds, ok, err := f.GlyphBounds(1)
	test.Error(t, err)
	test.T(t, ok, true)
	test.T(t, bounds, Rect{10, 10, 20, 20})

	_, ok, err = f.GlyphBounds(0)
	test.Error(t, err)
	test.T(t, ok, false)

	var d Decoder
	ok, err = d.Setup(f, 2000.0, 1)
	test.Error(t, err)
	test.T(t, ok, true)
	test.T(t, d.Bounds(), Rect{20, 20, 40, 40})

	// control points count towards the bounds
	curve := charstring{}.n(0, 0).op(rmoveto).n(0, 50, 100, 0, 0, -50).op(rrcurveto, endchar)
	f = cffFixtureFont(t, [][]byte{charstring{}.op(endchar), curve}, nil, nil)
	bounds, ok, err = f.GlyphBounds(1)
	test.Error(t, err)
	test.T(t, ok, true)
	test.T(t, bounds, Rect{0, 0, 100, 50})

	cmds := glyphCommands(t, f, 1)
	expected := Rect{cmds[0].X, cmds[0].Y, cmds[0].X, cmds[0].Y}
	for _, cmd := range cmds {
		xs, ys := []float64{cmd.X}, []float64{cmd.Y}
		if cmd.Op == CubeTo {
			xs, ys = append(xs, cmd.CX1, cmd.CX2), append(ys, cmd.CY1, cmd.CY2)
		}
		for i := range xs {
			expected.XMin, expected.XMax = math.Min(expected.XMin, xs[i]), math.Max(expected.XMax, xs[i])
			expected.YMin, expected.YMax = math.Min(expected.YMin, ys[i]), math.Max(expected.YMax, ys[i])
		}
	}
	test.T(t, bounds, expected)

	ok, err = d.Setup(f, 2000.0, 1)
	test.Error(t, err)
	test.T(t, ok, true)
	test.T(t, d.Bounds(), Rect{0, 0, 200, 100})
}

func TestCFFSubroutines(t *testing.T) {
	lineRight := charstring{}.n(10, 0).op(rlineto, ret)
	lineUp := charstring{}.n(-5, 10).op(rlineto, ret)
	charString := charstring{}.n(10, 10).op(rmoveto).n(-107).op(callsubr).n(-107).op(callgsubr).op(endchar)
	f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, [][]byte{lineUp}, [][]byte{lineRight})
	test.T(t, glyphCommands(t, f, 1), []PathCommand{
		{Op: MoveTo, X: 10, Y: 10},
		{Op: LineTo, X: 20, Y: 10},
		{Op: LineTo, X: 15, Y: 20},
		{Op: LineTo, X: 10, Y: 10},
	})

	// operands survive the call
	moveTo := charstring{}.op(rmoveto, ret)
	charString = charstring{}.n(10, 10).n(-107).op(callsubr).op(endchar)
	f = cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, nil, [][]byte{moveTo})
	test.T(t, glyphCommands(t, f, 1), []PathCommand{{Op: MoveTo, X: 10, Y: 10}})

	// endchar may end the glyph inside a subroutine
	charString = charstring{}.n(10, 10).op(rmoveto).n(-107).op(callsubr)
	f = cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, nil, [][]byte{charstring{}.n(10, 0).op(rlineto, endchar)})
	test.T(t, len(glyphCommands(t, f, 1)), 3)
}

func TestCFFSubroutineErrors(t *testing.T) {
	recursive := charstring{}.n(-107).op(callsubr)
	charString := charstring{}.n(0, 0).op(rmoveto).n(-107).op(callsubr, endchar)
	f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, nil, [][]byte{recursive})

	var d Decoder
	_, err := d.Setup(f, 1000.0, 1)
	var overflow *InterpreterOverflowError
	test.T(t, errors.As(err, &overflow), true, err)
	test.T(t, errors.Is(err, ErrSubrStackOverflow), true)

	// no local subroutines
	err = cffGlyphError(t, charstring{}.n(0, 0).op(rmoveto).n(-107).op(callsubr, endchar))
	test.T(t, errors.Is(err, ErrInvalidFontData), true, err)

	err = cffGlyphError(t, charstring{}.n(0, 0).op(rmoveto, ret, endchar))
	test.T(t, errors.Is(err, ErrInvalidFontData), true, err)
}

func TestCFFCharstringErrors(t *testing.T) {
	operands := make([]int, 49)
	err := cffGlyphError(t, charstring{}.n(operands...).op(rlineto, endchar))
	var overflow *InterpreterOverflowError
	test.T(t, errors.As(err, &overflow), true, err)
	test.T(t, errors.Is(err, ErrOperandStackOverflow), true)

	err = cffGlyphError(t, charstring{}.n(0, 0).op(rmoveto).n(0, 0, 65, 66).op(endchar))
	var unsupported *UnsupportedFeatureError
	test.T(t, errors.As(err, &unsupported), true, err)
	test.T(t, errors.Is(err, ErrSeac), true)

	err = cffGlyphError(t, charstring{}.n(10, 10).op(rmoveto).n(10, 0).op(rlineto))
	var formatErr *FormatError
	test.T(t, errors.As(err, &formatErr), true, err)
	test.T(t, formatErr.Table, "CFF")

	err = cffGlyphError(t, charstring{}.n(10).op(rmoveto, endchar))
	test.T(t, errors.Is(err, ErrInvalidFontData), true, err)

	err = cffGlyphError(t, charstring{}.n(1, 0).op(opDiv).n(0).op(rmoveto, endchar))
	test.T(t, errors.Is(err, ErrInvalidFontData), true, err)

	err = cffGlyphError(t, charstring{}.n(0, 0).op(rmoveto).op(0x100|38, endchar))
	test.T(t, errors.Is(err, ErrInvalidFontData), true, err)
}

func TestCFFArithmetic(t *testing.T) {
	var tests = []struct {
		name       string
		charString charstring
		x, y       float64
	}{
		{"add", charstring{}.n(3, 4).op(opAdd).n(0), 7, 0},
		{"sub", charstring{}.n(3, 4).op(0x100 | 11).n(0), -1, 0},
		{"mul", charstring{}.n(3, 4).op(0x100 | 24).n(0), 12, 0},
		{"div", charstring{}.n(12, 4).op(opDiv).n(0), 3, 0},
		{"neg", charstring{}.n(5).op(0x100 | 14).n(0), -5, 0},
		{"abs", charstring{}.n(-5).op(0x100 | 9).n(0), 5, 0},
		{"sqrt", charstring{}.n(16).op(0x100 | 26).n(0), 4, 0},
		{"eq", charstring{}.n(3, 3).op(0x100 | 15).n(0), 1, 0},
		{"not", charstring{}.n(0).op(0x100 | 5).n(0), 1, 0},
		{"and or", charstring{}.n(1, 0).op(0x100 | 3).n(1, 0).op(0x100 | 4), 0, 1},
		{"exch", charstring{}.n(1, 2).op(0x100 | 28), 2, 1},
		{"dup", charstring{}.n(6).op(0x100 | 27), 6, 6},
		{"drop", charstring{}.n(1, 2, 3).op(0x100 | 18), 1, 2},
		{"put get", charstring{}.n(9, 0).op(0x100 | 20).n(0).op(0x100 | 21).n(4), 9, 4},
		{"ifelse", charstring{}.n(1, 2, 5, 6).op(0x100 | 22).n(0), 1, 0},
		{"ifelse else", charstring{}.n(1, 2, 6, 5).op(0x100 | 22).n(0), 2, 0},
		{"index", charstring{}.n(7, 8, 1).op(0x100|29, opAdd), 7, 15},
		{"roll", charstring{}.n(1, 2, 3, 3, 1).op(0x100|30, opAdd), 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			charString := tt.charString.op(rmoveto, endchar)
			f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, nil, nil)
			test.T(t, glyphCommands(t, f, 1), []PathCommand{{Op: MoveTo, X: tt.x, Y: tt.y}})
		})
	}
}

func TestCFFRandom(t *testing.T) {
	charString := charstring{}.op(0x100|23, 0x100|23).op(rmoveto, endchar)
	f := cffFixtureFont(t, [][]byte{charstring{}.op(endchar), charString}, nil, nil)
	first := glyphCommands(t, f, 1)
	test.T(t, glyphCommands(t, f, 1), first)
	test.T(t, 0.0 < first[0].X && first[0].X <= 1.0, true, first[0])
	test.T(t, 0.0 < first[0].Y && first[0].Y <= 1.0, true, first[0])
}

func TestCFFCIDKeyed(t *testing.T) {
	lineRight := charstring{}.n(10, 0).op(rlineto, ret)
	lineUp := charstring{}.n(0, 10).op(rlineto, ret)
	charString := charstring{}.n(0, 0).op(rmoveto).n(-107).op(callsubr, endchar)
	cff := cidCFFTable(
		[][]byte{charstring{}.op(endchar), charString, charString},
		[][][]byte{{lineRight}, {lineUp}},
		[][2]int{{0, 0}, {2, 1}},
	)
	f := newCFFFixture(cff, 3).Font(t)
	test.T(t, f.cff.isCID, true)

	test.T(t, glyphCommands(t, f, 1), []PathCommand{
		{Op: MoveTo, X: 0, Y: 0},
		{Op: LineTo, X: 10, Y: 0},
		{Op: LineTo, X: 0, Y: 0},
	})
	test.T(t, glyphCommands(t, f, 2), []PathCommand{
		{Op: MoveTo, X: 0, Y: 0},
		{Op: LineTo, X: 0, Y: 10},
		{Op: LineTo, X: 0, Y: 0},
	})
}

func TestCFFParseErrors(t *testing.T) {
	charStrings := [][]byte{charstring{}.op(endchar)}

	cff := cffTable(charStrings, nil, nil)
	cff[0] = 2
	_, err := ParseFont(newCFFFixture(cff, 1).Bytes(), 0)
	test.T(t, errors.Is(err, ErrInvalidMarker), true, err)

	cff = cffTable(charStrings, nil, nil)
	_, err = ParseFont(newCFFFixture(cff[:20], 1).Bytes(), 0)
	test.T(t, err != nil, true)

	// FDArray without FDSelect
	cff = cidCFFTable(charStrings, [][][]byte{nil}, [][2]int{{0, 0}})
	i := len(cff) - 1
	for ; 0 < i; i-- {
		if cff[i-1] == 12 && cff[i] == 37 {
			break
		}
	}
	cff[i] = 38
	_, err = ParseFont(newCFFFixture(cff, 1).Bytes(), 0)
	test.T(t, errors.Is(err, ErrBadDict), true, err)
}
