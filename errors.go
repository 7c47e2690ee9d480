package opentype

import (
	"errors"
	"fmt"
)

// ErrInvalidFontData is returned if the font is malformed.
var ErrInvalidFontData = errors.New("invalid font data")

// Kinds of font format errors, wrapped by FormatError.
var (
	ErrOutOfRange       = errors.New("out of range")
	ErrInvalidMarker    = errors.New("invalid marker")
	ErrMissingTable     = errors.New("missing mandatory table")
	ErrBadIndex         = errors.New("malformed INDEX")
	ErrBadDict          = errors.New("malformed DICT")
	ErrNoUnicodeMapping = errors.New("no unicode index mapping")
	ErrCompositeDepth   = errors.New("composite glyphs nested too deeply")
	ErrComponentCount   = errors.New("too many composite glyph components")
)

// Kinds of unsupported features, wrapped by UnsupportedFeatureError.
var (
	ErrUnsupportedCmapFormat     = errors.New("unsupported index mapping format")
	ErrUnsupportedCharstringType = errors.New("unsupported charstring type")
	ErrSeac                      = errors.New("endchar accent composition not supported")
)

// Kinds of interpreter overflows, wrapped by InterpreterOverflowError.
var (
	ErrOperandStackOverflow = errors.New("operand stack overflow")
	ErrSubrStackOverflow    = errors.New("subroutine stack overflow")
)

// ErrInvalidOperation is returned when a Decoder is used before a successful Setup.
var ErrInvalidOperation = errors.New("invalid operation")

// FormatError is returned for malformed font data.
type FormatError struct {
	Table string
	Err   error
}

func (e *FormatError) Error() string {
	return errorString(e.Table, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// UnsupportedFeatureError is returned for valid font data that uses a feature that is not implemented.
type UnsupportedFeatureError struct {
	Table string
	Err   error
}

func (e *UnsupportedFeatureError) Error() string {
	return errorString(e.Table, e.Err)
}

func (e *UnsupportedFeatureError) Unwrap() error {
	return e.Err
}

// InterpreterOverflowError is returned when a charstring exceeds the operand stack or the subroutine nesting limit.
type InterpreterOverflowError struct {
	Table string
	Err   error
}

func (e *InterpreterOverflowError) Error() string {
	return errorString(e.Table, e.Err)
}

func (e *InterpreterOverflowError) Unwrap() error {
	return e.Err
}

func errorString(table string, err error) string {
	if table == "" {
		return err.Error()
	}
	return table + ": " + err.Error()
}

func formatErrorf(table, format string, a ...interface{}) error {
	return &FormatError{Table: table, Err: fmt.Errorf(format, a...)}
}

func unsupportedErrorf(table, format string, a ...interface{}) error {
	return &UnsupportedFeatureError{Table: table, Err: fmt.Errorf(format, a...)}
}
