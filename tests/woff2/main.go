//go:build gofuzz
// +build gofuzz

package fuzz

import "github.com/tdewolff/opentype"

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	b, err := opentype.ParseWOFF2(data)
	if err != nil {
		return 0
	} else if _, err := opentype.ParseFonts(b); err != nil {
		return 0
	}
	return 1
}
