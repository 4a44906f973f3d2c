//go:build gofuzz
// +build gofuzz

package fuzz

import "github.com/tdewolff/fontastic/woff"

// Fuzz is a fuzz test of the WOFF decoder.
func Fuzz(data []byte) int {
	if _, err := woff.ToSFNT(data); err != nil {
		return 0
	}
	return 1
}
