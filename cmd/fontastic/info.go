package main

import (
	"fmt"
	"math"
	"os"
	"unicode"
	"unicode/utf8"

	"github.com/tdewolff/fontastic/sfnt"
	"github.com/tdewolff/fontastic/woff"
	"github.com/tdewolff/parse/v2"
)

type Info struct {
	GlyphID int    `short:"g" name:"glyph" default:"-1" desc:"Glyph ID"`
	Char    string `short:"c" desc:"Unicode character"`
	Input   string `index:"0" desc:"Input file"`
}

func (cmd *Info) Run() error {
	b, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	mimetype, err := woff.MediaType(b)
	if err != nil {
		return err
	} else if b, err = woff.ToSFNT(b); err != nil {
		return err
	}

	r := parse.NewBinaryReaderBytes(b)
	sfntVersion := r.ReadUint32()
	numTables := int(r.ReadUint16())
	_ = r.ReadBytes(6)

	fmt.Printf("File: %s (%s)\n\n", cmd.Input, mimetype)
	fmt.Printf("sfntVersion: 0x%08X\n", sfntVersion)
	fmt.Printf("\nTable directory:\n")

	nLen := int(math.Log10(float64(len(b))) + 1)
	for i := 0; i < numTables; i++ {
		tag := r.ReadString(4)
		checksum := r.ReadUint32()
		offset := r.ReadUint32()
		length := r.ReadUint32()
		fmt.Printf("  %2d  %s  checksum=0x%08X  offset=%*d  length=%*d\n", i, tag, checksum, nLen, offset, nLen, length)
	}
	if r.EOF() {
		return fmt.Errorf("table directory: %w", sfnt.ErrInvalidFontData)
	}

	font, err := sfnt.ParseSFNT(b)
	if err != nil {
		return err
	}
	fmt.Printf("\nFamily: %s\n", font.FamilyName())
	fmt.Printf("Glyphs: %d\n", font.NumGlyphs())
	fmt.Printf("UnitsPerEm: %d\n", font.Head.UnitsPerEm)
	fmt.Printf("Ascender: %d\n", font.Hhea.Ascender)
	fmt.Printf("Descender: %d\n", font.Hhea.Descender)

	glyphID := cmd.GlyphID
	if cmd.Char != "" {
		c, n := utf8.DecodeRuneInString(cmd.Char)
		if c == utf8.RuneError || n != len(cmd.Char) {
			return fmt.Errorf("char must be a single character: %q", cmd.Char)
		}
		glyphID = int(font.GlyphIndex(c))
		fmt.Printf("\nChar %s maps to glyph %d\n", printableRune(c), glyphID)
	}
	if glyphID < 0 {
		return nil
	} else if int(font.NumGlyphs()) <= glyphID {
		return fmt.Errorf("glyph ID %d out of range", glyphID)
	}

	contour, err := font.GlyphContour(uint16(glyphID))
	if err != nil {
		return err
	}
	fmt.Printf("\nName: %s\n", font.GlyphName(uint16(glyphID)))
	fmt.Printf("Advance: %d\n", font.GlyphAdvance(uint16(glyphID)))
	fmt.Print(contour)
	return nil
}

func printableRune(r rune) string {
	if unicode.IsGraphic(r) {
		return fmt.Sprintf("%c", r)
	} else if r < 128 {
		return fmt.Sprintf("0x%02X", r)
	}
	return fmt.Sprintf("%U", r)
}
