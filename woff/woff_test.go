package woff

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tdewolff/fontastic/sfnt"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
	xsfnt "golang.org/x/image/font/sfnt"
)

func testFont(t *testing.T) []byte {
	t.Helper()
	s, err := sfnt.NewEngine().Open(sfnt.NewTypeface("Test"), "")
	test.Error(t, err)
	defer s.Close()

	c := &sfnt.Contour{}
	c.AddContourPoint(sfnt.ContourPoint{X: 0, Y: 0, OnCurve: true})
	c.AddContourPoint(sfnt.ContourPoint{X: 256, Y: 683, OnCurve: true, Out: &sfnt.ControlPoint{X: 300, Y: 700}})
	c.AddContourPoint(sfnt.ContourPoint{X: 512, Y: 0, OnCurve: true, In: &sfnt.ControlPoint{X: 500, Y: 100}})
	for _, r := range "ABCDEFGHIJKLMNOPQRSTUVWXYZ" {
		s.AddGlyph(r).AddContour(c)
	}
	_, b, err := s.BuildTrueType()
	test.Error(t, err)
	return b
}

func TestWOFF(t *testing.T) {
	ttf := testFont(t)
	woff, err := FromSFNT(ttf)
	test.Error(t, err)
	test.T(t, string(woff[:4]), "wOFF")
	test.That(t, len(woff) < len(ttf), "WOFF must be smaller than TTF")
	test.T(t, len(woff)%4, 0)

	mediatype, err := MediaType(woff)
	test.Error(t, err)
	test.T(t, mediatype, "font/woff")

	b, err := ToSFNT(woff)
	test.Error(t, err)
	test.That(t, bytes.Equal(b, ttf), "WOFF must decode to the original font")
}

func TestWOFF2(t *testing.T) {
	ttf := testFont(t)
	woff2, err := FromSFNT2(ttf)
	test.Error(t, err)
	test.T(t, string(woff2[:4]), "wOF2")
	test.That(t, len(woff2) < len(ttf), "WOFF2 must be smaller than TTF")
	test.T(t, len(woff2)%4, 0)

	mediatype, err := MediaType(woff2)
	test.Error(t, err)
	test.T(t, mediatype, "font/woff2")

	b, err := ToSFNT(woff2)
	test.Error(t, err)
	test.That(t, bytes.Equal(b, ttf), "WOFF2 must decode to the original font")

	f, err := xsfnt.Parse(b)
	test.Error(t, err)
	test.T(t, f.NumGlyphs(), 30)
}

func TestToSFNT(t *testing.T) {
	ttf := testFont(t)
	b, err := ToSFNT(ttf)
	test.Error(t, err)
	test.That(t, bytes.Equal(b, ttf))

	mediatype, err := MediaType(ttf)
	test.Error(t, err)
	test.T(t, mediatype, "font/ttf")

	_, err = ToSFNT([]byte("abc"))
	test.That(t, errors.Is(err, ErrInvalidFontData))
	_, err = ToSFNT([]byte("<html></html>"))
	test.That(t, err != nil)
	_, err = FromSFNT([]byte("not a font at all"))
	test.That(t, err != nil)

	woff, err := FromSFNT(ttf)
	test.Error(t, err)
	_, err = ToSFNT(woff[:len(woff)-4])
	test.That(t, err != nil, "truncated WOFF must fail")

	woff2, err := FromSFNT2(ttf)
	test.Error(t, err)
	_, err = ToSFNT(woff2[:48])
	test.That(t, err != nil, "truncated WOFF2 must fail")
}

func TestUintBase128(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 1<<28 - 1, 1 << 31, 0xFFFFFFFF} {
		w := parse.NewBinaryWriter([]byte{})
		writeUintBase128(w, v)
		r := parse.NewBinaryReaderBytes(w.Bytes())
		u, err := readUintBase128(r)
		test.Error(t, err)
		test.T(t, u, v)
		test.T(t, r.Len(), int64(0))
	}

	_, err := readUintBase128(parse.NewBinaryReaderBytes([]byte{0x80, 0x01}))
	test.That(t, err != nil, "leading zeros")
}
