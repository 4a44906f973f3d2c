package sfnt

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
)

type postTable struct {
	ItalicAngle        float64
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       uint32

	// version 2
	GlyphNameIndex []uint16
	stringData     [][]byte
	nameMap        map[string]uint16
}

func (post *postTable) Get(glyphID uint16) string {
	if len(post.GlyphNameIndex) <= int(glyphID) {
		return ""
	}
	index := post.GlyphNameIndex[glyphID]
	if index < 258 {
		return macintoshGlyphNames[index]
	} else if len(post.stringData) <= int(index)-258 {
		return ""
	}
	return string(post.stringData[index-258])
}

// Find returns the glyph ID with the given name, or 0 if not found.
func (post *postTable) Find(name string) uint16 {
	if post.nameMap == nil {
		post.nameMap = make(map[string]uint16, len(post.GlyphNameIndex))
		for glyphID, index := range post.GlyphNameIndex {
			if index < 258 {
				post.nameMap[macintoshGlyphNames[index]] = uint16(glyphID)
			} else if int(index)-258 < len(post.stringData) {
				post.nameMap[string(post.stringData[index-258])] = uint16(glyphID)
			}
		}
	}
	return post.nameMap[name]
}

// postWrite writes a version 2 table. Names from the standard Macintosh set refer to it, others are stored as Pascal strings. Names are unique; later duplicates get a numbered suffix.
func postWrite(post *postTable, names []string) ([]byte, error) {
	if 0xFFFF < len(names) {
		return nil, fmt.Errorf("post: too many glyphs")
	}

	standard := make(map[string]uint16, len(macintoshGlyphNames))
	for i, name := range macintoshGlyphNames {
		standard[name] = uint16(i)
	}

	w := parse.NewBinaryWriter(make([]byte, 0, 34+2*len(names)))
	w.WriteUint32(0x00020000) // version
	w.WriteUint32(toFixed(post.ItalicAngle))
	w.WriteInt16(post.UnderlinePosition)
	w.WriteInt16(post.UnderlineThickness)
	w.WriteUint32(post.IsFixedPitch)
	w.WriteUint32(0) // minMemType42
	w.WriteUint32(0) // maxMemType42
	w.WriteUint32(0) // minMemType1
	w.WriteUint32(0) // maxMemType1
	w.WriteUint16(uint16(len(names)))

	seen := make(map[string]bool, len(names))
	strs := parse.NewBinaryWriter([]byte{})
	numStrings := 0
	for _, name := range names {
		if seen[name] {
			base := name
			for i := 1; seen[name]; i++ {
				name = fmt.Sprintf("%s.%d", base, i)
			}
		}
		seen[name] = true

		if index, ok := standard[name]; ok {
			w.WriteUint16(index)
			continue
		} else if 63 < len(name) {
			return nil, fmt.Errorf("post: glyph name too long: %s", name)
		} else if 0xFFFF < 258+numStrings {
			return nil, fmt.Errorf("post: too many glyph names")
		}
		w.WriteUint16(uint16(258 + numStrings))
		strs.WriteUint8(uint8(len(name)))
		strs.WriteString(name)
		numStrings++
	}
	w.WriteBytes(strs.Bytes())
	return w.Bytes(), nil
}

func (sfnt *SFNT) parsePost() error {
	if sfnt.Maxp == nil {
		return fmt.Errorf("post: missing maxp table")
	}

	b, ok := sfnt.Tables["post"]
	if !ok {
		return fmt.Errorf("post: missing table")
	} else if len(b) < 32 {
		return fmt.Errorf("post: bad table")
	}

	sfnt.Post = &postTable{}
	r := parse.NewBinaryReaderBytes(b)
	version := r.ReadUint32()
	sfnt.Post.ItalicAngle = float64(int32(r.ReadUint32())) / (1 << 16)
	sfnt.Post.UnderlinePosition = r.ReadInt16()
	sfnt.Post.UnderlineThickness = r.ReadInt16()
	sfnt.Post.IsFixedPitch = r.ReadUint32()
	_ = r.ReadUint32() // minMemType42
	_ = r.ReadUint32() // maxMemType42
	_ = r.ReadUint32() // minMemType1
	_ = r.ReadUint32() // maxMemType1
	if version == 0x00010000 && len(b) == 32 {
		sfnt.Post.GlyphNameIndex = make([]uint16, 258)
		for i := 0; i < 258; i++ {
			sfnt.Post.GlyphNameIndex[i] = uint16(i)
		}
		return nil
	} else if version == 0x00020000 && 34 <= len(b) {
		numGlyphs := r.ReadUint16()
		if numGlyphs != sfnt.Maxp.NumGlyphs {
			return fmt.Errorf("post: numGlyphs does not match maxp table numGlyphs")
		} else if uint32(len(b)) < 34+2*uint32(numGlyphs) {
			return fmt.Errorf("post: bad table")
		}

		numStrings := 0
		sfnt.Post.GlyphNameIndex = make([]uint16, numGlyphs)
		for i := 0; i < int(numGlyphs); i++ {
			sfnt.Post.GlyphNameIndex[i] = r.ReadUint16()
			if 258 <= sfnt.Post.GlyphNameIndex[i] {
				numStrings++
			}
		}

		sfnt.Post.stringData = make([][]byte, 0, numStrings)
		for 1 <= r.Len() && len(sfnt.Post.stringData) < numStrings {
			length := r.ReadUint8()
			if r.Len() < int64(length) || 63 < length {
				return fmt.Errorf("post: bad stringData")
			}
			sfnt.Post.stringData = append(sfnt.Post.stringData, r.ReadBytes(int64(length)))
		}
		if len(sfnt.Post.stringData) != numStrings {
			return fmt.Errorf("post: bad stringData")
		}
		return nil
	} else if version == 0x00030000 && len(b) == 32 {
		// no glyph names
		return nil
	}
	return fmt.Errorf("post: bad version")
}

var macintoshGlyphNames = [258]string{
	".notdef", ".null", "nonmarkingreturn", "space", "exclam", "quotedbl", "numbersign", "dollar",
	"percent", "ampersand", "quotesingle", "parenleft", "parenright", "asterisk", "plus", "comma",
	"hyphen", "period", "slash", "zero", "one", "two", "three", "four", "five", "six", "seven",
	"eight", "nine", "colon", "semicolon", "less", "equal", "greater", "question", "at", "A", "B",
	"C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O", "P", "Q", "R", "S", "T", "U",
	"V", "W", "X", "Y", "Z", "bracketleft", "backslash", "bracketright", "asciicircum", "underscore",
	"grave", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r",
	"s", "t", "u", "v", "w", "x", "y", "z", "braceleft", "bar", "braceright", "asciitilde",
	"Adieresis", "Aring", "Ccedilla", "Eacute", "Ntilde", "Odieresis", "Udieresis", "aacute",
	"agrave", "acircumflex", "adieresis", "atilde", "aring", "ccedilla", "eacute", "egrave",
	"ecircumflex", "edieresis", "iacute", "igrave", "icircumflex", "idieresis", "ntilde", "oacute",
	"ograve", "ocircumflex", "odieresis", "otilde", "uacute", "ugrave", "ucircumflex", "udieresis",
	"dagger", "degree", "cent", "sterling", "section", "bullet", "paragraph", "germandbls",
	"registered", "copyright", "trademark", "acute", "dieresis", "notequal", "AE", "Oslash",
	"infinity", "plusminus", "lessequal", "greaterequal", "yen", "mu", "partialdiff", "summation",
	"product", "pi", "integral", "ordfeminine", "ordmasculine", "Omega", "ae", "oslash",
	"questiondown", "exclamdown", "logicalnot", "radical", "florin", "approxequal", "Delta",
	"guillemotleft", "guillemotright", "ellipsis", "nonbreakingspace", "Agrave", "Atilde", "Otilde",
	"OE", "oe", "endash", "emdash", "quotedblleft", "quotedblright", "quoteleft", "quoteright",
	"divide", "lozenge", "ydieresis", "Ydieresis", "fraction", "currency", "guilsinglleft",
	"guilsinglright", "fi", "fl", "daggerdbl", "periodcentered", "quotesinglbase", "quotedblbase",
	"perthousand", "Acircumflex", "Ecircumflex", "Aacute", "Edieresis", "Egrave", "Iacute",
	"Icircumflex", "Idieresis", "Igrave", "Oacute", "Ocircumflex", "apple", "Ograve", "Uacute",
	"Ucircumflex", "Ugrave", "dotlessi", "circumflex", "tilde", "macron", "breve", "dotaccent",
	"ring", "cedilla", "hungarumlaut", "ogonek", "caron", "Lslash", "lslash", "Scaron", "scaron",
	"Zcaron", "zcaron", "brokenbar", "Eth", "eth", "Yacute", "yacute", "Thorn", "thorn", "minus",
	"multiply", "onesuperior", "twosuperior", "threesuperior", "onehalf", "onequarter",
	"threequarters", "franc", "Gbreve", "gbreve", "Idotaccent", "Scedilla", "scedilla", "Cacute",
	"cacute", "Ccaron", "ccaron", "dcroat",
}
