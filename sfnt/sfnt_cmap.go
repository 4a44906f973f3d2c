package sfnt

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// MaxCmapSegments is the maximum number of segments accepted in a format 4 subtable.
var MaxCmapSegments = 20000

type cmapFormat4 struct {
	StartCode     []uint16
	EndCode       []uint16
	IdDelta       []int16
	IdRangeOffset []uint16
	GlyphIdArray  []uint16
}

func (subtable *cmapFormat4) Get(r rune) (uint16, bool) {
	if r < 0 || 65536 <= r {
		return 0, false
	}
	n := len(subtable.StartCode)
	for i := 0; i < n; i++ {
		if subtable.StartCode[i] <= uint16(r) && uint16(r) <= subtable.EndCode[i] {
			if subtable.IdRangeOffset[i] == 0 {
				// is modulo 65536 with the idDelta cast and addition overflow
				return uint16(subtable.IdDelta[i]) + uint16(r), true
			}
			// idRangeOffset/2 is the offset in words from the idRangeOffset entry, which lies n-i words before glyphIdArray
			index := int(subtable.IdRangeOffset[i]/2) + int(uint16(r)-subtable.StartCode[i]) - (n - i)
			if index < 0 || len(subtable.GlyphIdArray) <= index {
				return 0, false
			} else if glyphID := subtable.GlyphIdArray[index]; glyphID != 0 {
				return glyphID + uint16(subtable.IdDelta[i]), true
			}
			return 0, true
		}
	}
	return 0, false
}

func (subtable *cmapFormat4) Runes() []rune {
	rs := []rune{}
	for i := range subtable.StartCode {
		for r := rune(subtable.StartCode[i]); r <= rune(subtable.EndCode[i]); r++ {
			if glyphID, _ := subtable.Get(r); glyphID != 0 {
				rs = append(rs, r)
			}
		}
	}
	return rs
}

type cmapFormat12 struct {
	StartCharCode []uint32
	EndCharCode   []uint32
	StartGlyphID  []uint32
}

func (subtable *cmapFormat12) Get(r rune) (uint16, bool) {
	if r < 0 {
		return 0, false
	}
	for i := 0; i < len(subtable.StartCharCode); i++ {
		if subtable.StartCharCode[i] <= uint32(r) && uint32(r) <= subtable.EndCharCode[i] {
			return uint16((uint32(r) - subtable.StartCharCode[i]) + subtable.StartGlyphID[i]), true
		}
	}
	return 0, false
}

func (subtable *cmapFormat12) Runes() []rune {
	rs := []rune{}
	for i := range subtable.StartCharCode {
		for r := subtable.StartCharCode[i]; r <= subtable.EndCharCode[i]; r++ {
			rs = append(rs, rune(r))
		}
	}
	return rs
}

// cmapWriteFormat4 writes a segment for every run of consecutive runes. Runs that map to consecutive glyph IDs use idDelta, others index into glyphIdArray.
func cmapWriteFormat4(w *parse.BinaryWriter, rs []rune, runeMap map[rune]uint16) {
	type segment struct {
		start, end rune
		useDelta   bool
		notdef     bool
	}
	segments := []segment{}
	for i := 0; i < len(rs); {
		j := i + 1
		contiguous := true
		for j < len(rs) && rs[j] == rs[j-1]+1 {
			if runeMap[rs[j]] != runeMap[rs[j-1]]+1 {
				contiguous = false
			}
			j++
		}
		segments = append(segments, segment{start: rs[i], end: rs[j-1], useDelta: contiguous})
		i = j
	}
	if len(rs) == 0 || rs[len(rs)-1] != 0xFFFF {
		segments = append(segments, segment{start: 0xFFFF, end: 0xFFFF, useDelta: true, notdef: true})
	}

	start := w.Len()
	w.WriteUint16(4) // format
	w.WriteUint16(0) // length (set later)
	w.WriteUint16(0) // language

	segCount := uint16(len(segments))
	searchRange := uint16(math.Exp2(math.Floor(math.Log2(float64(segCount)))))
	entrySelector := uint16(math.Log2(float64(searchRange)))
	w.WriteUint16(segCount * 2)                 // segCountX2
	w.WriteUint16(searchRange * 2)              // searchRange
	w.WriteUint16(entrySelector)                // entrySelector
	w.WriteUint16((segCount - searchRange) * 2) // rangeShift

	for _, seg := range segments {
		w.WriteUint16(uint16(seg.end))
	}
	w.WriteUint16(0) // reservedPad
	for _, seg := range segments {
		w.WriteUint16(uint16(seg.start))
	}
	for _, seg := range segments {
		if seg.useDelta {
			var glyphID uint16
			if !seg.notdef {
				glyphID = runeMap[seg.start]
			}
			w.WriteUint16(glyphID - uint16(seg.start)) // idDelta, modulo 65536
		} else {
			w.WriteUint16(0) // idDelta
		}
	}
	var glyphIdArray []uint16
	for i, seg := range segments {
		if seg.useDelta {
			w.WriteUint16(0) // idRangeOffset
		} else {
			w.WriteUint16(uint16(2 * (int(segCount) - i + len(glyphIdArray)))) // idRangeOffset
			for r := seg.start; r <= seg.end; r++ {
				glyphIdArray = append(glyphIdArray, runeMap[r])
			}
		}
	}
	for _, glyphID := range glyphIdArray {
		w.WriteUint16(glyphID)
	}
	binary.BigEndian.PutUint16(w.Bytes()[start+2:], uint16(w.Len()-start)) // set length
}

func cmapWriteFormat12(w *parse.BinaryWriter, rs []rune, runeMap map[rune]uint16) {
	start := w.Len()
	w.WriteUint16(12) // format
	w.WriteUint16(0)  // reserved
	w.WriteUint32(0)  // length (set later)
	w.WriteUint32(0)  // language
	w.WriteUint32(0)  // numGroups (set later)

	numGroups := uint32(1)
	startCharCode := uint32(rs[0])
	startGlyphID := uint32(runeMap[rs[0]])
	n := uint32(1)
	for i := 1; i < len(rs); i++ {
		r := rs[i]
		glyphID := runeMap[r]
		if uint32(r) == startCharCode+n && uint32(glyphID) == startGlyphID+n {
			n++
		} else {
			w.WriteUint32(startCharCode)         // startCharCode
			w.WriteUint32(startCharCode + n - 1) // endCharCode
			w.WriteUint32(startGlyphID)          // startGlyphID
			numGroups++
			startCharCode = uint32(r)
			startGlyphID = uint32(glyphID)
			n = 1
		}
	}
	w.WriteUint32(startCharCode)         // startCharCode
	w.WriteUint32(startCharCode + n - 1) // endCharCode
	w.WriteUint32(startGlyphID)          // startGlyphID

	binary.BigEndian.PutUint32(w.Bytes()[start+4:], uint32(w.Len()-start)) // set length
	binary.BigEndian.PutUint32(w.Bytes()[start+12:], numGroups)    // set numGroups
}

// cmapWrite writes a cmap table for the rune to glyph ID mapping. Runes in the BMP are written as a format 4 subtable, fonts with supplementary runes get a format 12 subtable as well. The runeMap must not be empty.
func cmapWrite(runeMap map[rune]uint16) []byte {
	rs := make([]rune, 0, len(runeMap))
	for r := range runeMap {
		rs = append(rs, r)
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })

	bmp := rs
	for i, r := range rs {
		if 0xFFFF < r {
			bmp = rs[:i]
			break
		}
	}
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	if len(bmp) == len(rs) {
		w.WriteUint16(2)  // numTables
		w.WriteUint16(0)  // platformID
		w.WriteUint16(3)  // encodingID
		w.WriteUint32(20) // subtableOffset
		w.WriteUint16(3)  // platformID
		w.WriteUint16(1)  // encodingID
		w.WriteUint32(20) // subtableOffset
		cmapWriteFormat4(w, bmp, runeMap)
		return w.Bytes()
	}

	full := parse.NewBinaryWriter([]byte{})
	cmapWriteFormat12(full, rs, runeMap)
	format4 := parse.NewBinaryWriter([]byte{})
	cmapWriteFormat4(format4, bmp, runeMap)

	offset4, offset12 := uint32(4+4*8), uint32(4+4*8)+uint32(format4.Len())
	w.WriteUint16(4) // numTables
	w.WriteUint16(0) // platformID
	w.WriteUint16(3) // encodingID
	w.WriteUint32(offset4)
	w.WriteUint16(0) // platformID
	w.WriteUint16(4) // encodingID
	w.WriteUint32(offset12)
	w.WriteUint16(3) // platformID
	w.WriteUint16(1) // encodingID
	w.WriteUint32(offset4)
	w.WriteUint16(3)  // platformID
	w.WriteUint16(10) // encodingID
	w.WriteUint32(offset12)
	w.WriteBytes(format4.Bytes())
	w.WriteBytes(full.Bytes())
	return w.Bytes()
}

type cmapSubtable interface {
	Get(rune) (uint16, bool)
	Runes() []rune
}

type cmapTable struct {
	Subtables []cmapSubtable
}

// Get returns the glyph ID for the corresponding rune. It looks for each subtable in the order in which they appear and returns the first match, or 0 when no match is found.
func (cmap *cmapTable) Get(r rune) uint16 {
	for _, subtable := range cmap.Subtables {
		if glyphID, ok := subtable.Get(r); ok && glyphID != 0 {
			return glyphID
		}
	}
	return 0
}

// Runes returns all mapped runes in increasing order.
func (cmap *cmapTable) Runes() []rune {
	seen := map[rune]bool{}
	rs := []rune{}
	for _, subtable := range cmap.Subtables {
		for _, r := range subtable.Runes() {
			if !seen[r] && cmap.Get(r) != 0 {
				seen[r] = true
				rs = append(rs, r)
			}
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i] < rs[j] })
	return rs
}

func (sfnt *SFNT) parseCmap() error {
	if sfnt.Maxp == nil {
		return fmt.Errorf("cmap: missing maxp table")
	}

	b, ok := sfnt.Tables["cmap"]
	if !ok {
		return fmt.Errorf("cmap: missing table")
	} else if len(b) < 4 {
		return fmt.Errorf("cmap: bad table")
	}

	sfnt.Cmap = &cmapTable{}
	r := parse.NewBinaryReaderBytes(b)
	if r.ReadUint16() != 0 {
		return fmt.Errorf("cmap: bad version")
	}
	numTables := r.ReadUint16()
	if uint32(len(b)) < 4+8*uint32(numTables) {
		return fmt.Errorf("cmap: bad table")
	}

	parsed := map[uint32]bool{}
	for j := 0; j < int(numTables); j++ {
		_ = r.ReadUint16() // platformID
		_ = r.ReadUint16() // encodingID
		offset := r.ReadUint32()
		if uint32(len(b))-8 < offset {
			return fmt.Errorf("cmap: bad subtable %d", j)
		} else if parsed[offset] {
			continue
		}
		parsed[offset] = true

		format := binary.BigEndian.Uint16(b[offset:])
		var length uint32
		if format == 4 {
			length = uint32(binary.BigEndian.Uint16(b[offset+2:]))
		} else if format == 12 {
			length = binary.BigEndian.Uint32(b[offset+4:])
		} else {
			continue // only formats 4 and 12 are used for lookups
		}
		if length < 8 || uint32(len(b))-offset < length {
			return fmt.Errorf("cmap: bad subtable %d", j)
		}
		rs := parse.NewBinaryReaderBytes(b[offset : offset+length])

		switch format {
		case 4:
			if rs.Len() < 14 {
				return fmt.Errorf("cmap: bad subtable %d", j)
			}
			_ = rs.ReadUint16() // format
			_ = rs.ReadUint16() // length
			_ = rs.ReadUint16() // language

			segCount := rs.ReadUint16()
			if segCount%2 != 0 || segCount == 0 {
				return fmt.Errorf("cmap: bad segCount in subtable %d", j)
			}
			segCount /= 2
			if MaxCmapSegments < int(segCount) {
				return fmt.Errorf("cmap: too many segments in subtable %d", j)
			}
			_ = rs.ReadUint16() // searchRange
			_ = rs.ReadUint16() // entrySelector
			_ = rs.ReadUint16() // rangeShift
			if rs.Len() < 2+8*int64(segCount) {
				return fmt.Errorf("cmap: bad subtable %d", j)
			}

			subtable := &cmapFormat4{}
			subtable.EndCode = make([]uint16, segCount)
			for i := 0; i < int(segCount); i++ {
				subtable.EndCode[i] = rs.ReadUint16()
			}
			_ = rs.ReadUint16() // reservedPad
			subtable.StartCode = make([]uint16, segCount)
			for i := 0; i < int(segCount); i++ {
				subtable.StartCode[i] = rs.ReadUint16()
				if subtable.EndCode[i] < subtable.StartCode[i] || 0 < i && subtable.StartCode[i] <= subtable.EndCode[i-1] {
					return fmt.Errorf("cmap: bad segment in subtable %d", j)
				}
			}
			subtable.IdDelta = make([]int16, segCount)
			for i := 0; i < int(segCount); i++ {
				subtable.IdDelta[i] = rs.ReadInt16()
			}
			subtable.IdRangeOffset = make([]uint16, segCount)
			for i := 0; i < int(segCount); i++ {
				subtable.IdRangeOffset[i] = rs.ReadUint16()
			}
			subtable.GlyphIdArray = make([]uint16, rs.Len()/2)
			for i := range subtable.GlyphIdArray {
				subtable.GlyphIdArray[i] = rs.ReadUint16()
			}
			sfnt.Cmap.Subtables = append(sfnt.Cmap.Subtables, subtable)
		case 12:
			if rs.Len() < 16 {
				return fmt.Errorf("cmap: bad subtable %d", j)
			}
			_ = rs.ReadUint16() // format
			_ = rs.ReadUint16() // reserved
			_ = rs.ReadUint32() // length
			_ = rs.ReadUint32() // language
			numGroups := rs.ReadUint32()
			if uint64(rs.Len()) < 12*uint64(numGroups) {
				return fmt.Errorf("cmap: bad subtable %d", j)
			}

			subtable := &cmapFormat12{}
			subtable.StartCharCode = make([]uint32, numGroups)
			subtable.EndCharCode = make([]uint32, numGroups)
			subtable.StartGlyphID = make([]uint32, numGroups)
			for i := 0; i < int(numGroups); i++ {
				subtable.StartCharCode[i] = rs.ReadUint32()
				subtable.EndCharCode[i] = rs.ReadUint32()
				subtable.StartGlyphID[i] = rs.ReadUint32()
				if subtable.EndCharCode[i] < subtable.StartCharCode[i] || 0 < i && subtable.StartCharCode[i] <= subtable.EndCharCode[i-1] {
					return fmt.Errorf("cmap: bad group in subtable %d", j)
				} else if uint32(sfnt.Maxp.NumGlyphs) <= subtable.StartGlyphID[i] || uint32(sfnt.Maxp.NumGlyphs)-subtable.StartGlyphID[i] <= subtable.EndCharCode[i]-subtable.StartCharCode[i] {
					return fmt.Errorf("cmap: bad glyphID in subtable %d", j)
				}
			}
			sfnt.Cmap.Subtables = append(sfnt.Cmap.Subtables, subtable)
		}
	}
	return nil
}
