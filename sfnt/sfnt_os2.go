package sfnt

import (
	"fmt"
	"sort"

	"github.com/tdewolff/parse/v2"
)

type os2Table struct {
	Version             uint16
	XAvgCharWidth       int16
	UsWeightClass       uint16
	UsWidthClass        uint16
	FsType              uint16
	YSubscriptXSize     int16
	YSubscriptYSize     int16
	YSubscriptXOffset   int16
	YSubscriptYOffset   int16
	YSuperscriptXSize   int16
	YSuperscriptYSize   int16
	YSuperscriptXOffset int16
	YSuperscriptYOffset int16
	YStrikeoutSize      int16
	YStrikeoutPosition  int16
	SFamilyClass        int16
	Panose              [10]byte
	UlUnicodeRange      [4]uint32
	AchVendID           [4]byte
	FsSelection         uint16
	UsFirstCharIndex    uint16
	UsLastCharIndex     uint16
	STypoAscender       int16
	STypoDescender      int16
	STypoLineGap        int16
	UsWinAscent         uint16
	UsWinDescent        uint16
	UlCodePageRange1    uint32
	UlCodePageRange2    uint32
	SxHeight            int16
	SCapHeight          int16
	UsDefaultChar       uint16
	UsBreakChar         uint16
	UsMaxContext        uint16
}

// Write writes a version 4 table.
func (os2 *os2Table) Write() []byte {
	w := parse.NewBinaryWriter(make([]byte, 0, 96))
	w.WriteUint16(4) // version
	w.WriteInt16(os2.XAvgCharWidth)
	w.WriteUint16(os2.UsWeightClass)
	w.WriteUint16(os2.UsWidthClass)
	w.WriteUint16(os2.FsType)
	w.WriteInt16(os2.YSubscriptXSize)
	w.WriteInt16(os2.YSubscriptYSize)
	w.WriteInt16(os2.YSubscriptXOffset)
	w.WriteInt16(os2.YSubscriptYOffset)
	w.WriteInt16(os2.YSuperscriptXSize)
	w.WriteInt16(os2.YSuperscriptYSize)
	w.WriteInt16(os2.YSuperscriptXOffset)
	w.WriteInt16(os2.YSuperscriptYOffset)
	w.WriteInt16(os2.YStrikeoutSize)
	w.WriteInt16(os2.YStrikeoutPosition)
	w.WriteInt16(os2.SFamilyClass)
	w.WriteBytes(os2.Panose[:])
	for _, v := range os2.UlUnicodeRange {
		w.WriteUint32(v)
	}
	w.WriteBytes(os2.AchVendID[:])
	w.WriteUint16(os2.FsSelection)
	w.WriteUint16(os2.UsFirstCharIndex)
	w.WriteUint16(os2.UsLastCharIndex)
	w.WriteInt16(os2.STypoAscender)
	w.WriteInt16(os2.STypoDescender)
	w.WriteInt16(os2.STypoLineGap)
	w.WriteUint16(os2.UsWinAscent)
	w.WriteUint16(os2.UsWinDescent)
	w.WriteUint32(os2.UlCodePageRange1)
	w.WriteUint32(os2.UlCodePageRange2)
	w.WriteInt16(os2.SxHeight)
	w.WriteInt16(os2.SCapHeight)
	w.WriteUint16(os2.UsDefaultChar)
	w.WriteUint16(os2.UsBreakChar)
	w.WriteUint16(os2.UsMaxContext)
	return w.Bytes()
}

func (sfnt *SFNT) parseOS2() error {
	b, ok := sfnt.Tables["OS/2"]
	if !ok {
		return fmt.Errorf("OS/2: missing table")
	} else if len(b) < 68 {
		return fmt.Errorf("OS/2: bad table")
	}

	r := parse.NewBinaryReaderBytes(b)
	sfnt.OS2 = &os2Table{}
	sfnt.OS2.Version = r.ReadUint16()
	if 5 < sfnt.OS2.Version {
		return fmt.Errorf("OS/2: bad version")
	} else if sfnt.OS2.Version == 0 && len(b) != 68 && len(b) != 78 ||
		sfnt.OS2.Version == 1 && len(b) != 86 ||
		2 <= sfnt.OS2.Version && sfnt.OS2.Version <= 4 && len(b) != 96 ||
		sfnt.OS2.Version == 5 && len(b) != 100 {
		return fmt.Errorf("OS/2: bad table")
	}
	sfnt.OS2.XAvgCharWidth = r.ReadInt16()
	sfnt.OS2.UsWeightClass = r.ReadUint16()
	sfnt.OS2.UsWidthClass = r.ReadUint16()
	sfnt.OS2.FsType = r.ReadUint16()
	sfnt.OS2.YSubscriptXSize = r.ReadInt16()
	sfnt.OS2.YSubscriptYSize = r.ReadInt16()
	sfnt.OS2.YSubscriptXOffset = r.ReadInt16()
	sfnt.OS2.YSubscriptYOffset = r.ReadInt16()
	sfnt.OS2.YSuperscriptXSize = r.ReadInt16()
	sfnt.OS2.YSuperscriptYSize = r.ReadInt16()
	sfnt.OS2.YSuperscriptXOffset = r.ReadInt16()
	sfnt.OS2.YSuperscriptYOffset = r.ReadInt16()
	sfnt.OS2.YStrikeoutSize = r.ReadInt16()
	sfnt.OS2.YStrikeoutPosition = r.ReadInt16()
	sfnt.OS2.SFamilyClass = r.ReadInt16()
	copy(sfnt.OS2.Panose[:], r.ReadBytes(10))
	for i := range sfnt.OS2.UlUnicodeRange {
		sfnt.OS2.UlUnicodeRange[i] = r.ReadUint32()
	}
	copy(sfnt.OS2.AchVendID[:], r.ReadBytes(4))
	sfnt.OS2.FsSelection = r.ReadUint16()
	sfnt.OS2.UsFirstCharIndex = r.ReadUint16()
	sfnt.OS2.UsLastCharIndex = r.ReadUint16()
	if 78 <= len(b) {
		sfnt.OS2.STypoAscender = r.ReadInt16()
		sfnt.OS2.STypoDescender = r.ReadInt16()
		sfnt.OS2.STypoLineGap = r.ReadInt16()
		sfnt.OS2.UsWinAscent = r.ReadUint16()
		sfnt.OS2.UsWinDescent = r.ReadUint16()
	}
	if sfnt.OS2.Version == 0 {
		return nil
	}
	sfnt.OS2.UlCodePageRange1 = r.ReadUint32()
	sfnt.OS2.UlCodePageRange2 = r.ReadUint32()
	if sfnt.OS2.Version == 1 {
		return nil
	}
	sfnt.OS2.SxHeight = r.ReadInt16()
	sfnt.OS2.SCapHeight = r.ReadInt16()
	sfnt.OS2.UsDefaultChar = r.ReadUint16()
	sfnt.OS2.UsBreakChar = r.ReadUint16()
	sfnt.OS2.UsMaxContext = r.ReadUint16()
	return nil
}

// os2UlUnicodeRange returns the ulUnicodeRange1-4 fields. Bit i is stored in field i/32.
func os2UlUnicodeRange(rs []rune) [4]uint32 {
	v := [4]uint32{}
	for _, r := range rs {
		if bit := os2UlUnicodeRangeBit(r); bit != -1 {
			v[bit/32] |= 1 << (bit % 32)
		}
		if 0x10000 <= r && r < 0x110000 {
			v[1] |= 1 << (57 - 32) // Non-Plane 0
		}
	}
	return v
}

// os2UnicodeRanges holds the exclusive upper bound of each Unicode block and its ulUnicodeRange bit, or -1 for unassigned blocks.
var os2UnicodeRanges = []struct {
	end rune
	bit int
}{
	{0x0080, 0}, {0x0100, 1}, {0x0180, 2}, {0x0250, 3}, {0x02B0, 4}, {0x0300, 5},
	{0x0370, 6}, {0x0400, 7}, {0x0500, 9}, {0x0530, -1}, {0x0590, 10}, {0x0600, 11},
	{0x0700, 13}, {0x0750, 71}, {0x0780, -1}, {0x07C0, 72}, {0x0800, 14}, {0x0900, -1},
	{0x0980, 15}, {0x0A00, 16}, {0x0A80, 17}, {0x0B00, 18}, {0x0B80, 19}, {0x0C00, 20},
	{0x0C80, 21}, {0x0D00, 22}, {0x0D80, 23}, {0xE000, 73}, {0xF900, 60}, {0xFB00, -1},
	{0xFB50, 62}, {0xFE00, 63}, {0xFE10, 91}, {0xFE20, 65}, {0xFE30, 64}, {0xFE50, -1},
	{0xFE70, 66}, {0xFF00, 67}, {0xFFF0, 68}, {0x10000, 69}, {0x10080, 101}, {0x10140, -1},
	{0x10190, 102}, {0x101D0, 119}, {0x10200, 120}, {0x102A0, -1}, {0x102E0, 121}, {0x10300, -1},
	{0x10330, 85}, {0x10350, 86}, {0x10380, -1}, {0x103A0, 103}, {0x103E0, 104}, {0x10400, -1},
	{0x10450, 87}, {0x10480, 105}, {0x104B0, 106}, {0x10800, -1}, {0x10840, 107}, {0x10A00, -1},
	{0x10A60, 108}, {0x12000, -1}, {0x12400, 110}, {0x1D000, -1}, {0x1D100, 88}, {0x1D300, -1},
	{0x1D360, 109}, {0x1D380, 111}, {0x1D400, -1}, {0x1D800, 89}, {0x1F030, -1}, {0x1F0A0, 122},
	{0xE0000, -1}, {0xE0080, 92}, {0xF0000, -1}, {0xFFFFE, 90},
}

func os2UlUnicodeRangeBit(r rune) int {
	i := sort.Search(len(os2UnicodeRanges), func(i int) bool { return r < os2UnicodeRanges[i].end })
	if i == len(os2UnicodeRanges) {
		return -1
	}
	return os2UnicodeRanges[i].bit
}

// os2CodePageRange returns ulCodePageRange1 with the Latin 1 bit set when any rune of U+0020 to U+00FF is mapped.
func os2CodePageRange(rs []rune) uint32 {
	for _, r := range rs {
		if 0x20 <= r && r < 0x0100 {
			return 1 // Latin 1
		}
	}
	return 0
}
