package sfnt

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tdewolff/parse/v2"
)

// SFNT is a TrueType font, either built by a session or parsed from a file.
type SFNT struct {
	Length  uint32
	Version string
	Tables  map[string][]byte

	Cmap *cmapTable
	Head *headTable
	Hhea *hheaTable
	Hmtx *hmtxTable
	Maxp *maxpTable
	Name *nameTable
	OS2  *os2Table
	Post *postTable
	Glyf *glyfTable
	Loca *locaTable
}

// NumGlyphs returns the number of glyphs the font contains.
func (sfnt *SFNT) NumGlyphs() uint16 {
	return sfnt.Maxp.NumGlyphs
}

// GlyphIndex returns the glyphID for a given rune. When the rune is not defined it returns 0.
func (sfnt *SFNT) GlyphIndex(r rune) uint16 {
	return sfnt.Cmap.Get(r)
}

// GlyphName returns the name of the glyph. It returns an empty string when no name exists.
func (sfnt *SFNT) GlyphName(glyphID uint16) string {
	return sfnt.Post.Get(glyphID)
}

// GlyphAdvance returns the (horizontal) advance width of the glyph.
func (sfnt *SFNT) GlyphAdvance(glyphID uint16) uint16 {
	return sfnt.Hmtx.Advance(glyphID)
}

// GlyphContour returns the decoded TrueType contours of a glyph.
func (sfnt *SFNT) GlyphContour(glyphID uint16) (*GlyfContour, error) {
	return sfnt.Glyf.Contour(glyphID)
}

// FamilyName returns the font family name from the name table.
func (sfnt *SFNT) FamilyName() string {
	return sfnt.Name.String(NameFontFamily)
}

// ParseSFNT parses a TrueType font file. All tables written by a session are required.
func ParseSFNT(b []byte) (*SFNT, error) {
	if len(b) < 12 || uint(math.MaxUint32) < uint(len(b)) {
		return nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	sfntVersion := r.ReadString(4)
	if sfntVersion != "true" && binary.BigEndian.Uint32([]byte(sfntVersion)) != 0x00010000 {
		return nil, fmt.Errorf("bad SFNT version")
	}
	numTables := r.ReadUint16()
	_ = r.ReadUint16()                 // searchRange
	_ = r.ReadUint16()                 // entrySelector
	_ = r.ReadUint16()                 // rangeShift
	if r.Len() < 16*int64(numTables) { // can never exceed uint32 as numTables is uint16
		return nil, ErrInvalidFontData
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		checksum := r.ReadUint32()
		offset := r.ReadUint32()
		length := r.ReadUint32()

		padding := (4 - length&3) & 3
		if uint32(len(b)) <= offset || uint32(len(b))-offset < length || uint32(len(b))-offset-length < padding {
			return nil, ErrInvalidFontData
		}
		if tag != "head" && calcChecksum(b[offset:offset+length+padding]) != checksum {
			return nil, fmt.Errorf("%s: bad checksum", tag)
		}
		tables[tag] = b[offset : offset+length : offset+length]
	}

	sfnt := &SFNT{}
	sfnt.Length = uint32(len(b))
	sfnt.Version = sfntVersion
	sfnt.Tables = tables

	requiredTables := []string{"cmap", "glyf", "head", "hhea", "hmtx", "loca", "maxp", "name", "post"} // OS/2 not required by TrueType
	for _, requiredTable := range requiredTables {
		if _, ok := tables[requiredTable]; !ok {
			return nil, fmt.Errorf("%s: missing table", requiredTable)
		}
	}

	// required tables before parsing other tables
	if err := sfnt.parseHead(); err != nil {
		return nil, err
	} else if err := sfnt.parseMaxp(); err != nil {
		return nil, err
	} else if err := sfnt.parseLoca(); err != nil {
		return nil, err
	}

	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		var err error
		switch tag {
		case "cmap":
			err = sfnt.parseCmap()
		case "glyf":
			err = sfnt.parseGlyf()
		case "hhea":
			err = sfnt.parseHhea()
		case "hmtx":
			err = sfnt.parseHmtx()
		case "name":
			err = sfnt.parseName()
		case "OS/2":
			err = sfnt.parseOS2()
		case "post":
			err = sfnt.parsePost()
		}
		if err != nil {
			return nil, err
		}
	}
	return sfnt, nil
}

// Write writes out the SFNT file. The output only depends on the tables, so equal fonts give equal bytes.
func (sfnt *SFNT) Write() []byte {
	return WriteSFNT(sfnt.Tables)
}

// WriteSFNT writes a TrueType file from its raw tables. Tables are sorted by tag and the head checksum adjustment is recalculated.
func WriteSFNT(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	// write header
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(0x00010000) // sfntVersion
	numTables := uint16(len(tags))
	entrySelector := uint16(math.Log2(float64(numTables)))
	searchRange := uint16(1 << (entrySelector + 4))
	w.WriteUint16(numTables)                  // numTables
	w.WriteUint16(searchRange)                // searchRange
	w.WriteUint16(entrySelector)              // entrySelector
	w.WriteUint16(numTables<<4 - searchRange) // rangeShift

	// we'll write the table records at the end
	w.WriteBytes(make([]byte, numTables<<4))

	// write tables
	var checksumAdjustmentPos uint32
	hasHead := false
	offsets, lengths := make([]uint32, numTables), make([]uint32, numTables)
	for i, tag := range tags {
		offsets[i] = uint32(w.Len())
		table := tables[tag]
		if tag == "head" && 12 <= len(table) {
			checksumAdjustmentPos = uint32(w.Len()) + 8
			hasHead = true
			w.WriteBytes(table[:8])
			w.WriteUint32(0) // checksumAdjustment
			w.WriteBytes(table[12:])
		} else {
			w.WriteBytes(table)
		}
		lengths[i] = uint32(w.Len()) - offsets[i]

		padding := (4 - lengths[i]&3) & 3
		for i := 0; i < int(padding); i++ {
			w.WriteByte(0)
		}
	}

	// add table record entries
	buf := w.Bytes()
	for i, tag := range tags {
		pos := 12 + i<<4
		copy(buf[pos:], []byte(tag))
		padding := (4 - lengths[i]&3) & 3
		checksum := calcChecksum(buf[offsets[i] : offsets[i]+lengths[i]+padding])
		binary.BigEndian.PutUint32(buf[pos+4:], checksum)
		binary.BigEndian.PutUint32(buf[pos+8:], offsets[i])
		binary.BigEndian.PutUint32(buf[pos+12:], lengths[i])
	}
	if hasHead {
		binary.BigEndian.PutUint32(buf[checksumAdjustmentPos:], 0xB1B0AFBA-calcChecksum(buf))
	}
	return buf
}

////////////////////////////////////////////////////////////////

type headTable struct {
	FontRevision           uint32
	Flags                  [16]bool
	UnitsPerEm             uint16
	Created, Modified      time.Time
	XMin, YMin, XMax, YMax int16
	MacStyle               uint16
	LowestRecPPEM          uint16
	FontDirectionHint      int16
	IndexToLocFormat       int16
	GlyphDataFormat        int16
}

func (head *headTable) Write() []byte {
	w := parse.NewBinaryWriter(make([]byte, 0, 54))
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteUint32(head.FontRevision)
	w.WriteUint32(0)          // checksumAdjustment (set when writing the file)
	w.WriteUint32(0x5F0F3CF5) // magicNumber
	w.WriteUint16(flagsToUint16(head.Flags))
	w.WriteUint16(head.UnitsPerEm)
	w.WriteInt64(longDateTime(head.Created))
	w.WriteInt64(longDateTime(head.Modified))
	w.WriteInt16(head.XMin)
	w.WriteInt16(head.YMin)
	w.WriteInt16(head.XMax)
	w.WriteInt16(head.YMax)
	w.WriteUint16(head.MacStyle)
	w.WriteUint16(head.LowestRecPPEM)
	w.WriteInt16(head.FontDirectionHint)
	w.WriteInt16(head.IndexToLocFormat)
	w.WriteInt16(head.GlyphDataFormat)
	return w.Bytes()
}

func (sfnt *SFNT) parseHead() error {
	b, ok := sfnt.Tables["head"]
	if !ok {
		return fmt.Errorf("head: missing table")
	} else if len(b) != 54 {
		return fmt.Errorf("head: bad table")
	}

	sfnt.Head = &headTable{}
	r := parse.NewBinaryReaderBytes(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 || minorVersion != 0 {
		return fmt.Errorf("head: bad version")
	}
	sfnt.Head.FontRevision = r.ReadUint32()
	_ = r.ReadUint32()                // checksumAdjustment
	if r.ReadUint32() != 0x5F0F3CF5 { // magicNumber
		return fmt.Errorf("head: bad magic version")
	}
	sfnt.Head.Flags = Uint16ToFlags(r.ReadUint16())
	sfnt.Head.UnitsPerEm = r.ReadUint16()
	created := r.ReadUint64()
	modified := r.ReadUint64()
	if math.MaxInt64 < created || math.MaxInt64 < modified {
		return fmt.Errorf("head: created and/or modified dates too large")
	}
	sfnt.Head.Created = epoch.Add(time.Second * time.Duration(created))
	sfnt.Head.Modified = epoch.Add(time.Second * time.Duration(modified))
	sfnt.Head.XMin = r.ReadInt16()
	sfnt.Head.YMin = r.ReadInt16()
	sfnt.Head.XMax = r.ReadInt16()
	sfnt.Head.YMax = r.ReadInt16()
	sfnt.Head.MacStyle = r.ReadUint16()
	sfnt.Head.LowestRecPPEM = r.ReadUint16()
	sfnt.Head.FontDirectionHint = r.ReadInt16()
	sfnt.Head.IndexToLocFormat = r.ReadInt16()
	if sfnt.Head.IndexToLocFormat != 0 && sfnt.Head.IndexToLocFormat != 1 {
		return fmt.Errorf("head: bad indexToLocFormat")
	}
	sfnt.Head.GlyphDataFormat = r.ReadInt16()
	return nil
}

////////////////////////////////////////////////////////////////

type hheaTable struct {
	Ascender            int16
	Descender           int16
	LineGap             int16
	AdvanceWidthMax     uint16
	MinLeftSideBearing  int16
	MinRightSideBearing int16
	XMaxExtent          int16
	CaretSlopeRise      int16
	CaretSlopeRun       int16
	CaretOffset         int16
	MetricDataFormat    int16
	NumberOfHMetrics    uint16
}

func (hhea *hheaTable) Write() []byte {
	w := parse.NewBinaryWriter(make([]byte, 0, 36))
	w.WriteUint16(1) // majorVersion
	w.WriteUint16(0) // minorVersion
	w.WriteInt16(hhea.Ascender)
	w.WriteInt16(hhea.Descender)
	w.WriteInt16(hhea.LineGap)
	w.WriteUint16(hhea.AdvanceWidthMax)
	w.WriteInt16(hhea.MinLeftSideBearing)
	w.WriteInt16(hhea.MinRightSideBearing)
	w.WriteInt16(hhea.XMaxExtent)
	w.WriteInt16(hhea.CaretSlopeRise)
	w.WriteInt16(hhea.CaretSlopeRun)
	w.WriteInt16(hhea.CaretOffset)
	w.WriteInt16(0) // reserved
	w.WriteInt16(0) // reserved
	w.WriteInt16(0) // reserved
	w.WriteInt16(0) // reserved
	w.WriteInt16(hhea.MetricDataFormat)
	w.WriteUint16(hhea.NumberOfHMetrics)
	return w.Bytes()
}

func (sfnt *SFNT) parseHhea() error {
	if sfnt.Maxp == nil {
		return fmt.Errorf("hhea: missing maxp table")
	}

	b, ok := sfnt.Tables["hhea"]
	if !ok {
		return fmt.Errorf("hhea: missing table")
	} else if len(b) != 36 {
		return fmt.Errorf("hhea: bad table")
	}

	sfnt.Hhea = &hheaTable{}
	r := parse.NewBinaryReaderBytes(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 || minorVersion != 0 {
		return fmt.Errorf("hhea: bad version")
	}
	sfnt.Hhea.Ascender = r.ReadInt16()
	sfnt.Hhea.Descender = r.ReadInt16()
	sfnt.Hhea.LineGap = r.ReadInt16()
	sfnt.Hhea.AdvanceWidthMax = r.ReadUint16()
	sfnt.Hhea.MinLeftSideBearing = r.ReadInt16()
	sfnt.Hhea.MinRightSideBearing = r.ReadInt16()
	sfnt.Hhea.XMaxExtent = r.ReadInt16()
	sfnt.Hhea.CaretSlopeRise = r.ReadInt16()
	sfnt.Hhea.CaretSlopeRun = r.ReadInt16()
	sfnt.Hhea.CaretOffset = r.ReadInt16()
	_ = r.ReadInt16() // reserved
	_ = r.ReadInt16() // reserved
	_ = r.ReadInt16() // reserved
	_ = r.ReadInt16() // reserved
	sfnt.Hhea.MetricDataFormat = r.ReadInt16()
	sfnt.Hhea.NumberOfHMetrics = r.ReadUint16()
	if sfnt.Maxp.NumGlyphs < sfnt.Hhea.NumberOfHMetrics || sfnt.Hhea.NumberOfHMetrics == 0 {
		return fmt.Errorf("hhea: bad numberOfHMetrics")
	}
	return nil
}

////////////////////////////////////////////////////////////////

type hmtxLongHorMetric struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

type hmtxTable struct {
	HMetrics         []hmtxLongHorMetric
	LeftSideBearings []int16
}

func (hmtx *hmtxTable) LeftSideBearing(glyphID uint16) int16 {
	if uint16(len(hmtx.HMetrics)) <= glyphID {
		return hmtx.LeftSideBearings[glyphID-uint16(len(hmtx.HMetrics))]
	}
	return hmtx.HMetrics[glyphID].LeftSideBearing
}

func (hmtx *hmtxTable) Advance(glyphID uint16) uint16 {
	if uint16(len(hmtx.HMetrics)) <= glyphID {
		glyphID = uint16(len(hmtx.HMetrics)) - 1
	}
	return hmtx.HMetrics[glyphID].AdvanceWidth
}

func (hmtx *hmtxTable) Write() []byte {
	w := parse.NewBinaryWriter(make([]byte, 0, 4*len(hmtx.HMetrics)+2*len(hmtx.LeftSideBearings)))
	for _, metric := range hmtx.HMetrics {
		w.WriteUint16(metric.AdvanceWidth)
		w.WriteInt16(metric.LeftSideBearing)
	}
	for _, lsb := range hmtx.LeftSideBearings {
		w.WriteInt16(lsb)
	}
	return w.Bytes()
}

func (sfnt *SFNT) parseHmtx() error {
	if sfnt.Hhea == nil {
		return fmt.Errorf("hmtx: missing hhea table")
	} else if sfnt.Maxp == nil {
		return fmt.Errorf("hmtx: missing maxp table")
	}

	b, ok := sfnt.Tables["hmtx"]
	length := 4*uint32(sfnt.Hhea.NumberOfHMetrics) + 2*uint32(sfnt.Maxp.NumGlyphs-sfnt.Hhea.NumberOfHMetrics)
	if !ok {
		return fmt.Errorf("hmtx: missing table")
	} else if uint32(len(b)) != length {
		return fmt.Errorf("hmtx: bad table")
	}

	sfnt.Hmtx = &hmtxTable{}
	sfnt.Hmtx.HMetrics = make([]hmtxLongHorMetric, sfnt.Hhea.NumberOfHMetrics)
	sfnt.Hmtx.LeftSideBearings = make([]int16, sfnt.Maxp.NumGlyphs-sfnt.Hhea.NumberOfHMetrics)
	r := parse.NewBinaryReaderBytes(b)
	for i := 0; i < int(sfnt.Hhea.NumberOfHMetrics); i++ {
		sfnt.Hmtx.HMetrics[i].AdvanceWidth = r.ReadUint16()
		sfnt.Hmtx.HMetrics[i].LeftSideBearing = r.ReadInt16()
	}
	for i := range sfnt.Hmtx.LeftSideBearings {
		sfnt.Hmtx.LeftSideBearings[i] = r.ReadInt16()
	}
	return nil
}

////////////////////////////////////////////////////////////////

type maxpTable struct {
	NumGlyphs             uint16
	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

func (maxp *maxpTable) Write() []byte {
	w := parse.NewBinaryWriter(make([]byte, 0, 32))
	w.WriteUint32(0x00010000) // version
	w.WriteUint16(maxp.NumGlyphs)
	w.WriteUint16(maxp.MaxPoints)
	w.WriteUint16(maxp.MaxContours)
	w.WriteUint16(maxp.MaxCompositePoints)
	w.WriteUint16(maxp.MaxCompositeContours)
	w.WriteUint16(maxp.MaxZones)
	w.WriteUint16(maxp.MaxTwilightPoints)
	w.WriteUint16(maxp.MaxStorage)
	w.WriteUint16(maxp.MaxFunctionDefs)
	w.WriteUint16(maxp.MaxInstructionDefs)
	w.WriteUint16(maxp.MaxStackElements)
	w.WriteUint16(maxp.MaxSizeOfInstructions)
	w.WriteUint16(maxp.MaxComponentElements)
	w.WriteUint16(maxp.MaxComponentDepth)
	return w.Bytes()
}

func (sfnt *SFNT) parseMaxp() error {
	b, ok := sfnt.Tables["maxp"]
	if !ok {
		return fmt.Errorf("maxp: missing table")
	} else if len(b) != 32 {
		return fmt.Errorf("maxp: bad table")
	}

	sfnt.Maxp = &maxpTable{}
	r := parse.NewBinaryReaderBytes(b)
	if r.ReadUint32() != 0x00010000 {
		return fmt.Errorf("maxp: bad version")
	}
	sfnt.Maxp.NumGlyphs = r.ReadUint16()
	sfnt.Maxp.MaxPoints = r.ReadUint16()
	sfnt.Maxp.MaxContours = r.ReadUint16()
	sfnt.Maxp.MaxCompositePoints = r.ReadUint16()
	sfnt.Maxp.MaxCompositeContours = r.ReadUint16()
	sfnt.Maxp.MaxZones = r.ReadUint16()
	sfnt.Maxp.MaxTwilightPoints = r.ReadUint16()
	sfnt.Maxp.MaxStorage = r.ReadUint16()
	sfnt.Maxp.MaxFunctionDefs = r.ReadUint16()
	sfnt.Maxp.MaxInstructionDefs = r.ReadUint16()
	sfnt.Maxp.MaxStackElements = r.ReadUint16()
	sfnt.Maxp.MaxSizeOfInstructions = r.ReadUint16()
	sfnt.Maxp.MaxComponentElements = r.ReadUint16()
	sfnt.Maxp.MaxComponentDepth = r.ReadUint16()
	if sfnt.Maxp.NumGlyphs == 0 {
		return fmt.Errorf("maxp: no glyphs")
	}
	return nil
}
