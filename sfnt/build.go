package sfnt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// VendorID is written in the OS/2 table.
var VendorID = [4]byte{'N', 'O', 'N', 'E'}

type builtGlyph struct {
	data    []byte
	bbox    [4]int16
	advance uint16
	points  int
}

// buildTrueType encodes the glyph records into TrueType tables and writes the font file. Glyphs are stored in the given order, the first must be .notdef.
func buildTrueType(t *Typeface, glyphs []*GlyphFile) ([]byte, error) {
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("no glyphs")
	}

	dy := t.Get(Baseline)
	built := make([]builtGlyph, len(glyphs))
	maxp := &maxpTable{
		NumGlyphs: uint16(len(glyphs)),
		MaxZones:  2,
	}
	bbox := [4]int16{math.MaxInt16, math.MaxInt16, math.MinInt16, math.MinInt16}
	hasOutlines := false
	for i, g := range glyphs {
		contours := make([][]quadPoint, 0, len(g.Contours))
		for _, c := range g.Contours {
			if pts := quadContour(c, dy); 0 < len(pts) {
				contours = append(contours, pts)
				built[i].points += len(pts)
			}
		}
		if 0xFFFF < built[i].points || 0x7FFF < len(contours) {
			return nil, fmt.Errorf("glyph %s: too many points", g.Name)
		}
		built[i].data, built[i].bbox = encodeSimpleGlyph(contours)
		built[i].advance = uint16(max(0, min(g.AdvanceWidth, math.MaxUint16)))
		if built[i].data != nil {
			hasOutlines = true
			bbox[0] = min(bbox[0], built[i].bbox[0])
			bbox[1] = min(bbox[1], built[i].bbox[1])
			bbox[2] = max(bbox[2], built[i].bbox[2])
			bbox[3] = max(bbox[3], built[i].bbox[3])
			maxp.MaxPoints = max(maxp.MaxPoints, uint16(built[i].points))
			maxp.MaxContours = max(maxp.MaxContours, uint16(len(contours)))
		}
	}
	if !hasOutlines {
		bbox = [4]int16{}
	}

	// glyf and loca
	glyf := make([]byte, 0, 1024)
	offsets := make([]uint32, 0, len(glyphs)+1)
	for _, g := range built {
		offsets = append(offsets, uint32(len(glyf)))
		glyf = append(glyf, g.data...)
		if len(glyf)%2 != 0 {
			glyf = append(glyf, 0)
		}
	}
	offsets = append(offsets, uint32(len(glyf)))
	loca, indexToLocFormat := writeLoca(offsets)

	// hmtx and hhea
	numberOfHMetrics := len(built)
	for 1 < numberOfHMetrics && built[numberOfHMetrics-1].advance == built[numberOfHMetrics-2].advance {
		numberOfHMetrics--
	}
	hmtx := &hmtxTable{}
	hhea := &hheaTable{
		Ascender:         t.lineAscent(),
		Descender:        t.lineDescent(),
		CaretSlopeRise:   1,
		NumberOfHMetrics: uint16(numberOfHMetrics),
	}
	first := true
	var sumAdvance, numAdvance int
	for i, g := range built {
		lsb := g.bbox[0]
		if i < numberOfHMetrics {
			hmtx.HMetrics = append(hmtx.HMetrics, hmtxLongHorMetric{g.advance, lsb})
		} else {
			hmtx.LeftSideBearings = append(hmtx.LeftSideBearings, lsb)
		}
		hhea.AdvanceWidthMax = max(hhea.AdvanceWidthMax, g.advance)
		if 0 < g.advance {
			sumAdvance += int(g.advance)
			numAdvance++
		}
		if g.data == nil {
			continue
		}
		rsb := toFUnit(float64(g.advance) - float64(g.bbox[2]))
		extent := g.bbox[2]
		if first {
			hhea.MinLeftSideBearing, hhea.MinRightSideBearing, hhea.XMaxExtent = lsb, rsb, extent
			first = false
		} else {
			hhea.MinLeftSideBearing = min(hhea.MinLeftSideBearing, lsb)
			hhea.MinRightSideBearing = min(hhea.MinRightSideBearing, rsb)
			hhea.XMaxExtent = max(hhea.XMaxExtent, extent)
		}
	}

	// cmap, the first glyph mapping a rune owns it
	runeMap := map[rune]uint16{}
	names := make([]string, len(glyphs))
	for i, g := range glyphs {
		names[i] = g.Name
		if !g.mapped {
			continue
		} else if _, ok := runeMap[g.Char]; !ok {
			runeMap[g.Char] = uint16(i)
		}
	}
	if len(runeMap) == 0 {
		return nil, fmt.Errorf("no mapped glyphs")
	}
	rs := make([]rune, 0, len(runeMap))
	var firstChar, lastChar rune = math.MaxInt32, 0
	for r := range runeMap {
		rs = append(rs, r)
		firstChar = min(firstChar, r)
		lastChar = max(lastChar, r)
	}

	head := &headTable{
		FontRevision:      toFixed(fontRevision(t.Version)),
		UnitsPerEm:        uint16(t.Em()),
		Created:           t.Modified,
		Modified:          t.Modified,
		XMin:              bbox[0],
		YMin:              bbox[1],
		XMax:              bbox[2],
		YMax:              bbox[3],
		LowestRecPPEM:     8,
		FontDirectionHint: 2,
		IndexToLocFormat:  indexToLocFormat,
	}
	head.Flags[0] = true // baseline at y=0
	head.Flags[1] = true // left sidebearing at x=0
	head.Flags[3] = true // integer ppem

	name, err := nameWrite(map[NameID]string{
		NameCopyrightNotice:  t.copyright(),
		NameFontFamily:       t.FamilyName,
		NameFontSubfamily:    t.SubFamily,
		NameUniqueIdentifier: fmt.Sprintf("%s;%s-%s", t.Version, t.FamilyName, t.SubFamily),
		NameFull:             strings.TrimSpace(t.FamilyName + " " + t.SubFamily),
		NameVersion:          "Version " + t.Version,
		NamePostScript:       postScriptName(t.FamilyName + "-" + t.SubFamily),
		NameDesigner:         t.Author,
		NameLicense:          t.License,
	})
	if err != nil {
		return nil, err
	}

	em := t.Em()
	os2 := &os2Table{
		UsWeightClass:       400,
		UsWidthClass:        5,
		YSubscriptXSize:     toFUnit(0.65 * em),
		YSubscriptYSize:     toFUnit(0.6 * em),
		YSubscriptYOffset:   toFUnit(0.075 * em),
		YSuperscriptXSize:   toFUnit(0.65 * em),
		YSuperscriptYSize:   toFUnit(0.6 * em),
		YSuperscriptYOffset: toFUnit(0.35 * em),
		YStrikeoutSize:      toFUnit(0.05 * em),
		YStrikeoutPosition:  toFUnit(t.XHeight() / 2),
		UlUnicodeRange:      os2UlUnicodeRange(rs),
		AchVendID:           VendorID,
		FsSelection:         0x0080, // USE_TYPO_METRICS
		UsFirstCharIndex:    uint16(min(firstChar, 0xFFFF)),
		UsLastCharIndex:     uint16(min(lastChar, 0xFFFF)),
		STypoAscender:       toFUnit(t.Ascender()),
		STypoDescender:      -toFUnit(t.Descender()),
		STypoLineGap:        toFUnit(t.Get(TopSideBearing) + t.Get(BottomSideBearing)),
		UsWinAscent:         uint16(max(hhea.Ascender, bbox[3], 0)),
		UsWinDescent:        uint16(max(-hhea.Descender, -bbox[1], 0)),
		UlCodePageRange1:    os2CodePageRange(rs),
		SxHeight:            toFUnit(t.XHeight()),
		SCapHeight:          toFUnit(t.Ascender()),
		UsBreakChar:         ' ',
	}
	if 0 < numAdvance {
		os2.XAvgCharWidth = toFUnit(float64(sumAdvance) / float64(numAdvance))
	}
	if strings.EqualFold(t.SubFamily, "Regular") {
		os2.FsSelection |= 0x0040 // REGULAR
	}
	if glyphID, ok := runeMap['H']; ok && built[glyphID].data != nil {
		os2.SCapHeight = built[glyphID].bbox[3]
	}

	post, err := postWrite(&postTable{
		UnderlinePosition:  -toFUnit(0.075 * em),
		UnderlineThickness: toFUnit(0.05 * em),
	}, names)
	if err != nil {
		return nil, err
	}

	return WriteSFNT(map[string][]byte{
		"cmap": cmapWrite(runeMap),
		"glyf": glyf,
		"head": head.Write(),
		"hhea": hhea.Write(),
		"hmtx": hmtx.Write(),
		"loca": loca,
		"maxp": maxp.Write(),
		"name": name,
		"OS/2": os2.Write(),
		"post": post,
	}), nil
}

// fontRevision parses the leading number of a version string such as "1.2" or "Version 1.2 beta". It returns 1.0 if no number is found.
func fontRevision(version string) float64 {
	version = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(version), "Version"))
	end := 0
	for end < len(version) && (version[end] == '.' || '0' <= version[end] && version[end] <= '9') {
		end++
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(version[:end], "."), 64); err == nil && v < 32768 {
		return v
	}
	return 1.0
}
