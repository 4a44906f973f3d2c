package sfnt

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/tdewolff/parse/v2"
)

////////////////////////////////////////////////////////////////

// GlyfContour holds the decoded points of a simple glyph.
type GlyfContour struct {
	GlyphID                uint16
	XMin, YMin, XMax, YMax int16
	EndPoints              []uint16
	Instructions           []byte
	OnCurve                []bool
	XCoordinates           []int16
	YCoordinates           []int16
}

// NumContours returns the number of contours.
func (contour *GlyfContour) NumContours() int {
	return len(contour.EndPoints)
}

// Points returns the points of contour i as (x,y,onCurve) triples.
func (contour *GlyfContour) Points(i int) ([]int16, []int16, []bool) {
	start := 0
	if 0 < i {
		start = int(contour.EndPoints[i-1]) + 1
	}
	end := int(contour.EndPoints[i]) + 1
	return contour.XCoordinates[start:end], contour.YCoordinates[start:end], contour.OnCurve[start:end]
}

func (contour *GlyfContour) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Glyph %v:\n", contour.GlyphID)
	fmt.Fprintf(&b, "  Contours: %v\n", len(contour.EndPoints))
	fmt.Fprintf(&b, "  XMin: %v\n", contour.XMin)
	fmt.Fprintf(&b, "  YMin: %v\n", contour.YMin)
	fmt.Fprintf(&b, "  XMax: %v\n", contour.XMax)
	fmt.Fprintf(&b, "  YMax: %v\n", contour.YMax)
	fmt.Fprintf(&b, "  EndPoints: %v\n", contour.EndPoints)
	if len(contour.EndPoints) == 0 {
		fmt.Fprintf(&b, "  Empty glyph\n")
	} else {
		fmt.Fprintf(&b, "  Coordinates:\n")
		for i := range contour.XCoordinates {
			onCurve := "Off"
			if contour.OnCurve[i] {
				onCurve = "On"
			}
			fmt.Fprintf(&b, "    %8v %8v %3v\n", contour.XCoordinates[i], contour.YCoordinates[i], onCurve)
		}
	}
	return b.String()
}

// encodeSimpleGlyph writes a simple glyph description. It returns nil for glyphs without points. The bounding box is returned as well.
func encodeSimpleGlyph(contours [][]quadPoint) ([]byte, [4]int16) {
	numPoints := 0
	numContours := 0
	for _, pts := range contours {
		if 0 < len(pts) {
			numPoints += len(pts)
			numContours++
		}
	}
	if numPoints == 0 {
		return nil, [4]int16{}
	}

	bbox := [4]int16{math.MaxInt16, math.MaxInt16, math.MinInt16, math.MinInt16}
	flags := make([]byte, 0, numPoints)
	xs := parse.NewBinaryWriter(make([]byte, 0, 2*numPoints))
	ys := parse.NewBinaryWriter(make([]byte, 0, 2*numPoints))
	endPoints := make([]uint16, 0, numContours)

	var x, y int16
	for _, pts := range contours {
		for _, pt := range pts {
			bbox[0] = min(bbox[0], pt.X)
			bbox[1] = min(bbox[1], pt.Y)
			bbox[2] = max(bbox[2], pt.X)
			bbox[3] = max(bbox[3], pt.Y)

			var flag byte
			if pt.OnCurve {
				flag |= 0x01 // ON_CURVE_POINT
			}
			dx, dy := int(pt.X)-int(x), int(pt.Y)-int(y)
			if dx == 0 {
				flag |= 0x10 // X_IS_SAME_OR_POSITIVE_X_SHORT_VECTOR
			} else if -256 < dx && dx < 256 {
				flag |= 0x02 // X_SHORT_VECTOR
				if 0 < dx {
					flag |= 0x10
				} else {
					dx = -dx
				}
				xs.WriteUint8(uint8(dx))
			} else {
				xs.WriteInt16(int16(dx))
			}
			if dy == 0 {
				flag |= 0x20 // Y_IS_SAME_OR_POSITIVE_Y_SHORT_VECTOR
			} else if -256 < dy && dy < 256 {
				flag |= 0x04 // Y_SHORT_VECTOR
				if 0 < dy {
					flag |= 0x20
				} else {
					dy = -dy
				}
				ys.WriteUint8(uint8(dy))
			} else {
				ys.WriteInt16(int16(dy))
			}
			flags = append(flags, flag)
			x, y = pt.X, pt.Y
		}
		if 0 < len(pts) {
			var prev uint16
			if 0 < len(endPoints) {
				prev = endPoints[len(endPoints)-1] + 1
			}
			endPoints = append(endPoints, prev+uint16(len(pts))-1)
		}
	}

	w := parse.NewBinaryWriter(make([]byte, 0, 12+2*numContours+numPoints+int(xs.Len()+ys.Len())))
	w.WriteInt16(int16(numContours))
	w.WriteInt16(bbox[0]) // xMin
	w.WriteInt16(bbox[1]) // yMin
	w.WriteInt16(bbox[2]) // xMax
	w.WriteInt16(bbox[3]) // yMax
	for _, endPoint := range endPoints {
		w.WriteUint16(endPoint)
	}
	w.WriteUint16(0) // instructionLength

	// compress runs of equal flags with REPEAT_FLAG
	for i := 0; i < len(flags); {
		j := i + 1
		for j < len(flags) && flags[j] == flags[i] && j-i <= 255 {
			j++
		}
		if repeats := j - i - 1; 1 < repeats {
			w.WriteUint8(flags[i] | 0x08) // REPEAT_FLAG
			w.WriteUint8(uint8(repeats))
		} else {
			j = i + 1
			w.WriteUint8(flags[i])
		}
		i = j
	}
	w.WriteBytes(xs.Bytes())
	w.WriteBytes(ys.Bytes())
	return w.Bytes(), bbox
}

type glyfTable struct {
	data []byte
	loca *locaTable
}

// Get returns the glyph data corresponding to the passed glyphID. It returns nil if the glyph doesn't exist.
func (glyf *glyfTable) Get(glyphID uint16) []byte {
	start, ok1 := glyf.loca.Get(glyphID)
	end, ok2 := glyf.loca.Get(glyphID + 1)
	if !ok1 || !ok2 || end < start || uint32(len(glyf.data)) < end {
		return nil
	}
	return glyf.data[start:end]
}

// Contour returns the contours of a simple glyph.
func (glyf *glyfTable) Contour(glyphID uint16) (*GlyfContour, error) {
	b := glyf.Get(glyphID)
	if b == nil {
		return nil, fmt.Errorf("glyf: bad glyphID %v", glyphID)
	} else if len(b) == 0 {
		return &GlyfContour{GlyphID: glyphID}, nil
	}
	r := parse.NewBinaryReaderBytes(b)
	if r.Len() < 10 {
		return nil, fmt.Errorf("glyf: bad table for glyphID %v", glyphID)
	}

	contour := &GlyfContour{}
	contour.GlyphID = glyphID
	numberOfContours := r.ReadInt16()
	contour.XMin = r.ReadInt16()
	contour.YMin = r.ReadInt16()
	contour.XMax = r.ReadInt16()
	contour.YMax = r.ReadInt16()
	if numberOfContours < 0 {
		return nil, fmt.Errorf("glyf: composite glyph not supported")
	} else if numberOfContours == 0 {
		return contour, nil
	}

	if r.Len() < 2*int64(numberOfContours)+2 {
		return nil, fmt.Errorf("glyf: bad table for glyphID %v", glyphID)
	}
	contour.EndPoints = make([]uint16, numberOfContours)
	for i := 0; i < int(numberOfContours); i++ {
		contour.EndPoints[i] = r.ReadUint16()
		if 0 < i && contour.EndPoints[i] <= contour.EndPoints[i-1] {
			return nil, fmt.Errorf("glyf: bad endPoints for glyphID %v", glyphID)
		}
	}

	instructionLength := r.ReadUint16()
	if r.Len() < int64(instructionLength) {
		return nil, fmt.Errorf("glyf: bad table for glyphID %v", glyphID)
	}
	contour.Instructions = r.ReadBytes(int64(instructionLength))

	numPoints := int(contour.EndPoints[numberOfContours-1]) + 1
	flags := make([]byte, numPoints)
	contour.OnCurve = make([]bool, numPoints)
	for i := 0; i < numPoints; i++ {
		if r.Len() < 1 {
			return nil, fmt.Errorf("glyf: bad table for glyphID %v", glyphID)
		}

		flags[i] = r.ReadUint8()
		contour.OnCurve[i] = flags[i]&0x01 != 0
		if flags[i]&0x08 != 0 { // REPEAT_FLAG
			repeats := int(r.ReadUint8())
			if numPoints <= i+repeats {
				return nil, fmt.Errorf("glyf: bad flags for glyphID %v", glyphID)
			}
			for j := 1; j <= repeats; j++ {
				flags[i+j] = flags[i]
				contour.OnCurve[i+j] = contour.OnCurve[i]
			}
			i += repeats
		}
	}

	var x int16
	contour.XCoordinates = make([]int16, numPoints)
	for i := 0; i < numPoints; i++ {
		xShortVector := flags[i]&0x02 != 0
		xIsSameOrPositiveXShortVector := flags[i]&0x10 != 0
		if xShortVector {
			if r.Len() < 1 {
				return nil, fmt.Errorf("glyf: bad table or flags for glyphID %v", glyphID)
			}
			if xIsSameOrPositiveXShortVector {
				x += int16(r.ReadUint8())
			} else {
				x -= int16(r.ReadUint8())
			}
		} else if !xIsSameOrPositiveXShortVector {
			if r.Len() < 2 {
				return nil, fmt.Errorf("glyf: bad table or flags for glyphID %v", glyphID)
			}
			x += r.ReadInt16()
		}
		contour.XCoordinates[i] = x
	}

	var y int16
	contour.YCoordinates = make([]int16, numPoints)
	for i := 0; i < numPoints; i++ {
		yShortVector := flags[i]&0x04 != 0
		yIsSameOrPositiveYShortVector := flags[i]&0x20 != 0
		if yShortVector {
			if r.Len() < 1 {
				return nil, fmt.Errorf("glyf: bad table or flags for glyphID %v", glyphID)
			}
			if yIsSameOrPositiveYShortVector {
				y += int16(r.ReadUint8())
			} else {
				y -= int16(r.ReadUint8())
			}
		} else if !yIsSameOrPositiveYShortVector {
			if r.Len() < 2 {
				return nil, fmt.Errorf("glyf: bad table or flags for glyphID %v", glyphID)
			}
			y += r.ReadInt16()
		}
		contour.YCoordinates[i] = y
	}
	return contour, nil
}

func (sfnt *SFNT) parseGlyf() error {
	if sfnt.Loca == nil {
		return fmt.Errorf("glyf: missing loca table")
	} else if sfnt.Maxp == nil {
		return fmt.Errorf("glyf: missing maxp table")
	}

	b, ok := sfnt.Tables["glyf"]
	if !ok {
		return fmt.Errorf("glyf: missing table")
	} else if length, _ := sfnt.Loca.Get(sfnt.Maxp.NumGlyphs); uint32(len(b)) < length {
		return fmt.Errorf("glyf: bad table")
	}

	sfnt.Glyf = &glyfTable{
		data: b,
		loca: sfnt.Loca,
	}
	return nil
}

////////////////////////////////////////////////////////////////

type locaTable struct {
	Format int16
	data   []byte
}

func (loca *locaTable) Get(glyphID uint16) (uint32, bool) {
	if loca.Format == 0 && int(glyphID)*2+2 <= len(loca.data) {
		return 2 * uint32(binary.BigEndian.Uint16(loca.data[int(glyphID)*2:])), true
	} else if loca.Format == 1 && int(glyphID)*4+4 <= len(loca.data) {
		return binary.BigEndian.Uint32(loca.data[int(glyphID)*4:]), true
	}
	return 0, false
}

// writeLoca writes the glyph offsets in the short format when possible.
func writeLoca(offsets []uint32) ([]byte, int16) {
	if offsets[len(offsets)-1] <= 2*math.MaxUint16 {
		w := parse.NewBinaryWriter(make([]byte, 0, 2*len(offsets)))
		for _, offset := range offsets {
			w.WriteUint16(uint16(offset / 2))
		}
		return w.Bytes(), 0
	}
	w := parse.NewBinaryWriter(make([]byte, 0, 4*len(offsets)))
	for _, offset := range offsets {
		w.WriteUint32(offset)
	}
	return w.Bytes(), 1
}

func (sfnt *SFNT) parseLoca() error {
	if sfnt.Head == nil {
		return fmt.Errorf("loca: missing head table")
	} else if sfnt.Maxp == nil {
		return fmt.Errorf("loca: missing maxp table")
	}

	b, ok := sfnt.Tables["loca"]
	if !ok {
		return fmt.Errorf("loca: missing table")
	}
	size := 2
	if sfnt.Head.IndexToLocFormat == 1 {
		size = 4
	}
	if len(b) < size*(int(sfnt.Maxp.NumGlyphs)+1) {
		return fmt.Errorf("loca: bad table")
	}

	sfnt.Loca = &locaTable{
		Format: sfnt.Head.IndexToLocFormat,
		data:   b,
	}
	return nil
}
