package woff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/fontastic/sfnt"
	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF2/

// BrotliQuality is the compression quality of WOFF2 font data.
var BrotliQuality = brotli.BestCompression

var woff2TableTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

// FromSFNT2 converts a TrueType font to the WOFF2 format. The glyf and loca tables are stored with the null transform.
func FromSFNT2(b []byte) ([]byte, error) {
	flavor, tables, err := readTables(b)
	if err != nil {
		return nil, err
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })

	w := parse.NewBinaryWriter(make([]byte, 0, len(b)*6/10))
	w.WriteString("wOF2")              // signature
	w.WriteUint32(flavor)              // flavor
	w.WriteUint32(0)                   // length (set later)
	w.WriteUint16(uint16(len(tables))) // numTables
	w.WriteUint16(0)                   // reserved
	w.WriteUint32(0)                   // totalSfntSize (set later)
	w.WriteUint32(0)                   // totalCompressedSize (set later)
	w.WriteUint16(1)                   // majorVersion
	w.WriteUint16(0)                   // minorVersion
	w.WriteUint32(0)                   // metaOffset
	w.WriteUint32(0)                   // metaLength
	w.WriteUint32(0)                   // metaOrigLength
	w.WriteUint32(0)                   // privOffset
	w.WriteUint32(0)                   // privLength

	var totalSfntSize uint32 = 12 + 16*uint32(len(tables))
	for _, table := range tables {
		tagIndex := -1
		for index, woff2Tag := range woff2TableTags {
			if woff2Tag == table.tag {
				tagIndex = index
				break
			}
		}

		transformVersion := 0
		if table.tag == "glyf" || table.tag == "loca" {
			transformVersion = 3 // null transform
		}
		if tagIndex == -1 {
			w.WriteUint8(byte(transformVersion)<<6 | 0x3F) // flags
			w.WriteString(table.tag)
		} else {
			w.WriteUint8(byte(transformVersion)<<6 | byte(tagIndex)) // flags
		}
		writeUintBase128(w, uint32(len(table.data)))
		totalSfntSize += (uint32(len(table.data)) + 3) &^ 3
	}

	headerLength := w.Len()
	wBrotli := brotli.NewWriterLevel(w, BrotliQuality)
	for _, table := range tables {
		data := table.data
		if table.tag == "head" && 18 <= len(data) {
			head := make([]byte, len(data))
			copy(head, data)
			flags := binary.BigEndian.Uint16(head[16:])
			flags |= 0x0800 // set bit 11, font is compressed
			binary.BigEndian.PutUint16(head[16:], flags)
			data = head
		}
		if _, err := wBrotli.Write(data); err != nil {
			return nil, err
		}
	}
	if err := wBrotli.Close(); err != nil {
		return nil, err
	}

	// pad to 4-byte boundary, required by some browsers
	totalCompressedSize := w.Len() - headerLength
	for w.Len()%4 != 0 {
		w.WriteByte(0)
	}

	buf := w.Bytes()
	binary.BigEndian.PutUint32(buf[8:], uint32(len(buf)))     // length
	binary.BigEndian.PutUint32(buf[16:], totalSfntSize)       // totalSfntSize
	binary.BigEndian.PutUint32(buf[20:], uint32(totalCompressedSize)) // totalCompressedSize
	return buf, nil
}

type woff2Table struct {
	tag        string
	origLength uint32
	data       []byte
}

// ParseWOFF2 parses the WOFF2 font format and returns its contained TrueType font. Only fonts without table transforms are supported.
func ParseWOFF2(b []byte) ([]byte, error) {
	if len(b) < 48 {
		return nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadString(4)
	if flavor == "ttcf" {
		return nil, fmt.Errorf("collections are unsupported")
	}
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	_ = r.ReadUint32() // totalSfntSize
	totalCompressedSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	_ = r.ReadUint32() // metaOffset
	_ = r.ReadUint32() // metaLength
	_ = r.ReadUint32() // metaOrigLength
	_ = r.ReadUint32() // privOffset
	_ = r.ReadUint32() // privLength
	if r.EOF() {
		return nil, ErrInvalidFontData
	} else if length != uint32(len(b)) {
		return nil, fmt.Errorf("length in header must match file size")
	} else if numTables == 0 {
		return nil, fmt.Errorf("numTables in header must not be zero")
	} else if reserved != 0 {
		return nil, fmt.Errorf("reserved in header must be zero")
	}

	tables := make([]woff2Table, 0, numTables)
	seen := map[string]bool{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		flags := r.ReadUint8()
		tagIndex := int(flags & 0x3F)
		transformVersion := int((flags & 0xC0) >> 6)

		var tag string
		if tagIndex == 63 {
			tag = r.ReadString(4)
		} else if tagIndex < len(woff2TableTags) {
			tag = woff2TableTags[tagIndex]
		} else {
			return nil, ErrInvalidFontData
		}

		origLength, err := readUintBase128(r)
		if err != nil {
			return nil, err
		}
		if (tag == "glyf" || tag == "loca") && transformVersion != 3 || tag != "glyf" && tag != "loca" && transformVersion != 0 {
			return nil, fmt.Errorf("%s: table transforms are unsupported", tag)
		} else if seen[tag] {
			return nil, fmt.Errorf("%s: table defined more than once", tag)
		} else if math.MaxUint32-uncompressedSize < origLength {
			return nil, ErrInvalidFontData
		}
		seen[tag] = true
		uncompressedSize += origLength
		tables = append(tables, woff2Table{
			tag:        tag,
			origLength: origLength,
		})
	}

	compData := r.ReadBytes(int64(totalCompressedSize))
	if r.EOF() {
		return nil, ErrInvalidFontData
	} else if MaxMemory < uncompressedSize {
		return nil, ErrExceedsMemory
	}
	rBrotli := brotli.NewReader(bytes.NewReader(compData))
	dataBuf := bytes.NewBuffer(make([]byte, 0, uncompressedSize))
	if _, err := io.Copy(dataBuf, io.LimitReader(rBrotli, int64(uncompressedSize)+1)); err != nil {
		return nil, err
	}
	data := dataBuf.Bytes()
	if uint32(len(data)) != uncompressedSize {
		return nil, fmt.Errorf("sum of table lengths must match decompressed font data size")
	}

	sfntTables := make(map[string][]byte, len(tables))
	var offset uint32
	for _, table := range tables {
		sfntTables[table.tag] = data[offset : offset+table.origLength : offset+table.origLength]
		offset += table.origLength
	}

	// clear bit 11 in the head flags
	head, ok := sfntTables["head"]
	if !ok || len(head) < 18 {
		return nil, fmt.Errorf("head: must be present")
	}
	flags := binary.BigEndian.Uint16(head[16:])
	binary.BigEndian.PutUint16(head[16:], flags&^0x0800)
	return sfnt.WriteSFNT(sfntTables), nil
}

func readUintBase128(r *parse.BinaryReader) (uint32, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	var accum uint32
	for i := 0; i < 5; i++ {
		dataByte := r.ReadUint8()
		if r.EOF() {
			return 0, ErrInvalidFontData
		}
		if i == 0 && dataByte == 0x80 {
			return 0, fmt.Errorf("readUintBase128: must not start with leading zeros")
		}
		if (accum & 0xFE000000) != 0 {
			return 0, fmt.Errorf("readUintBase128: overflow")
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum, nil
		}
	}
	return 0, fmt.Errorf("readUintBase128: exceeds 5 bytes")
}

func writeUintBase128(w *parse.BinaryWriter, accum uint32) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if accum == 0 {
		w.WriteUint8(0)
		return
	}
	written := false
	for i := 4; 0 <= i; i-- {
		mask := uint32(0x7F) << (i * 7)
		if v := accum & mask; written || v != 0 {
			v >>= i * 7
			if i != 0 {
				v |= 0x80
			}
			w.WriteUint8(byte(v))
			written = true
		}
	}
}
