// Package woff converts TrueType fonts to and from the WOFF and WOFF2 web font formats.
package woff

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/tdewolff/fontastic/sfnt"
	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF/

// ErrInvalidFontData is returned if the font is malformed.
var ErrInvalidFontData = fmt.Errorf("invalid font data")

// ErrExceedsMemory is returned if the decompressed font would exceed MaxMemory.
var ErrExceedsMemory = fmt.Errorf("memory limit exceeded")

// MaxMemory is the maximum size in bytes of a decompressed font.
var MaxMemory uint32 = 30 * 1024 * 1024

// CompressionLevel is the zlib compression level of WOFF tables.
var CompressionLevel = zlib.BestCompression

type sfntTable struct {
	tag      string
	checksum uint32
	data     []byte
}

// readTables returns the tables of a TrueType file in the order of its table directory.
func readTables(b []byte) (uint32, []sfntTable, error) {
	if len(b) < 12 || uint(math.MaxUint32) < uint(len(b)) {
		return 0, nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	flavor := r.ReadUint32()
	if flavor != 0x00010000 && flavor != binary.BigEndian.Uint32([]byte("true")) {
		return 0, nil, fmt.Errorf("bad SFNT version")
	}
	numTables := r.ReadUint16()
	_ = r.ReadUint16() // searchRange
	_ = r.ReadUint16() // entrySelector
	_ = r.ReadUint16() // rangeShift
	if numTables == 0 || r.Len() < 16*int64(numTables) {
		return 0, nil, ErrInvalidFontData
	}

	tables := make([]sfntTable, numTables)
	for i := range tables {
		tables[i].tag = r.ReadString(4)
		tables[i].checksum = r.ReadUint32()
		offset := r.ReadUint32()
		length := r.ReadUint32()
		if uint32(len(b)) < offset || uint32(len(b))-offset < length {
			return 0, nil, ErrInvalidFontData
		}
		tables[i].data = b[offset : offset+length : offset+length]
	}
	return flavor, tables, nil
}

// FromSFNT converts a TrueType font to the WOFF format. Tables are zlib compressed unless that does not make them smaller.
func FromSFNT(b []byte) ([]byte, error) {
	flavor, tables, err := readTables(b)
	if err != nil {
		return nil, err
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].tag < tables[j].tag })

	var totalSfntSize uint32 = 12 + 16*uint32(len(tables))
	compressed := make([][]byte, len(tables))
	for i, table := range tables {
		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, CompressionLevel)
		if err != nil {
			return nil, err
		} else if _, err := zw.Write(table.data); err != nil {
			return nil, err
		} else if err := zw.Close(); err != nil {
			return nil, err
		}
		if buf.Len() < len(table.data) {
			compressed[i] = buf.Bytes()
		} else {
			compressed[i] = table.data
		}
		totalSfntSize += (uint32(len(table.data)) + 3) &^ 3
	}

	w := parse.NewBinaryWriter(make([]byte, 0, len(b)))
	w.WriteString("wOFF")              // signature
	w.WriteUint32(flavor)              // flavor
	w.WriteUint32(0)                   // length (set later)
	w.WriteUint16(uint16(len(tables))) // numTables
	w.WriteUint16(0)                   // reserved
	w.WriteUint32(totalSfntSize)       // totalSfntSize
	w.WriteUint16(1)                   // majorVersion
	w.WriteUint16(0)                   // minorVersion
	w.WriteUint32(0)                   // metaOffset
	w.WriteUint32(0)                   // metaLength
	w.WriteUint32(0)                   // metaOrigLength
	w.WriteUint32(0)                   // privOffset
	w.WriteUint32(0)                   // privLength

	// table directory is written after the tables
	w.WriteBytes(make([]byte, 20*len(tables)))
	for i, table := range tables {
		offset := w.Len()
		w.WriteBytes(compressed[i])
		for w.Len()%4 != 0 {
			w.WriteByte(0)
		}

		buf := w.Bytes()
		pos := 44 + 20*i
		copy(buf[pos:], table.tag)
		binary.BigEndian.PutUint32(buf[pos+4:], uint32(offset))
		binary.BigEndian.PutUint32(buf[pos+8:], uint32(len(compressed[i])))
		binary.BigEndian.PutUint32(buf[pos+12:], uint32(len(table.data)))
		binary.BigEndian.PutUint32(buf[pos+16:], table.checksum)
	}
	buf := w.Bytes()
	binary.BigEndian.PutUint32(buf[8:], uint32(len(buf))) // length
	return buf, nil
}

// ParseWOFF parses the WOFF font format and returns its contained TrueType font.
func ParseWOFF(b []byte) ([]byte, error) {
	if len(b) < 44 {
		return nil, ErrInvalidFontData
	}

	r := parse.NewBinaryReaderBytes(b)
	signature := r.ReadString(4)
	if signature != "wOFF" {
		return nil, fmt.Errorf("bad signature")
	}
	_ = r.ReadUint32() // flavor
	length := r.ReadUint32()
	numTables := r.ReadUint16()
	reserved := r.ReadUint16()
	totalSfntSize := r.ReadUint32()
	_ = r.ReadUint16() // majorVersion
	_ = r.ReadUint16() // minorVersion
	_ = r.ReadUint32() // metaOffset
	_ = r.ReadUint32() // metaLength
	_ = r.ReadUint32() // metaOrigLength
	_ = r.ReadUint32() // privOffset
	_ = r.ReadUint32() // privLength
	if length != uint32(len(b)) {
		return nil, fmt.Errorf("length in header must match file size")
	} else if numTables == 0 {
		return nil, fmt.Errorf("numTables in header must not be zero")
	} else if reserved != 0 {
		return nil, fmt.Errorf("reserved in header must be zero")
	} else if r.Len() < 20*int64(numTables) {
		return nil, ErrInvalidFontData
	} else if MaxMemory < totalSfntSize {
		return nil, ErrExceedsMemory
	}

	tables := make(map[string][]byte, numTables)
	var sfntSize uint32 = 12 + 16*uint32(numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		origChecksum := r.ReadUint32()
		if _, ok := tables[tag]; ok {
			return nil, fmt.Errorf("%s: table defined more than once", tag)
		} else if uint32(len(b)) < offset || uint32(len(b))-offset < compLength {
			return nil, ErrInvalidFontData
		} else if origLength < compLength {
			return nil, fmt.Errorf("%s: compressed table size is larger than decompressed size", tag)
		} else if MaxMemory-sfntSize < origLength {
			return nil, ErrExceedsMemory
		}
		sfntSize += origLength

		data := b[offset : offset+compLength : offset+compLength]
		if compLength < origLength {
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", tag, err)
			}
			dataBuf := bytes.NewBuffer(make([]byte, 0, origLength))
			if _, err := io.Copy(dataBuf, io.LimitReader(zr, int64(origLength)+1)); err != nil {
				return nil, fmt.Errorf("%s: %w", tag, err)
			} else if err := zr.Close(); err != nil {
				return nil, fmt.Errorf("%s: %w", tag, err)
			}
			data = dataBuf.Bytes()
			if uint32(len(data)) != origLength {
				return nil, fmt.Errorf("%s: decompressed table size must match origLength", tag)
			}
		}

		padded := data
		if len(data)%4 != 0 {
			padded = append(append([]byte{}, data...), make([]byte, 4-len(data)%4)...)
		}
		if tag != "head" && checksum(padded) != origChecksum {
			return nil, fmt.Errorf("%s: bad checksum", tag)
		}
		tables[tag] = data
	}
	return sfnt.WriteSFNT(tables), nil
}

// ToSFNT returns the TrueType font contained in a WOFF or WOFF2 font. TrueType input is returned unchanged.
func ToSFNT(b []byte) ([]byte, error) {
	if len(b) < 4 {
		return nil, ErrInvalidFontData
	}
	switch string(b[:4]) {
	case "wOFF":
		return ParseWOFF(b)
	case "wOF2":
		return ParseWOFF2(b)
	case "true", "\x00\x01\x00\x00":
		return b, nil
	}
	return nil, fmt.Errorf("unknown font format")
}

// MediaType returns the media type of a TrueType, WOFF, or WOFF2 font.
func MediaType(b []byte) (string, error) {
	if len(b) < 4 {
		return "", ErrInvalidFontData
	}
	switch string(b[:4]) {
	case "wOFF":
		return "font/woff", nil
	case "wOF2":
		return "font/woff2", nil
	case "true", "\x00\x01\x00\x00":
		return "font/ttf", nil
	}
	return "", fmt.Errorf("unknown font format")
}

func checksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i:])
	}
	return sum
}
