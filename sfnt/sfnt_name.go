package sfnt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tdewolff/parse/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// PlatformID is the platform of a name record.
type PlatformID uint16

// see PlatformID
const (
	PlatformUnicode   PlatformID = 0
	PlatformMacintosh PlatformID = 1
	PlatformWindows   PlatformID = 3
)

// EncodingID is the platform-specific encoding of a name record.
type EncodingID uint16

// see EncodingID
const (
	EncodingMacintoshRoman EncodingID = 0
	EncodingWindowsUnicode EncodingID = 1
)

const (
	languageMacintoshEnglish = 0
	languageWindowsEnglishUS = 0x0409
)

// NameID identifies a string in the name table.
type NameID uint16

// see NameID
const (
	NameCopyrightNotice NameID = iota
	NameFontFamily
	NameFontSubfamily
	NameUniqueIdentifier
	NameFull
	NameVersion
	NamePostScript
	NameTrademark
	NameManufacturer
	NameDesigner
	NameDescription
	NameVendorURL
	NameDesignerURL
	NameLicense
	NameLicenseURL
)

func (id NameID) String() string {
	switch id {
	case NameCopyrightNotice:
		return "Copyright"
	case NameFontFamily:
		return "FontFamily"
	case NameFontSubfamily:
		return "FontSubfamily"
	case NameUniqueIdentifier:
		return "UniqueIdentifier"
	case NameFull:
		return "Full"
	case NameVersion:
		return "Version"
	case NamePostScript:
		return "PostScript"
	case NameTrademark:
		return "Trademark"
	case NameManufacturer:
		return "Manufacturer"
	case NameDesigner:
		return "Designer"
	case NameDescription:
		return "Description"
	case NameVendorURL:
		return "VendorURL"
	case NameDesignerURL:
		return "DesignerURL"
	case NameLicense:
		return "License"
	case NameLicenseURL:
		return "LicenseURL"
	}
	return fmt.Sprintf("NameID(%d)", uint16(id))
}

type nameRecord struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     NameID
	Value    []byte
}

func (record nameRecord) String() string {
	var decoder *encoding.Decoder
	if record.Platform == PlatformUnicode || record.Platform == PlatformWindows {
		decoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	} else if record.Platform == PlatformMacintosh && record.Encoding == EncodingMacintoshRoman {
		decoder = charmap.Macintosh.NewDecoder()
	} else {
		return string(record.Value)
	}
	s, _, err := transform.String(decoder, string(record.Value))
	if err == nil {
		return s
	}
	return string(record.Value)
}

type nameTable struct {
	NameRecord []nameRecord
}

// Get returns all records for the name.
func (t *nameTable) Get(name NameID) []nameRecord {
	records := []nameRecord{}
	for _, record := range t.NameRecord {
		if record.Name == name {
			records = append(records, record)
		}
	}
	return records
}

// String returns the decoded name, preferring the Windows record.
func (t *nameTable) String(name NameID) string {
	records := t.Get(name)
	for _, record := range records {
		if record.Platform == PlatformWindows {
			return record.String()
		}
	}
	if 0 < len(records) {
		return records[0].String()
	}
	return ""
}

// nameWrite writes a name table with a Macintosh Roman and a Windows Unicode record for every non-empty string. Characters outside of Macintosh Roman are replaced.
func nameWrite(names map[NameID]string) ([]byte, error) {
	macEncoder := encoding.ReplaceUnsupported(charmap.Macintosh.NewEncoder())
	winEncoder := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()

	records := []nameRecord{}
	for id, s := range names {
		if s == "" {
			continue
		}
		mac, _, err := transform.String(macEncoder, s)
		if err != nil {
			return nil, fmt.Errorf("name %v: %w", id, err)
		}
		win, _, err := transform.String(winEncoder, s)
		if err != nil {
			return nil, fmt.Errorf("name %v: %w", id, err)
		}
		records = append(records,
			nameRecord{PlatformMacintosh, EncodingMacintoshRoman, languageMacintoshEnglish, id, []byte(mac)},
			nameRecord{PlatformWindows, EncodingWindowsUnicode, languageWindowsEnglishUS, id, []byte(win)},
		)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Platform != records[j].Platform {
			return records[i].Platform < records[j].Platform
		} else if records[i].Encoding != records[j].Encoding {
			return records[i].Encoding < records[j].Encoding
		} else if records[i].Language != records[j].Language {
			return records[i].Language < records[j].Language
		}
		return records[i].Name < records[j].Name
	})

	storageOffset := 6 + 12*len(records)
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(0) // version
	w.WriteUint16(uint16(len(records)))
	w.WriteUint16(uint16(storageOffset))
	storage := parse.NewBinaryWriter([]byte{})
	for _, record := range records {
		if 0xFFFF < uint32(storage.Len())+uint32(len(record.Value)) {
			return nil, fmt.Errorf("name: strings too long")
		}
		w.WriteUint16(uint16(record.Platform))
		w.WriteUint16(uint16(record.Encoding))
		w.WriteUint16(record.Language)
		w.WriteUint16(uint16(record.Name))
		w.WriteUint16(uint16(len(record.Value))) // length
		w.WriteUint16(uint16(storage.Len()))     // stringOffset
		storage.WriteBytes(record.Value)
	}
	w.WriteBytes(storage.Bytes())
	return w.Bytes(), nil
}

// postScriptName strips the characters that are not allowed in a PostScript name.
func postScriptName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if 33 <= r && r <= 126 && !strings.ContainsRune("[](){}<>/%", r) {
			b.WriteRune(r)
		}
		if b.Len() == 63 {
			break
		}
	}
	return b.String()
}

func (sfnt *SFNT) parseName() error {
	b, ok := sfnt.Tables["name"]
	if !ok {
		return fmt.Errorf("name: missing table")
	} else if len(b) < 6 {
		return fmt.Errorf("name: bad table")
	}

	sfnt.Name = &nameTable{}
	r := parse.NewBinaryReaderBytes(b)
	version := r.ReadUint16()
	if version != 0 && version != 1 {
		return fmt.Errorf("name: bad version")
	}
	count := r.ReadUint16()
	storageOffset := uint32(r.ReadUint16())
	if uint32(len(b)) < 6+12*uint32(count) || uint32(len(b)) < storageOffset {
		return fmt.Errorf("name: bad table")
	}
	sfnt.Name.NameRecord = make([]nameRecord, count)
	for i := 0; i < int(count); i++ {
		sfnt.Name.NameRecord[i].Platform = PlatformID(r.ReadUint16())
		sfnt.Name.NameRecord[i].Encoding = EncodingID(r.ReadUint16())
		sfnt.Name.NameRecord[i].Language = r.ReadUint16()
		sfnt.Name.NameRecord[i].Name = NameID(r.ReadUint16())

		length := uint32(r.ReadUint16())
		offset := uint32(r.ReadUint16())
		if uint32(len(b))-storageOffset < offset || uint32(len(b))-storageOffset-offset < length {
			return fmt.Errorf("name: bad table")
		}
		sfnt.Name.NameRecord[i].Value = b[storageOffset+offset : storageOffset+offset+length]
	}
	return nil
}
