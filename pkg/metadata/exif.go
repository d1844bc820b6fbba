// Package metadata reads and rewrites the metadata blocks tmagick carries
// alongside pixels: EXIF (as raw TIFF bytes) and ICC profiles, stored in JPEG
// APPn segments or PNG ancillary chunks.
package metadata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// IFD kinds used in tag keys.
const (
	IFD0    = 0
	IFDExif = 1
	IFDGPS  = 2
)

// Tags read by EXIF.
const (
	TagMake             = 0x010F
	TagModel            = 0x0110
	TagOrientation      = 0x0112
	TagSoftware         = 0x0131
	TagDateTime         = 0x0132
	TagExifPointer      = 0x8769
	TagGPSPointer       = 0x8825
	TagExposureTime     = 0x829A
	TagFNumber          = 0x829D
	TagISOSpeed         = 0x8827
	TagDateTimeOriginal = 0x9003
	TagFocalLength      = 0x920A
	TagLensModel        = 0xA434
)

// Key encodes an IFD kind and tag id as (ifd<<16)|tag.
func Key(ifd int, tag uint16) uint32 {
	return uint32(ifd)<<16 | uint32(tag)
}

// EXIF is the parsed subset of EXIF tags tmagick reports.
type EXIF struct {
	Make             string
	Model            string
	Software         string
	Orientation      int
	DateTime         string
	DateTimeOriginal string
	ExposureTime     string
	FNumber          float64
	ISOSpeed         int
	FocalLength      float64
	LensModel        string
	Raw              map[uint32]string
}

// Parse decodes the TIFF structure in data. Malformed IFDs yield whatever
// tags could be read before the damage; only an unreadable header is an error.
func Parse(data []byte) (EXIF, error) {
	tags, err := ReadTags(data)
	if err != nil {
		return EXIF{}, err
	}
	return fromTags(tags), nil
}

func fromTags(tags map[uint32]string) EXIF {
	out := EXIF{Raw: tags}
	get := func(ifd int, tag uint16) string { return tags[Key(ifd, tag)] }
	first := func(v string) string { return strings.SplitN(v, ",", 2)[0] }

	out.Make = get(IFD0, TagMake)
	out.Model = get(IFD0, TagModel)
	out.Software = get(IFD0, TagSoftware)
	out.DateTime = get(IFD0, TagDateTime)
	if v, err := strconv.Atoi(first(get(IFD0, TagOrientation))); err == nil {
		out.Orientation = v
	}
	out.ExposureTime = get(IFDExif, TagExposureTime)
	if f, err := parseRational(get(IFDExif, TagFNumber)); err == nil {
		out.FNumber = f
	}
	if v, err := strconv.Atoi(first(get(IFDExif, TagISOSpeed))); err == nil {
		out.ISOSpeed = v
	}
	if f, err := parseRational(get(IFDExif, TagFocalLength)); err == nil {
		out.FocalLength = f
	}
	out.DateTimeOriginal = get(IFDExif, TagDateTimeOriginal)
	out.LensModel = get(IFDExif, TagLensModel)
	return out
}

// Get returns a tag by its lower-case name, as used in identify templates
// ("%[exif:model]").
func (e EXIF) Get(name string) (string, bool) {
	var v string
	switch strings.ToLower(name) {
	case "make":
		v = e.Make
	case "model":
		v = e.Model
	case "software":
		v = e.Software
	case "orientation":
		if e.Orientation != 0 {
			v = strconv.Itoa(e.Orientation)
		}
	case "datetime":
		v = e.DateTime
	case "datetimeoriginal":
		v = e.DateTimeOriginal
	case "exposuretime":
		v = e.ExposureTime
	case "fnumber":
		if e.FNumber != 0 {
			v = strconv.FormatFloat(e.FNumber, 'f', -1, 64)
		}
	case "iso", "isospeed":
		if e.ISOSpeed != 0 {
			v = strconv.Itoa(e.ISOSpeed)
		}
	case "focallength":
		if e.FocalLength != 0 {
			v = strconv.FormatFloat(e.FocalLength, 'f', -1, 64)
		}
	case "lensmodel":
		v = e.LensModel
	}
	return v, v != ""
}

// Orientation returns the EXIF orientation (1..8) stored in data, or 1 when
// the tag is absent or out of range.
func Orientation(data []byte) int {
	if len(data) == 0 {
		return 1
	}
	tags, err := ReadTags(data)
	if err != nil {
		return 1
	}
	o, err := strconv.Atoi(strings.SplitN(tags[Key(IFD0, TagOrientation)], ",", 2)[0])
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// SetOrientation returns a copy of data with the IFD0 orientation tag set to
// o. Data without an orientation tag is returned unchanged.
func SetOrientation(data []byte, o int) []byte {
	if len(data) == 0 {
		return data
	}
	out := bytes.Clone(data)
	order, ifd, err := tiffHeader(out)
	if err != nil || ifd+2 > len(out) {
		return out
	}
	n := int(order.Uint16(out[ifd:]))
	for e := 0; e < n; e++ {
		ent := ifd + 2 + e*12
		if ent+12 > len(out) {
			break
		}
		if order.Uint16(out[ent:]) == TagOrientation && order.Uint16(out[ent+2:]) == 3 {
			order.PutUint16(out[ent+8:], uint16(o))
			break
		}
	}
	return out
}

func tiffHeader(data []byte) (binary.ByteOrder, int, error) {
	if len(data) < 8 {
		return nil, 0, fmt.Errorf("tiff header truncated")
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "MM":
		order = binary.BigEndian
	case "II":
		order = binary.LittleEndian
	default:
		return nil, 0, fmt.Errorf("unknown tiff byte order")
	}
	if order.Uint16(data[2:4]) != 0x002A {
		return nil, 0, fmt.Errorf("invalid tiff magic")
	}
	return order, int(order.Uint32(data[4:8])), nil
}

// ReadTags reads every BYTE, ASCII, SHORT, LONG and RATIONAL tag from the
// TIFF structure in data, following the Exif and GPS IFD pointers. Keys are
// built with Key; values are formatted as text, lists comma separated and
// rationals as "num/den".
func ReadTags(data []byte) (map[uint32]string, error) {
	res := map[uint32]string{}
	order, first, err := tiffHeader(data)
	if err != nil {
		return res, err
	}

	visited := map[int]bool{}
	var readIFD func(off, kind int)
	readIFD = func(off, kind int) {
		if off <= 0 || off+2 > len(data) || visited[off] {
			return
		}
		visited[off] = true
		n := int(order.Uint16(data[off:]))
		for e := 0; e < n; e++ {
			ent := off + 2 + e*12
			if ent+12 > len(data) {
				return
			}
			tag := order.Uint16(data[ent:])
			typ := order.Uint16(data[ent+2:])
			count := int(order.Uint32(data[ent+4:]))
			valOff := data[ent+8 : ent+12]

			if tag == TagExifPointer || tag == TagGPSPointer {
				sub := IFDExif
				if tag == TagGPSPointer {
					sub = IFDGPS
				}
				readIFD(int(order.Uint32(valOff)), sub)
				continue
			}

			size := typeSize(typ)
			if size == 0 || count <= 0 {
				continue
			}
			total := count * size
			var value []byte
			if total <= 4 {
				value = valOff[:total]
			} else {
				p := int(order.Uint32(valOff))
				if p < 0 || p+total > len(data) {
					continue
				}
				value = data[p : p+total]
			}
			if s := formatValue(order, typ, count, value); s != "" {
				res[Key(kind, tag)] = s
			}
		}
		last := off + 2 + n*12
		if last+4 <= len(data) {
			readIFD(int(order.Uint32(data[last:])), kind)
		}
	}
	readIFD(first, IFD0)
	return res, nil
}

func typeSize(typ uint16) int {
	switch typ {
	case 1, 2:
		return 1
	case 3:
		return 2
	case 4:
		return 4
	case 5:
		return 8
	}
	return 0
}

func formatValue(order binary.ByteOrder, typ uint16, count int, b []byte) string {
	if typ == 2 {
		if i := bytes.IndexByte(b, 0); i >= 0 {
			b = b[:i]
		}
		return string(b)
	}
	vals := make([]string, 0, count)
	for i := 0; i < count; i++ {
		switch typ {
		case 1:
			vals = append(vals, strconv.Itoa(int(b[i])))
		case 3:
			vals = append(vals, strconv.Itoa(int(order.Uint16(b[i*2:]))))
		case 4:
			vals = append(vals, strconv.FormatUint(uint64(order.Uint32(b[i*4:])), 10))
		case 5:
			num := order.Uint32(b[i*8:])
			den := order.Uint32(b[i*8+4:])
			vals = append(vals, fmt.Sprintf("%d/%d", num, den))
		}
	}
	return strings.Join(vals, ",")
}

func parseRational(s string) (float64, error) {
	num, den, ok := strings.Cut(strings.SplitN(s, ",", 2)[0], "/")
	if !ok {
		return 0, fmt.Errorf("invalid rational: %q", s)
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, err
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return 0, fmt.Errorf("zero denominator")
	}
	return n / d, nil
}
