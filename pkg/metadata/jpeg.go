package metadata

import (
	"bytes"
	"fmt"
	"sort"
)

const (
	markerAPP1 = 0xE1
	markerAPP2 = 0xE2
	markerSOS  = 0xDA

	exifHeader = "Exif\x00\x00"
	iccHeader  = "ICC_PROFILE\x00"

	// segment length field covers itself; ICC chunks also carry a 14-byte
	// header (signature, sequence number, chunk count)
	maxSegmentPayload = 0xFFFF - 2
	maxICCChunk       = maxSegmentPayload - len(iccHeader) - 2
)

// AppSegment is one JPEG APPn segment (markers 0xE0..0xEF).
type AppSegment struct {
	Marker  byte
	Payload []byte
}

// ParseJPEGAppSegments returns the APPn segments that precede the first scan,
// in file order.
func ParseJPEGAppSegments(data []byte) ([]AppSegment, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, fmt.Errorf("not a jpeg stream")
	}
	var segs []AppSegment
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return segs, fmt.Errorf("expected marker at offset %d", i)
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOS || marker == 0xD9 {
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if segLen < 2 || i+2+segLen > len(data) {
			return segs, fmt.Errorf("segment 0x%02X at offset %d is truncated", marker, i)
		}
		if marker >= 0xE0 && marker <= 0xEF {
			segs = append(segs, AppSegment{Marker: marker, Payload: data[i+4 : i+2+segLen]})
		}
		i += 2 + segLen
	}
	return segs, nil
}

// InsertAppSegmentsIntoJPEG writes segs directly after the SOI marker of
// jpegBytes.
func InsertAppSegmentsIntoJPEG(jpegBytes []byte, segs []AppSegment) ([]byte, error) {
	if len(jpegBytes) < 2 || jpegBytes[0] != 0xFF || jpegBytes[1] != 0xD8 {
		return nil, fmt.Errorf("not a jpeg stream")
	}
	var buf bytes.Buffer
	buf.Grow(len(jpegBytes))
	buf.Write(jpegBytes[:2])
	for _, s := range segs {
		if len(s.Payload) > maxSegmentPayload {
			return nil, fmt.Errorf("APP%d payload of %d bytes does not fit a segment", s.Marker-0xE0, len(s.Payload))
		}
		n := len(s.Payload) + 2
		buf.Write([]byte{0xFF, s.Marker, byte(n >> 8), byte(n)})
		buf.Write(s.Payload)
	}
	buf.Write(jpegBytes[2:])
	return buf.Bytes(), nil
}

// FromJPEG extracts the EXIF TIFF bytes and the reassembled ICC profile from
// a JPEG stream. Either may be nil.
func FromJPEG(data []byte) (exif, icc []byte, err error) {
	segs, err := ParseJPEGAppSegments(data)
	if err != nil && len(segs) == 0 {
		return nil, nil, err
	}
	type chunk struct {
		seq  byte
		data []byte
	}
	var chunks []chunk
	for _, s := range segs {
		switch {
		case s.Marker == markerAPP1 && exif == nil && bytes.HasPrefix(s.Payload, []byte(exifHeader)):
			exif = bytes.Clone(s.Payload[len(exifHeader):])
		case s.Marker == markerAPP2 && bytes.HasPrefix(s.Payload, []byte(iccHeader)) && len(s.Payload) >= len(iccHeader)+2:
			chunks = append(chunks, chunk{seq: s.Payload[len(iccHeader)], data: s.Payload[len(iccHeader)+2:]})
		}
	}
	if len(chunks) > 0 {
		sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })
		for _, c := range chunks {
			icc = append(icc, c.data...)
		}
	}
	return exif, icc, nil
}

// JPEGSegments builds the APP1 and APP2 segments carrying exif and icc.
// Profiles larger than one segment are split into numbered chunks.
func JPEGSegments(exif, icc []byte) ([]AppSegment, error) {
	var segs []AppSegment
	if len(exif) > 0 {
		if len(exif)+len(exifHeader) > maxSegmentPayload {
			return nil, fmt.Errorf("exif block of %d bytes does not fit a segment", len(exif))
		}
		segs = append(segs, AppSegment{Marker: markerAPP1, Payload: append([]byte(exifHeader), exif...)})
	}
	if len(icc) > 0 {
		n := (len(icc) + maxICCChunk - 1) / maxICCChunk
		if n > 255 {
			return nil, fmt.Errorf("icc profile of %d bytes needs too many chunks", len(icc))
		}
		for i := 0; i < n; i++ {
			part := icc[i*maxICCChunk : min((i+1)*maxICCChunk, len(icc))]
			p := make([]byte, 0, len(iccHeader)+2+len(part))
			p = append(p, iccHeader...)
			p = append(p, byte(i+1), byte(n))
			p = append(p, part...)
			segs = append(segs, AppSegment{Marker: markerAPP2, Payload: p})
		}
	}
	return segs, nil
}
