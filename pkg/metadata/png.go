package metadata

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

// PNG IHDR color types.
const (
	PNGGray      = 0
	PNGRGB       = 2
	PNGPalette   = 3
	PNGGrayAlpha = 4
	PNGRGBA      = 6
)

type pngChunk struct {
	typ  string
	data []byte
}

func readPNGChunks(data []byte) ([]pngChunk, error) {
	if !bytes.HasPrefix(data, []byte(pngSignature)) {
		return nil, fmt.Errorf("not a png stream")
	}
	var chunks []pngChunk
	i := len(pngSignature)
	for i+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[i:]))
		typ := string(data[i+4 : i+8])
		if n < 0 || i+12+n > len(data) {
			return chunks, fmt.Errorf("chunk %q at offset %d is truncated", typ, i)
		}
		chunks = append(chunks, pngChunk{typ: typ, data: data[i+8 : i+8+n]})
		i += 12 + n
		if typ == "IEND" {
			break
		}
	}
	return chunks, nil
}

// PNGHeader describes the pixel layout declared by a PNG IHDR chunk.
type PNGHeader struct {
	Width, Height int
	BitDepth      int
	ColorType     int
	// Transparency is set when a tRNS chunk is present.
	Transparency bool
}

// ReadPNGHeader reads the IHDR chunk and notes whether tRNS is present.
func ReadPNGHeader(data []byte) (PNGHeader, error) {
	var h PNGHeader
	chunks, err := readPNGChunks(data)
	if len(chunks) == 0 || chunks[0].typ != "IHDR" || len(chunks[0].data) < 13 {
		if err == nil {
			err = fmt.Errorf("png has no IHDR chunk")
		}
		return h, err
	}
	ihdr := chunks[0].data
	h.Width = int(binary.BigEndian.Uint32(ihdr[0:]))
	h.Height = int(binary.BigEndian.Uint32(ihdr[4:]))
	h.BitDepth = int(ihdr[8])
	h.ColorType = int(ihdr[9])
	for _, c := range chunks {
		if c.typ == "tRNS" {
			h.Transparency = true
		}
	}
	return h, nil
}

// FromPNG extracts the eXIf chunk and the decompressed iCCP profile.
func FromPNG(data []byte) (exif, icc []byte, err error) {
	chunks, err := readPNGChunks(data)
	if err != nil && len(chunks) == 0 {
		return nil, nil, err
	}
	for _, c := range chunks {
		switch c.typ {
		case "eXIf":
			exif = bytes.Clone(c.data)
		case "iCCP":
			p, perr := inflateICCP(c.data)
			if perr != nil {
				return exif, nil, perr
			}
			icc = p
		}
	}
	return exif, icc, nil
}

func inflateICCP(data []byte) ([]byte, error) {
	i := bytes.IndexByte(data, 0)
	if i < 0 || i+2 > len(data) {
		return nil, fmt.Errorf("malformed iCCP chunk")
	}
	if data[i+1] != 0 {
		return nil, fmt.Errorf("iCCP compression method %d not supported", data[i+1])
	}
	r, err := zlib.NewReader(bytes.NewReader(data[i+2:]))
	if err != nil {
		return nil, fmt.Errorf("iCCP: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// InsertPNGMetadata returns pngBytes with eXIf and iCCP chunks placed after
// IHDR. Existing eXIf and iCCP chunks are dropped.
func InsertPNGMetadata(pngBytes, exif, icc []byte) ([]byte, error) {
	chunks, err := readPNGChunks(pngBytes)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 || chunks[0].typ != "IHDR" {
		return nil, fmt.Errorf("png has no IHDR chunk")
	}

	var buf bytes.Buffer
	buf.Grow(len(pngBytes) + len(exif) + len(icc) + 64)
	buf.WriteString(pngSignature)
	writePNGChunk(&buf, "IHDR", chunks[0].data)
	if len(icc) > 0 {
		var z bytes.Buffer
		z.WriteString("ICC Profile\x00\x00")
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(icc); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		writePNGChunk(&buf, "iCCP", z.Bytes())
	}
	if len(exif) > 0 {
		writePNGChunk(&buf, "eXIf", exif)
	}
	for _, c := range chunks[1:] {
		if c.typ == "eXIf" || c.typ == "iCCP" {
			continue
		}
		writePNGChunk(&buf, c.typ, c.data)
	}
	return buf.Bytes(), nil
}

func writePNGChunk(w *bytes.Buffer, typ string, data []byte) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], typ)
	w.Write(hdr[:])
	w.Write(data)
	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	w.Write(sum[:])
}
