// File: internal/pngenc/pngenc.go
//
// Hand-assembled PNG container for the screenshot artifact sent to the
// oracle. The pixel source is the raw BGRA buffer read out of a GDI DIB
// section; the output is a minimal but fully standard truecolor PNG: one
// IHDR, one IDAT holding the whole zlib stream, one IEND. Every chunk is
// framed as length + type + payload + CRC32(type || payload).
package pngenc

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// signature is the fixed 8-byte PNG file header.
var signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

const (
	bitDepth8     = 8
	colorTypeRGB  = 2 // truecolor, no alpha
	filterNone    = 0
	bytesPerPixel = 4 // BGRA source
)

// Encode converts a packed BGRA pixel buffer (row-major, top row first) into
// a complete PNG file. The alpha channel is dropped and each scanline is
// emitted with the "no filter" marker before zlib compression. Output is
// deterministic for identical input.
func Encode(bgra []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pngenc: invalid dimensions %dx%d", width, height)
	}
	if len(bgra) < width*height*bytesPerPixel {
		return nil, fmt.Errorf("pngenc: buffer holds %d bytes, need %d for %dx%d",
			len(bgra), width*height*bytesPerPixel, width, height)
	}

	filtered := make([]byte, 0, height*(1+width*3))
	for y := 0; y < height; y++ {
		filtered = append(filtered, filterNone)
		row := bgra[y*width*bytesPerPixel:]
		for x := 0; x < width; x++ {
			px := row[x*bytesPerPixel : x*bytesPerPixel+4]
			// BGRA in, RGB out.
			filtered = append(filtered, px[2], px[1], px[0])
		}
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(filtered); err != nil {
		return nil, fmt.Errorf("pngenc: compress scanlines: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pngenc: flush compressor: %w", err)
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], uint32(width))
	binary.BigEndian.PutUint32(ihdr[4:8], uint32(height))
	ihdr[8] = bitDepth8
	ihdr[9] = colorTypeRGB
	// compression, filter and interlace methods stay zero.

	out := bytes.NewBuffer(make([]byte, 0, len(signature)+len(ihdr)+compressed.Len()+3*12))
	out.Write(signature)
	writeChunk(out, "IHDR", ihdr)
	writeChunk(out, "IDAT", compressed.Bytes())
	writeChunk(out, "IEND", nil)
	return out.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, typ string, payload []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
	out.Write(length[:])
	out.WriteString(typ)
	out.Write(payload)

	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(payload)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	out.Write(sum[:])
}
