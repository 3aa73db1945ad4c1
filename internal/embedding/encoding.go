package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Blob layout: a 5-byte header (uint32 little-endian element count followed
// by a one-byte element width) and then the elements as little-endian
// IEEE 754 float32 values. The explicit count and width keep the blob
// decodable without any schema-side length field.
const (
	headerSize   = 5
	float32Width = 4
)

// Encode serializes a vector into its BLOB representation. An empty vector
// encodes to a header-only blob, still distinguishable from an absent row.
func Encode(vec []float32) []byte {
	b := make([]byte, headerSize+len(vec)*float32Width)
	binary.LittleEndian.PutUint32(b[0:], uint32(len(vec)))
	b[4] = float32Width
	for i, v := range vec {
		binary.LittleEndian.PutUint32(b[headerSize+i*float32Width:], math.Float32bits(v))
	}
	return b
}

// Decode parses a BLOB produced by Encode back into a vector.
func Decode(b []byte) ([]float32, error) {
	if len(b) < headerSize {
		return nil, fmt.Errorf("embedding blob too short: %d bytes", len(b))
	}
	count := int(binary.LittleEndian.Uint32(b[0:]))
	width := int(b[4])
	if width != float32Width {
		return nil, fmt.Errorf("unsupported embedding element width %d", width)
	}
	if len(b) != headerSize+count*width {
		return nil, fmt.Errorf("embedding blob length %d does not match %d elements of width %d", len(b), count, width)
	}

	vec := make([]float32, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint32(b[headerSize+i*width:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}
