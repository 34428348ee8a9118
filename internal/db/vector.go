package db

import (
	"encoding/binary"
	"math"
)

// VectorBlob encodes a float32 vector as the little-endian FLOAT32 blob the
// FT vector field expects. Hash writes and KNN query params must use the
// same encoding.
func VectorBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
