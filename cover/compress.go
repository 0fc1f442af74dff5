package cover

import (
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
)

// ZstdCompress appends the zstd-compressed form of data to dst.
func ZstdCompress(dst, data []byte) []byte {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		panic(err) // only reachable with invalid encoder options
	}
	defer enc.Close()

	return enc.EncodeAll(data, dst)
}

// ZstdDecompress appends the decompressed form of the zstd blob data to dst.
func ZstdDecompress(dst, data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(data, dst)
}

// SnappyCompress returns data encoded as snappy, reusing dst capacity
// when possible.
func SnappyCompress(dst, data []byte) []byte {
	return s2.EncodeSnappyBest(dst, data)
}

// SnappyDecompress returns the decoded form of snappy data, reusing dst
// capacity when possible.
func SnappyDecompress(dst, data []byte) ([]byte, error) {
	return snappy.Decode(dst, data)
}
