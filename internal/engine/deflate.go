package engine

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibLevel maps the 0-12 deflate scale onto the encoder's levels.
// Levels past the encoder's best all use its best.
func zlibLevel(level int) int {
	switch {
	case level <= 0:
		return zlib.NoCompression
	case level >= zlib.BestCompression:
		return zlib.BestCompression
	default:
		return level
	}
}

func compressLevel(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress image data: %w", err)
	}
	return buf.Bytes(), nil
}

// compress deflates data with the configured backend. The zopfli backend
// runs up to Iterations encoder passes from the strongest level down and
// keeps the smallest stream.
func compress(data []byte, d Deflater) ([]byte, error) {
	if d.Backend != BackendZopfli {
		return compressLevel(data, zlibLevel(d.Level))
	}

	var best []byte
	for i := 0; i < d.Iterations && zlib.BestCompression-i >= zlib.BestSpeed; i++ {
		out, err := compressLevel(data, zlib.BestCompression-i)
		if err != nil {
			return nil, err
		}
		if best == nil || len(out) < len(best) {
			best = out
		}
	}
	return best, nil
}

// inflate decompresses a zlib stream, refusing to produce more than limit
// bytes.
func inflate(data []byte, limit int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress image data: %w", err)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("image data decompresses past the expected %d bytes", limit)
	}
	return out, nil
}
