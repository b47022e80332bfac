// Package pngstream reads and writes the chunk layer of a PNG file.
//
// It knows the signature, the length/type/data/CRC framing and the IHDR
// layout. It does not decompress or interpret image data.
package pngstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/ironsheep/pngopt-mcp/internal/chunk"
)

// Signature is the 8-byte PNG file header.
var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ErrSignature is returned when data does not start with Signature.
var ErrSignature = errors.New("Invalid header detected; Not a PNG file")

// Chunk is one framed chunk. Data aliases the buffer it was read from.
type Chunk struct {
	Name chunk.Name
	Data []byte
}

// Read splits data into chunks, verifying every CRC. Reading stops after
// IEND; trailing bytes are ignored.
func Read(data []byte) ([]Chunk, error) {
	if !bytes.HasPrefix(data, Signature) {
		return nil, ErrSignature
	}

	var chunks []Chunk
	pos := len(Signature)
	for {
		if len(data)-pos < 12 {
			return nil, fmt.Errorf("truncated chunk header at offset %d", pos)
		}
		length := binary.BigEndian.Uint32(data[pos:])
		if length > uint32(len(data)-pos-12) {
			return nil, fmt.Errorf("chunk at offset %d claims %d bytes, only %d remain", pos, length, len(data)-pos-12)
		}

		var name chunk.Name
		copy(name[:], data[pos+4:pos+8])
		body := data[pos+8 : pos+8+int(length)]
		want := binary.BigEndian.Uint32(data[pos+8+int(length):])

		crc := crc32.NewIEEE()
		crc.Write(data[pos+4 : pos+8])
		crc.Write(body)
		if crc.Sum32() != want {
			return nil, fmt.Errorf("CRC error in %s chunk at offset %d", name, pos)
		}

		chunks = append(chunks, Chunk{Name: name, Data: body})
		pos += 12 + int(length)

		if name == chunk.IEND {
			break
		}
	}

	if len(chunks) == 0 || chunks[0].Name != chunk.IHDR {
		return nil, errors.New("first chunk is not IHDR")
	}
	return chunks, nil
}

// Write serializes chunks behind the signature.
func Write(chunks []Chunk) []byte {
	size := len(Signature)
	for _, c := range chunks {
		size += 12 + len(c.Data)
	}

	out := make([]byte, 0, size)
	out = append(out, Signature...)
	for _, c := range chunks {
		out = binary.BigEndian.AppendUint32(out, uint32(len(c.Data)))
		start := len(out)
		out = append(out, c.Name[:]...)
		out = append(out, c.Data...)
		out = binary.BigEndian.AppendUint32(out, crc32.ChecksumIEEE(out[start:]))
	}
	return out
}

// JoinIDAT concatenates the payloads of all IDAT chunks.
func JoinIDAT(chunks []Chunk) []byte {
	var buf bytes.Buffer
	for _, c := range chunks {
		if c.Name == chunk.IDAT {
			buf.Write(c.Data)
		}
	}
	return buf.Bytes()
}
