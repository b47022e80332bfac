package pngstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Color types.
const (
	ColorGray      = 0
	ColorRGB       = 2
	ColorPalette   = 3
	ColorGrayAlpha = 4
	ColorRGBA      = 6
)

// Header is the decoded IHDR chunk.
type Header struct {
	Width     uint32 `json:"width"`
	Height    uint32 `json:"height"`
	BitDepth  uint8  `json:"bit_depth"`
	ColorType uint8  `json:"color_type"`
	Interlace uint8  `json:"interlace"`
}

// ParseHeader decodes and checks an IHDR payload.
func ParseHeader(data []byte) (Header, error) {
	if len(data) != 13 {
		return Header{}, fmt.Errorf("IHDR has %d bytes, want 13", len(data))
	}
	h := Header{
		Width:     binary.BigEndian.Uint32(data[0:]),
		Height:    binary.BigEndian.Uint32(data[4:]),
		BitDepth:  data[8],
		ColorType: data[9],
		Interlace: data[12],
	}
	if data[10] != 0 || data[11] != 0 {
		return Header{}, errors.New("unsupported compression or filter method")
	}
	if h.Width == 0 || h.Height == 0 {
		return Header{}, errors.New("image has zero width or height")
	}
	if h.Width > math.MaxInt32 || h.Height > math.MaxInt32 {
		return Header{}, fmt.Errorf("image dimensions %dx%d exceed %d", h.Width, h.Height, math.MaxInt32)
	}
	if h.Interlace > 1 {
		return Header{}, fmt.Errorf("unknown interlace method %d", h.Interlace)
	}
	if !validDepth(h.ColorType, h.BitDepth) {
		return Header{}, fmt.Errorf("invalid bit depth %d for color type %d", h.BitDepth, h.ColorType)
	}
	return h, nil
}

func validDepth(colorType, depth uint8) bool {
	switch colorType {
	case ColorGray:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case ColorPalette:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case ColorRGB, ColorGrayAlpha, ColorRGBA:
		return depth == 8 || depth == 16
	}
	return false
}

// Bytes encodes h as an IHDR payload.
func (h Header) Bytes() []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:], h.Width)
	binary.BigEndian.PutUint32(b[4:], h.Height)
	b[8] = h.BitDepth
	b[9] = h.ColorType
	b[12] = h.Interlace
	return b
}

// Channels returns the samples per pixel.
func (h Header) Channels() int {
	switch h.ColorType {
	case ColorRGB:
		return 3
	case ColorGrayAlpha:
		return 2
	case ColorRGBA:
		return 4
	default:
		return 1
	}
}

// BitsPerPixel returns the packed pixel size.
func (h Header) BitsPerPixel() int { return h.Channels() * int(h.BitDepth) }

// FilterStride is the byte distance used by the Sub, Average and Paeth
// filters: the pixel size rounded up to at least one byte.
func (h Header) FilterStride() int {
	bpp := (h.BitsPerPixel() + 7) / 8
	if bpp < 1 {
		return 1
	}
	return bpp
}

// RowBytes returns the unfiltered size of a row of width pixels.
func (h Header) RowBytes(width int) int {
	return (width*h.BitsPerPixel() + 7) / 8
}
