package engine

import (
	"bytes"
	"testing"

	"github.com/ironsheep/pngopt-mcp/internal/pngstream"
)

func TestRawSize(t *testing.T) {
	tests := []struct {
		hdr  pngstream.Header
		want int
	}{
		{pngstream.Header{Width: 16, Height: 16, BitDepth: 8, ColorType: pngstream.ColorRGBA}, 16 * 65},
		{pngstream.Header{Width: 16, Height: 16, BitDepth: 8, ColorType: pngstream.ColorRGBA, Interlace: 1}, 1054},
		{pngstream.Header{Width: 10, Height: 1, BitDepth: 1, ColorType: pngstream.ColorGray}, 3},
		{pngstream.Header{Width: 1, Height: 1, BitDepth: 8, ColorType: pngstream.ColorGray, Interlace: 1}, 2},
	}
	for _, tt := range tests {
		if got := rawSize(tt.hdr); got != tt.want {
			t.Errorf("rawSize(%+v) = %d, want %d", tt.hdr, got, tt.want)
		}
	}
}

func TestFilterRoundTrip(t *testing.T) {
	hdr := pngstream.Header{Width: 9, Height: 7, BitDepth: 8, ColorType: pngstream.ColorRGB}
	img := newRaster(hdr)
	for y, row := range img.rows {
		for i := range row {
			row[i] = byte(i*y*31 + i)
		}
	}

	for _, interlace := range []bool{false, true} {
		for f := FilterNone; f <= FilterBrute; f++ {
			filtered := filterGroups(img.scanlineGroups(interlace), hdr.FilterStride(), f)
			h := hdr
			if interlace {
				h.Interlace = 1
			}
			if len(filtered) != rawSize(h) {
				t.Fatalf("%s interlace=%t: filtered %d bytes, want %d", f, interlace, len(filtered), rawSize(h))
			}
			back, err := decodeRaster(h, filtered)
			if err != nil {
				t.Fatalf("%s interlace=%t: %v", f, interlace, err)
			}
			for y := range img.rows {
				if !bytes.Equal(back.rows[y], img.rows[y]) {
					t.Fatalf("%s interlace=%t: row %d differs", f, interlace, y)
				}
			}
		}
	}
}

func TestCopyPixelSubByte(t *testing.T) {
	src := []byte{0b10_01_11_00}
	dst := make([]byte, 1)
	for i := 0; i < 4; i++ {
		copyPixel(dst, 3-i, src, i, 2)
	}
	if dst[0] != 0b00_11_01_10 {
		t.Errorf("got %08b", dst[0])
	}
	if v := pixelValue(src, 2, 2); v != 3 {
		t.Errorf("pixelValue = %d, want 3", v)
	}
}

func TestPaeth(t *testing.T) {
	tests := []struct{ a, b, c, want byte }{
		{0, 0, 0, 0},
		{10, 20, 10, 20},
		{20, 10, 10, 20},
		{10, 10, 20, 10},
	}
	for _, tt := range tests {
		if got := paeth(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paeth(%d,%d,%d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestUnfilterUnknownType(t *testing.T) {
	if err := unfilter(7, make([]byte, 4), make([]byte, 4), 1); err == nil {
		t.Error("expected error for filter type 7")
	}
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("scanline data "), 200)
	for _, d := range []Deflater{
		{Backend: BackendFastDeflate, Level: 0},
		{Backend: BackendFastDeflate, Level: 5},
		{Backend: BackendFastDeflate, Level: 12},
		{Backend: BackendZopfli, Iterations: 2},
	} {
		out, err := compress(data, d)
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		back, err := inflate(out, len(data))
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		if !bytes.Equal(back, data) {
			t.Errorf("%s: round trip mismatch", d)
		}
	}
}
