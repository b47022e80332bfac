package pngstream

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/pngopt-mcp/internal/chunk"
)

// createTestPNG encodes a small solid image.
func createTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestRead(t *testing.T) {
	data := createTestPNG(t, 20, 10)
	chunks, err := Read(data)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if chunks[0].Name != chunk.IHDR {
		t.Errorf("first chunk = %s", chunks[0].Name)
	}
	if last := chunks[len(chunks)-1].Name; last != chunk.IEND {
		t.Errorf("last chunk = %s", last)
	}
	if len(JoinIDAT(chunks)) == 0 {
		t.Error("no IDAT data")
	}
}

func TestReadErrors(t *testing.T) {
	valid := createTestPNG(t, 4, 4)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("hello world, not an image")},
		{"signature only", Signature},
		{"truncated", valid[:len(valid)-6]},
		{"bad crc", func() []byte {
			b := append([]byte(nil), valid...)
			b[len(Signature)+9] ^= 1
			return b
		}()},
		{"missing IHDR", Write([]Chunk{{Name: chunk.IEND}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Read([]byte("GIF89a....")); !errors.Is(err, ErrSignature) {
		t.Errorf("got %v, want ErrSignature", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	data := createTestPNG(t, 8, 8)
	chunks, err := Read(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := Write(chunks); !bytes.Equal(got, data) {
		t.Error("Write(Read(data)) differs from data")
	}

	text := Chunk{Name: chunk.Name{'t', 'E', 'X', 't'}, Data: []byte("Title\x00test")}
	withText := append([]Chunk{chunks[0], text}, chunks[1:]...)
	out := Write(withText)
	if _, err := imaging.Decode(bytes.NewReader(out)); err != nil {
		t.Errorf("decoder rejects written file: %v", err)
	}
	again, err := Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(withText) || string(again[1].Data) != "Title\x00test" {
		t.Errorf("tEXt chunk not preserved: %+v", again[1])
	}
}

func TestReadIgnoresTrailingBytes(t *testing.T) {
	data := append(createTestPNG(t, 2, 2), "trailing"...)
	if _, err := Read(data); err != nil {
		t.Errorf("Read failed: %v", err)
	}
}

func TestParseHeader(t *testing.T) {
	h := Header{Width: 640, Height: 480, BitDepth: 8, ColorType: ColorRGBA}
	got, err := ParseHeader(h.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got != h {
		t.Errorf("got %+v, want %+v", got, h)
	}

	bad := []Header{
		{Width: 0, Height: 1, BitDepth: 8},
		{Width: 1, Height: 1, BitDepth: 3},
		{Width: 1, Height: 1, BitDepth: 16, ColorType: ColorPalette},
		{Width: 1, Height: 1, BitDepth: 4, ColorType: ColorRGB},
		{Width: 1, Height: 1, BitDepth: 8, Interlace: 2},
		{Width: 1 << 31, Height: 1, BitDepth: 8},
		{Width: 1, Height: 0xffffffff, BitDepth: 8},
	}
	for _, b := range bad {
		if _, err := ParseHeader(b.Bytes()); err == nil {
			t.Errorf("ParseHeader(%+v) should fail", b)
		}
	}
	maxed := Header{Width: 1<<31 - 1, Height: 1<<31 - 1, BitDepth: 1}
	if _, err := ParseHeader(maxed.Bytes()); err != nil {
		t.Errorf("largest legal dimensions rejected: %v", err)
	}
	if _, err := ParseHeader(make([]byte, 12)); err == nil {
		t.Error("short IHDR should fail")
	}
}

func TestHeaderGeometry(t *testing.T) {
	tests := []struct {
		hdr      Header
		channels int
		stride   int
		rowBytes int
	}{
		{Header{Width: 10, BitDepth: 1, ColorType: ColorGray}, 1, 1, 2},
		{Header{Width: 10, BitDepth: 4, ColorType: ColorPalette}, 1, 1, 5},
		{Header{Width: 10, BitDepth: 8, ColorType: ColorRGB}, 3, 3, 30},
		{Header{Width: 10, BitDepth: 16, ColorType: ColorRGBA}, 4, 8, 80},
		{Header{Width: 10, BitDepth: 16, ColorType: ColorGrayAlpha}, 2, 4, 40},
	}
	for _, tt := range tests {
		if got := tt.hdr.Channels(); got != tt.channels {
			t.Errorf("%+v Channels = %d, want %d", tt.hdr, got, tt.channels)
		}
		if got := tt.hdr.FilterStride(); got != tt.stride {
			t.Errorf("%+v FilterStride = %d, want %d", tt.hdr, got, tt.stride)
		}
		if got := tt.hdr.RowBytes(int(tt.hdr.Width)); got != tt.rowBytes {
			t.Errorf("%+v RowBytes = %d, want %d", tt.hdr, got, tt.rowBytes)
		}
	}
}

func TestInspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 30, 12))
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(buf.Bytes())
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Header.Width != 30 || info.Header.Height != 12 {
		t.Errorf("header = %+v", info.Header)
	}
	if info.SizeBytes != buf.Len() {
		t.Errorf("SizeBytes = %d, want %d", info.SizeBytes, buf.Len())
	}
	if info.Chunks[0].Name != "IHDR" || !info.Chunks[0].Critical || info.Chunks[0].Length != 13 {
		t.Errorf("first chunk = %+v", info.Chunks[0])
	}

	if _, err := Inspect([]byte("nope")); err == nil {
		t.Error("expected error for non-PNG")
	}
}
