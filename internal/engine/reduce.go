package engine

import (
	"github.com/ironsheep/pngopt-mcp/internal/pngstream"
)

// reduction records what the pixel transforms changed.
type reduction struct {
	pixels  bool // raster contents or format changed
	palette int  // new palette entry count, 0 if unchanged
}

// reduce applies the enabled transforms to r in place. formatLocked
// forbids changes to the header (bit depth, color type); it is set when
// chunks that depend on the format survive.
func reduce(r *raster, cfg *Config, formatLocked bool, paletteEntries int) reduction {
	var res reduction

	if cfg.OptimizeAlpha && zeroTransparent(r) {
		res.pixels = true
	}
	if formatLocked {
		return res
	}
	if cfg.Scale16 && r.hdr.BitDepth == 16 {
		scaleTo8(r, true)
		res.pixels = true
	}
	if cfg.BitDepthReduction && r.hdr.BitDepth == 16 && r.hdr.ColorType != pngstream.ColorPalette && fitsIn8(r) {
		scaleTo8(r, false)
		res.pixels = true
	}
	if cfg.ColorTypeReduction && dropOpaqueAlpha(r) {
		res.pixels = true
	}
	if cfg.GrayscaleReduction && toGray(r) {
		res.pixels = true
	}
	if cfg.PaletteReduction && r.hdr.ColorType == pngstream.ColorPalette {
		if n := usedPaletteEntries(r); n < paletteEntries {
			res.palette = n
		}
	}
	return res
}

func sampleBytes(h pngstream.Header) int { return int(h.BitDepth) / 8 }

// zeroTransparent clears the color of fully transparent pixels.
func zeroTransparent(r *raster) bool {
	if r.hdr.ColorType != pngstream.ColorRGBA && r.hdr.ColorType != pngstream.ColorGrayAlpha {
		return false
	}
	sb := sampleBytes(r.hdr)
	px := r.hdr.Channels() * sb
	changed := false
	for _, row := range r.rows {
		for i := 0; i+px <= len(row); i += px {
			alpha := row[i+px-sb : i+px]
			if !allZero(alpha) {
				continue
			}
			color := row[i : i+px-sb]
			if !allZero(color) {
				clear(color)
				changed = true
			}
		}
	}
	return changed
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// fitsIn8 reports whether every 16-bit sample has equal high and low bytes.
func fitsIn8(r *raster) bool {
	for _, row := range r.rows {
		for i := 0; i+1 < len(row); i += 2 {
			if row[i] != row[i+1] {
				return false
			}
		}
	}
	return true
}

// scaleTo8 converts 16-bit samples to 8 bits. With round set the value is
// rescaled; otherwise the high byte is kept.
func scaleTo8(r *raster, round bool) {
	for y, row := range r.rows {
		out := make([]byte, len(row)/2)
		for i := range out {
			if round {
				v := uint32(row[2*i])<<8 | uint32(row[2*i+1])
				out[i] = uint8((v*255 + 32895) >> 16)
			} else {
				out[i] = row[2*i]
			}
		}
		r.rows[y] = out
	}
	r.hdr.BitDepth = 8
}

// dropOpaqueAlpha removes an alpha channel that is fully opaque everywhere.
func dropOpaqueAlpha(r *raster) bool {
	var target uint8
	switch r.hdr.ColorType {
	case pngstream.ColorRGBA:
		target = pngstream.ColorRGB
	case pngstream.ColorGrayAlpha:
		target = pngstream.ColorGray
	default:
		return false
	}
	sb := sampleBytes(r.hdr)
	px := r.hdr.Channels() * sb
	for _, row := range r.rows {
		for i := px - sb; i < len(row); i += px {
			for _, v := range row[i : i+sb] {
				if v != 0xff {
					return false
				}
			}
		}
	}
	keep := px - sb
	for y, row := range r.rows {
		out := make([]byte, 0, len(row)/px*keep)
		for i := 0; i < len(row); i += px {
			out = append(out, row[i:i+keep]...)
		}
		r.rows[y] = out
	}
	r.hdr.ColorType = target
	return true
}

// toGray collapses RGB(A) to gray(-alpha) when every pixel has r == g == b.
func toGray(r *raster) bool {
	var target uint8
	switch r.hdr.ColorType {
	case pngstream.ColorRGB:
		target = pngstream.ColorGray
	case pngstream.ColorRGBA:
		target = pngstream.ColorGrayAlpha
	default:
		return false
	}
	sb := sampleBytes(r.hdr)
	px := r.hdr.Channels() * sb
	for _, row := range r.rows {
		for i := 0; i < len(row); i += px {
			red := row[i : i+sb]
			for c := 1; c < 3; c++ {
				if string(row[i+c*sb:i+(c+1)*sb]) != string(red) {
					return false
				}
			}
		}
	}
	hasAlpha := r.hdr.ColorType == pngstream.ColorRGBA
	for y, row := range r.rows {
		out := make([]byte, 0, len(row)/3)
		for i := 0; i < len(row); i += px {
			out = append(out, row[i:i+sb]...)
			if hasAlpha {
				out = append(out, row[i+3*sb:i+4*sb]...)
			}
		}
		r.rows[y] = out
	}
	r.hdr.ColorType = target
	return true
}

// usedPaletteEntries returns one past the highest palette index in use.
func usedPaletteEntries(r *raster) int {
	bits := int(r.hdr.BitDepth)
	w := int(r.hdr.Width)
	highest := 0
	for _, row := range r.rows {
		for x := 0; x < w; x++ {
			if v := pixelValue(row, x, bits); v > highest {
				highest = v
			}
		}
	}
	return highest + 1
}
