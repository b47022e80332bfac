package engine

import (
	"fmt"

	"github.com/ironsheep/pngopt-mcp/internal/pngstream"
)

// raster holds unfiltered, non-interlaced scanlines.
type raster struct {
	hdr  pngstream.Header
	rows [][]byte
}

type adam7Pass struct{ x0, y0, dx, dy int }

var adam7 = [7]adam7Pass{
	{0, 0, 8, 8}, {4, 0, 8, 8}, {0, 4, 4, 8}, {2, 0, 4, 4},
	{0, 2, 2, 4}, {1, 0, 2, 2}, {0, 1, 1, 2},
}

func (p adam7Pass) size(w, h int) (int, int) {
	pw := (w - p.x0 + p.dx - 1) / p.dx
	ph := (h - p.y0 + p.dy - 1) / p.dy
	if pw < 0 {
		pw = 0
	}
	if ph < 0 {
		ph = 0
	}
	return pw, ph
}

// rawSize is the inflated IDAT size for hdr, including filter bytes.
func rawSize(hdr pngstream.Header) int {
	w, h := int(hdr.Width), int(hdr.Height)
	if hdr.Interlace == 0 {
		return h * (1 + hdr.RowBytes(w))
	}
	total := 0
	for _, p := range adam7 {
		pw, ph := p.size(w, h)
		if pw > 0 && ph > 0 {
			total += ph * (1 + hdr.RowBytes(pw))
		}
	}
	return total
}

func newRaster(hdr pngstream.Header) *raster {
	rows := make([][]byte, hdr.Height)
	stride := hdr.RowBytes(int(hdr.Width))
	buf := make([]byte, len(rows)*stride)
	for y := range rows {
		rows[y] = buf[y*stride : (y+1)*stride]
	}
	return &raster{hdr: hdr, rows: rows}
}

// decodeRaster unfilters an inflated IDAT stream, de-interlacing if needed.
func decodeRaster(hdr pngstream.Header, data []byte) (*raster, error) {
	w, h := int(hdr.Width), int(hdr.Height)
	bpp := hdr.FilterStride()
	if hdr.Interlace == 0 {
		rows, err := unfilterRows(data, hdr.RowBytes(w), h, bpp)
		if err != nil {
			return nil, err
		}
		return &raster{hdr: hdr, rows: rows}, nil
	}

	r := newRaster(hdr)
	bits := hdr.BitsPerPixel()
	off := 0
	for i, p := range adam7 {
		pw, ph := p.size(w, h)
		if pw == 0 || ph == 0 {
			continue
		}
		n := ph * (1 + hdr.RowBytes(pw))
		if off+n > len(data) {
			return nil, fmt.Errorf("image data too short in interlace pass %d", i+1)
		}
		rows, err := unfilterRows(data[off:off+n], hdr.RowBytes(pw), ph, bpp)
		if err != nil {
			return nil, err
		}
		for py, row := range rows {
			dst := r.rows[p.y0+py*p.dy]
			for px := 0; px < pw; px++ {
				copyPixel(dst, p.x0+px*p.dx, row, px, bits)
			}
		}
		off += n
	}
	return r, nil
}

// scanlineGroups returns the rows to filter: one group for progressive
// output, one per non-empty pass for Adam7.
func (r *raster) scanlineGroups(interlace bool) [][][]byte {
	if !interlace {
		return [][][]byte{r.rows}
	}
	w, h := int(r.hdr.Width), int(r.hdr.Height)
	bits := r.hdr.BitsPerPixel()
	var groups [][][]byte
	for _, p := range adam7 {
		pw, ph := p.size(w, h)
		if pw == 0 || ph == 0 {
			continue
		}
		stride := r.hdr.RowBytes(pw)
		rows := make([][]byte, ph)
		for py := range rows {
			rows[py] = make([]byte, stride)
			src := r.rows[p.y0+py*p.dy]
			for px := 0; px < pw; px++ {
				copyPixel(rows[py], px, src, p.x0+px*p.dx, bits)
			}
		}
		groups = append(groups, rows)
	}
	return groups
}

// copyPixel copies pixel sx of src to pixel dx of dst. bits is the pixel
// size; sub-byte pixels are packed most significant first.
func copyPixel(dst []byte, dx int, src []byte, sx int, bits int) {
	if bits >= 8 {
		n := bits / 8
		copy(dst[dx*n:dx*n+n], src[sx*n:sx*n+n])
		return
	}
	mask := byte(1<<bits - 1)
	sbit := sx * bits
	v := (src[sbit/8] >> (8 - bits - sbit%8)) & mask
	dbit := dx * bits
	shift := 8 - bits - dbit%8
	dst[dbit/8] = dst[dbit/8]&^(mask<<shift) | v<<shift
}

// pixelValue reads a sub-byte or 8-bit sample, used for palette indices.
func pixelValue(row []byte, x, bits int) int {
	if bits == 8 {
		return int(row[x])
	}
	bit := x * bits
	return int(row[bit/8]>>(8-bits-bit%8)) & (1<<bits - 1)
}

func unfilterRows(data []byte, stride, height, bpp int) ([][]byte, error) {
	if len(data) < height*(stride+1) {
		return nil, fmt.Errorf("image data too short: %d bytes, want %d", len(data), height*(stride+1))
	}
	rows := make([][]byte, height)
	prev := make([]byte, stride)
	for y := 0; y < height; y++ {
		line := data[y*(stride+1) : (y+1)*(stride+1)]
		cur := make([]byte, stride)
		copy(cur, line[1:])
		if err := unfilter(line[0], cur, prev, bpp); err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
		rows[y] = cur
		prev = cur
	}
	return rows, nil
}

func unfilter(kind byte, cur, prev []byte, bpp int) error {
	switch kind {
	case 0:
	case 1:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case 2:
		for i := range cur {
			cur[i] += prev[i]
		}
	case 3:
		for i := range cur {
			var left int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			cur[i] += byte((left + int(prev[i])) / 2)
		}
	case 4:
		for i := range cur {
			var a, c byte
			if i >= bpp {
				a, c = cur[i-bpp], prev[i-bpp]
			}
			cur[i] += paeth(a, prev[i], c)
		}
	default:
		return fmt.Errorf("unknown filter type %d", kind)
	}
	return nil
}

// applyFilter writes the filtered form of cur into dst.
func applyFilter(kind byte, dst, cur, prev []byte, bpp int) {
	switch kind {
	case 0:
		copy(dst, cur)
	case 1:
		for i := range cur {
			var left byte
			if i >= bpp {
				left = cur[i-bpp]
			}
			dst[i] = cur[i] - left
		}
	case 2:
		for i := range cur {
			dst[i] = cur[i] - prev[i]
		}
	case 3:
		for i := range cur {
			var left int
			if i >= bpp {
				left = int(cur[i-bpp])
			}
			dst[i] = cur[i] - byte((left+int(prev[i]))/2)
		}
	case 4:
		for i := range cur {
			var a, c byte
			if i >= bpp {
				a, c = cur[i-bpp], prev[i-bpp]
			}
			dst[i] = cur[i] - paeth(a, prev[i], c)
		}
	}
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
