package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/pngopt-mcp/internal/chunk"
	"github.com/ironsheep/pngopt-mcp/internal/pngstream"
)

// Native is the in-process engine. It applies the chunk policy, the
// lossless reductions it supports, interlace conversion and IDAT
// re-filtering and recompression. Palette reordering is not performed;
// unused trailing palette entries are trimmed.
type Native struct{}

// NewNative returns the in-process engine.
func NewNative() *Native { return &Native{} }

// formatChunks depend on the color type or bit depth. While any of them
// survives, header-changing reductions are skipped.
var formatChunks = []chunk.Name{
	chunk.TRNS,
	{'b', 'K', 'G', 'D'},
	{'s', 'B', 'I', 'T'},
	{'h', 'I', 'S', 'T'},
}

// Optimize implements Engine.
func (n *Native) Optimize(data []byte, cfg *Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunks, err := pngstream.Read(data)
	if err != nil {
		if errors.Is(err, pngstream.ErrSignature) {
			return nil, ErrNotPNG
		}
		return nil, err
	}
	hdr, err := pngstream.ParseHeader(chunks[0].Data)
	if err != nil {
		return nil, err
	}

	kept := filterChunks(chunks, cfg.Chunks)
	animated := containsChunk(kept, chunk.ACTL)

	idat := pngstream.JoinIDAT(chunks)
	if len(idat) == 0 {
		return nil, errors.New("image has no IDAT data")
	}
	if stride := hdr.RowBytes(int(hdr.Width)); stride+8 > math.MaxInt/2/int(hdr.Height) {
		return nil, fmt.Errorf("image dimensions %dx%d are too large", hdr.Width, hdr.Height)
	}
	want := rawSize(hdr)
	raw, err := inflate(idat, want)
	if err != nil {
		return nil, err
	}
	if len(raw) != want {
		return nil, fmt.Errorf("image data has %d bytes, want %d", len(raw), want)
	}
	img, err := decodeRaster(hdr, raw)
	if err != nil {
		return nil, err
	}

	interlace := hdr.Interlace
	if !animated {
		switch cfg.Interlace {
		case InterlaceNone:
			interlace = 0
		case InterlaceAdam7:
			interlace = 1
		}
	}

	var palette int
	if p := findChunk(kept, chunk.PLTE); p != nil {
		palette = len(p.Data) / 3
	}
	// A suggested palette on a truecolor image would be invalid after a
	// color type change.
	locked := animated || (palette > 0 && hdr.ColorType != pngstream.ColorPalette)
	for _, name := range formatChunks {
		if containsChunk(kept, name) {
			locked = true
		}
	}
	red := reduce(img, cfg, locked, palette)
	changed := red.pixels || interlace != hdr.Interlace

	newIDAT := idat
	if changed || cfg.IdatRecoding {
		var reuse []byte
		if !changed && len(cfg.Filters) == 0 {
			reuse = raw
		}
		encoded, err := encodeIDAT(img, interlace == 1, cfg, reuse)
		if err != nil {
			return nil, err
		}
		if changed || len(encoded) < len(idat) {
			newIDAT = encoded
		}
	}

	img.hdr.Interlace = interlace
	out := pngstream.Write(assemble(kept, img.hdr, newIDAT, red.palette))

	if len(out) > len(data) && !cfg.Force {
		return nil, ErrOutputLarger
	}
	if !cfg.Scale16 {
		if err := verifyPixels(data, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// encodeIDAT filters and compresses the raster. When reuse is set the
// input's own filtered stream is recompressed as is.
func encodeIDAT(img *raster, interlace bool, cfg *Config, reuse []byte) ([]byte, error) {
	if reuse != nil {
		return compress(reuse, cfg.Deflate)
	}

	filters := cfg.Filters
	if len(filters) == 0 {
		filters = []RowFilter{FilterNone}
	}
	groups := img.scanlineGroups(interlace)
	bpp := img.hdr.FilterStride()

	if len(filters) == 1 {
		return compress(filterGroups(groups, bpp, filters[0]), cfg.Deflate)
	}

	// Fast evaluation ranks candidates with a cheap compressor and only
	// runs the configured backend on the winner.
	trial := cfg.Deflate
	if cfg.FastEvaluation {
		trial = Deflater{Backend: BackendFastDeflate, Level: 1}
	}

	var bestFiltered, best []byte
	for _, f := range filters {
		filtered := filterGroups(groups, bpp, f)
		out, err := compress(filtered, trial)
		if err != nil {
			return nil, err
		}
		if best == nil || len(out) < len(best) {
			best, bestFiltered = out, filtered
		}
	}
	if cfg.FastEvaluation {
		return compress(bestFiltered, cfg.Deflate)
	}
	return best, nil
}

// filterChunks drops the ancillary chunks the policy rejects. tRNS is
// part of the pixel data and always survives. Frame chunks go with acTL.
func filterChunks(chunks []pngstream.Chunk, policy ChunkPolicy) []pngstream.Chunk {
	keepAnimation := true
	for _, c := range chunks {
		if c.Name == chunk.ACTL && !policy.Retain(c.Name) {
			keepAnimation = false
		}
	}

	out := make([]pngstream.Chunk, 0, len(chunks))
	for _, c := range chunks {
		switch {
		case !c.Name.IsAncillary(), c.Name == chunk.TRNS:
			out = append(out, c)
		case (c.Name == chunk.FCTL || c.Name == chunk.FDAT) && !keepAnimation:
		case policy.Retain(c.Name):
			out = append(out, c)
		}
	}
	return out
}

// assemble writes the surviving chunks with a new header and image data.
// The IDAT run is replaced by one chunk at the position of the first.
func assemble(chunks []pngstream.Chunk, hdr pngstream.Header, idat []byte, paletteEntries int) []pngstream.Chunk {
	out := make([]pngstream.Chunk, 0, len(chunks))
	wroteIDAT := false
	for _, c := range chunks {
		switch c.Name {
		case chunk.IHDR:
			out = append(out, pngstream.Chunk{Name: chunk.IHDR, Data: hdr.Bytes()})
		case chunk.IDAT:
			if !wroteIDAT {
				out = append(out, pngstream.Chunk{Name: chunk.IDAT, Data: idat})
				wroteIDAT = true
			}
		case chunk.PLTE:
			if paletteEntries > 0 {
				c.Data = c.Data[:3*paletteEntries]
			}
			out = append(out, c)
		default:
			out = append(out, c)
		}
	}
	return out
}

func findChunk(chunks []pngstream.Chunk, name chunk.Name) *pngstream.Chunk {
	for i := range chunks {
		if chunks[i].Name == name {
			return &chunks[i]
		}
	}
	return nil
}

func containsChunk(chunks []pngstream.Chunk, name chunk.Name) bool {
	return findChunk(chunks, name) != nil
}
