// Package resolver turns caller options into a concrete engine.Config.
//
// Resolution is pure and fail-fast: it returns the first violation as a
// *pngerr.Error and never partially applies options. The steps, in order:
//
//  1. pick the base preset (max beats level beats default)
//  2. overwrite the boolean toggles that are present
//  3. replace the filter set when one is given
//  4. apply the interlace mode
//  5. resolve the chunk policy
//  6. resolve the deflate backend
//
// Flat options are checked field by field at steps 5 and 6 before the
// winning field is applied, so a field that loses on precedence still
// fails resolution when it is invalid.
package resolver

import (
	"strconv"

	"github.com/ironsheep/pngopt-mcp/internal/chunk"
	"github.com/ironsheep/pngopt-mcp/internal/engine"
	"github.com/ironsheep/pngopt-mcp/internal/options"
	"github.com/ironsheep/pngopt-mcp/internal/pngerr"
)

// Resolve validates the flat options and returns the engine configuration.
func Resolve(o options.Options) (*engine.Config, error) {
	return resolve(o.Request(), &o)
}

// ResolveRequest validates a tagged request and returns the engine
// configuration.
func ResolveRequest(r options.Request) (*engine.Config, error) {
	return resolve(r, nil)
}

// resolve applies r. When flat is set, every chunk and deflate field it
// carries is validated, including those r.Overridden names.
func resolve(r options.Request, flat *options.Options) (*engine.Config, error) {
	cfg := basePreset(r.Preset)

	setBool(&cfg.Force, r.Force)
	setBool(&cfg.OptimizeAlpha, r.OptimizeAlpha)
	setBool(&cfg.BitDepthReduction, r.BitDepthReduction)
	setBool(&cfg.ColorTypeReduction, r.ColorTypeReduction)
	setBool(&cfg.PaletteReduction, r.PaletteReduction)
	setBool(&cfg.GrayscaleReduction, r.GrayscaleReduction)
	setBool(&cfg.Scale16, r.Scale16)
	setBool(&cfg.IdatRecoding, r.IdatRecoding)
	setBool(&cfg.FastEvaluation, r.FastEvaluation)

	if r.Filters != nil {
		filters, err := mapFilters(r.Filters)
		if err != nil {
			return nil, err
		}
		cfg.Filters = filters
	}

	if r.Interlace != nil {
		switch *r.Interlace {
		case options.InterlaceRemove:
			cfg.Interlace = engine.InterlaceNone
		case options.InterlaceApply:
			cfg.Interlace = engine.InterlaceAdam7
		case options.InterlaceKeep:
			cfg.Interlace = engine.InterlacePreserve
		default:
			return nil, pngerr.New(pngerr.KindInternal, string(*r.Interlace), "unmapped interlace mode %q", *r.Interlace)
		}
	}

	if flat != nil {
		if err := checkChunkFields(flat); err != nil {
			return nil, err
		}
	}
	policy, err := resolveChunks(r.Chunks)
	if err != nil {
		return nil, err
	}
	cfg.Chunks = policy

	if flat != nil && flat.UseZopfli != nil && *flat.UseZopfli {
		if err := resolveDeflate(&engine.Config{}, options.Zopfli(flat.ZopfliIterations)); err != nil {
			return nil, err
		}
	}
	if err := resolveDeflate(cfg, r.Deflate); err != nil {
		return nil, err
	}

	return cfg, nil
}

// checkChunkFields validates the chunk lists in field order.
func checkChunkFields(o *options.Options) error {
	if o.KeepChunks != nil {
		if _, err := resolveChunks(options.KeepChunks(o.KeepChunks...)); err != nil {
			return err
		}
	}
	if o.StripChunks != nil {
		if _, err := resolveChunks(options.StripChunks(o.StripChunks...)); err != nil {
			return err
		}
	}
	return nil
}

func basePreset(sel options.PresetSelector) *engine.Config {
	switch sel.Kind {
	case options.PresetMax:
		return MaxConfig()
	case options.PresetLevel:
		return Preset(int(sel.Level))
	default:
		return DefaultConfig()
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

var filterTable = map[options.Filter]engine.RowFilter{
	options.FilterNone:    engine.FilterNone,
	options.FilterSub:     engine.FilterSub,
	options.FilterUp:      engine.FilterUp,
	options.FilterAverage: engine.FilterAverage,
	options.FilterPaeth:   engine.FilterPaeth,
	options.FilterMinSum:  engine.FilterMinSum,
	options.FilterEntropy: engine.FilterEntropy,
	options.FilterBigrams: engine.FilterBigrams,
	options.FilterBigEnt:  engine.FilterBigEnt,
	options.FilterBrute:   engine.FilterBrute,
}

// mapFilters converts names to row filters, dropping repeats but keeping
// first-seen order.
func mapFilters(names []options.Filter) ([]engine.RowFilter, error) {
	out := make([]engine.RowFilter, 0, len(names))
	seen := make(map[engine.RowFilter]bool, len(names))
	for _, name := range names {
		f, ok := filterTable[name]
		if !ok {
			return nil, pngerr.New(pngerr.KindInternal, string(name), "unmapped filter %q", name)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

func resolveChunks(p options.ChunkPolicy) (engine.ChunkPolicy, error) {
	switch p.Kind {
	case options.ChunksKeep:
		names := chunk.NewSet()
		for _, s := range p.Names {
			if s == chunk.DisplayKeyword {
				for _, d := range chunk.DisplayChunks {
					names.Add(d)
				}
				continue
			}
			n, err := chunk.Parse(s)
			if err != nil {
				return engine.ChunkPolicy{}, err
			}
			names.Add(n)
		}
		return engine.ChunkPolicy{Mode: engine.ChunksKeep, Names: names}, nil

	case options.ChunksStrip:
		names := chunk.NewSet()
		for _, s := range p.Names {
			n, err := chunk.Parse(s)
			if err != nil {
				return engine.ChunkPolicy{}, err
			}
			if n.IsCritical() {
				return engine.ChunkPolicy{}, pngerr.New(pngerr.KindForbiddenChunkStrip, s,
					"cannot strip critical chunk %s", n)
			}
			names.Add(n)
		}
		return engine.ChunkPolicy{Mode: engine.ChunksStrip, Names: names}, nil

	case options.ChunksStripAll:
		return engine.ChunkPolicy{Mode: engine.ChunksStripAll}, nil
	case options.ChunksStripSafe:
		return engine.ChunkPolicy{Mode: engine.ChunksStripSafe}, nil
	default:
		return engine.ChunkPolicy{Mode: engine.ChunksDefault}, nil
	}
}

func resolveDeflate(cfg *engine.Config, d options.DeflateChoice) error {
	switch d.Kind {
	case options.DeflateZopfli:
		iterations := engine.DefaultZopfliIterations
		if d.Iterations != nil {
			iterations = *d.Iterations
			if iterations < engine.MinZopfliIterations || iterations > engine.MaxZopfliIterations {
				return pngerr.New(pngerr.KindZopfliIterationsOutOfRange, strconv.Itoa(iterations),
					"zopfli iterations %d outside [%d,%d]", iterations, engine.MinZopfliIterations, engine.MaxZopfliIterations)
			}
		}
		cfg.Deflate = engine.Deflater{Backend: engine.BackendZopfli, Iterations: iterations}

	case options.DeflateFast:
		if d.Level < 0 || d.Level > engine.MaxCompressionLevel {
			return pngerr.New(pngerr.KindCompressionLevelOutOfRange, strconv.Itoa(d.Level),
				"compression level %d outside [0,%d]", d.Level, engine.MaxCompressionLevel)
		}
		cfg.Deflate = engine.Deflater{Backend: engine.BackendFastDeflate, Level: d.Level}
	}
	return nil
}
