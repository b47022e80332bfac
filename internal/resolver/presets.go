package resolver

import "github.com/ironsheep/pngopt-mcp/internal/engine"

// MaxPresetLevel is the highest preset index; it is also the preset used
// for maximum effort.
const MaxPresetLevel = 6

// DefaultPresetLevel is the preset used when no selector is given.
const DefaultPresetLevel = 2

type preset struct {
	level          int
	filters        []engine.RowFilter
	fastEvaluation bool
}

var presets = [MaxPresetLevel + 1]preset{
	{5, []engine.RowFilter{engine.FilterNone}, true},
	{10, []engine.RowFilter{engine.FilterNone}, true},
	{11, []engine.RowFilter{engine.FilterNone, engine.FilterSub, engine.FilterEntropy, engine.FilterBigrams}, true},
	{11, []engine.RowFilter{engine.FilterNone, engine.FilterBigrams, engine.FilterBigEnt, engine.FilterBrute}, false},
	{12, []engine.RowFilter{engine.FilterNone, engine.FilterBigrams, engine.FilterBigEnt, engine.FilterBrute}, false},
	{12, []engine.RowFilter{
		engine.FilterNone, engine.FilterSub, engine.FilterUp, engine.FilterAverage, engine.FilterPaeth,
		engine.FilterBigrams, engine.FilterBigEnt, engine.FilterBrute,
	}, false},
	{12, []engine.RowFilter{
		engine.FilterNone, engine.FilterSub, engine.FilterUp, engine.FilterAverage, engine.FilterPaeth,
		engine.FilterMinSum, engine.FilterEntropy, engine.FilterBigrams, engine.FilterBigEnt, engine.FilterBrute,
	}, false},
}

// Preset returns a fresh configuration for preset level. Levels above
// MaxPresetLevel select the maximum preset.
func Preset(level int) *engine.Config {
	if level < 0 {
		level = 0
	}
	if level > MaxPresetLevel {
		level = MaxPresetLevel
	}
	p := presets[level]

	return &engine.Config{
		Filters:            append([]engine.RowFilter(nil), p.filters...),
		Interlace:          engine.InterlaceNone,
		BitDepthReduction:  true,
		ColorTypeReduction: true,
		PaletteReduction:   true,
		GrayscaleReduction: true,
		IdatRecoding:       true,
		FastEvaluation:     p.fastEvaluation,
		Chunks:             engine.ChunkPolicy{Mode: engine.ChunksDefault},
		Deflate:            engine.Deflater{Backend: engine.BackendFastDeflate, Level: p.level},
	}
}

// DefaultConfig returns the default preset.
func DefaultConfig() *engine.Config { return Preset(DefaultPresetLevel) }

// MaxConfig returns the maximum-effort preset.
func MaxConfig() *engine.Config { return Preset(MaxPresetLevel) }
