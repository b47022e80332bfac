package options

import (
	"encoding/json"
	"fmt"
)

// Interlace is the requested output interlacing.
type Interlace string

const (
	// InterlaceRemove writes non-interlaced output.
	InterlaceRemove Interlace = "remove"
	// InterlaceApply writes Adam7-interlaced output.
	InterlaceApply Interlace = "apply"
	// InterlaceKeep leaves the input's interlacing untouched.
	InterlaceKeep Interlace = "keep"
)

// UnmarshalJSON rejects values outside the enumeration.
func (m *Interlace) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("interlace: %w", err)
	}
	switch Interlace(s) {
	case InterlaceRemove, InterlaceApply, InterlaceKeep:
		*m = Interlace(s)
		return nil
	}
	return fmt.Errorf("value %q does not match any variant of enum InterlaceMode", s)
}

// Filter names a row filter or a filter-selection heuristic.
type Filter string

// The five standard PNG row filters followed by the five heuristics.
const (
	FilterNone    Filter = "None"
	FilterSub     Filter = "Sub"
	FilterUp      Filter = "Up"
	FilterAverage Filter = "Average"
	FilterPaeth   Filter = "Paeth"
	FilterMinSum  Filter = "MinSum"
	FilterEntropy Filter = "Entropy"
	FilterBigrams Filter = "Bigrams"
	FilterBigEnt  Filter = "BigEnt"
	FilterBrute   Filter = "Brute"
)

// AllFilters lists every accepted Filter in canonical order.
var AllFilters = []Filter{
	FilterNone, FilterSub, FilterUp, FilterAverage, FilterPaeth,
	FilterMinSum, FilterEntropy, FilterBigrams, FilterBigEnt, FilterBrute,
}

// Valid reports whether f is one of AllFilters.
func (f Filter) Valid() bool {
	for _, v := range AllFilters {
		if f == v {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects values outside the enumeration.
func (f *Filter) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if !Filter(s).Valid() {
		return fmt.Errorf("value %q does not match any variant of enum Filter", s)
	}
	*f = Filter(s)
	return nil
}

// Options is the caller-facing option record. Every field is optional;
// nil means "use the preset's value".
//
// The four chunk fields and the two deflate fields are independent here
// for wire compatibility. Request collapses them with a fixed precedence.
type Options struct {
	Force             *bool  `json:"force,omitempty"`
	OptimizationLevel *uint8 `json:"optimizationLevel,omitempty"`
	OptimizationMax   *bool  `json:"optimizationMax,omitempty"`

	KeepChunks  []string `json:"keepChunks,omitempty"`
	StripChunks []string `json:"stripChunks,omitempty"`
	StripAll    *bool    `json:"stripAll,omitempty"`
	StripSafe   *bool    `json:"stripSafe,omitempty"`

	OptimizeAlpha      *bool `json:"optimizeAlpha,omitempty"`
	BitDepthReduction  *bool `json:"bitDepthReduction,omitempty"`
	ColorTypeReduction *bool `json:"colorTypeReduction,omitempty"`
	PaletteReduction   *bool `json:"paletteReduction,omitempty"`
	GrayscaleReduction *bool `json:"grayscaleReduction,omitempty"`
	IdatRecoding       *bool `json:"idatRecoding,omitempty"`
	Scale16            *bool `json:"scale16,omitempty"`

	Interlace      *Interlace `json:"interlace,omitempty"`
	Filter         []Filter   `json:"filter,omitempty"`
	FastEvaluation *bool      `json:"fastEvaluation,omitempty"`

	UseZopfli        *bool `json:"useZopfli,omitempty"`
	ZopfliIterations *int  `json:"zopfliIterations,omitempty"`
	CompressionLevel *int  `json:"compressionLevel,omitempty"`
}

// Request collapses o into the tagged form.
//
// Preset: optimizationMax=true beats optimizationLevel. Chunk policy:
// keepChunks, then stripChunks, then stripAll, then stripSafe; the last
// one present wins. Deflate: useZopfli, then compressionLevel; the last
// one present wins. Each field that lost is named in Request.Overridden.
// Request does not validate the losing fields; resolver.Resolve does.
func (o Options) Request() Request {
	r := Request{
		Force:              o.Force,
		OptimizeAlpha:      o.OptimizeAlpha,
		BitDepthReduction:  o.BitDepthReduction,
		ColorTypeReduction: o.ColorTypeReduction,
		PaletteReduction:   o.PaletteReduction,
		GrayscaleReduction: o.GrayscaleReduction,
		IdatRecoding:       o.IdatRecoding,
		Scale16:            o.Scale16,
		FastEvaluation:     o.FastEvaluation,
		Interlace:          o.Interlace,
		Filters:            o.Filter,
	}

	switch {
	case isTrue(o.OptimizationMax):
		r.Preset = MaxPreset()
		if o.OptimizationLevel != nil {
			r.Overridden = append(r.Overridden, "optimizationLevel")
		}
	case o.OptimizationLevel != nil:
		r.Preset = LevelPreset(*o.OptimizationLevel)
	}

	var chunkField string
	setChunks := func(field string, p ChunkPolicy) {
		if chunkField != "" {
			r.Overridden = append(r.Overridden, chunkField)
		}
		chunkField = field
		r.Chunks = p
	}
	if o.KeepChunks != nil {
		setChunks("keepChunks", KeepChunks(o.KeepChunks...))
	}
	if o.StripChunks != nil {
		setChunks("stripChunks", StripChunks(o.StripChunks...))
	}
	if isTrue(o.StripAll) {
		setChunks("stripAll", StripAll())
	}
	if isTrue(o.StripSafe) {
		setChunks("stripSafe", StripSafe())
	}

	if isTrue(o.UseZopfli) {
		r.Deflate = Zopfli(o.ZopfliIterations)
	}
	if o.CompressionLevel != nil {
		if r.Deflate.Kind == DeflateZopfli {
			r.Overridden = append(r.Overridden, "useZopfli")
		}
		r.Deflate = DeflateLevel(*o.CompressionLevel)
	}

	return r
}

func isTrue(b *bool) bool { return b != nil && *b }
