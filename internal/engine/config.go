package engine

import (
	"fmt"
	"strings"

	"github.com/ironsheep/pngopt-mcp/internal/chunk"
)

// RowFilter is a PNG row filter or filter-selection heuristic. The
// numbering matches the oxipng command line.
type RowFilter uint8

const (
	FilterNone RowFilter = iota
	FilterSub
	FilterUp
	FilterAverage
	FilterPaeth
	FilterMinSum
	FilterEntropy
	FilterBigrams
	FilterBigEnt
	FilterBrute
)

var rowFilterNames = [...]string{
	"None", "Sub", "Up", "Average", "Paeth",
	"MinSum", "Entropy", "Bigrams", "BigEnt", "Brute",
}

func (f RowFilter) String() string {
	if int(f) < len(rowFilterNames) {
		return rowFilterNames[f]
	}
	return fmt.Sprintf("RowFilter(%d)", uint8(f))
}

// IsHeuristic reports whether f picks a filter per row rather than being one.
func (f RowFilter) IsHeuristic() bool { return f >= FilterMinSum }

// Interlacing is the output interlace setting.
type Interlacing int

const (
	// InterlacePreserve keeps whatever the input uses.
	InterlacePreserve Interlacing = iota
	InterlaceNone
	InterlaceAdam7
)

func (i Interlacing) String() string {
	switch i {
	case InterlaceNone:
		return "none"
	case InterlaceAdam7:
		return "adam7"
	default:
		return "preserve"
	}
}

// ChunkMode is the active chunk retention strategy.
type ChunkMode int

const (
	// ChunksDefault keeps every chunk.
	ChunksDefault ChunkMode = iota
	ChunksKeep
	ChunksStrip
	ChunksStripAll
	ChunksStripSafe
)

func (m ChunkMode) String() string {
	switch m {
	case ChunksKeep:
		return "keep"
	case ChunksStrip:
		return "strip"
	case ChunksStripAll:
		return "strip-all"
	case ChunksStripSafe:
		return "strip-safe"
	default:
		return "default"
	}
}

// ChunkPolicy decides which ancillary chunks survive. Names is used by
// ChunksKeep and ChunksStrip only.
type ChunkPolicy struct {
	Mode  ChunkMode
	Names chunk.Set
}

// Retain reports whether the policy keeps an ancillary chunk. Critical
// chunks are always kept and never reach this check.
func (p ChunkPolicy) Retain(n chunk.Name) bool {
	switch p.Mode {
	case ChunksKeep:
		return p.Names.Has(n)
	case ChunksStrip:
		return !p.Names.Has(n)
	case ChunksStripAll:
		return false
	case ChunksStripSafe:
		return n.IsDisplay()
	default:
		return true
	}
}

// Backend is a deflate implementation.
type Backend int

const (
	BackendFastDeflate Backend = iota
	BackendZopfli
)

func (b Backend) String() string {
	if b == BackendZopfli {
		return "zopfli"
	}
	return "deflate"
}

// Deflate limits and defaults.
const (
	MaxCompressionLevel     = 12
	MinZopfliIterations     = 1
	MaxZopfliIterations     = 255
	DefaultZopfliIterations = 15
)

// Deflater is the single active deflate backend. Level applies to
// BackendFastDeflate, Iterations to BackendZopfli.
type Deflater struct {
	Backend    Backend
	Level      int
	Iterations int
}

func (d Deflater) String() string {
	if d.Backend == BackendZopfli {
		return fmt.Sprintf("zopfli(iterations=%d)", d.Iterations)
	}
	return fmt.Sprintf("deflate(level=%d)", d.Level)
}

// Config is the fully resolved optimization configuration handed to an
// Engine. It is not modified after resolution and is safe to share.
type Config struct {
	Force bool

	Filters   []RowFilter
	Interlace Interlacing

	OptimizeAlpha      bool
	BitDepthReduction  bool
	ColorTypeReduction bool
	PaletteReduction   bool
	GrayscaleReduction bool
	IdatRecoding       bool
	Scale16            bool
	FastEvaluation     bool

	Chunks  ChunkPolicy
	Deflate Deflater
}

// Validate re-checks the numeric and chunk invariants.
func (c *Config) Validate() error {
	switch c.Deflate.Backend {
	case BackendFastDeflate:
		if c.Deflate.Level < 0 || c.Deflate.Level > MaxCompressionLevel {
			return fmt.Errorf("compression level %d outside [0,%d]", c.Deflate.Level, MaxCompressionLevel)
		}
	case BackendZopfli:
		if c.Deflate.Iterations < MinZopfliIterations || c.Deflate.Iterations > MaxZopfliIterations {
			return fmt.Errorf("zopfli iterations %d outside [%d,%d]", c.Deflate.Iterations, MinZopfliIterations, MaxZopfliIterations)
		}
	default:
		return fmt.Errorf("unknown deflate backend %d", c.Deflate.Backend)
	}
	if c.Chunks.Mode == ChunksStrip {
		for n := range c.Chunks.Names {
			if n.IsCritical() {
				return fmt.Errorf("strip list contains critical chunk %s", n)
			}
		}
	}
	return nil
}

// Summary renders the configuration on one line for logs.
func (c *Config) Summary() string {
	filters := make([]string, len(c.Filters))
	for i, f := range c.Filters {
		filters[i] = f.String()
	}
	chunks := c.Chunks.Mode.String()
	if c.Chunks.Mode == ChunksKeep || c.Chunks.Mode == ChunksStrip {
		chunks += "(" + strings.Join(c.Chunks.Names.Sorted(), ",") + ")"
	}
	return fmt.Sprintf("%s filters=[%s] interlace=%s chunks=%s force=%t fast=%t",
		c.Deflate, strings.Join(filters, ","), c.Interlace, chunks, c.Force, c.FastEvaluation)
}
