package options

// PresetKind selects how the base preset is chosen.
type PresetKind int

const (
	PresetDefault PresetKind = iota
	PresetLevel
	PresetMax
)

// PresetSelector is Default, Level(n) or Max.
type PresetSelector struct {
	Kind  PresetKind
	Level uint8
}

// DefaultPreset selects the engine's default preset.
func DefaultPreset() PresetSelector { return PresetSelector{Kind: PresetDefault} }

// LevelPreset selects preset n. Levels above the highest preset select it.
func LevelPreset(n uint8) PresetSelector { return PresetSelector{Kind: PresetLevel, Level: n} }

// MaxPreset selects the maximum-effort preset.
func MaxPreset() PresetSelector { return PresetSelector{Kind: PresetMax} }

// ChunkPolicyKind identifies a chunk retention strategy.
type ChunkPolicyKind int

const (
	ChunksDefault ChunkPolicyKind = iota
	ChunksKeep
	ChunksStrip
	ChunksStripAll
	ChunksStripSafe
)

func (k ChunkPolicyKind) String() string {
	switch k {
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

// ChunkPolicy is Default, Keep(names), Strip(names), StripAll or StripSafe.
// Names are unparsed; the resolver validates them.
type ChunkPolicy struct {
	Kind  ChunkPolicyKind
	Names []string
}

// KeepChunks keeps only the named ancillary chunks. The name "display"
// expands to the display chunk group.
func KeepChunks(names ...string) ChunkPolicy {
	return ChunkPolicy{Kind: ChunksKeep, Names: names}
}

// StripChunks removes the named chunks.
func StripChunks(names ...string) ChunkPolicy {
	return ChunkPolicy{Kind: ChunksStrip, Names: names}
}

// StripAll removes every ancillary chunk.
func StripAll() ChunkPolicy { return ChunkPolicy{Kind: ChunksStripAll} }

// StripSafe removes ancillary chunks that do not affect display.
func StripSafe() ChunkPolicy { return ChunkPolicy{Kind: ChunksStripSafe} }

// DeflateKind selects the compression backend.
type DeflateKind int

const (
	DeflateDefault DeflateKind = iota
	DeflateFast
	DeflateZopfli
)

// DeflateChoice is Default, Level(n) or Zopfli(iterations).
// A nil Iterations means the backend default.
type DeflateChoice struct {
	Kind       DeflateKind
	Level      int
	Iterations *int
}

// DeflateLevel selects the fast deflate backend at level n.
func DeflateLevel(n int) DeflateChoice { return DeflateChoice{Kind: DeflateFast, Level: n} }

// Zopfli selects the iterative backend.
func Zopfli(iterations *int) DeflateChoice {
	return DeflateChoice{Kind: DeflateZopfli, Iterations: iterations}
}

// Request is the tagged form of Options: each option group holds exactly
// one variant, so there is no precedence to resolve.
type Request struct {
	Preset PresetSelector

	Force              *bool
	OptimizeAlpha      *bool
	BitDepthReduction  *bool
	ColorTypeReduction *bool
	PaletteReduction   *bool
	GrayscaleReduction *bool
	IdatRecoding       *bool
	Scale16            *bool
	FastEvaluation     *bool

	Interlace *Interlace

	// Filters replaces the preset's filter set when non-nil.
	Filters []Filter

	Chunks  ChunkPolicy
	Deflate DeflateChoice

	// Overridden names Options fields that were present but lost to a
	// later field in the same group.
	Overridden []string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
