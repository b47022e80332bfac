// Package engine defines the resolved optimization configuration and the
// engines that execute it.
//
// An Engine is a single function from input bytes and a *Config to output
// bytes. Config is produced by the resolver and is never modified
// afterwards, so one value can be handed to another goroutine without
// synchronization.
//
// # Engines
//
//   - Native runs in process. It re-filters and recompresses image data
//     with klauspost/compress, applies the chunk policy and a set of
//     lossless reductions, converts between progressive and Adam7 output,
//     and decodes both images to confirm the pixels are unchanged.
//   - Oxipng runs an external oxipng binary over stdin and stdout.
//   - Func adapts a plain function, which is how tests inject fakes.
//
// # Errors
//
// Engines return plain errors. The bridge classifies every engine error as
// an engine failure and keeps its message verbatim.
package engine
