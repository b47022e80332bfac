package engine

import "errors"

// Engine re-encodes a PNG according to cfg. Implementations must not
// retain or modify data or cfg after returning.
type Engine interface {
	Optimize(data []byte, cfg *Config) ([]byte, error)
}

// Func adapts an ordinary function to Engine.
type Func func(data []byte, cfg *Config) ([]byte, error)

// Optimize calls f(data, cfg).
func (f Func) Optimize(data []byte, cfg *Config) ([]byte, error) { return f(data, cfg) }

// Engine errors with fixed messages.
var (
	ErrNotPNG         = errors.New("Invalid header detected; Not a PNG file")
	ErrOutputLarger   = errors.New("The resulting image is larger than the input; use force to keep it")
	ErrPixelsMismatch = errors.New("The optimized image does not match the input pixels")
)
