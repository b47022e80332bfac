package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Oxipng runs an external oxipng binary, feeding the image on stdin and
// reading the result from stdout.
type Oxipng struct {
	// Path is the executable to run. Empty means "oxipng" on $PATH.
	Path string
}

// NewOxipng returns an engine that runs the binary at path.
func NewOxipng(path string) *Oxipng { return &Oxipng{Path: path} }

// Optimize implements Engine.
func (o *Oxipng) Optimize(data []byte, cfg *Config) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path := o.Path
	if path == "" {
		path = "oxipng"
	}

	cmd := exec.Command(path, Args(cfg)...)
	cmd.Stdin = bytes.NewReader(data)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return nil, errors.New(lastLine(msg))
		}
		return nil, fmt.Errorf("failed to run %s: %w", path, err)
	}
	return stdout.Bytes(), nil
}

// Args translates cfg into oxipng command-line arguments that read stdin
// and write stdout.
func Args(cfg *Config) []string {
	args := []string{"--quiet", "--stdout"}

	switch cfg.Deflate.Backend {
	case BackendZopfli:
		args = append(args, "--zopfli", "--zi", strconv.Itoa(cfg.Deflate.Iterations))
	default:
		args = append(args, "--zc", strconv.Itoa(cfg.Deflate.Level))
	}

	if len(cfg.Filters) > 0 {
		ids := make([]string, len(cfg.Filters))
		for i, f := range cfg.Filters {
			ids[i] = strconv.Itoa(int(f))
		}
		args = append(args, "--filters", strings.Join(ids, ","))
	}

	switch cfg.Interlace {
	case InterlaceNone:
		args = append(args, "--interlace", "0")
	case InterlaceAdam7:
		args = append(args, "--interlace", "1")
	default:
		args = append(args, "--interlace", "keep")
	}

	switch cfg.Chunks.Mode {
	case ChunksKeep:
		// oxipng has no empty keep list; keeping nothing is stripping all.
		if len(cfg.Chunks.Names) == 0 {
			args = append(args, "--strip", "all")
		} else {
			args = append(args, "--keep", strings.Join(cfg.Chunks.Names.Sorted(), ","))
		}
	case ChunksStrip:
		if len(cfg.Chunks.Names) > 0 {
			args = append(args, "--strip", strings.Join(cfg.Chunks.Names.Sorted(), ","))
		}
	case ChunksStripAll:
		args = append(args, "--strip", "all")
	case ChunksStripSafe:
		args = append(args, "--strip", "safe")
	}

	flags := []struct {
		on   bool
		flag string
	}{
		{cfg.Force, "--force"},
		{cfg.OptimizeAlpha, "--alpha"},
		{cfg.Scale16, "--scale16"},
		{cfg.FastEvaluation, "--fast"},
		{!cfg.BitDepthReduction, "--nb"},
		{!cfg.ColorTypeReduction, "--nc"},
		{!cfg.PaletteReduction, "--np"},
		{!cfg.GrayscaleReduction, "--ng"},
		{!cfg.IdatRecoding, "--nz"},
	}
	for _, f := range flags {
		if f.on {
			args = append(args, f.flag)
		}
	}

	return append(args, "-")
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
