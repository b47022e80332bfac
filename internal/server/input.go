package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// imageSource is the shared "path or inline base64" argument pair.
type imageSource struct {
	Path        string `json:"path"`
	ImageBase64 string `json:"image_base64"`
}

// load returns the raw file bytes. Exactly one of Path and ImageBase64
// must be set.
func (src imageSource) load() ([]byte, error) {
	switch {
	case src.Path != "" && src.ImageBase64 != "":
		return nil, invalidParams(errors.New("provide either path or image_base64, not both"))
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		return data, nil
	case src.ImageBase64 != "":
		data, err := base64.StdEncoding.DecodeString(src.ImageBase64)
		if err != nil {
			return nil, invalidParams(fmt.Errorf("invalid image_base64: %w", err))
		}
		return data, nil
	default:
		return nil, invalidParams(errors.New("path or image_base64 is required"))
	}
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
