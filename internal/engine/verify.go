package engine

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// verifyPixels decodes both images and checks that every pixel matches
// after premultiplication, so color under full transparency is ignored.
// If the input itself cannot be decoded there is nothing to compare.
func verifyPixels(input, output []byte) error {
	want, err := imaging.Decode(bytes.NewReader(input))
	if err != nil {
		return nil
	}
	got, err := imaging.Decode(bytes.NewReader(output))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPixelsMismatch, err)
	}

	wb, gb := want.Bounds(), got.Bounds()
	if wb.Dx() != gb.Dx() || wb.Dy() != gb.Dy() {
		return fmt.Errorf("%w: size %dx%d became %dx%d", ErrPixelsMismatch, wb.Dx(), wb.Dy(), gb.Dx(), gb.Dy())
	}
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			r1, g1, b1, a1 := want.At(wb.Min.X+x, wb.Min.Y+y).RGBA()
			r2, g2, b2, a2 := got.At(gb.Min.X+x, gb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return fmt.Errorf("%w: pixel (%d,%d)", ErrPixelsMismatch, x, y)
			}
		}
	}
	return nil
}
