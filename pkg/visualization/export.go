package visualization

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ErrNothingPainted is returned when saving a canvas that was never painted.
var ErrNothingPainted = errors.New("canvas has not been painted")

// SaveImage writes img as a PNG file. The file is replaced atomically so a
// reader never observes a partially written frame.
func SaveImage(img image.Image, filename string) error {
	if img == nil {
		return ErrNothingPainted
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("error encoding %s: %w", filename, err)
	}
	if err := atomic.WriteFile(filename, &buf); err != nil {
		return fmt.Errorf("error writing %s: %w", filename, err)
	}
	return nil
}

// SaveCanvas writes the last painted frame of c as a PNG file.
func SaveCanvas(c *Canvas, filename string) error {
	if c == nil || c.Image() == nil {
		return ErrNothingPainted
	}
	return SaveImage(c.Image(), filename)
}
