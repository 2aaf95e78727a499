package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// PixelSet is a labelled list of pixels.
type PixelSet struct {
	Label  string
	Pixels []pixmap.Pixel
}

// WritePixelsCSV writes one row,col,label line per pixel with a header.
func WritePixelsCSV(path string, pixels []pixmap.Pixel, label string) error {
	return WritePixelSetsCSV(path, PixelSet{Label: label, Pixels: pixels})
}

// WritePixelSetsCSV writes every set to one file, in the order given.
func WritePixelSetsCSV(path string, sets ...PixelSet) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create csv directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	if err := writePixelSets(f, sets); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	return nil
}

func writePixelSets(out io.Writer, sets []PixelSet) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"row", "col", "category"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, set := range sets {
		for _, p := range set.Pixels {
			rec := []string{strconv.Itoa(p.Row), strconv.Itoa(p.Col), set.Label}
			if err := w.Write(rec); err != nil {
				return fmt.Errorf("failed to write csv row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
