package histio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

// NamedMap is a map together with the histogram name and title it is
// written under.
type NamedMap struct {
	Name  string
	Title string
	Map   *pixmap.Map
}

// Writer creates a ROOT file of TH2D histograms.
type Writer struct {
	f    *groot.File
	path string
}

// Create creates (or truncates) a ROOT file, making parent directories as
// needed.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	f, err := groot.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create ROOT file %s: %w", path, err)
	}
	return &Writer{f: f, path: path}, nil
}

// Put writes m as a TH2D. A name containing slashes is stored in nested
// directories, created on demand.
func (w *Writer) Put(name, title string, m *pixmap.Map) error {
	parts := strings.Split(strings.Trim(name, "/"), "/")
	leaf := parts[len(parts)-1]
	var dir riofs.Directory = w.f
	for _, part := range parts[:len(parts)-1] {
		sub, err := subdir(dir, part)
		if err != nil {
			return fmt.Errorf("failed to create directory %q in %s: %w", part, w.path, err)
		}
		dir = sub
	}
	h := rhist.NewH2DFrom(h2dFromMap(leaf, title, m))
	if err := dir.Put(leaf, h); err != nil {
		return fmt.Errorf("failed to write %s to %s: %w", name, w.path, err)
	}
	return nil
}

func subdir(dir riofs.Directory, name string) (riofs.Directory, error) {
	if obj, err := dir.Get(name); err == nil {
		if sub, ok := obj.(riofs.Directory); ok {
			return sub, nil
		}
		return nil, fmt.Errorf("%q exists and is a %s", name, obj.Class())
	}
	return dir.Mkdir(name)
}

func (w *Writer) Close() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("failed to close ROOT file %s: %w", w.path, err)
	}
	return nil
}

// WriteMaps writes every map to a new file at path.
func WriteMaps(path string, maps ...NamedMap) error {
	w, err := Create(path)
	if err != nil {
		return err
	}
	for _, nm := range maps {
		if err := w.Put(nm.Name, nm.Title, nm.Map); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
