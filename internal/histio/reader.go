// Package histio reads and writes chip histograms stored in ROOT files.
//
// Calibration files written by Ph2_ACF keep each scan as a TCanvas whose
// primitive list holds the TH2 of interest. Derived files produced by this
// tool store plain TH2D objects. Both layouts are handled here and surface as
// pixmap.Map values.
package histio

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"

	"github.com/pixlab/bumpcheck/internal/pixmap"
)

var (
	// ErrNotFound is returned when a path does not resolve to an object.
	ErrNotFound = errors.New("object not found")
	// ErrNotHistogram is returned when the object cannot be used as a TH2 or
	// has no entry count.
	ErrNotHistogram = errors.New("object is not a usable histogram")
)

// objectList matches ROOT collections such as TList.
type objectList interface {
	Len() int
	At(i int) root.Object
}

type entrieser interface {
	Entries() float64
}

// File is an open ROOT file.
type File struct {
	f    *groot.File
	path string
}

// Open opens a ROOT file for reading.
func Open(path string) (*File, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ROOT file %s: %w", path, err)
	}
	return &File{f: f, path: path}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Close() error {
	return f.f.Close()
}

// Get resolves a slash-separated path through nested directories.
func (f *File) Get(path string) (root.Object, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	var dir riofs.Directory = f.f
	for i, part := range parts {
		obj, err := dir.Get(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %s in %s: %v", ErrNotFound, path, f.path, err)
		}
		if i == len(parts)-1 {
			return obj, nil
		}
		sub, ok := obj.(riofs.Directory)
		if !ok {
			return nil, fmt.Errorf("%w: %s in %s: %q is a %s, not a directory", ErrNotFound, path, f.path, part, obj.Class())
		}
		dir = sub
	}
	return nil, fmt.Errorf("%w: empty path", ErrNotFound)
}

// Map reads a TH2 stored directly at path.
func (f *File) Map(path string) (*pixmap.Map, error) {
	obj, err := f.Get(path)
	if err != nil {
		return nil, err
	}
	h2, err := asH2(obj, lastElem(path))
	if err != nil {
		return nil, fmt.Errorf("%s in %s: %w", path, f.path, err)
	}
	return mapFromH2(h2), nil
}

// ScanMap reads the 2D map of a calibration scan for the chip at loc.
func (f *File) ScanMap(loc Locator, scan string) (*pixmap.Map, error) {
	obj, err := f.Get(loc.Path(scan))
	if err != nil {
		return nil, err
	}
	h2, err := asH2(obj, loc.Name(scan))
	if err != nil {
		return nil, fmt.Errorf("%s scan of chip %d in %s: %w", scan, loc.Chip, f.path, err)
	}
	return mapFromH2(h2), nil
}

// ScanEntries returns the number of entries of a scan histogram. Ph2_ACF
// records readout and fit errors this way.
func (f *File) ScanEntries(loc Locator, scan string) (float64, error) {
	obj, err := f.Get(loc.Path(scan))
	if err != nil {
		return 0, err
	}
	if n, ok := entriesOf(obj, loc.Name(scan)); ok {
		return n, nil
	}
	return 0, fmt.Errorf("%s scan of chip %d in %s: %w: %s has no entries", scan, loc.Chip, f.path, ErrNotHistogram, obj.Class())
}

// entriesOf reads the entry count of obj, or of its primitive named name,
// or of its first primitive that has one.
func entriesOf(obj root.Object, name string) (float64, bool) {
	if e, ok := obj.(entrieser); ok {
		return e.Entries(), true
	}
	var first entrieser
	for _, p := range primitives(obj) {
		e, ok := p.(entrieser)
		if !ok {
			continue
		}
		if n, ok := p.(root.Named); ok && n.Name() == name {
			return e.Entries(), true
		}
		if first == nil {
			first = e
		}
	}
	if first != nil {
		return first.Entries(), true
	}
	return 0, false
}

// KeyInfo describes one object in a file.
type KeyInfo struct {
	Path  string
	Class string
	Title string
}

// Keys walks the whole file and lists every object, directories included.
func (f *File) Keys() ([]KeyInfo, error) {
	var out []KeyInfo
	if err := walk(f.f, "", &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func walk(dir riofs.Directory, prefix string, out *[]KeyInfo) error {
	for _, k := range dir.Keys() {
		path := k.Name()
		if prefix != "" {
			path = prefix + "/" + k.Name()
		}
		*out = append(*out, KeyInfo{Path: path, Class: k.ClassName(), Title: k.Title()})
		if !strings.HasPrefix(k.ClassName(), "TDirectory") {
			continue
		}
		obj, err := dir.Get(k.Name())
		if err != nil {
			return fmt.Errorf("failed to read directory %s: %w", path, err)
		}
		if sub, ok := obj.(riofs.Directory); ok {
			if err := walk(sub, path, out); err != nil {
				return err
			}
		}
	}
	return nil
}

// asH2 returns obj itself when it is a TH2, otherwise the canvas primitive
// named name, otherwise the first TH2 primitive.
func asH2(obj root.Object, name string) (rhist.H2, error) {
	if h2, ok := obj.(rhist.H2); ok {
		return h2, nil
	}
	prims := primitives(obj)
	var first rhist.H2
	for _, p := range prims {
		h2, ok := p.(rhist.H2)
		if !ok {
			continue
		}
		if n, ok := p.(root.Named); ok && n.Name() == name {
			return h2, nil
		}
		if first == nil {
			first = h2
		}
	}
	if first != nil {
		return first, nil
	}
	return nil, fmt.Errorf("%w: %s holds %d primitives and no TH2", ErrNotHistogram, obj.Class(), len(prims))
}

// primitives flattens the objects drawn on a canvas or held in a list,
// descending into sub-pads. Histograms and graphs also answer Keys/Get with
// their fit functions; those are not descended into.
func primitives(obj root.Object) []root.Object {
	var kids []root.Object
	switch c := obj.(type) {
	case objectList:
		kids = collect(c)
	case root.ObjectFinder:
		seen := make(map[string]bool)
		for _, k := range c.Keys() {
			if seen[k] {
				continue
			}
			seen[k] = true
			p, err := c.Get(k)
			if err != nil {
				continue
			}
			kids = append(kids, p)
		}
	}
	out := make([]root.Object, 0, len(kids))
	for _, k := range kids {
		out = append(out, k)
		if !drawable(k) {
			out = append(out, primitives(k)...)
		}
	}
	return out
}

func drawable(obj root.Object) bool {
	switch obj.(type) {
	case rhist.H1, rhist.H2, rhist.Graph:
		return true
	}
	return false
}

func collect(list objectList) []root.Object {
	out := make([]root.Object, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		out = append(out, list.At(i))
	}
	return out
}

func lastElem(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
