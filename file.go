// Package lapd reads HDF5 files generated by the Large Plasma Device (LAPD)
// control system at the Basic Plasma Science Facility. Opening a file builds
// a structural map of its MSI diagnostics, digitizers, and control devices;
// read calls then assemble shot-keyed numeric arrays from the mapped
// datasets.
package lapd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/scigolib/lapd/hdfio"
	"github.com/scigolib/lapd/hdfmap"
)

// ErrNotLaPD reports a file without LAPD control-system provenance: no root
// attribute naming the LaPD software version.
var ErrNotLaPD = errors.New("not a LaPD-generated file")

// File is an open LAPD HDF5 file with its device map built.
type File struct {
	src     hdfio.Source
	root    hdfio.Group
	fmap    *hdfmap.FileMap
	version string
}

// Open opens the HDF5 file at path and maps its devices.
func Open(path string) (*File, error) {
	src, err := hdfio.OpenFile(path)
	if err != nil {
		return nil, err
	}
	f, err := NewFile(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	return f, nil
}

// NewFile maps an already-open source. The caller keeps ownership of src
// until NewFile succeeds.
func NewFile(src hdfio.Source) (*File, error) {
	root := src.Root()
	version, ok := lapdVersion(root)
	if !ok {
		return nil, fmt.Errorf("%s: %w", src.Path(), ErrNotLaPD)
	}
	return &File{
		src:     src,
		root:    root,
		fmap:    hdfmap.MapFile(root),
		version: version,
	}, nil
}

// lapdVersion scans the root attributes for the control-system version
// stamp, e.g. "LaPD HDF5 software version".
func lapdVersion(root hdfio.Group) (string, bool) {
	for _, name := range root.AttrNames() {
		lower := strings.ToLower(name)
		if !strings.Contains(lower, "lapd") || !strings.Contains(lower, "version") {
			continue
		}
		v, ok := root.Attr(name)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// Map returns the file's device map.
func (f *File) Map() *hdfmap.FileMap { return f.fmap }

// Version returns the LaPD control-system version stamp.
func (f *File) Version() string { return f.version }

// Path returns the backing file path.
func (f *File) Path() string { return f.src.Path() }

// Close releases the underlying file handle.
func (f *File) Close() error { return f.src.Close() }

// msiGroup returns the mapped device group for one MSI diagnostic.
func (f *File) msiGroup(name string) (hdfio.Group, bool) {
	msi, ok := f.root.Group(hdfmap.MSIGroup)
	if !ok {
		return nil, false
	}
	return msi.Group(name)
}

// dataGroup returns a device group under "Raw data + config".
func (f *File) dataGroup(name string) (hdfio.Group, bool) {
	data, ok := f.root.Group(hdfmap.DataGroup)
	if !ok {
		return nil, false
	}
	return data.Group(name)
}
