package hdfio

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/scigolib/hdf5"
)

// OpenFile opens an HDF5 file through github.com/scigolib/hdf5 and wraps it
// in the Source contract.
func OpenFile(path string) (Source, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hdfio: open %s: %w", path, err)
	}
	return &sciSource{f: f, path: path}, nil
}

type sciSource struct {
	f    *hdf5.File
	path string
}

func (s *sciSource) Root() Group {
	return newSciGroup(s.f.Root(), "/")
}

func (s *sciSource) Path() string { return s.path }

func (s *sciSource) Close() error { return s.f.Close() }

type sciGroup struct {
	g    *hdf5.Group
	path string

	loaded   bool
	grpOrder []string
	dsOrder  []string
	groups   map[string]*hdf5.Group
	datasets map[string]*hdf5.Dataset
}

func newSciGroup(g *hdf5.Group, path string) *sciGroup {
	return &sciGroup{g: g, path: path}
}

func (g *sciGroup) load() {
	if g.loaded {
		return
	}
	g.groups = make(map[string]*hdf5.Group)
	g.datasets = make(map[string]*hdf5.Dataset)
	for _, child := range g.g.Children() {
		switch c := child.(type) {
		case *hdf5.Group:
			g.grpOrder = append(g.grpOrder, c.Name())
			g.groups[c.Name()] = c
		case *hdf5.Dataset:
			g.dsOrder = append(g.dsOrder, c.Name())
			g.datasets[c.Name()] = c
		}
	}
	g.loaded = true
}

func (g *sciGroup) Name() string {
	if g.path == "/" {
		return "/"
	}
	return g.path[strings.LastIndex(g.path, "/")+1:]
}

func (g *sciGroup) Path() string { return g.path }

func (g *sciGroup) Groups() []string {
	g.load()
	return append([]string(nil), g.grpOrder...)
}

func (g *sciGroup) Datasets() []string {
	g.load()
	return append([]string(nil), g.dsOrder...)
}

func (g *sciGroup) Group(name string) (Group, bool) {
	g.load()
	sub, ok := g.groups[name]
	if !ok {
		return nil, false
	}
	return newSciGroup(sub, childPath(g.path, name)), true
}

func (g *sciGroup) Dataset(name string) (Dataset, bool) {
	g.load()
	d, ok := g.datasets[name]
	if !ok {
		return nil, false
	}
	return newSciDataset(d, childPath(g.path, name)), true
}

func (g *sciGroup) AttrNames() []string {
	attrs, err := g.g.Attributes()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		names = append(names, a.Name)
	}
	return names
}

func (g *sciGroup) Attr(name string) (interface{}, bool) {
	attrs, err := g.g.Attributes()
	if err != nil {
		return nil, false
	}
	for _, a := range attrs {
		if a.Name != name {
			continue
		}
		v, err := a.ReadValue()
		if err != nil {
			return nil, false
		}
		return decodeValue(v), true
	}
	return nil, false
}

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// sciDataset resolves shape and dtype once on first use. LAPD DAQ datasets
// are shot-extendable and therefore chunked, which is what makes the
// dimension query through the chunk iterator reliable for facility files;
// non-chunked plain datasets degrade to 1-D.
type sciDataset struct {
	d    *hdf5.Dataset
	path string

	introspected bool
	introErr     error
	shape        []int
	kind         Kind
	fields       []Field
	rows         []map[string]interface{} // decoded compound rows
}

func newSciDataset(d *hdf5.Dataset, path string) *sciDataset {
	return &sciDataset{d: d, path: path}
}

func (d *sciDataset) Name() string { return d.d.Name() }

func (d *sciDataset) Path() string { return d.path }

func (d *sciDataset) introspect() {
	if d.introspected {
		return
	}
	d.introspected = true

	// Compound first: ReadCompound rejects non-compound datatypes before
	// touching data.
	if rows, err := d.d.ReadCompound(); err == nil {
		d.kind = KindCompound
		d.shape = []int{len(rows)}
		d.rows = make([]map[string]interface{}, len(rows))
		for i, r := range rows {
			m := make(map[string]interface{}, len(r))
			for k, v := range r {
				m[k] = decodeValue(v)
			}
			d.rows[i] = m
		}
		d.fields = inferFields(d.rows)
		return
	}

	// Plain numeric data is exposed as float64 by the access library.
	d.kind = KindFloat
	if it, err := d.d.ChunkIterator(); err == nil {
		dims := it.DatasetDims()
		d.shape = make([]int, len(dims))
		for i, n := range dims {
			d.shape[i] = int(n)
		}
		return
	}
	vals, err := d.d.Read()
	if err != nil {
		d.introErr = fmt.Errorf("hdfio: introspect %s: %w", d.path, err)
		d.kind = KindInvalid
		return
	}
	d.shape = []int{len(vals)}
}

func inferFields(rows []map[string]interface{}) []Field {
	if len(rows) == 0 {
		return nil
	}
	names := make([]string, 0, len(rows[0]))
	for name := range rows[0] {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f := Field{Name: name}
		switch v := rows[0][name].(type) {
		case int64:
			f.Kind = KindInt
		case uint64:
			f.Kind = KindUint
		case float64:
			f.Kind = KindFloat
		case string:
			f.Kind = KindString
		case []int64:
			f.Kind = KindInt
			f.Shape = []int{len(v)}
		case []float64:
			f.Kind = KindFloat
			f.Shape = []int{len(v)}
		default:
			f.Kind = KindInvalid
		}
		fields = append(fields, f)
	}
	return fields
}

func (d *sciDataset) Shape() []int {
	d.introspect()
	return append([]int(nil), d.shape...)
}

func (d *sciDataset) Kind() Kind {
	d.introspect()
	return d.kind
}

func (d *sciDataset) Fields() []Field {
	d.introspect()
	return append([]Field(nil), d.fields...)
}

func (d *sciDataset) ReadRows(start, n int) ([]float64, error) {
	d.introspect()
	if d.introErr != nil {
		return nil, d.introErr
	}
	if d.kind == KindCompound {
		return nil, fmt.Errorf("hdfio: %s is compound, use field reads", d.path)
	}
	switch len(d.shape) {
	case 1:
		raw, err := d.d.ReadSlice([]uint64{uint64(start)}, []uint64{uint64(n)})
		if err != nil {
			return nil, fmt.Errorf("hdfio: read %s: %w", d.path, err)
		}
		return toFloat64s(raw)
	case 2:
		raw, err := d.d.ReadSlice(
			[]uint64{uint64(start), 0},
			[]uint64{uint64(n), uint64(d.shape[1])})
		if err != nil {
			return nil, fmt.Errorf("hdfio: read %s: %w", d.path, err)
		}
		return toFloat64s(raw)
	default:
		return nil, fmt.Errorf("hdfio: %s has %d dimensions, want 1 or 2",
			d.path, len(d.shape))
	}
}

func (d *sciDataset) ReadFloatField(field string) ([]float64, error) {
	d.introspect()
	if d.kind != KindCompound {
		return nil, fmt.Errorf("hdfio: %s is not compound", d.path)
	}
	f, ok := FieldByName(d, field)
	if !ok {
		return nil, ErrNoSuchField(d.path, field)
	}
	width := 1
	if len(f.Shape) == 1 {
		width = f.Shape[0]
	}
	out := make([]float64, 0, len(d.rows)*width)
	for _, row := range d.rows {
		switch v := row[field].(type) {
		case float64:
			out = append(out, v)
		case int64:
			out = append(out, float64(v))
		case uint64:
			out = append(out, float64(v))
		case []float64:
			out = append(out, v...)
		case []int64:
			for _, e := range v {
				out = append(out, float64(e))
			}
		default:
			return nil, fmt.Errorf("hdfio: %s field %q is not numeric",
				d.path, field)
		}
	}
	return out, nil
}

func (d *sciDataset) ReadUintField(field string) ([]uint64, error) {
	d.introspect()
	if d.kind != KindCompound {
		return nil, fmt.Errorf("hdfio: %s is not compound", d.path)
	}
	if _, ok := FieldByName(d, field); !ok {
		return nil, ErrNoSuchField(d.path, field)
	}
	out := make([]uint64, 0, len(d.rows))
	for _, row := range d.rows {
		switch v := row[field].(type) {
		case uint64:
			out = append(out, v)
		case int64:
			if v < 0 {
				return nil, fmt.Errorf("hdfio: %s field %q holds negative value %d",
					d.path, field, v)
			}
			out = append(out, uint64(v))
		default:
			return nil, fmt.Errorf("hdfio: %s field %q is not an integer",
				d.path, field)
		}
	}
	return out, nil
}

func (d *sciDataset) ReadStringField(field string) ([]string, error) {
	d.introspect()
	if d.kind != KindCompound {
		return nil, fmt.Errorf("hdfio: %s is not compound", d.path)
	}
	if _, ok := FieldByName(d, field); !ok {
		return nil, ErrNoSuchField(d.path, field)
	}
	out := make([]string, 0, len(d.rows))
	for _, row := range d.rows {
		s, ok := row[field].(string)
		if !ok {
			return nil, fmt.Errorf("hdfio: %s field %q is not a string",
				d.path, field)
		}
		out = append(out, s)
	}
	return out, nil
}

// decodeValue normalizes the access library's scalar and small-array values:
// integers to int64 (uint64 when unsigned 64-bit), floats to float64, byte
// strings to NUL-trimmed text.
func decodeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return x
	case float32:
		return float64(x)
	case float64:
		return x
	case string:
		return strings.TrimRight(x, "\x00")
	case []byte:
		return strings.TrimRight(string(x), "\x00")
	case []int32:
		out := make([]int64, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return out
	case []int64:
		return x
	case []float32:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out
	case []float64:
		return x
	default:
		return v
	}
}

func toFloat64s(raw interface{}) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	case []uint16:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, nil
	default:
		return nil, errors.New("hdfio: unsupported slice element type")
	}
}
