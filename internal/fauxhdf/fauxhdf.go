// Package fauxhdf builds in-memory LAPD-shaped HDF5 trees implementing the
// hdfio contract. It stands in for real facility files in tests, the same
// role the generator programs play for the access library's own test suite.
package fauxhdf

import (
	"fmt"
	"strings"

	"github.com/scigolib/lapd/hdfio"
)

// Builder is a mutable faux LAPD file. The zero tree carries the root
// attributes and top-level groups every control-system file has.
type Builder struct {
	root *Group
	path string
}

// New returns a faux file with the standard LAPD skeleton: the software
// version attribute plus empty "MSI" and "Raw data + config" groups.
func New() *Builder {
	root := &Group{name: "/"}
	root.SetAttr("LaPD HDF5 software version", "1.2")
	root.NewGroup("MSI")
	root.NewGroup("Raw data + config")
	return &Builder{root: root, path: "faux.hdf5"}
}

// Empty returns a faux file with no structure at all, for failure-path tests.
func Empty() *Builder {
	return &Builder{root: &Group{name: "/"}, path: "faux.hdf5"}
}

func (b *Builder) Root() hdfio.Group { return b.root }

func (b *Builder) Path() string { return b.path }

func (b *Builder) Close() error { return nil }

// Tree returns the mutable root for test-side surgery.
func (b *Builder) Tree() *Group { return b.root }

// MSI returns the mutable "MSI" group.
func (b *Builder) MSI() *Group { return b.root.mustGroup("MSI") }

// Data returns the mutable "Raw data + config" group.
func (b *Builder) Data() *Group { return b.root.mustGroup("Raw data + config") }

// Group is an in-memory HDF5 group.
type Group struct {
	name      string
	parent    *Group
	groups    []*Group
	datasets  []*Dataset
	attrOrder []string
	attrs     map[string]interface{}
}

func (g *Group) Name() string { return g.name }

func (g *Group) Path() string {
	if g.parent == nil {
		return "/"
	}
	parent := g.parent.Path()
	if parent == "/" {
		return "/" + g.name
	}
	return parent + "/" + g.name
}

func (g *Group) Groups() []string {
	names := make([]string, len(g.groups))
	for i, sub := range g.groups {
		names[i] = sub.name
	}
	return names
}

func (g *Group) Datasets() []string {
	names := make([]string, len(g.datasets))
	for i, d := range g.datasets {
		names[i] = d.name
	}
	return names
}

func (g *Group) Group(name string) (hdfio.Group, bool) {
	for _, sub := range g.groups {
		if sub.name == name {
			return sub, true
		}
	}
	return nil, false
}

func (g *Group) Dataset(name string) (hdfio.Dataset, bool) {
	for _, d := range g.datasets {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

func (g *Group) AttrNames() []string {
	return append([]string(nil), g.attrOrder...)
}

func (g *Group) Attr(name string) (interface{}, bool) {
	v, ok := g.attrs[name]
	return v, ok
}

// NewGroup adds and returns a subgroup, reusing an existing one by name.
func (g *Group) NewGroup(name string) *Group {
	for _, sub := range g.groups {
		if sub.name == name {
			return sub
		}
	}
	sub := &Group{name: name, parent: g}
	g.groups = append(g.groups, sub)
	return sub
}

// GroupAt resolves a "/"-separated relative path of subgroups.
func (g *Group) GroupAt(path string) (*Group, bool) {
	cur := g
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		next := (*Group)(nil)
		for _, sub := range cur.groups {
			if sub.name == part {
				next = sub
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func (g *Group) mustGroup(path string) *Group {
	sub, ok := g.GroupAt(path)
	if !ok {
		panic(fmt.Sprintf("fauxhdf: missing group %q under %q", path, g.Path()))
	}
	return sub
}

// DatasetAt returns the mutable dataset by name.
func (g *Group) DatasetAt(name string) (*Dataset, bool) {
	for _, d := range g.datasets {
		if d.name == name {
			return d, true
		}
	}
	return nil, false
}

func (g *Group) SetAttr(name string, value interface{}) {
	if g.attrs == nil {
		g.attrs = make(map[string]interface{})
	}
	if _, ok := g.attrs[name]; !ok {
		g.attrOrder = append(g.attrOrder, name)
	}
	g.attrs[name] = value
}

func (g *Group) DelAttr(name string) {
	delete(g.attrs, name)
	for i, n := range g.attrOrder {
		if n == name {
			g.attrOrder = append(g.attrOrder[:i], g.attrOrder[i+1:]...)
			break
		}
	}
}

func (g *Group) DelGroup(name string) {
	for i, sub := range g.groups {
		if sub.name == name {
			g.groups = append(g.groups[:i], g.groups[i+1:]...)
			return
		}
	}
}

func (g *Group) RenameGroup(oldName, newName string) {
	for _, sub := range g.groups {
		if sub.name == oldName {
			sub.name = newName
			return
		}
	}
}

// AddDataset attaches d to g, replacing any dataset of the same name.
func (g *Group) AddDataset(d *Dataset) *Dataset {
	g.DelDataset(d.name)
	d.parent = g
	g.datasets = append(g.datasets, d)
	return d
}

func (g *Group) DelDataset(name string) {
	for i, d := range g.datasets {
		if d.name == name {
			g.datasets = append(g.datasets[:i], g.datasets[i+1:]...)
			return
		}
	}
}

func (g *Group) RenameDataset(oldName, newName string) {
	for _, d := range g.datasets {
		if d.name == oldName {
			d.name = newName
			return
		}
	}
}

// Dataset is an in-memory HDF5 dataset, either plain numeric or compound.
type Dataset struct {
	name   string
	parent *Group

	shape []int
	kind  hdfio.Kind
	data  []float64 // plain payload, row-major

	fields []hdfio.Field
	cols   map[string]*column
}

type column struct {
	kind  hdfio.Kind
	shape []int
	f     []float64
	i     []int64
	u     []uint64
	s     []string
}

// NewPlain builds a plain numeric dataset. Data may be nil (zero filled) or
// must match the shape's element count.
func NewPlain(name string, shape []int, kind hdfio.Kind, data []float64) *Dataset {
	n := 1
	for _, dim := range shape {
		n *= dim
	}
	if data == nil {
		data = make([]float64, n)
	}
	if len(data) != n {
		panic(fmt.Sprintf("fauxhdf: dataset %q: %d values for shape %v",
			name, len(data), shape))
	}
	return &Dataset{
		name:  name,
		shape: append([]int(nil), shape...),
		kind:  kind,
		data:  data,
	}
}

// NewCompound builds an empty compound dataset with nrows rows.
func NewCompound(name string, nrows int) *Dataset {
	return &Dataset{
		name:  name,
		shape: []int{nrows},
		kind:  hdfio.KindCompound,
		cols:  make(map[string]*column),
	}
}

func (d *Dataset) Name() string { return d.name }

func (d *Dataset) Path() string {
	if d.parent == nil {
		return "/" + d.name
	}
	parent := d.parent.Path()
	if parent == "/" {
		return "/" + d.name
	}
	return parent + "/" + d.name
}

func (d *Dataset) Shape() []int { return append([]int(nil), d.shape...) }

func (d *Dataset) Kind() hdfio.Kind { return d.kind }

func (d *Dataset) Fields() []hdfio.Field {
	return append([]hdfio.Field(nil), d.fields...)
}

func (d *Dataset) rowsLen() int {
	if len(d.shape) == 0 {
		return 0
	}
	return d.shape[0]
}

func (d *Dataset) addField(name string, kind hdfio.Kind, shape []int, c *column) {
	if d.kind != hdfio.KindCompound {
		panic(fmt.Sprintf("fauxhdf: dataset %q is not compound", d.name))
	}
	d.DelField(name)
	c.kind = kind
	c.shape = shape
	d.fields = append(d.fields, hdfio.Field{Name: name, Kind: kind, Shape: shape})
	d.cols[name] = c
}

// SetUintField adds or replaces a scalar unsigned member.
func (d *Dataset) SetUintField(name string, vals []uint64) *Dataset {
	d.checkRows(name, len(vals), 1)
	d.addField(name, hdfio.KindUint, nil, &column{u: vals})
	return d
}

// SetIntField adds or replaces a scalar signed member.
func (d *Dataset) SetIntField(name string, vals []int64) *Dataset {
	d.checkRows(name, len(vals), 1)
	d.addField(name, hdfio.KindInt, nil, &column{i: vals})
	return d
}

// SetFloatField adds or replaces a float member; width > 1 gives the member
// a per-row array shape.
func (d *Dataset) SetFloatField(name string, width int, vals []float64) *Dataset {
	d.checkRows(name, len(vals), width)
	var shape []int
	if width > 1 {
		shape = []int{width}
	}
	d.addField(name, hdfio.KindFloat, shape, &column{f: vals})
	return d
}

// SetUintArrayField adds an unsigned member carrying a per-row array shape.
// It stores values as floats for reads; the declared shape is what the
// mapping layer validates against.
func (d *Dataset) SetUintArrayField(name string, width int, vals []float64) *Dataset {
	d.checkRows(name, len(vals), width)
	d.addField(name, hdfio.KindUint, []int{width}, &column{f: vals})
	return d
}

// SetStringField adds or replaces a string member.
func (d *Dataset) SetStringField(name string, vals []string) *Dataset {
	d.checkRows(name, len(vals), 1)
	d.addField(name, hdfio.KindString, nil, &column{s: vals})
	return d
}

// SetFieldKind rewrites the declared kind of a member without touching its
// storage, for dtype-mismatch tests.
func (d *Dataset) SetFieldKind(name string, kind hdfio.Kind) {
	for idx := range d.fields {
		if d.fields[idx].Name == name {
			d.fields[idx].Kind = kind
			d.cols[name].kind = kind
			return
		}
	}
}

func (d *Dataset) DelField(name string) {
	for i, f := range d.fields {
		if f.Name == name {
			d.fields = append(d.fields[:i], d.fields[i+1:]...)
			break
		}
	}
	delete(d.cols, name)
}

func (d *Dataset) checkRows(field string, n, width int) {
	if want := d.rowsLen() * width; n != want {
		panic(fmt.Sprintf("fauxhdf: dataset %q field %q: %d values, want %d",
			d.name, field, n, want))
	}
}

func (d *Dataset) ReadRows(start, n int) ([]float64, error) {
	if d.kind == hdfio.KindCompound {
		return nil, fmt.Errorf("fauxhdf: %s is compound", d.Path())
	}
	width := 1
	for _, dim := range d.shape[1:] {
		width *= dim
	}
	if start < 0 || n < 0 || start+n > d.rowsLen() {
		return nil, fmt.Errorf("fauxhdf: %s: rows [%d,%d) out of range",
			d.Path(), start, start+n)
	}
	out := make([]float64, n*width)
	copy(out, d.data[start*width:(start+n)*width])
	return out, nil
}

func (d *Dataset) ReadFloatField(field string) ([]float64, error) {
	c, ok := d.cols[field]
	if !ok {
		return nil, hdfio.ErrNoSuchField(d.Path(), field)
	}
	switch {
	case c.f != nil:
		return append([]float64(nil), c.f...), nil
	case c.i != nil:
		out := make([]float64, len(c.i))
		for idx, v := range c.i {
			out[idx] = float64(v)
		}
		return out, nil
	case c.u != nil:
		out := make([]float64, len(c.u))
		for idx, v := range c.u {
			out[idx] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("fauxhdf: %s field %q is not numeric",
			d.Path(), field)
	}
}

func (d *Dataset) ReadUintField(field string) ([]uint64, error) {
	c, ok := d.cols[field]
	if !ok {
		return nil, hdfio.ErrNoSuchField(d.Path(), field)
	}
	switch {
	case c.u != nil:
		return append([]uint64(nil), c.u...), nil
	case c.i != nil:
		out := make([]uint64, len(c.i))
		for idx, v := range c.i {
			if v < 0 {
				return nil, fmt.Errorf("fauxhdf: %s field %q holds negative value",
					d.Path(), field)
			}
			out[idx] = uint64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("fauxhdf: %s field %q is not an integer",
			d.Path(), field)
	}
}

func (d *Dataset) ReadStringField(field string) ([]string, error) {
	c, ok := d.cols[field]
	if !ok {
		return nil, hdfio.ErrNoSuchField(d.Path(), field)
	}
	if c.s == nil {
		return nil, fmt.Errorf("fauxhdf: %s field %q is not a string",
			d.Path(), field)
	}
	return append([]string(nil), c.s...), nil
}
