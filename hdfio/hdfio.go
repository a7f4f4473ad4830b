// Package hdfio defines the narrow HDF5 read contract consumed by the LAPD
// mapping and data-read layers: group listing, decoded attribute access,
// dataset shape/dtype introspection, and bulk reads into numeric buffers.
//
// Two implementations exist: an adapter backed by github.com/scigolib/hdf5
// (see OpenFile) and the in-memory faux builder used by tests.
package hdfio

import "fmt"

// Kind classifies the element type of a dataset or compound member.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindCompound
)

// String returns a short lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindCompound:
		return "compound"
	default:
		return "invalid"
	}
}

// Field describes one member of a compound dataset.
type Field struct {
	Name string
	Kind Kind
	// Shape is the per-row element shape of the member; nil for scalars.
	Shape []int
}

// Source is an open HDF5 file (or a faux stand-in) rooted at "/".
type Source interface {
	Root() Group
	// Path identifies the backing file for provenance records.
	Path() string
	Close() error
}

// Group provides read access to one HDF5 group.
type Group interface {
	Name() string
	Path() string

	// Groups and Datasets list child names in stable file order.
	Groups() []string
	Datasets() []string

	Group(name string) (Group, bool)
	Dataset(name string) (Dataset, bool)

	AttrNames() []string
	// Attr returns a decoded attribute value. Scalars decode to int64,
	// float64, or string (byte strings are decoded to text); small numeric
	// arrays decode to []int64 or []float64.
	Attr(name string) (interface{}, bool)
}

// Dataset provides shape/dtype introspection and bulk reads for one dataset.
type Dataset interface {
	Name() string
	Path() string

	// Shape returns the dataspace dimensions. Compound datasets are 1-D.
	Shape() []int
	Kind() Kind
	// Fields returns the compound members in a stable order, nil for plain
	// datasets.
	Fields() []Field

	// ReadRows reads rows [start, start+n) of a plain numeric dataset,
	// row-major, converted to float64.
	ReadRows(start, n int) ([]float64, error)

	// ReadFloatField reads one compound member for every row, row-major
	// flattened when the member carries a per-row shape.
	ReadFloatField(field string) ([]float64, error)

	// ReadUintField reads one scalar unsigned-integer compound member for
	// every row.
	ReadUintField(field string) ([]uint64, error)

	// ReadStringField reads one string compound member for every row.
	ReadStringField(field string) ([]string, error)
}

// FieldByName returns the named compound member of d.
func FieldByName(d Dataset, name string) (Field, bool) {
	for _, f := range d.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ErrNoSuchField reports a compound member lookup miss.
func ErrNoSuchField(path, field string) error {
	return fmt.Errorf("dataset %q has no field %q", path, field)
}
