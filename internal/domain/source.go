package domain

import "fmt"

// StorageType identifies how a variable's elements are stored in the file.
type StorageType int

const (
	TypeUnknown StorageType = iota
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeChar
)

var storageTypeNames = map[StorageType]string{
	TypeUnknown: "unknown",
	TypeInt8:    "byte",
	TypeUint8:   "ubyte",
	TypeInt16:   "short",
	TypeUint16:  "ushort",
	TypeInt32:   "int",
	TypeUint32:  "uint",
	TypeInt64:   "int64",
	TypeUint64:  "uint64",
	TypeFloat32: "float",
	TypeFloat64: "double",
	TypeChar:    "char",
}

// String returns the CDL name of the type.
func (t StorageType) String() string {
	if name, ok := storageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// Dimension is a named axis of a variable.
type Dimension struct {
	Name string
	Len  int
}

// Region selects a rectangular block of a variable. Begin is inclusive and End
// exclusive, one entry per dimension. A nil Begin or End selects the whole axis
// range on that side.
type Region struct {
	Begin []int
	End   []int
}

// All selects every element of a variable.
var All = Region{}

// Row selects index i of the first dimension and the full extent of the rest.
func Row(i int, dims []Dimension) Region {
	begin := make([]int, len(dims))
	end := make([]int, len(dims))
	for k, d := range dims {
		end[k] = d.Len
	}
	if len(dims) > 0 {
		begin[0] = i
		end[0] = i + 1
	}
	return Region{Begin: begin, End: end}
}

// Bounds resolves the region against dims, returning explicit begin/end indexes.
func (r Region) Bounds(dims []Dimension) (begin, end []int, err error) {
	begin = make([]int, len(dims))
	end = make([]int, len(dims))
	for k, d := range dims {
		end[k] = d.Len
	}
	if r.Begin != nil {
		if len(r.Begin) != len(dims) {
			return nil, nil, fmt.Errorf("region begin has %d indexes for %d dimensions", len(r.Begin), len(dims))
		}
		copy(begin, r.Begin)
	}
	if r.End != nil {
		if len(r.End) != len(dims) {
			return nil, nil, fmt.Errorf("region end has %d indexes for %d dimensions", len(r.End), len(dims))
		}
		copy(end, r.End)
	}
	for k, d := range dims {
		if begin[k] < 0 || end[k] > d.Len || begin[k] > end[k] {
			return nil, nil, fmt.Errorf("region [%d,%d) out of range for dimension %s of length %d",
				begin[k], end[k], d.Name, d.Len)
		}
	}
	return begin, end, nil
}

// Shape returns the dimensions of the block selected by r, keeping dimension names.
func (r Region) Shape(dims []Dimension) ([]Dimension, error) {
	begin, end, err := r.Bounds(dims)
	if err != nil {
		return nil, err
	}
	out := make([]Dimension, len(dims))
	for k, d := range dims {
		out[k] = Dimension{Name: d.Name, Len: end[k] - begin[k]}
	}
	return out, nil
}

// Lengths extracts the axis lengths of dims.
func Lengths(dims []Dimension) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = d.Len
	}
	return out
}

// Variable is a read-only view of one variable in an open file.
type Variable interface {
	Name() string
	Type() StorageType
	Dimensions() []Dimension

	// ReadValues returns the selected elements as a flat, row-major typed slice
	// ([]int8, []uint8, []int16, ..., []float64).
	ReadValues(r Region) (any, error)

	// ReadRaw returns the selected elements as raw bytes. Only meaningful for
	// CHAR and single-byte types.
	ReadRaw(r Region) ([]byte, error)

	// Attribute looks up a variable attribute by name.
	Attribute(name string) (any, bool)
}

// FileReader exposes the dimensions and variables of an open file.
type FileReader interface {
	Dimension(name string) (Dimension, bool)
	Variable(name string) (Variable, bool)
	Variables() []string
	Close() error
}
