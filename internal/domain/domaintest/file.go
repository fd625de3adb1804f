// Package domaintest provides an in-memory domain.FileReader for tests.
package domaintest

import (
	"fmt"
	"reflect"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// File is an in-memory file. Build it with Dim, Add and AddText.
type File struct {
	dims   map[string]int
	vars   map[string]*Var
	order  []string
	Closed bool
}

// NewFile returns an empty file.
func NewFile() *File {
	return &File{dims: make(map[string]int), vars: make(map[string]*Var)}
}

// Dim declares a dimension.
func (f *File) Dim(name string, n int) *File {
	f.dims[name] = n
	return f
}

// Add declares a variable over previously declared dimensions. data is the
// flat row-major typed slice ([]float64, []int32, []byte for CHAR, ...).
func (f *File) Add(name string, t domain.StorageType, dims []string, data any, attrs map[string]any) *File {
	v := &Var{name: name, typ: t, data: data, attrs: attrs}
	for _, d := range dims {
		n, ok := f.dims[d]
		if !ok {
			panic(fmt.Sprintf("domaintest: variable %s uses undeclared dimension %s", name, d))
		}
		v.dims = append(v.dims, domain.Dimension{Name: d, Len: n})
	}
	if _, exists := f.vars[name]; !exists {
		f.order = append(f.order, name)
	}
	f.vars[name] = v
	return f
}

// AddText declares a CHAR variable whose last dimension is the string width.
// Each value is space padded to that width.
func (f *File) AddText(name string, dims []string, values ...string) *File {
	width := f.dims[dims[len(dims)-1]]
	buf := make([]byte, 0, width*len(values))
	for _, s := range values {
		if len(s) > width {
			panic(fmt.Sprintf("domaintest: %q wider than %d", s, width))
		}
		b := make([]byte, width)
		for i := range b {
			b[i] = ' '
		}
		copy(b, s)
		buf = append(buf, b...)
	}
	return f.Add(name, domain.TypeChar, dims, buf, nil)
}

// Dimension implements domain.FileReader.
func (f *File) Dimension(name string) (domain.Dimension, bool) {
	n, ok := f.dims[name]
	return domain.Dimension{Name: name, Len: n}, ok
}

// Variable implements domain.FileReader.
func (f *File) Variable(name string) (domain.Variable, bool) {
	v, ok := f.vars[name]
	if !ok {
		return nil, false
	}
	return v, true
}

// Variables implements domain.FileReader.
func (f *File) Variables() []string {
	return append([]string(nil), f.order...)
}

// Close implements domain.FileReader.
func (f *File) Close() error {
	f.Closed = true
	return nil
}

// Var is an in-memory variable.
type Var struct {
	name  string
	typ   domain.StorageType
	dims  []domain.Dimension
	data  any
	attrs map[string]any
}

func (v *Var) Name() string { return v.name }
func (v *Var) Type() domain.StorageType { return v.typ }
func (v *Var) Dimensions() []domain.Dimension { return v.dims }

func (v *Var) Attribute(name string) (any, bool) {
	a, ok := v.attrs[name]
	return a, ok
}

// ReadValues copies the region out of the flat data slice.
func (v *Var) ReadValues(r domain.Region) (any, error) {
	idx, err := indexes(v.dims, r)
	if err != nil {
		return nil, err
	}
	src := reflect.ValueOf(v.data)
	out := reflect.MakeSlice(src.Type(), len(idx), len(idx))
	for i, k := range idx {
		out.Index(i).Set(src.Index(k))
	}
	return out.Interface(), nil
}

// ReadRaw is ReadValues for byte-sized data.
func (v *Var) ReadRaw(r domain.Region) ([]byte, error) {
	vals, err := v.ReadValues(r)
	if err != nil {
		return nil, err
	}
	switch b := vals.(type) {
	case []byte:
		return b, nil
	case []int8:
		out := make([]byte, len(b))
		for i, x := range b {
			out[i] = byte(x)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("domaintest: raw read of %T", vals)
	}
}

// indexes lists the flat positions selected by r in row-major order.
func indexes(dims []domain.Dimension, r domain.Region) ([]int, error) {
	begin, end, err := r.Bounds(dims)
	if err != nil {
		return nil, err
	}
	out := []int{0}
	for k, d := range dims {
		next := make([]int, 0, len(out)*(end[k]-begin[k]))
		for _, base := range out {
			for i := begin[k]; i < end[k]; i++ {
				next = append(next, base*d.Len+i)
			}
		}
		out = next
	}
	return out, nil
}
