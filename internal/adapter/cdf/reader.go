// Package cdf reads NetCDF classic (CDF-1/CDF-2) files through github.com/ctessum/cdf
// and exposes them as domain.FileReader.
package cdf

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/ctessum/cdf"
)

// Opener opens files from the local filesystem.
type Opener struct{}

// Open implements pipeline.Opener.
func (Opener) Open(_ context.Context, path string) (domain.FileReader, error) {
	return Open(path)
}

// File is an open NetCDF file.
type File struct {
	f    *os.File
	nc   *cdf.File
	vars map[string]*variable
	dims map[string]int
	// Variables in header order.
	order []string
}

// Open reads the header of the NetCDF file at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	nc, err := cdf.Open(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read netcdf header %s: %w", path, err)
	}

	file := &File{
		f:    f,
		nc:   nc,
		vars: make(map[string]*variable),
		dims: make(map[string]int),
	}
	for _, name := range nc.Header.Variables() {
		names := nc.Header.Dimensions(name)
		lengths := nc.Header.Lengths(name)
		v := &variable{file: file, name: name, typ: storageType(nc.Header.ZeroValue(name, 0))}
		for i, d := range names {
			n := 0
			if i < len(lengths) {
				n = lengths[i]
			}
			v.dims = append(v.dims, domain.Dimension{Name: d, Len: n})
			file.dims[d] = n
		}
		file.vars[name] = v
		file.order = append(file.order, name)
	}
	return file, nil
}

// Dimension implements domain.FileReader. Dimensions are discovered through the
// variables that use them.
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

// Close releases the underlying file.
func (f *File) Close() error {
	return f.f.Close()
}

type variable struct {
	file *File
	name string
	typ  domain.StorageType
	dims []domain.Dimension
}

func (v *variable) Name() string                   { return v.name }
func (v *variable) Type() domain.StorageType       { return v.typ }
func (v *variable) Dimensions() []domain.Dimension { return v.dims }

func (v *variable) Attribute(name string) (any, bool) {
	a := v.file.nc.Header.GetAttribute(v.name, name)
	return a, a != nil
}

// ReadValues reads the region into the variable's native slice type. CHAR data
// comes back as []byte and BYTE data as []int8.
func (v *variable) ReadValues(r domain.Region) (any, error) {
	begin, end, err := r.Bounds(v.dims)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", v.name, err)
	}
	n := 1
	for i := range begin {
		n *= end[i] - begin[i]
	}
	buf := v.file.nc.Header.ZeroValue(v.name, n)
	if v.typ == domain.TypeChar {
		buf = make([]byte, n)
	}
	if n > 0 {
		rd := v.file.nc.Reader(v.name, begin, end)
		if _, err := rd.Read(buf); err != nil {
			return nil, fmt.Errorf("read %s: %w", v.name, err)
		}
	}
	if v.typ == domain.TypeInt8 {
		return signed(buf.([]uint8)), nil
	}
	return buf, nil
}

// ReadRaw reads CHAR and BYTE variables as raw bytes.
func (v *variable) ReadRaw(r domain.Region) ([]byte, error) {
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
		return nil, fmt.Errorf("variable %s: raw read of %T", v.name, vals)
	}
}

func signed(b []uint8) []int8 {
	out := make([]int8, len(b))
	for i, x := range b {
		out[i] = int8(x)
	}
	return out
}

// storageType maps the zero value cdf allocates for a variable to its storage
// type. cdf allocates "" for CHAR and []uint8 for the signed BYTE type.
func storageType(zero any) domain.StorageType {
	switch zero.(type) {
	case string:
		return domain.TypeChar
	case []uint8:
		return domain.TypeInt8
	case []int16:
		return domain.TypeInt16
	case []int32:
		return domain.TypeInt32
	case []float32:
		return domain.TypeFloat32
	case []float64:
		return domain.TypeFloat64
	default:
		return domain.TypeUnknown
	}
}
