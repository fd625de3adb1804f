package decode

import (
	"fmt"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// Leaf is a single decoded element: a Go numeric value, a string, or nil.
type Leaf = any

// Reshape nests flat, a row-major sequence of leaves, into arrays following shape.
// An empty shape yields an empty Array. len(flat) must equal the product of shape.
func Reshape(flat []Leaf, shape []int) (domain.Value, error) {
	if len(shape) == 0 {
		return domain.Array{}, nil
	}
	n, err := product(shape)
	if err != nil {
		return nil, err
	}
	if len(flat) != n {
		return nil, &DimensionMismatchError{
			Reason: fmt.Sprintf("%d elements for shape %v (want %d)", len(flat), shape, n),
		}
	}
	return reshape(flat, shape), nil
}

func reshape(flat []Leaf, shape []int) domain.Value {
	if len(shape) == 1 {
		out := make(domain.Array, len(flat))
		for i, leaf := range flat {
			out[i] = domain.Scalar{V: leaf}
		}
		return out
	}
	step := 1
	for _, n := range shape[1:] {
		step *= n
	}
	out := make(domain.Array, shape[0])
	for i := range out {
		out[i] = reshape(flat[i*step:(i+1)*step], shape[1:])
	}
	return out
}

// Flatten returns the leaves of v in depth-first, left-to-right order.
func Flatten(v domain.Value) []Leaf {
	var out []Leaf
	var walk func(domain.Value)
	walk = func(v domain.Value) {
		switch t := v.(type) {
		case domain.Array:
			for _, item := range t {
				walk(item)
			}
		case domain.Scalar:
			out = append(out, t.V)
		}
	}
	walk(v)
	return out
}

func product(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, &DimensionMismatchError{Reason: fmt.Sprintf("negative length in shape %v", shape)}
		}
		n *= d
	}
	return n, nil
}
