package decode

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// DecodeFunc reads the region r of v and builds its value tree.
type DecodeFunc func(v domain.Variable, r domain.Region) (domain.Value, error)

// Registry maps storage types to decoders. Support for a new type is added with
// Register; nothing else needs to change.
type Registry struct {
	decoders map[domain.StorageType]DecodeFunc
}

// NewRegistry returns a registry covering the integer, floating point and CHAR
// types. Text axes are collapsed according to vocab.
func NewRegistry(vocab Vocabulary) *Registry {
	r := &Registry{decoders: make(map[domain.StorageType]DecodeFunc)}
	r.Register(domain.TypeInt8, numeric[int8]())
	r.Register(domain.TypeUint8, numeric[uint8]())
	r.Register(domain.TypeInt16, numeric[int16]())
	r.Register(domain.TypeUint16, numeric[uint16]())
	r.Register(domain.TypeInt32, numeric[int32]())
	r.Register(domain.TypeUint32, numeric[uint32]())
	r.Register(domain.TypeInt64, numeric[int64]())
	r.Register(domain.TypeUint64, numeric[uint64]())
	r.Register(domain.TypeFloat32, numeric[float32]())
	r.Register(domain.TypeFloat64, numeric[float64]())
	r.Register(domain.TypeChar, text(CharDecoder{Vocabulary: vocab}))
	return r
}

// Register installs fn as the decoder for t, replacing any previous one.
func (r *Registry) Register(t domain.StorageType, fn DecodeFunc) {
	r.decoders[t] = fn
}

// Lookup returns the decoder for t.
func (r *Registry) Lookup(t domain.StorageType) (DecodeFunc, bool) {
	fn, ok := r.decoders[t]
	return fn, ok
}

// Decode builds the value of region reg of v. A type without a decoder yields
// domain.Null and an *UnsupportedTypeError, which callers may treat as a warning.
func (r *Registry) Decode(v domain.Variable, reg domain.Region) (domain.Value, error) {
	fn, ok := r.Lookup(v.Type())
	if !ok {
		return domain.Null, &UnsupportedTypeError{Variable: v.Name(), Type: v.Type()}
	}
	val, err := fn(v, reg)
	if err != nil {
		var dm *DimensionMismatchError
		if errors.As(err, &dm) && dm.Variable == "" {
			dm.Variable = v.Name()
		}
		return nil, err
	}
	return val, nil
}

// DecodeFile decodes every variable of fr in full. Variables of unsupported types
// are logged and mapped to domain.Null; any other failure aborts.
func (r *Registry) DecodeFile(fr domain.FileReader, logger *slog.Logger) (map[string]domain.Value, error) {
	out := make(map[string]domain.Value)
	for _, name := range fr.Variables() {
		v, ok := fr.Variable(name)
		if !ok {
			continue
		}
		val, err := r.Decode(v, domain.All)
		var unsupported *UnsupportedTypeError
		switch {
		case errors.As(err, &unsupported):
			logger.Warn("skipping variable", "variable", name, "error", err)
		case err != nil:
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

// numeric decodes variables whose ReadValues returns []T. A dimensionless
// variable decodes to a bare Scalar.
func numeric[T number]() DecodeFunc {
	return func(v domain.Variable, reg domain.Region) (domain.Value, error) {
		shape, err := reg.Shape(v.Dimensions())
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name(), err)
		}
		raw, err := v.ReadValues(reg)
		if err != nil {
			return nil, fmt.Errorf("read variable %s: %w", v.Name(), err)
		}
		vals, ok := raw.([]T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("variable %s: expected []%T, got %T", v.Name(), zero, raw)
		}
		flat := make([]Leaf, len(vals))
		for i, x := range vals {
			flat[i] = x
		}
		if len(shape) == 0 && len(flat) == 1 {
			return domain.Scalar{V: flat[0]}, nil
		}
		return Reshape(flat, domain.Lengths(shape))
	}
}

func text(d CharDecoder) DecodeFunc {
	return func(v domain.Variable, reg domain.Region) (domain.Value, error) {
		shape, err := reg.Shape(v.Dimensions())
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", v.Name(), err)
		}
		buf, err := v.ReadRaw(reg)
		if err != nil {
			return nil, fmt.Errorf("read variable %s: %w", v.Name(), err)
		}
		return d.Decode(buf, shape)
	}
}
