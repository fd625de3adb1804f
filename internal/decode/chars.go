package decode

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
)

// SupportedWidths lists the fixed text widths a label dimension may declare.
var SupportedWidths = []int{1, 2, 4, 8, 14, 16, 32, 64, 256}

// Vocabulary is the set of trailing dimension names that mark a CHAR variable
// as an array of fixed-width strings rather than an array of characters. A
// recognized dimension must still have one of the SupportedWidths.
type Vocabulary struct {
	names map[string]struct{}
}

// DefaultVocabulary returns the Argo label dimensions: DATE_TIME and STRINGn for
// every supported width except the DATE_TIME one.
func DefaultVocabulary() Vocabulary {
	v := NewVocabulary("DATE_TIME")
	for _, w := range SupportedWidths {
		if w == 14 {
			continue
		}
		v.names[fmt.Sprintf("STRING%d", w)] = struct{}{}
	}
	return v
}

// NewVocabulary builds a vocabulary from exact dimension names.
func NewVocabulary(names ...string) Vocabulary {
	v := Vocabulary{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			v.names[n] = struct{}{}
		}
	}
	return v
}

// With returns a copy of v that also recognizes names.
func (v Vocabulary) With(names ...string) Vocabulary {
	out := NewVocabulary(names...)
	for n := range v.names {
		out.names[n] = struct{}{}
	}
	return out
}

// Contains reports whether a dimension with this name holds string widths.
func (v Vocabulary) Contains(name string) bool {
	_, ok := v.names[name]
	return ok
}

// Names returns the recognized dimension names in sorted order.
func (v Vocabulary) Names() []string {
	out := make([]string, 0, len(v.names))
	for n := range v.names {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// CharDecoder turns packed CHAR buffers into text values.
type CharDecoder struct {
	Vocabulary Vocabulary
}

// Decode converts buf, the raw bytes of a CHAR block with shape dims, into a value.
//
// When the trailing dimension is a label dimension, each run of width bytes
// becomes one trimmed string and the trailing axis is dropped. A single string
// with no outer axes is returned as a bare Scalar. Otherwise every byte is its
// own one-character string and the shape is kept.
//
// Invalid UTF-8 is replaced with U+FFFD rather than rejected.
func (d CharDecoder) Decode(buf []byte, dims []domain.Dimension) (domain.Value, error) {
	if len(buf) == 0 {
		return domain.Array{}, nil
	}
	if len(dims) == 0 {
		return domain.Scalar{V: cleanText(buf)}, nil
	}

	lengths := domain.Lengths(dims)
	n, err := product(lengths)
	if err != nil {
		return nil, err
	}
	if len(buf) != n {
		return nil, &DimensionMismatchError{
			Reason: fmt.Sprintf("%d bytes for shape %v (want %d)", len(buf), lengths, n),
		}
	}

	last := dims[len(dims)-1]
	if !d.Vocabulary.Contains(last.Name) {
		leaves := make([]Leaf, len(buf))
		for i := range buf {
			leaves[i] = cleanText(buf[i : i+1])
		}
		return Reshape(leaves, lengths)
	}

	width := last.Len
	if !slices.Contains(SupportedWidths, width) {
		return nil, &DimensionMismatchError{
			Reason: fmt.Sprintf("text dimension %s has unsupported width %d", last.Name, width),
		}
	}
	leaves := make([]Leaf, 0, len(buf)/width)
	for chunk := range slices.Chunk(buf, width) {
		leaves = append(leaves, cleanText(chunk))
	}
	outer := lengths[:len(lengths)-1]
	if len(outer) == 0 {
		return domain.Scalar{V: leaves[0]}, nil
	}
	return Reshape(leaves, outer)
}

// cleanText decodes b as UTF-8, drops null padding, and trims surrounding whitespace.
func cleanText(b []byte) string {
	b = bytes.ReplaceAll(b, []byte{0}, nil)
	return strings.TrimSpace(string(bytes.ToValidUTF8(b, []byte("\uFFFD"))))
}
