// Package dataset is the tabular data model: named, equally long columns
// of floats, strings, compositions or structures, plus the loader for the
// split-orientation JSON files the elastic-tensor data ships in.
package dataset

import "github.com/matpipe/matpipe/chem"

// Kind identifies the element type of a column.
type Kind int

const (
	KindRaw Kind = iota
	KindFloat
	KindString
	KindComposition
	KindOxidComposition
	KindStructure
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindComposition:
		return "composition"
	case KindOxidComposition:
		return "composition_oxid"
	case KindStructure:
		return "structure"
	default:
		return "raw"
	}
}

// Column is one named field of a Frame.
type Column interface {
	Name() string
	Len() int
	Kind() Kind
	// Take returns a new column holding the rows at idx, in that order.
	Take(idx []int) Column
	// Rename returns the same values under another name.
	Rename(name string) Column
}

// Series is a typed column. Its values are never modified after construction.
type Series[T any] struct {
	name   string
	values []T
}

// NewSeries copies values into a new series.
func NewSeries[T any](name string, values []T) *Series[T] {
	v := make([]T, len(values))
	copy(v, values)
	return &Series[T]{name: name, values: v}
}

func (s *Series[T]) Name() string { return s.name }

func (s *Series[T]) Len() int { return len(s.values) }

// At returns the value at row i.
func (s *Series[T]) At(i int) T { return s.values[i] }

// Values returns a copy of the values in row order.
func (s *Series[T]) Values() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}

func (s *Series[T]) Kind() Kind {
	var zero T
	switch any(zero).(type) {
	case float64:
		return KindFloat
	case string:
		return KindString
	case chem.Composition:
		return KindComposition
	case chem.OxidComposition:
		return KindOxidComposition
	case *chem.Structure:
		return KindStructure
	default:
		return KindRaw
	}
}

func (s *Series[T]) Take(idx []int) Column {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s.values[j]
	}
	return &Series[T]{name: s.name, values: out}
}

func (s *Series[T]) Rename(name string) Column {
	return &Series[T]{name: name, values: s.values}
}
