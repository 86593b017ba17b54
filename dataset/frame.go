package dataset

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/chem"
	"github.com/matpipe/matpipe/pkg/errors"
)

// Frame is an ordered set of named columns of equal length.
//
// Drop, Take, Head and SelectFrame return new frames and never modify the
// receiver. Add is the one in-place operation; the conversion steps use it
// to append derived fields.
type Frame struct {
	cols  []Column
	index map[string]int
}

// NewFrame builds a frame from columns. Duplicate names are a ValidationError,
// unequal lengths a row-count DimensionError.
func NewFrame(cols ...Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := f.index[c.Name()]; dup {
			return nil, errors.NewValidationError("column", "duplicate field name", c.Name())
		}
		if len(f.cols) > 0 && c.Len() != f.cols[0].Len() {
			return nil, errors.NewDimensionError("NewFrame: field "+c.Name(), f.cols[0].Len(), c.Len(), 0)
		}
		f.index[c.Name()] = len(f.cols)
		f.cols = append(f.cols, c)
	}
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Width returns the number of fields.
func (f *Frame) Width() int { return len(f.cols) }

// Names returns the field names in order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name()
	}
	return out
}

// Has reports whether the frame has a field called name.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the named field. A missing field is a MissingFieldError.
func (f *Frame) Column(name string) (Column, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, errors.NewMissingFieldError(name, f.Names())
	}
	return f.cols[i], nil
}

// Select returns the values of one field, unchanged and in row order.
func (f *Frame) Select(name string) (Column, error) {
	return f.Column(name)
}

// SelectFrame returns the named field as a single-column frame.
func (f *Frame) SelectFrame(name string) (*Frame, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	return &Frame{cols: []Column{c}, index: map[string]int{name: 0}}, nil
}

// Drop returns a frame without the named fields. Names that are not present
// are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	out := &Frame{index: make(map[string]int, len(f.cols))}
	for _, c := range f.cols {
		if _, ok := drop[c.Name()]; ok {
			continue
		}
		out.index[c.Name()] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

// Add appends a column, or replaces the column of the same name in place.
func (f *Frame) Add(col Column) error {
	if len(f.cols) > 0 && col.Len() != f.Len() {
		return errors.NewDimensionError("Frame.Add: field "+col.Name(), f.Len(), col.Len(), 0)
	}
	if f.index == nil {
		f.index = make(map[string]int)
	}
	if i, ok := f.index[col.Name()]; ok {
		f.cols[i] = col
		return nil
	}
	f.index[col.Name()] = len(f.cols)
	f.cols = append(f.cols, col)
	return nil
}

// Take returns the rows at idx in that order.
func (f *Frame) Take(idx []int) *Frame {
	out := &Frame{cols: make([]Column, len(f.cols)), index: make(map[string]int, len(f.cols))}
	for i, c := range f.cols {
		out.cols[i] = c.Take(idx)
		out.index[c.Name()] = i
	}
	return out
}

// Head returns the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > f.Len() {
		n = f.Len()
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return f.Take(idx)
}

func typed[T any](f *Frame, name string, want Kind) ([]T, error) {
	c, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*Series[T])
	if !ok {
		return nil, errors.NewValueError("field "+name, "has kind "+c.Kind().String()+", want "+want.String())
	}
	return s.Values(), nil
}

// Floats returns a numeric field.
func (f *Frame) Floats(name string) ([]float64, error) {
	return typed[float64](f, name, KindFloat)
}

// Strings returns a text field.
func (f *Frame) Strings(name string) ([]string, error) {
	return typed[string](f, name, KindString)
}

// Compositions returns a composition field.
func (f *Frame) Compositions(name string) ([]chem.Composition, error) {
	return typed[chem.Composition](f, name, KindComposition)
}

// OxidCompositions returns an oxidation-state composition field.
func (f *Frame) OxidCompositions(name string) ([]chem.OxidComposition, error) {
	return typed[chem.OxidComposition](f, name, KindOxidComposition)
}

// Structures returns a structure field.
func (f *Frame) Structures(name string) ([]*chem.Structure, error) {
	return typed[*chem.Structure](f, name, KindStructure)
}

// Raw returns a field of undecoded JSON values.
func (f *Frame) Raw(name string) ([]json.RawMessage, error) {
	return typed[json.RawMessage](f, name, KindRaw)
}

// Target extracts a numeric field as a vector held outside the frame.
func (f *Frame) Target(name string) (*mat.VecDense, error) {
	v, err := f.Floats(name)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	return mat.NewVecDense(len(v), v), nil
}

// Matrix stacks numeric fields into a rows × len(names) matrix. With no names
// every float field is used, in frame order.
func (f *Frame) Matrix(names ...string) (*mat.Dense, error) {
	if len(names) == 0 {
		names = f.NumericNames()
	}
	if len(names) == 0 || f.Len() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	out := mat.NewDense(f.Len(), len(names), nil)
	for j, n := range names {
		v, err := f.Floats(n)
		if err != nil {
			return nil, err
		}
		out.SetCol(j, v)
	}
	return out, nil
}

// NumericNames returns the names of the float fields in frame order.
func (f *Frame) NumericNames() []string {
	var out []string
	for _, c := range f.cols {
		if c.Kind() == KindFloat {
			out = append(out, c.Name())
		}
	}
	return out
}
