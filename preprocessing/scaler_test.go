package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	tests := []struct {
		name     string
		withMean bool
		withStd  bool
		row0     []float64
	}{
		{"both", true, true, []float64{-1.5 / math.Sqrt(1.25), 0}},
		{"mean only", true, false, []float64{-1.5, 0}},
		{"std only", false, true, []float64{1 / math.Sqrt(1.25), 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStandardScaler(tt.withMean, tt.withStd)
			out, err := s.FitTransform(X)
			if err != nil {
				t.Fatal(err)
			}
			for j, want := range tt.row0 {
				if got := out.At(0, j); math.Abs(got-want) > 1e-12 {
					t.Errorf("out[0][%d] = %v, want %v", j, got, want)
				}
			}

			back, err := s.InverseTransform(out)
			if err != nil {
				t.Fatal(err)
			}
			if !mat.EqualApprox(back, X, 1e-12) {
				t.Error("InverseTransform did not restore input")
			}
		})
	}
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScalerDefault()
	var nf *errors.NotFittedError
	if _, err := s.Transform(mat.NewDense(1, 1, nil)); !errors.As(err, &nf) {
		t.Errorf("got %v, want NotFittedError", err)
	}
	if err := s.Fit(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})); err != nil {
		t.Fatal(err)
	}
	var de *errors.DimensionError
	if _, err := s.Transform(mat.NewDense(1, 3, nil)); !errors.As(err, &de) {
		t.Errorf("got %v, want DimensionError", err)
	}
	if err := s.Fit(mat.NewDense(1, 1, []float64{math.Inf(1)})); err == nil {
		t.Error("Inf input should fail")
	}
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 5,
		5, 5,
		10, 5,
	})
	m := NewMinMaxScaler([2]float64{-1, 1})
	out, err := m.FitTransform(X)
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(3, 2, []float64{
		-1, -1,
		0, -1,
		1, -1,
	})
	if !mat.EqualApprox(out, want, 1e-12) {
		t.Errorf("got %v", mat.Formatted(out))
	}
	back, err := m.InverseTransform(out)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Error("InverseTransform did not restore input")
	}

	bad := NewMinMaxScaler([2]float64{1, 0})
	var ve *errors.ValidationError
	if err := bad.Fit(X); !errors.As(err, &ve) {
		t.Errorf("got %v, want ValidationError", err)
	}
}

func TestScalerParamsAndClone(t *testing.T) {
	var tr model.Transformer = NewStandardScalerDefault()
	s := tr.(*StandardScaler)
	if err := s.SetParams(map[string]interface{}{"with_mean": false}); err != nil {
		t.Fatal(err)
	}
	c := s.Clone().(*StandardScaler)
	if c.WithMean || !c.WithStd {
		t.Errorf("clone params = %v", c.GetParams())
	}
	if err := s.SetParams(map[string]interface{}{"with_variance": true}); err == nil {
		t.Error("unknown param should fail")
	}

	m := NewMinMaxScalerDefault()
	if err := m.SetParams(map[string]interface{}{"feature_range": []interface{}{-2, 2.0}}); err != nil {
		t.Fatal(err)
	}
	if m.FeatureRange != [2]float64{-2, 2} {
		t.Errorf("feature_range = %v", m.FeatureRange)
	}
	if err := m.SetParams(map[string]interface{}{"feature_range": []float64{1}}); err == nil {
		t.Error("short feature_range should fail")
	}
	if got := m.Clone().(*MinMaxScaler).FeatureRange; got != m.FeatureRange {
		t.Errorf("clone feature_range = %v", got)
	}
	if m.String() != "MinMaxScaler(feature_range=[-2.0, 2.0])" {
		t.Errorf("String = %q", m.String())
	}
}
