package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/pkg/errors"
)

func TestMatrixForms(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	tests := []struct {
		name string
		fn   func(a, b mat.Matrix) (float64, error)
		want float64
	}{
		{"RMSEMatrix", RMSEMatrix, 0.5},
		{"MAEMatrix", MAEMatrix, 0.5},
		{"R2ScoreMatrix", R2ScoreMatrix, 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	var de *errors.DimensionError
	if _, err := R2ScoreMatrix(yTrue, mat.NewVecDense(3, nil)); !errors.As(err, &de) {
		t.Errorf("got %v, want DimensionError", err)
	}
}

func TestGetScorer(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5})

	tests := []struct {
		name string
		want float64
	}{
		{"r2", 0.8},
		{"neg_mean_squared_error", -0.25},
		{"neg_root_mean_squared_error", -0.5},
		{"neg_mean_absolute_error", -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := GetScorer(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			got, err := s.Score(yTrue, yPred)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	var ve *errors.ValidationError
	if _, err := GetScorer("accuracy"); !errors.As(err, &ve) {
		t.Errorf("got %v, want ValidationError", err)
	}
	if names := ScorerNames(); len(names) != 6 || names[0] != "explained_variance" {
		t.Errorf("ScorerNames() = %v", names)
	}
}
