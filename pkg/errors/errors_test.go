package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewMissingFieldError(t *testing.T) {
	available := []string{"formula", "structure"}
	err := NewMissingFieldError("composition", available)

	want := `matpipe: missing field "composition" (available: formula, structure)`
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// スタックトレースの存在確認
	formatted := fmt.Sprintf("%+v", err)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected stack trace to contain test file name")
	}

	var missing *MissingFieldError
	if !As(err, &missing) {
		t.Fatal("Error should be castable to *MissingFieldError")
	}
	available[0] = "mutated"
	if missing.Available[0] != "formula" {
		t.Error("MissingFieldError must not alias the caller's slice")
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		name string
		axis int
		want string
	}{
		{"rows", 0, "matpipe: FeatureUnion.density: dimension mismatch on axis 0 (rows). Expected 10, got 9"},
		{"features", 1, "matpipe: FeatureUnion.density: dimension mismatch on axis 1 (features). Expected 10, got 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("FeatureUnion.density", 10, 9, tt.axis)
			if err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
			}
			var dimErr *DimensionError
			if !As(err, &dimErr) {
				t.Error("Error should be castable to *DimensionError")
			}
		})
	}
}

func TestNewParseError(t *testing.T) {
	tests := []struct {
		name string
		pos  int
		want string
	}{
		{"with offset", 2, `matpipe: cannot parse "Fe(O" at offset 2: unclosed group`},
		{"without offset", -1, `matpipe: cannot parse "Fe(O": unclosed group`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewParseError("Fe(O", tt.pos, "unclosed group")
			if err.Error() != tt.want {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.want)
			}
		})
	}
}

func TestNewModelError(t *testing.T) {
	err := NewModelError("LinearRegression.Fit", "empty data", ErrEmptyData)
	if want := "matpipe: LinearRegression.Fit: empty data: empty data"; err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
	if !Is(err, ErrEmptyData) {
		t.Error("ModelError should unwrap to ErrEmptyData")
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("Ridge", "Predict")
	want := "matpipe: Ridge: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrSingularMatrix, "in %s", "Ridge.Fit")
	if !Is(wrapped, ErrSingularMatrix) {
		t.Error("Expected Is(wrapped, ErrSingularMatrix) to be true")
	}
	if !strings.Contains(wrapped.Error(), "in Ridge.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewRankWarning("LinearRegression.Fit", 3, 5))
	Warn(NewDataConversionWarning("K_VRH", "null", "float64", "missing value"))

	if len(got) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "rank 3 < 5") {
		t.Errorf("unexpected rank warning text: %v", got[0])
	}
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if err := CheckMatrix("fit", ok); err != nil {
		t.Fatalf("CheckMatrix() on finite matrix = %v", err)
	}

	bad := mat.NewDense(2, 2, []float64{1, 2, math.NaN(), math.Inf(1)})
	err := CheckMatrix("fit", bad)
	var nErr *NumericalInstabilityError
	if !As(err, &nErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if nErr.Row != 1 || nErr.Col != 0 || len(nErr.Values) != 2 {
		t.Errorf("unexpected error detail: %+v", nErr)
	}

	if err := CheckScalar("score", math.NaN()); err == nil {
		t.Error("CheckScalar(NaN) should fail")
	}
}
