package linear

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/pkg/errors"
)

// createData は y = 1 + Σ (j+1)*0.5*x_j (+ noise) のデータを生成する
func createData(rows, cols int, noise float64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * noise
		y.SetVec(i, sum)
	}
	return X, y
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &got
}

func TestLinearRegressionExactFit(t *testing.T) {
	X, y := createData(50, 3, 0)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	want := []float64{0.5, 1.0, 1.5}
	for j, w := range lr.Coef() {
		if math.Abs(w-want[j]) > 1e-9 {
			t.Errorf("coef[%d] = %v, want %v", j, w, want[j])
		}
	}
	if math.Abs(lr.Intercept()-1) > 1e-9 {
		t.Errorf("intercept = %v, want 1", lr.Intercept())
	}
	if lr.Rank() != 3 {
		t.Errorf("rank = %d, want 3", lr.Rank())
	}
	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-1) > 1e-12 {
		t.Errorf("R² = %v, want 1", score)
	}
}

func TestLinearRegressionRankDeficient(t *testing.T) {
	warnings := captureWarnings(t)
	X, y := createData(40, 2, 0)

	// A third column equal to x0 - x1, as a range feature is max - min.
	wide := mat.NewDense(40, 3, nil)
	for i := 0; i < 40; i++ {
		wide.Set(i, 0, X.At(i, 0))
		wide.Set(i, 1, X.At(i, 1))
		wide.Set(i, 2, X.At(i, 0)-X.At(i, 1))
	}

	lr := NewLinearRegression()
	if err := lr.Fit(wide, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if lr.Rank() != 2 {
		t.Errorf("rank = %d, want 2", lr.Rank())
	}
	if len(*warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(*warnings))
	}
	var rw *errors.RankWarning
	if !errors.As((*warnings)[0], &rw) || rw.Rank != 2 || rw.Features != 3 {
		t.Errorf("warning = %v", (*warnings)[0])
	}

	score, err := lr.Score(wide, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-1) > 1e-9 {
		t.Errorf("R² = %v, want 1", score)
	}

	// Minimum-norm solution of w0 + w2 = 0.5, w1 - w2 = 1.0.
	coef := lr.Coef()
	want := []float64{2.0 / 3, 5.0 / 6, -1.0 / 6}
	for j := range want {
		if math.Abs(coef[j]-want[j]) > 1e-9 {
			t.Errorf("coef[%d] = %v, want %v", j, coef[j], want[j])
		}
	}
}

func TestLinearRegressionNoIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewVecDense(4, []float64{2, 4, 6, 8})
	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if math.Abs(lr.Coef()[0]-2) > 1e-12 || lr.Intercept() != 0 {
		t.Errorf("coef = %v, intercept = %v", lr.Coef(), lr.Intercept())
	}
}

func TestLinearRegressionErrors(t *testing.T) {
	X, y := createData(10, 2, 0.1)

	lr := NewLinearRegression()
	var nf *errors.NotFittedError
	if _, err := lr.Predict(X); !errors.As(err, &nf) {
		t.Errorf("Predict before Fit: got %v, want NotFittedError", err)
	}
	if _, err := lr.Score(X, y); !errors.As(err, &nf) {
		t.Errorf("Score before Fit: got %v, want NotFittedError", err)
	}

	var de *errors.DimensionError
	if err := lr.Fit(X, mat.NewVecDense(9, nil)); !errors.As(err, &de) || de.Axis != 0 {
		t.Errorf("row mismatch: got %v", err)
	}

	bad := mat.DenseCopyOf(X)
	bad.Set(3, 1, math.NaN())
	var ni *errors.NumericalInstabilityError
	if err := lr.Fit(bad, y); !errors.As(err, &ni) || ni.Row != 3 || ni.Col != 1 {
		t.Errorf("NaN input: got %v", err)
	}

	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if _, err := lr.Predict(mat.NewDense(2, 3, nil)); !errors.As(err, &de) || de.Axis != 1 {
		t.Errorf("feature mismatch: got %v", err)
	}

	if err := lr.Fit(&mat.Dense{}, y); !errors.Is(err, errors.ErrEmptyData) {
		t.Errorf("empty X: got %v", err)
	}
}

func TestRidge(t *testing.T) {
	// One centred feature: w = Σxy / (Σx² + α).
	X := mat.NewDense(4, 1, []float64{-3, -1, 1, 3})
	y := mat.NewVecDense(4, []float64{4, 8, 12, 16})
	rg := NewRidge(WithAlpha(20))
	if err := rg.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	// Σxy = 40, Σx² = 20.
	if math.Abs(rg.Coef()[0]-1) > 1e-12 {
		t.Errorf("coef = %v, want 1", rg.Coef()[0])
	}
	if math.Abs(rg.Intercept()-10) > 1e-12 {
		t.Errorf("intercept = %v, want 10", rg.Intercept())
	}

	Xs, ys := createData(60, 4, 0.2)
	ols := NewLinearRegression()
	zero := NewRidge(WithAlpha(0))
	big := NewRidge(WithAlpha(100))
	for _, m := range []model.Regressor{ols, zero, big} {
		if err := m.Fit(Xs, ys); err != nil {
			t.Fatal(err)
		}
	}
	for j := range ols.Coef() {
		if math.Abs(ols.Coef()[j]-zero.Coef()[j]) > 1e-8 {
			t.Errorf("alpha=0 coef[%d] = %v, OLS %v", j, zero.Coef()[j], ols.Coef()[j])
		}
	}
	if norm(big.Coef()) >= norm(ols.Coef()) {
		t.Errorf("ridge did not shrink: %v vs %v", norm(big.Coef()), norm(ols.Coef()))
	}

	if err := NewRidge(WithAlpha(-1)).Fit(Xs, ys); err == nil {
		t.Error("negative alpha should fail")
	}
}

func norm(v []float64) float64 {
	return mat.Norm(mat.NewVecDense(len(v), v), 2)
}

func TestParamsAndClone(t *testing.T) {
	rg := NewRidge()
	if got := rg.GetParams(); got["alpha"] != 1.0 || got["fit_intercept"] != true {
		t.Errorf("GetParams = %v", got)
	}
	if err := rg.SetParams(map[string]interface{}{"alpha": 10, "fit_intercept": false}); err != nil {
		t.Fatal(err)
	}
	clone := rg.Clone()
	if got := clone.GetParams(); got["alpha"] != 10.0 || got["fit_intercept"] != false {
		t.Errorf("clone params = %v", got)
	}

	var ve *errors.ValidationError
	if err := rg.SetParams(map[string]interface{}{"beta": 1}); !errors.As(err, &ve) {
		t.Errorf("unknown param: got %v", err)
	}
	if err := rg.SetParams(map[string]interface{}{"alpha": "x"}); !errors.As(err, &ve) {
		t.Errorf("bad alpha: got %v", err)
	}
	if err := NewLinearRegression().SetParams(map[string]interface{}{"fit_intercept": 1}); !errors.As(err, &ve) {
		t.Errorf("bad fit_intercept: got %v", err)
	}

	X, y := createData(20, 2, 0.1)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	c := lr.Clone()
	var nf *errors.NotFittedError
	if _, err := c.Predict(X); !errors.As(err, &nf) {
		t.Errorf("clone should be unfitted, got %v", err)
	}
}

func TestPersistence(t *testing.T) {
	X, y := createData(30, 3, 0.1)
	lr := NewLinearRegression()
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := model.SaveModel(lr, path); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	loaded := NewLinearRegression()
	if err := model.LoadModel(loaded, path); err != nil {
		t.Fatalf("LoadModel: %v", err)
	}

	want, _ := lr.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(want, got, 1e-12) {
		t.Error("loaded model predicts differently")
	}
	if loaded.Rank() != 3 {
		t.Errorf("rank = %d", loaded.Rank())
	}

	rg := NewRidge(WithAlpha(3))
	if err := rg.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := model.SaveModel(rg, path); err != nil {
		t.Fatal(err)
	}
	loadedRidge := NewRidge()
	if err := model.LoadModel(loadedRidge, path); err != nil {
		t.Fatal(err)
	}
	if loadedRidge.GetParams()["alpha"] != 3.0 || loadedRidge.Intercept() != rg.Intercept() {
		t.Errorf("ridge round trip: %v %v", loadedRidge.GetParams(), loadedRidge.Intercept())
	}
}

func TestExportWeights(t *testing.T) {
	lr := NewLinearRegression()
	if _, err := lr.ExportWeights(nil); err == nil {
		t.Error("export before Fit should fail")
	}
	X, y := createData(20, 2, 0)
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	mw, err := lr.ExportWeights([]string{"density__density", "density__vpa"})
	if err != nil {
		t.Fatal(err)
	}
	if mw.ModelType != "LinearRegression" || len(mw.Coefficients) != 2 || mw.Features[1] != "density__vpa" {
		t.Errorf("weights = %+v", mw)
	}
	if _, err := lr.ExportWeights([]string{"only_one"}); err == nil {
		t.Error("label count mismatch should fail")
	}
}

func BenchmarkLinearRegressionFit(b *testing.B) {
	sizes := []struct {
		name string
		rows int
		cols int
	}{
		{"Elastic_1181x47", 1181, 47},
		{"Medium_2000x10", 2000, 10},
		{"Large_10000x50", 10000, 50},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			X, y := createData(size.rows, size.cols, 0.1)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRidgeFit(b *testing.B) {
	X, y := createData(1181, 47, 0.1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := NewRidge().Fit(X, y); err != nil {
			b.Fatal(err)
		}
	}
}
