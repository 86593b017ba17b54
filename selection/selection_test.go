package selection

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/linear"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pipeline"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/preprocessing"
)

func linearData(n int, noise float64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(7, 7))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a, b := rng.Float64()*2-1, rng.Float64()*2-1
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.SetVec(i, 3+2*a-b+noise*(rng.Float64()-0.5))
	}
	return X, y
}

func r2(t *testing.T) metrics.Scorer {
	t.Helper()
	s, err := metrics.GetScorer("r2")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func checkPartition(t *testing.T, folds []Fold, n int) {
	t.Helper()
	if !isPartition(folds, n) {
		t.Fatalf("folds do not partition %d samples", n)
	}
	for i, f := range folds {
		if len(f.Train)+len(f.Test) != n {
			t.Errorf("fold %d: %d train + %d test != %d", i, len(f.Train), len(f.Test), n)
		}
		if !sort.IntsAreSorted(f.Train) {
			t.Errorf("fold %d: train indices not sorted", i)
		}
	}
}

func TestKFold(t *testing.T) {
	folds, err := NewKFold(3, false, 0).Split(10)
	if err != nil {
		t.Fatal(err)
	}
	wantTest := [][]int{{0, 1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	for i, f := range folds {
		if !reflect.DeepEqual(f.Test, wantTest[i]) {
			t.Errorf("fold %d test = %v, want %v", i, f.Test, wantTest[i])
		}
	}
	if !reflect.DeepEqual(folds[1].Train, []int{0, 1, 2, 3, 7, 8, 9}) {
		t.Errorf("fold 1 train = %v", folds[1].Train)
	}
	checkPartition(t, folds, 10)

	a, _ := NewKFold(5, true, 42).Split(23)
	b, _ := NewKFold(5, true, 42).Split(23)
	c, _ := NewKFold(5, true, 43).Split(23)
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different folds")
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical folds")
	}
	checkPartition(t, a, 23)
}

func TestRepeatedKFold(t *testing.T) {
	rk := NewRepeatedKFold(5, 3, 1)
	if rk.GetNSplits() != 15 {
		t.Fatalf("GetNSplits = %d", rk.GetNSplits())
	}
	folds, err := rk.Split(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(folds) != 15 {
		t.Fatalf("got %d folds", len(folds))
	}
	for rep := 0; rep < 3; rep++ {
		checkPartition(t, folds[rep*5:(rep+1)*5], 50)
	}
	if reflect.DeepEqual(folds[0].Test, folds[5].Test) {
		t.Error("repeats share the same permutation")
	}
	again, _ := NewRepeatedKFold(5, 3, 1).Split(50)
	if !reflect.DeepEqual(folds, again) {
		t.Error("repeated k-fold is not deterministic")
	}
	if isPartition(folds, 50) {
		t.Error("three repeats should not be a single partition")
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name string
		cv   Splitter
		n    int
	}{
		{"one split", NewKFold(1, false, 0), 10},
		{"more folds than samples", NewKFold(5, false, 0), 4},
		{"zero repeats", NewRepeatedKFold(5, 0, 0), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cv.Split(tt.n); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCrossValScore(t *testing.T) {
	X, y := linearData(40, 0)
	cv := NewRepeatedKFold(5, 2, 3)

	serial, err := CrossValScore(context.Background(), linear.NewLinearRegression(), X, y, cv, r2(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(serial) != 10 {
		t.Fatalf("got %d scores", len(serial))
	}
	for i, s := range serial {
		if math.Abs(s-1) > 1e-9 {
			t.Errorf("fold %d R² = %v", i, s)
		}
	}

	X, y = linearData(40, 0.5)
	a, err := CrossValScore(context.Background(), linear.NewRidge(), X, y, cv, r2(t), 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := CrossValScore(context.Background(), linear.NewRidge(), X, y, cv, r2(t), 4)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("scores depend on nJobs: %v vs %v", a, b)
	}

	var de *errors.DimensionError
	if _, err := CrossValScore(context.Background(), linear.NewRidge(), X, mat.NewVecDense(3, nil), cv, r2(t), 1); !errors.As(err, &de) {
		t.Errorf("got %v, want DimensionError", err)
	}
}

func TestCrossValScoreCancelled(t *testing.T) {
	X, y := linearData(20, 0.1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := CrossValScore(ctx, linear.NewRidge(), X, y, NewKFold(5, false, 0), r2(t), 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestCrossValPredict(t *testing.T) {
	X, y := linearData(25, 0)
	pred, err := CrossValPredict(context.Background(), linear.NewLinearRegression(), X, y, NewKFold(5, true, 9), 2)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(pred, y, 1e-9) {
		t.Error("out-of-fold predictions differ from noiseless target")
	}

	if _, err := CrossValPredict(context.Background(), linear.NewLinearRegression(), X, y, NewRepeatedKFold(5, 2, 0), 1); err == nil {
		t.Error("repeated splits should be rejected")
	}
}

// panicky panics while fitting.
type panicky struct{}

func (panicky) Fit(X, y mat.Matrix) error { panic("boom") }
func (panicky) Predict(X mat.Matrix) (mat.Matrix, error) { return nil, nil }
func (panicky) Score(X, y mat.Matrix) (float64, error) { return 0, nil }
func (panicky) GetParams() map[string]interface{} { return nil }
func (panicky) SetParams(map[string]interface{}) error { return nil }
func (p panicky) Clone() model.Regressor { return p }

func TestPanicsBecomeErrors(t *testing.T) {
	X, y := linearData(10, 0)
	_, err := CrossValScore(context.Background(), panicky{}, X, y, NewKFold(2, false, 0), r2(t), 2)
	var pe *errors.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want PanicError", err)
	}
	if pe.PanicValue != "boom" {
		t.Errorf("panic value = %v", pe.PanicValue)
	}
}

func TestParamGrid(t *testing.T) {
	g := ParamGrid{
		"b": {1, 2},
		"a": {"x", "y", "z"},
	}
	if g.Len() != 6 {
		t.Fatalf("Len = %d", g.Len())
	}
	cands, err := g.Candidates()
	if err != nil {
		t.Fatal(err)
	}
	want := []map[string]interface{}{
		{"a": "x", "b": 1}, {"a": "x", "b": 2},
		{"a": "y", "b": 1}, {"a": "y", "b": 2},
		{"a": "z", "b": 1}, {"a": "z", "b": 2},
	}
	if !reflect.DeepEqual(cands, want) {
		t.Errorf("candidates = %v", cands)
	}

	empty, err := ParamGrid{}.Candidates()
	if err != nil || len(empty) != 1 || len(empty[0]) != 0 {
		t.Errorf("empty grid = %v, %v", empty, err)
	}
	if _, err := (ParamGrid{"a": {}}).Candidates(); err == nil {
		t.Error("empty value list should fail")
	}
}

func TestDistributions(t *testing.T) {
	d := ParamDistributions{
		"alpha": LogRange{Low: 1e-3, High: 1e3},
		"u":     Range{Low: -1, High: 1},
		"k":     IntRange{Low: 2, High: 5},
		"mode":  List{"a", "b"},
		"fixed": Value{V: true},
	}
	r := rand.New(rand.NewPCG(1, 1))
	cands, err := d.Sample(r, 200)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cands {
		if a := c["alpha"].(float64); a < 1e-3 || a >= 1e3 {
			t.Errorf("alpha = %v", a)
		}
		if u := c["u"].(float64); u < -1 || u >= 1 {
			t.Errorf("u = %v", u)
		}
		if k := c["k"].(int); k < 2 || k >= 5 {
			t.Errorf("k = %v", k)
		}
		if m := c["mode"]; m != "a" && m != "b" {
			t.Errorf("mode = %v", m)
		}
		if c["fixed"] != true {
			t.Errorf("fixed = %v", c["fixed"])
		}
	}

	again, _ := d.Sample(rand.New(rand.NewPCG(1, 1)), 200)
	if !reflect.DeepEqual(cands, again) {
		t.Error("sampling is not deterministic")
	}

	bad := []Distribution{Range{1, 1}, LogRange{0, 1}, IntRange{3, 3}, List{}}
	for _, b := range bad {
		if _, err := (ParamDistributions{"p": b}).Sample(r, 1); err == nil {
			t.Errorf("%#v should be invalid", b)
		}
	}
}

func TestGridSearchCV(t *testing.T) {
	X, y := linearData(40, 0.1)
	gs := &GridSearchCV{
		Estimator: linear.NewRidge(),
		Grid:      ParamGrid{"alpha": {1000.0, 0.001}},
		CV:        NewKFold(5, true, 0),
		Scorer:    r2(t),
		NJobs:     3,
		Refit:     true,
	}
	res, err := gs.Fit(context.Background(), X, y)
	if err != nil {
		t.Fatal(err)
	}
	if res.NFits != 2*5 {
		t.Errorf("NFits = %d, want 10", res.NFits)
	}
	best := res.Best()
	if best.Params["alpha"] != 0.001 || best.Rank != 1 || res.BestIndex != 1 {
		t.Errorf("best = %+v (index %d)", best, res.BestIndex)
	}
	if res.Candidates[0].Rank != 2 || len(res.Candidates[0].Scores) != 5 {
		t.Errorf("candidate 0 = %+v", res.Candidates[0])
	}
	if res.BestEstimator == nil {
		t.Fatal("BestEstimator not refitted")
	}
	if _, err := res.BestEstimator.Predict(X); err != nil {
		t.Errorf("refitted estimator: %v", err)
	}
	// The template estimator is never fitted.
	var nf *errors.NotFittedError
	if _, err := gs.Estimator.Predict(X); !errors.As(err, &nf) {
		t.Errorf("template was fitted: %v", err)
	}

	bad := &GridSearchCV{Estimator: linear.NewRidge(), Grid: ParamGrid{"gamma": {1}}, CV: NewKFold(2, false, 0), Scorer: r2(t)}
	if _, err := bad.Fit(context.Background(), X, y); err == nil {
		t.Error("unknown parameter should fail")
	}
}

func TestRandomizedSearchCV(t *testing.T) {
	X, y := linearData(30, 0.1)
	newSearch := func() *RandomizedSearchCV {
		return &RandomizedSearchCV{
			Estimator:     linear.NewRidge(),
			Distributions: ParamDistributions{"alpha": LogRange{Low: 1e-4, High: 10}},
			NIter:         4,
			Seed:          11,
			CV:            NewKFold(3, false, 0),
			Scorer:        r2(t),
			NJobs:         2,
		}
	}
	a, err := newSearch().Fit(context.Background(), X, y)
	if err != nil {
		t.Fatal(err)
	}
	if a.NFits != 4*3 || len(a.Candidates) != 4 {
		t.Errorf("NFits = %d, candidates = %d", a.NFits, len(a.Candidates))
	}
	if a.BestEstimator != nil {
		t.Error("BestEstimator set without Refit")
	}
	b, err := newSearch().Fit(context.Background(), X, y)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Candidates, b.Candidates) {
		t.Error("randomized search is not deterministic")
	}

	s := newSearch()
	s.NIter = 0
	if _, err := s.Fit(context.Background(), X, y); err == nil {
		t.Error("NIter = 0 should fail")
	}
}

func TestGridSearchOverStepEstimators(t *testing.T) {
	X, y := linearData(50, 0.2)
	shared := linear.NewRidge(linear.WithAlpha(0.01))
	search := func(nJobs int) *SearchResult {
		t.Helper()
		pipe, err := pipeline.NewPipeline(
			pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()},
			pipeline.Step{Name: "model", Estimator: linear.NewLinearRegression()},
		)
		if err != nil {
			t.Fatal(err)
		}
		gs := &GridSearchCV{
			Estimator: pipe,
			Grid:      ParamGrid{"model": {shared, linear.NewRidge(linear.WithAlpha(100))}},
			CV:        NewKFold(5, true, 3),
			Scorer:    r2(t),
			NJobs:     nJobs,
			Refit:     true,
		}
		res, err := gs.Fit(context.Background(), X, y)
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	// Folds run concurrently; each must fit its own copy of the grid value.
	par, seq := search(5), search(1)
	for i := range par.Candidates {
		if !reflect.DeepEqual(par.Candidates[i].Scores, seq.Candidates[i].Scores) {
			t.Errorf("candidate %d: parallel scores %v, sequential %v", i, par.Candidates[i].Scores, seq.Candidates[i].Scores)
		}
	}
	if par.BestIndex != 0 {
		t.Errorf("BestIndex = %d, want the lightly regularised model", par.BestIndex)
	}

	var nf *errors.NotFittedError
	if _, err := shared.Predict(X); !errors.As(err, &nf) {
		t.Errorf("grid value was fitted in place: %v", err)
	}
	if _, err := par.BestEstimator.Predict(X); err != nil {
		t.Errorf("refitted estimator: %v", err)
	}
}

func TestRankPutsNaNLast(t *testing.T) {
	nan := math.NaN()
	res := &SearchResult{Candidates: []CandidateResult{
		{Mean: nan}, {Mean: 0.2}, {Mean: nan}, {Mean: 0.5}, {Mean: 0.2},
	}}
	rank(res)

	want := []int{4, 2, 5, 1, 3}
	for i, c := range res.Candidates {
		if c.Rank != want[i] {
			t.Errorf("candidate %d rank = %d, want %d", i, c.Rank, want[i])
		}
	}
	if res.BestIndex != 3 {
		t.Errorf("BestIndex = %d, want 3", res.BestIndex)
	}
}

func TestCandidateResultJSONNonFinite(t *testing.T) {
	in := CandidateResult{
		Params: map[string]interface{}{"alpha": 1.0},
		Scores: []float64{0.5, math.NaN(), math.Inf(-1)},
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Rank:   2,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out CandidateResult
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Rank != 2 || out.Params["alpha"] != 1.0 || out.Scores[0] != 0.5 {
		t.Errorf("round trip = %+v", out)
	}
	if !math.IsNaN(out.Mean) || !math.IsNaN(out.Std) || !math.IsNaN(out.Scores[1]) || !math.IsInf(out.Scores[2], -1) {
		t.Errorf("non-finite values lost: %+v", out)
	}
}
