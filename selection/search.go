package selection

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/core/parallel"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// CandidateResult is the cross-validated outcome of one parameter setting.
type CandidateResult struct {
	Params map[string]interface{} `json:"params"`
	Scores []float64              `json:"scores"`
	Mean   float64                `json:"mean"`
	Std    float64                `json:"std"`
	// Rank is 1 for the best mean score. Ties keep candidate order and NaN
	// means rank last.
	Rank int `json:"rank"`
}

// candidateJSON spells non-finite scores as strings.
type candidateJSON struct {
	Params map[string]interface{} `json:"params"`
	Scores []metrics.Value        `json:"scores"`
	Mean   metrics.Value          `json:"mean"`
	Std    metrics.Value          `json:"std"`
	Rank   int                    `json:"rank"`
}

// MarshalJSON implements json.Marshaler.
func (c CandidateResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(candidateJSON{
		Params: c.Params,
		Scores: metrics.Values(c.Scores),
		Mean:   metrics.Value(c.Mean),
		Std:    metrics.Value(c.Std),
		Rank:   c.Rank,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CandidateResult) UnmarshalJSON(data []byte) error {
	var cj candidateJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	*c = CandidateResult{
		Params: cj.Params,
		Scores: metrics.Floats(cj.Scores),
		Mean:   float64(cj.Mean),
		Std:    float64(cj.Std),
		Rank:   cj.Rank,
	}
	return nil
}

// SearchResult summarizes a hyper-parameter search.
type SearchResult struct {
	Scoring    string            `json:"scoring"`
	Candidates []CandidateResult `json:"candidates"`
	BestIndex  int               `json:"best_index"`
	NFits      int               `json:"n_fits"`

	// BestEstimator is refitted on all data when the search asks for it.
	BestEstimator model.Regressor `json:"-"`
}

// Best returns the rank-1 candidate.
func (r *SearchResult) Best() CandidateResult {
	return r.Candidates[r.BestIndex]
}

// GridSearchCV evaluates every candidate of Grid on every fold of CV.
type GridSearchCV struct {
	Estimator model.Regressor
	Grid      ParamGrid
	CV        Splitter
	Scorer    metrics.Scorer
	NJobs     int
	Refit     bool
}

// Fit runs the search. It performs exactly Grid.Len() × CV.GetNSplits() fits
// plus one refit when Refit is set.
func (g *GridSearchCV) Fit(ctx context.Context, X, y mat.Matrix) (*SearchResult, error) {
	candidates, err := g.Grid.Candidates()
	if err != nil {
		return nil, err
	}
	s := searcher{name: "GridSearchCV", est: g.Estimator, cv: g.CV, scorer: g.Scorer, nJobs: g.NJobs, refit: g.Refit}
	return s.run(ctx, candidates, X, y)
}

// RandomizedSearchCV evaluates NIter candidates drawn from Distributions.
// Candidates are drawn up front from a PCG generator seeded with Seed.
type RandomizedSearchCV struct {
	Estimator     model.Regressor
	Distributions ParamDistributions
	NIter         int
	Seed          uint64
	CV            Splitter
	Scorer        metrics.Scorer
	NJobs         int
	Refit         bool
}

// Fit runs the search. It performs exactly NIter × CV.GetNSplits() fits plus
// one refit when Refit is set.
func (rs *RandomizedSearchCV) Fit(ctx context.Context, X, y mat.Matrix) (*SearchResult, error) {
	if rs.NIter < 1 {
		return nil, errors.NewValidationError("n_iter", "must be at least 1", rs.NIter)
	}
	r := rand.New(rand.NewPCG(rs.Seed, rs.Seed))
	candidates, err := rs.Distributions.Sample(r, rs.NIter)
	if err != nil {
		return nil, err
	}
	s := searcher{name: "RandomizedSearchCV", est: rs.Estimator, cv: rs.CV, scorer: rs.Scorer, nJobs: rs.NJobs, refit: rs.Refit}
	return s.run(ctx, candidates, X, y)
}

type searcher struct {
	name   string
	est    model.Regressor
	cv     Splitter
	scorer metrics.Scorer
	nJobs  int
	refit  bool
}

func (s searcher) run(ctx context.Context, candidates []map[string]interface{}, X, y mat.Matrix) (*SearchResult, error) {
	logger := log.GetLoggerWithName("selection.search")
	start := time.Now()

	if s.est == nil {
		return nil, errors.NewValidationError("estimator", "estimator is nil", nil)
	}
	if s.scorer.Func == nil {
		return nil, errors.NewValidationError("scoring", "scorer is not set", s.scorer.Name)
	}
	folds, err := splitXY(s.cv, X, y)
	if err != nil {
		return nil, err
	}

	nFolds := len(folds)
	scores := make([][]float64, len(candidates))
	for i := range scores {
		scores[i] = make([]float64, nFolds)
	}

	var fits atomic.Int64
	err = parallel.ForEach(ctx, s.nJobs, len(candidates)*nFolds, func(ctx context.Context, task int) error {
		ci, fi := task/nFolds, task%nFolds
		est := s.est.Clone()
		if err := est.SetParams(candidates[ci]); err != nil {
			return errors.Wrapf(err, "candidate %d", ci)
		}
		sc, err := fitAndScore(ctx, est, X, y, folds[fi], s.scorer, fmt.Sprintf("candidate %d fold %d", ci, fi))
		if err != nil {
			return err
		}
		fits.Add(1)
		scores[ci][fi] = sc
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &SearchResult{
		Scoring:    s.scorer.Name,
		Candidates: make([]CandidateResult, len(candidates)),
		NFits:      int(fits.Load()),
	}
	for i, c := range candidates {
		mean, std := MeanStd(scores[i])
		res.Candidates[i] = CandidateResult{Params: c, Scores: scores[i], Mean: mean, Std: std}
		logger.Debug("candidate evaluated",
			log.OperationKey, log.OperationSearch,
			log.CandidateKey, i,
			log.ParamsKey, fmt.Sprint(c),
			"score.mean", mean,
			"score.std", std,
		)
	}
	rank(res)

	best := res.Best()
	if s.refit {
		est := s.est.Clone()
		if err := est.SetParams(best.Params); err != nil {
			return nil, errors.Wrap(err, "refit")
		}
		if err := errors.SafeExecute(s.name+" refit", func() error { return est.Fit(X, y) }); err != nil {
			return nil, errors.Wrap(err, "refit")
		}
		res.BestEstimator = est
	}

	logger.Info("search finished",
		log.OperationKey, log.OperationSearch,
		log.ModelNameKey, s.name,
		log.FitsKey, res.NFits,
		log.FoldsKey, nFolds,
		log.ParamsKey, fmt.Sprint(best.Params),
		log.ScoreKey, best.Mean,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func rank(res *SearchResult) {
	order := make([]int, len(res.Candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return better(res.Candidates[order[a]].Mean, res.Candidates[order[b]].Mean)
	})
	for r, i := range order {
		res.Candidates[i].Rank = r + 1
	}
	res.BestIndex = order[0]
}

// better orders mean scores descending with NaN after every number.
func better(a, b float64) bool {
	if math.IsNaN(a) {
		return false
	}
	return math.IsNaN(b) || a > b
}
