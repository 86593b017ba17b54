package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/pkg/errors"
)

// MetricFunc compares true and predicted target vectors.
type MetricFunc func(yTrue, yPred *mat.VecDense) (float64, error)

// Scorer turns a metric into a score where greater is always better.
// Loss metrics are negated, following the "neg_" naming convention.
type Scorer struct {
	Name            string
	GreaterIsBetter bool
	Func            MetricFunc
}

// Score evaluates the scorer on n×1 true and predicted targets.
func (s Scorer) Score(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnVectors(s.Name, yTrue, yPred)
	if err != nil {
		return 0, err
	}
	v, err := s.Func(t, p)
	if err != nil {
		return 0, err
	}
	if !s.GreaterIsBetter {
		v = -v
	}
	return v, nil
}

var scorers = map[string]Scorer{
	"r2":                                 {Name: "r2", GreaterIsBetter: true, Func: R2Score},
	"explained_variance":                 {Name: "explained_variance", GreaterIsBetter: true, Func: ExplainedVarianceScore},
	"neg_mean_squared_error":             {Name: "neg_mean_squared_error", Func: MSE},
	"neg_root_mean_squared_error":        {Name: "neg_root_mean_squared_error", Func: RMSE},
	"neg_mean_absolute_error":            {Name: "neg_mean_absolute_error", Func: MAE},
	"neg_mean_absolute_percentage_error": {Name: "neg_mean_absolute_percentage_error", Func: MAPE},
}

// GetScorer returns the scorer registered under name.
func GetScorer(name string) (Scorer, error) {
	s, ok := scorers[name]
	if !ok {
		return Scorer{}, errors.NewValidationError("scoring", "unknown scorer", name)
	}
	return s, nil
}

// ScorerNames lists the registered scorer names in sorted order.
func ScorerNames() []string {
	names := make([]string, 0, len(scorers))
	for n := range scorers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
