package config

import (
	"github.com/matpipe/matpipe/linear"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pipeline"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/preprocessing"
	"github.com/matpipe/matpipe/selection"
)

// Model choices.
const (
	EstimatorLinear = "linear"
	EstimatorRidge  = "ridge"

	ScalerNone     = "none"
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Pipeline builds the matrix pipeline: an optional "scaler" step followed by
// the "model" step. Search parameters address them as "scaler__..." and
// "model__...".
func (m ModelConfig) Pipeline() (*pipeline.Pipeline, error) {
	var steps []pipeline.Step
	switch m.Scaler {
	case ScalerStandard:
		steps = append(steps, pipeline.Step{Name: "scaler", Estimator: preprocessing.NewStandardScalerDefault()})
	case ScalerMinMax:
		steps = append(steps, pipeline.Step{Name: "scaler", Estimator: preprocessing.NewMinMaxScalerDefault()})
	}

	switch m.Estimator {
	case EstimatorRidge:
		steps = append(steps, pipeline.Step{Name: "model", Estimator: linear.NewRidge(
			linear.WithAlpha(m.Alpha), linear.WithFitIntercept(m.FitIntercept))})
	default:
		steps = append(steps, pipeline.Step{Name: "model", Estimator: linear.NewLinearRegression(
			linear.WithFitIntercept(m.FitIntercept))})
	}
	return pipeline.NewPipeline(steps...)
}

// Splitter returns shuffled k-fold for a single repeat and repeated k-fold
// otherwise, both seeded with Seed.
func (c CVConfig) Splitter() selection.Splitter {
	if c.NRepeats <= 1 {
		return selection.NewKFold(c.NSplits, true, c.Seed)
	}
	return selection.NewRepeatedKFold(c.NSplits, c.NRepeats, c.Seed)
}

func (c CVConfig) Scorer() (metrics.Scorer, error) {
	return metrics.GetScorer(c.Scoring)
}

// ParamGrid returns a copy of the configured grid.
func (s SearchConfig) ParamGrid() selection.ParamGrid {
	g := make(selection.ParamGrid, len(s.Grid))
	for k, vs := range s.Grid {
		g[k] = append([]interface{}(nil), vs...)
	}
	return g
}

// ParamDistributions converts the configured distributions.
func (s SearchConfig) ParamDistributions() (selection.ParamDistributions, error) {
	out := make(selection.ParamDistributions, len(s.Distributions))
	for k, d := range s.Distributions {
		dist, err := d.Distribution()
		if err != nil {
			return nil, errors.Wrapf(err, "search.distributions.%s", k)
		}
		out[k] = dist
	}
	return out, nil
}

// DistributionConfig describes one randomized-search distribution.
//
//	alpha: {kind: log_range, low: 0.001, high: 100}
//	scaler__with_mean: {kind: list, values: [true, false]}
type DistributionConfig struct {
	// Kind is range, log_range, int_range, list or value.
	Kind   string        `yaml:"kind" toml:"kind" json:"kind"`
	Low    float64       `yaml:"low" toml:"low" json:"low,omitempty"`
	High   float64       `yaml:"high" toml:"high" json:"high,omitempty"`
	Values []interface{} `yaml:"values" toml:"values" json:"values,omitempty"`
	Value  interface{}   `yaml:"value" toml:"value" json:"value,omitempty"`
}

// Distribution builds and validates the distribution.
func (d DistributionConfig) Distribution() (selection.Distribution, error) {
	var dist selection.Distribution
	switch d.Kind {
	case "range":
		dist = selection.Range{Low: d.Low, High: d.High}
	case "log_range":
		dist = selection.LogRange{Low: d.Low, High: d.High}
	case "int_range":
		if d.Low != float64(int(d.Low)) || d.High != float64(int(d.High)) {
			return nil, errors.NewValidationError("int_range", "bounds must be integers", d)
		}
		dist = selection.IntRange{Low: int(d.Low), High: int(d.High)}
	case "list":
		dist = selection.List(append([]interface{}(nil), d.Values...))
	case "value":
		dist = selection.Value{V: d.Value}
	default:
		return nil, errors.NewValidationError("kind", "must be range, log_range, int_range, list or value", d.Kind)
	}
	if err := dist.Validate(); err != nil {
		return nil, err
	}
	return dist, nil
}
