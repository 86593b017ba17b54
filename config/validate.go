package config

import (
	"math"

	"github.com/matpipe/matpipe/featurize"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// Search kinds.
const (
	SearchNone   = "none"
	SearchGrid   = "grid"
	SearchRandom = "random"
)

// Validate rejects settings the run cannot honour.
func (c *Config) Validate() error {
	if c.Dataset.Path == "" {
		return errors.NewValidationError("dataset.path", "must be set", c.Dataset.Path)
	}
	if c.Dataset.Target == "" {
		return errors.NewValidationError("dataset.target", "must be set", c.Dataset.Target)
	}
	for _, d := range c.Dataset.Drop {
		if d == c.Dataset.Target {
			return errors.NewValidationError("dataset.drop", "must not contain the target", d)
		}
	}
	if _, err := featurize.NewElementProperty("", c.Features.Properties, c.Features.Stats); err != nil {
		return errors.Wrap(err, "features")
	}

	switch c.Model.Estimator {
	case EstimatorLinear, EstimatorRidge:
	default:
		return errors.NewValidationError("model.estimator", "must be linear or ridge", c.Model.Estimator)
	}
	switch c.Model.Scaler {
	case ScalerNone, ScalerStandard, ScalerMinMax:
	default:
		return errors.NewValidationError("model.scaler", "must be none, standard or minmax", c.Model.Scaler)
	}
	if c.Model.Alpha < 0 || math.IsNaN(c.Model.Alpha) {
		return errors.NewValidationError("model.alpha", "must be non-negative", c.Model.Alpha)
	}

	if c.CV.NSplits < 2 {
		return errors.NewValidationError("cv.n_splits", "must be at least 2", c.CV.NSplits)
	}
	if c.CV.NRepeats < 1 {
		return errors.NewValidationError("cv.n_repeats", "must be at least 1", c.CV.NRepeats)
	}
	if _, err := metrics.GetScorer(c.CV.Scoring); err != nil {
		return errors.Wrapf(err, "cv.scoring (known: %v)", metrics.ScorerNames())
	}

	switch c.Search.Kind {
	case SearchNone:
	case SearchGrid:
		if len(c.Search.Grid) == 0 {
			return errors.NewValidationError("search.grid", "grid search needs a parameter grid", nil)
		}
		for k, vs := range c.Search.Grid {
			if len(vs) == 0 {
				return errors.NewValidationError("search.grid."+k, "needs at least one value", vs)
			}
		}
	case SearchRandom:
		if c.Search.NIter < 1 {
			return errors.NewValidationError("search.n_iter", "must be at least 1", c.Search.NIter)
		}
		if len(c.Search.Distributions) == 0 {
			return errors.NewValidationError("search.distributions", "randomized search needs distributions", nil)
		}
		if _, err := c.Search.ParamDistributions(); err != nil {
			return err
		}
	default:
		return errors.NewValidationError("search.kind", "must be none, grid or random", c.Search.Kind)
	}

	if _, ok := log.ParseLevel(c.Log.Level); !ok {
		return errors.NewValidationError("log.level", "must be debug, info, warn or error", c.Log.Level)
	}
	if c.Report.R2Min > c.Report.R2Max {
		return errors.NewValidationError("report.r2_min", "must not exceed r2_max", c.Report.R2Min)
	}
	if c.Report.RMSEMin > c.Report.RMSEMax {
		return errors.NewValidationError("report.rmse_min", "must not exceed rmse_max", c.Report.RMSEMin)
	}
	return nil
}
