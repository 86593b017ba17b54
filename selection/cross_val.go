package selection

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/core/parallel"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// CrossValScore fits a clone of est on every training fold and scores it on
// the matching test fold. Scores are returned in fold order regardless of
// nJobs.
func CrossValScore(ctx context.Context, est model.Regressor, X, y mat.Matrix, cv Splitter, scorer metrics.Scorer, nJobs int) ([]float64, error) {
	logger := log.GetLoggerWithName("selection.cv")
	start := time.Now()

	folds, err := splitXY(cv, X, y)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	err = parallel.ForEach(ctx, nJobs, len(folds), func(ctx context.Context, i int) error {
		s, err := fitAndScore(ctx, est.Clone(), X, y, folds[i], scorer, fmt.Sprintf("fold %d", i))
		if err != nil {
			return err
		}
		scores[i] = s
		logger.Debug("fold scored",
			log.OperationKey, log.OperationCrossValidate,
			log.FoldKey, i,
			log.ScoreKey, s,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	mean, std := MeanStd(scores)
	logger.Info("cross-validation finished",
		log.OperationKey, log.OperationCrossValidate,
		log.FoldsKey, len(folds),
		"scoring", scorer.Name,
		"score.mean", mean,
		"score.std", std,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return scores, nil
}

// CrossValPredict returns, for every sample, the prediction of the model that
// did not see it during training. cv must partition the samples: each index
// appears in exactly one test fold.
func CrossValPredict(ctx context.Context, est model.Regressor, X, y mat.Matrix, cv Splitter, nJobs int) (*mat.VecDense, error) {
	folds, err := splitXY(cv, X, y)
	if err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	if !isPartition(folds, n) {
		return nil, errors.NewValueError("CrossValPredict", "splitter does not partition the samples; use a single k-fold split")
	}

	out := mat.NewVecDense(n, nil)
	err = parallel.ForEach(ctx, nJobs, len(folds), func(ctx context.Context, i int) error {
		f := folds[i]
		pred, err := fitAndPredict(ctx, est.Clone(), X, y, f, fmt.Sprintf("fold %d", i))
		if err != nil {
			return err
		}
		// Test folds are disjoint, so concurrent writes never share an index.
		for k, idx := range f.Test {
			out.SetVec(idx, pred.At(k, 0))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MeanStd returns the mean and population standard deviation of scores.
func MeanStd(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(scores, nil)
}

func splitXY(cv Splitter, X, y mat.Matrix) ([]Fold, error) {
	if cv == nil {
		return nil, errors.NewValidationError("cv", "splitter is nil", nil)
	}
	n, _ := X.Dims()
	if ny, _ := y.Dims(); ny != n {
		return nil, errors.NewDimensionError("selection.Split", n, ny, 0)
	}
	return cv.Split(n)
}

func fitAndPredict(ctx context.Context, est model.Regressor, X, y mat.Matrix, f Fold, op string) (mat.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var pred mat.Matrix
	err := errors.SafeExecute(op, func() error {
		if err := est.Fit(takeRows(X, f.Train), takeRows(y, f.Train)); err != nil {
			return err
		}
		var err error
		pred, err = est.Predict(takeRows(X, f.Test))
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return pred, nil
}

func fitAndScore(ctx context.Context, est model.Regressor, X, y mat.Matrix, f Fold, scorer metrics.Scorer, op string) (float64, error) {
	pred, err := fitAndPredict(ctx, est, X, y, f, op)
	if err != nil {
		return 0, err
	}
	s, err := scorer.Score(takeRows(y, f.Test), pred)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	return s, nil
}

// takeRows copies the given rows of m in order.
func takeRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(r, j))
		}
	}
	return out
}
