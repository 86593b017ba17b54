package linear

import (
	"bytes"
	"encoding/gob"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/core/parallel"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/pkg/errors"
)

// 並列処理の閾値（この値以下の行数では逐次処理を使用）
const parallelThreshold = 1000

// centered holds the design matrix and target after mean removal.
type centered struct {
	A     *mat.Dense
	y     *mat.VecDense
	xMean []float64
	yMean float64
}

// validateXY checks shapes and finiteness of training data.
func validateXY(op string, X, y mat.Matrix) (int, int, error) {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return 0, 0, errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return 0, 0, err
	}
	if err := errors.CheckMatrix(op, y); err != nil {
		return 0, 0, err
	}
	return r, c, nil
}

// center copies X and y, subtracting column means when fitIntercept is set.
func center(X, y mat.Matrix, fitIntercept bool) centered {
	r, c := X.Dims()
	out := centered{
		A:     mat.NewDense(r, c, nil),
		y:     mat.NewVecDense(r, nil),
		xMean: make([]float64, c),
	}
	out.A.Copy(X)
	for i := 0; i < r; i++ {
		out.y.SetVec(i, y.At(i, 0))
	}
	if !fitIntercept {
		return out
	}

	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += out.A.At(i, j)
		}
		out.xMean[j] = sum / float64(r)
	}
	out.yMean = mat.Sum(out.y) / float64(r)

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			row := out.A.RawRowView(i)
			for j := range row {
				row[j] -= out.xMean[j]
			}
			out.y.SetVec(i, out.y.AtVec(i)-out.yMean)
		}
	})
	return out
}

// interceptFor returns yMean - xMean·w.
func interceptFor(c centered, w *mat.VecDense, fitIntercept bool) float64 {
	if !fitIntercept {
		return 0
	}
	return c.yMean - mat.Dot(mat.NewVecDense(len(c.xMean), c.xMean), w)
}

// linearState is the shared fitted state of the linear models.
type linearState struct {
	state     *model.StateManager
	coef      *mat.VecDense
	intercept float64
}

func (s *linearState) predict(name string, X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted(name, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures(name+".Predict", c); err != nil {
		return nil, err
	}

	// 予測: y = X * weights + intercept
	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, s.coef)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+s.intercept)
	}
	return predictions, nil
}

func (s *linearState) score(name string, X, y mat.Matrix) (float64, error) {
	if err := s.state.RequireFitted(name, "Score"); err != nil {
		return 0, err
	}
	yPred, err := s.predict(name, X)
	if err != nil {
		return 0, err
	}
	return metrics.R2ScoreMatrix(y, yPred)
}

func (s *linearState) coefSlice() []float64 {
	if s.coef == nil {
		return nil
	}
	out := make([]float64, s.coef.Len())
	for i := range out {
		out[i] = s.coef.AtVec(i)
	}
	return out
}

func (s *linearState) weights(modelType string, features []string, params map[string]interface{}) (*model.ModelWeights, error) {
	if err := s.state.RequireFitted(modelType, "ExportWeights"); err != nil {
		return nil, err
	}
	nFeatures, nSamples := s.state.GetDimensions()
	mw := &model.ModelWeights{
		ModelType:       modelType,
		Version:         model.WeightsVersion,
		Coefficients:    s.coefSlice(),
		Intercept:       s.intercept,
		Features:        append([]string(nil), features...),
		Hyperparameters: params,
		Metadata:        map[string]interface{}{"n_features": nFeatures, "n_samples": nSamples},
		IsFitted:        true,
	}
	if err := mw.Validate(); err != nil {
		return nil, err
	}
	return mw, nil
}

// gobState is the persisted form of a linear model.
type gobState struct {
	Params    map[string]interface{}
	State     model.ModelState
	Coef      []float64
	Intercept float64
	Rank      int
}

func encodeState(g gobState) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g); err != nil {
		return nil, errors.Wrap(err, "encode linear model")
	}
	return buf.Bytes(), nil
}

func decodeState(data []byte) (gobState, error) {
	var g gobState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&g); err != nil {
		return g, errors.Wrap(err, "decode linear model")
	}
	return g, nil
}

func (s *linearState) restore(g gobState) {
	s.state = model.NewStateManager()
	s.state.SetState(g.State)
	s.coef = nil
	if len(g.Coef) > 0 {
		s.coef = mat.NewVecDense(len(g.Coef), append([]float64(nil), g.Coef...))
	}
	s.intercept = g.Intercept
}
