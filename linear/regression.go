// Package linear provides ordinary least squares and ridge regression.
package linear

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// LinearRegression は最小二乗法による線形回帰モデル
//
// 係数は中心化したデータに対する薄い特異値分解の最小ノルム解で求める。
// 特徴量ブロックには range = max - min のような線形従属な列が含まれるため、
// ランク落ちは正常系として扱い RankWarning を出すだけにとどめる。
type LinearRegression struct {
	linearState
	fitIntercept bool
	rcond        float64
	rank         int
}

var (
	_ model.Regressor   = (*LinearRegression)(nil)
	_ model.LinearModel = (*LinearRegression)(nil)
)

// NewLinearRegression は新しい線形回帰モデルを作成する
//
// 使用例:
//
//	lr := linear.NewLinearRegression(linear.WithFitIntercept(true))
//	err := lr.Fit(X, y)
//	yPred, err := lr.Predict(X)
func NewLinearRegression(opts ...Option) *LinearRegression {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &LinearRegression{
		linearState:  linearState{state: model.NewStateManager()},
		fitIntercept: o.fitIntercept,
		rcond:        o.rcond,
	}
}

// Fit はモデルを訓練データで学習させる
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	logger := log.GetLoggerWithName("linear.regression")
	start := time.Now()

	r, c, err := validateXY("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}
	lr.state.Reset()
	data := center(X, y, lr.fitIntercept)

	var svd mat.SVD
	if ok := svd.Factorize(data.A, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD did not converge", errors.ErrSingularMatrix)
	}
	rcond := lr.rcond
	if rcond < 0 {
		rcond = math.Nextafter(1, 2) - 1
		rcond *= float64(max(r, c))
	}
	rank := svd.Rank(rcond)
	if rank == 0 {
		return errors.NewModelError("LinearRegression.Fit", "design matrix has rank 0", errors.ErrSingularMatrix)
	}
	if rank < c {
		errors.Warn(errors.NewRankWarning("LinearRegression.Fit", rank, c))
	}

	coef := mat.NewVecDense(c, nil)
	svd.SolveVecTo(coef, data.y, rank)
	if err := errors.CheckMatrix("LinearRegression.Fit", coef); err != nil {
		return err
	}

	lr.coef = coef
	lr.intercept = interceptFor(data, coef, lr.fitIntercept)
	lr.rank = rank
	lr.state.SetDimensions(c, r)
	lr.state.SetFitted()

	logger.Debug("model fitted",
		log.ModelNameKey, "LinearRegression",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"rank", rank,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は入力データに対する予測を n×1 で返す
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	return lr.predict("LinearRegression", X)
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	return lr.score("LinearRegression", X, y)
}

// Coef は学習された重み（係数）を返す
func (lr *LinearRegression) Coef() []float64 { return lr.coefSlice() }

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 { return lr.intercept }

// Rank は学習時の計画行列（中心化後）の数値ランクを返す
func (lr *LinearRegression) Rank() int { return lr.rank }

// GetParams はハイパーパラメータを返す
func (lr *LinearRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{"fit_intercept": lr.fitIntercept}
}

// SetParams はハイパーパラメータを設定し、モデルを未学習状態に戻す
func (lr *LinearRegression) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "fit_intercept":
			b, err := model.ParamBool(k, v)
			if err != nil {
				return err
			}
			lr.fitIntercept = b
		default:
			return model.UnknownParam("LinearRegression", k, v)
		}
	}
	lr.state.Reset()
	return nil
}

// Clone は同じパラメータの未学習モデルを返す
func (lr *LinearRegression) Clone() model.Regressor {
	return NewLinearRegression(WithFitIntercept(lr.fitIntercept), WithRcond(lr.rcond))
}

// ExportWeights は係数を特徴量名つきで ModelWeights に書き出す
func (lr *LinearRegression) ExportWeights(features []string) (*model.ModelWeights, error) {
	return lr.weights("LinearRegression", features, lr.GetParams())
}

// GobEncode implements gob.GobEncoder so model.SaveModel can persist the model.
func (lr *LinearRegression) GobEncode() ([]byte, error) {
	return encodeState(gobState{
		Params:    map[string]interface{}{"fit_intercept": lr.fitIntercept, "rcond": lr.rcond},
		State:     lr.state.GetState(),
		Coef:      lr.coefSlice(),
		Intercept: lr.intercept,
		Rank:      lr.rank,
	})
}

// GobDecode implements gob.GobDecoder.
func (lr *LinearRegression) GobDecode(data []byte) error {
	g, err := decodeState(data)
	if err != nil {
		return err
	}
	if v, ok := g.Params["fit_intercept"].(bool); ok {
		lr.fitIntercept = v
	}
	if v, ok := g.Params["rcond"].(float64); ok {
		lr.rcond = v
	}
	lr.restore(g)
	lr.rank = g.Rank
	return nil
}
