package linear

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// Ridge は L2 正則化つき線形回帰モデル
//
// (XᵀX + αI)w = Xᵀy を中心化したデータに対して Cholesky 分解で解く。
// 切片は正則化しない。
type Ridge struct {
	linearState
	alpha        float64
	fitIntercept bool
}

var (
	_ model.Regressor   = (*Ridge)(nil)
	_ model.LinearModel = (*Ridge)(nil)
)

// NewRidge は新しい Ridge モデルを作成する（デフォルト alpha = 1）
func NewRidge(opts ...Option) *Ridge {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Ridge{
		linearState:  linearState{state: model.NewStateManager()},
		alpha:        o.alpha,
		fitIntercept: o.fitIntercept,
	}
}

// Fit はモデルを訓練データで学習させる
func (rg *Ridge) Fit(X, y mat.Matrix) error {
	start := time.Now()
	if rg.alpha < 0 {
		return errors.NewValidationError("alpha", "must be non-negative", rg.alpha)
	}
	r, c, err := validateXY("Ridge.Fit", X, y)
	if err != nil {
		return err
	}
	rg.state.Reset()
	data := center(X, y, rg.fitIntercept)

	var xtx mat.SymDense
	xtx.SymOuterK(1, data.A.T())
	for i := 0; i < c; i++ {
		xtx.SetSym(i, i, xtx.At(i, i)+rg.alpha)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return errors.NewModelError("Ridge.Fit", "XᵀX + αI is not positive definite; increase alpha", errors.ErrSingularMatrix)
	}

	var xty mat.VecDense
	xty.MulVec(data.A.T(), data.y)

	coef := mat.NewVecDense(c, nil)
	if err := chol.SolveVecTo(coef, &xty); err != nil {
		return errors.NewModelError("Ridge.Fit", "cholesky solve failed", err)
	}
	if err := errors.CheckMatrix("Ridge.Fit", coef); err != nil {
		return err
	}

	rg.coef = coef
	rg.intercept = interceptFor(data, coef, rg.fitIntercept)
	rg.state.SetDimensions(c, r)
	rg.state.SetFitted()

	log.GetLoggerWithName("linear.ridge").Debug("model fitted",
		log.ModelNameKey, "Ridge",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は入力データに対する予測を n×1 で返す
func (rg *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	return rg.predict("Ridge", X)
}

// Score はモデルの決定係数（R²）を計算する
func (rg *Ridge) Score(X, y mat.Matrix) (float64, error) {
	return rg.score("Ridge", X, y)
}

// Coef は学習された重み（係数）を返す
func (rg *Ridge) Coef() []float64 { return rg.coefSlice() }

// Intercept は学習された切片を返す
func (rg *Ridge) Intercept() float64 { return rg.intercept }

// GetParams はハイパーパラメータを返す
func (rg *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{"alpha": rg.alpha, "fit_intercept": rg.fitIntercept}
}

// SetParams はハイパーパラメータを設定し、モデルを未学習状態に戻す
func (rg *Ridge) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		switch k {
		case "alpha":
			a, err := model.ParamFloat(k, v)
			if err != nil {
				return err
			}
			if a < 0 {
				return errors.NewValidationError(k, "must be non-negative", v)
			}
			rg.alpha = a
		case "fit_intercept":
			b, err := model.ParamBool(k, v)
			if err != nil {
				return err
			}
			rg.fitIntercept = b
		default:
			return model.UnknownParam("Ridge", k, v)
		}
	}
	rg.state.Reset()
	return nil
}

// Clone は同じパラメータの未学習モデルを返す
func (rg *Ridge) Clone() model.Regressor {
	return NewRidge(WithAlpha(rg.alpha), WithFitIntercept(rg.fitIntercept))
}

// ExportWeights は係数を特徴量名つきで ModelWeights に書き出す
func (rg *Ridge) ExportWeights(features []string) (*model.ModelWeights, error) {
	return rg.weights("Ridge", features, rg.GetParams())
}

// GobEncode implements gob.GobEncoder so model.SaveModel can persist the model.
func (rg *Ridge) GobEncode() ([]byte, error) {
	return encodeState(gobState{
		Params:    rg.GetParams(),
		State:     rg.state.GetState(),
		Coef:      rg.coefSlice(),
		Intercept: rg.intercept,
	})
}

// GobDecode implements gob.GobDecoder.
func (rg *Ridge) GobDecode(data []byte) error {
	g, err := decodeState(data)
	if err != nil {
		return err
	}
	if v, ok := g.Params["alpha"].(float64); ok {
		rg.alpha = v
	}
	if v, ok := g.Params["fit_intercept"].(bool); ok {
		rg.fitIntercept = v
	}
	rg.restore(g)
	return nil
}
