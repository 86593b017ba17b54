// Package preprocessing provides column scalers usable as Pipeline steps.
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/pkg/errors"
)

// 定数特徴量とみなすスケールの閾値
const constantTol = 1e-8

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する（母標準偏差を使用）
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

var _ model.Transformer = (*StandardScaler)(nil)

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := errors.CheckMatrix("StandardScaler.Fit", X); err != nil {
		return err
	}
	s.state.Reset()

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		if s.WithMean {
			var sum float64
			for _, v := range col {
				sum += v
			}
			s.Mean[j] = sum / float64(r)
		}

		s.Scale[j] = 1
		if s.WithStd {
			// WithMean=false でも分散は平均まわりで計算する
			var sum, sumSquares float64
			for _, v := range col {
				sum += v
			}
			mean := sum / float64(r)
			for _, v := range col {
				sumSquares += (v - mean) * (v - mean)
			}
			if std := math.Sqrt(sumSquares / float64(r)); std >= constantTol {
				s.Scale[j] = std
			}
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.check("Transform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.check("InverseTransform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

func (s *StandardScaler) check(method string, X mat.Matrix) error {
	if err := s.state.RequireFitted("StandardScaler", method); err != nil {
		return err
	}
	_, c := X.Dims()
	return s.state.RequireFeatures("StandardScaler."+method, c)
}

// Clone は同じパラメータの未学習スケーラーを返す
func (s *StandardScaler) Clone() model.Transformer {
	return NewStandardScaler(s.WithMean, s.WithStd)
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// SetParams はパラメータを設定し、未学習状態に戻す
func (s *StandardScaler) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		b, err := model.ParamBool(k, v)
		if err != nil {
			return err
		}
		switch k {
		case "with_mean":
			s.WithMean = b
		case "with_std":
			s.WithStd = b
		default:
			return model.UnknownParam("StandardScaler", k, v)
		}
	}
	s.state.Reset()
	return nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.state.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量のスケール (max - min)、定数特徴量では1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

var _ model.Transformer = (*MinMaxScaler)(nil)

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[0] >= m.FeatureRange[1] {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	if err := errors.CheckMatrix("MinMaxScaler.Fit", X); err != nil {
		return err
	}
	m.state.Reset()

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi
		m.Scale[j] = hi - lo
		if m.Scale[j] < constantTol {
			m.Scale[j] = 1
		}
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.check("Transform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.check("InverseTransform", X); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	width := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

func (m *MinMaxScaler) check(method string, X mat.Matrix) error {
	if err := m.state.RequireFitted("MinMaxScaler", method); err != nil {
		return err
	}
	_, c := X.Dims()
	return m.state.RequireFeatures("MinMaxScaler."+method, c)
}

// Clone は同じパラメータの未学習スケーラーを返す
func (m *MinMaxScaler) Clone() model.Transformer {
	return NewMinMaxScaler(m.FeatureRange)
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// SetParams は feature_range を設定する。[2]float64 または長さ2のスライスを受け付ける
func (m *MinMaxScaler) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		if k != "feature_range" {
			return model.UnknownParam("MinMaxScaler", k, v)
		}
		fr, err := featureRange(v)
		if err != nil {
			return err
		}
		m.FeatureRange = fr
	}
	m.state.Reset()
	return nil
}

func featureRange(v interface{}) ([2]float64, error) {
	var out [2]float64
	switch t := v.(type) {
	case [2]float64:
		return t, nil
	case []float64:
		if len(t) == 2 {
			copy(out[:], t)
			return out, nil
		}
	case []interface{}:
		if len(t) == 2 {
			for i, x := range t {
				f, err := model.ParamFloat("feature_range", x)
				if err != nil {
					return out, err
				}
				out[i] = f
			}
			return out, nil
		}
	}
	return out, errors.NewValidationError("feature_range", "expected two numbers", v)
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.state.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	nFeatures, _ := m.state.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], nFeatures)
}
