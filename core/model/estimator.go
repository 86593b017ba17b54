package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の目的変数。
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coef は学習された重み（係数）を返す
	Coef() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
	// Score はモデルの決定係数（R²）を計算する
	Score(X, y mat.Matrix) (float64, error)
}
