package model

import "gonum.org/v1/gonum/mat"

// Transformer はデータ変換のインターフェース
//
// Pipeline の中間ステップはすべて Transformer でなければならない。
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)

	// Clone は同じパラメータを持つ未学習のコピーを返す
	Clone() Transformer
}
