// Package model defines the estimator and transformer contracts shared by the
// linear models, the scalers, the matrix pipeline and the model-selection
// utilities, together with fitted-state bookkeeping and persistence helpers.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters. Unknown keys are rejected.
	SetParams(params map[string]interface{}) error
}

// Regressor combines interfaces for regression models.
//
// Clone returns an unfitted estimator with the same parameters; the
// cross-validation and search utilities fit one clone per fold.
type Regressor interface {
	Fitter
	Predictor
	Scorer
	ParameterGetter
	ParameterSetter

	Clone() Regressor
}

// CloneParams returns a shallow copy of a parameter map.
func CloneParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
