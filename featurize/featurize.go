// Package featurize turns dataset fields into numeric feature blocks.
//
// Converters append derived fields to a frame in place (formula to
// composition, composition to oxidation-state composition). Featurizers read
// one field and return a matrix with one row per dataset row.
package featurize

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/pkg/errors"
)

// Featurizer produces a numeric block from a frame.
type Featurizer interface {
	// FeatureLabels names the output columns.
	FeatureLabels() []string
	// Featurize returns a df.Len() × len(FeatureLabels()) matrix.
	Featurize(df *dataset.Frame) (*mat.Dense, error)
}

// FrameFitter is implemented by frame-side components that learn something
// from the training frame before featurizing.
type FrameFitter interface {
	Fit(df *dataset.Frame, y mat.Vector) error
}

// inputColumn resolves the field a featurizer reads. An empty name means the
// frame's only field, which is what a column selector produces.
func inputColumn(df *dataset.Frame, name, featurizer string) (string, error) {
	if name != "" {
		if !df.Has(name) {
			return "", errors.NewMissingFieldError(name, df.Names())
		}
		return name, nil
	}
	if df.Width() != 1 {
		return "", errors.NewValidationError(featurizer+".Column",
			"no field named and the frame does not have exactly one field", df.Names())
	}
	return df.Names()[0], nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
