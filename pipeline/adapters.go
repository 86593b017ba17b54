// Package pipeline composes frame adapters, featurizers and matrix
// estimators.
//
// The frame side (ColumnSelector, ColumnDropper, FeaturePipeline,
// FeatureUnion) turns a dataset into a feature matrix. The matrix side
// (Pipeline) chains transformers and a final regressor, and is what
// cross-validation and the hyper-parameter searches clone and fit.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/featurize"
)

// FrameStep transforms a frame into another frame. Steps never modify
// their input.
type FrameStep interface {
	Transform(df *dataset.Frame) (*dataset.Frame, error)
}

// ColumnSelector keeps a single field.
type ColumnSelector struct {
	Field string
}

// Transform returns the field as a single-column frame. A missing field is a
// MissingFieldError.
func (s ColumnSelector) Transform(df *dataset.Frame) (*dataset.Frame, error) {
	return df.SelectFrame(s.Field)
}

// Select returns the field's values in row order.
func (s ColumnSelector) Select(df *dataset.Frame) (dataset.Column, error) {
	return df.Select(s.Field)
}

// Fit is a no-op; the selector has nothing to learn.
func (s ColumnSelector) Fit(*dataset.Frame, mat.Vector) error { return nil }

// ColumnDropper removes fields. Fields that are not present are ignored.
type ColumnDropper struct {
	Fields []string
}

func (d ColumnDropper) Transform(df *dataset.Frame) (*dataset.Frame, error) {
	return df.Drop(d.Fields...), nil
}

// Fit is a no-op; the dropper has nothing to learn.
func (d ColumnDropper) Fit(*dataset.Frame, mat.Vector) error { return nil }

// Identity passes the frame through unchanged.
type Identity struct{}

func (Identity) Transform(df *dataset.Frame) (*dataset.Frame, error) {
	return df, nil
}

var (
	_ FrameStep             = ColumnSelector{}
	_ FrameStep             = ColumnDropper{}
	_ FrameStep             = Identity{}
	_ featurize.FrameFitter = ColumnSelector{}
	_ featurize.FrameFitter = ColumnDropper{}
)
