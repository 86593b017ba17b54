// Package report records, summarizes and plots the outcome of a run.
package report

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/config"
	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/metrics"
	"github.com/matpipe/matpipe/selection"
)

// Metrics are regression metrics of one set of predictions.
type Metrics struct {
	R2   float64 `json:"r2"`
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
}

// ComputeMetrics evaluates n×1 true and predicted targets.
func ComputeMetrics(yTrue, yPred mat.Matrix) (Metrics, error) {
	var m Metrics
	var err error
	if m.R2, err = metrics.R2ScoreMatrix(yTrue, yPred); err != nil {
		return m, err
	}
	if m.RMSE, err = metrics.RMSEMatrix(yTrue, yPred); err != nil {
		return m, err
	}
	if m.MAE, err = metrics.MAEMatrix(yTrue, yPred); err != nil {
		return m, err
	}
	return m, nil
}

// CVSummary holds cross-validation scores in fold order.
type CVSummary struct {
	Scoring string    `json:"scoring"`
	Scores  []float64 `json:"scores"`
	Mean    float64   `json:"mean"`
	Std     float64   `json:"std"`
}

// NewCVSummary computes the mean and standard deviation of scores.
func NewCVSummary(scoring string, scores []float64) *CVSummary {
	mean, std := selection.MeanStd(scores)
	return &CVSummary{Scoring: scoring, Scores: scores, Mean: mean, Std: std}
}

// Run is one persisted execution of the elastic command.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Dataset  string `json:"dataset"`
	Samples  int    `json:"samples"`
	Features int    `json:"features"`

	Training Metrics                 `json:"training"`
	CV       *CVSummary              `json:"cv,omitempty"`
	Search   *selection.SearchResult `json:"search,omitempty"`
	Weights  *model.ModelWeights     `json:"weights,omitempty"`
	Config   *config.Config          `json:"config,omitempty"`
	Bands    []BandViolation         `json:"band_violations,omitempty"`
}

// NewRun returns a run with a fresh time-ordered ID.
func NewRun() *Run {
	return &Run{ID: newID(), CreatedAt: time.Now().UTC()}
}

// newID returns a version 7 UUID so that byte order follows creation time.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
