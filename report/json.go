package report

import (
	"encoding/json"

	"github.com/matpipe/matpipe/metrics"
)

// Metric values in stored runs go through metrics.Value so that NaN or
// infinite scores do not make encoding/json fail.

type metricsJSON struct {
	R2   metrics.Value `json:"r2"`
	RMSE metrics.Value `json:"rmse"`
	MAE  metrics.Value `json:"mae"`
}

func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricsJSON{R2: metrics.Value(m.R2), RMSE: metrics.Value(m.RMSE), MAE: metrics.Value(m.MAE)})
}

func (m *Metrics) UnmarshalJSON(data []byte) error {
	var mj metricsJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	*m = Metrics{R2: float64(mj.R2), RMSE: float64(mj.RMSE), MAE: float64(mj.MAE)}
	return nil
}

type cvSummaryJSON struct {
	Scoring string          `json:"scoring"`
	Scores  []metrics.Value `json:"scores"`
	Mean    metrics.Value   `json:"mean"`
	Std     metrics.Value   `json:"std"`
}

func (c CVSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(cvSummaryJSON{
		Scoring: c.Scoring,
		Scores:  metrics.Values(c.Scores),
		Mean:    metrics.Value(c.Mean),
		Std:     metrics.Value(c.Std),
	})
}

func (c *CVSummary) UnmarshalJSON(data []byte) error {
	var cj cvSummaryJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	*c = CVSummary{Scoring: cj.Scoring, Scores: metrics.Floats(cj.Scores), Mean: float64(cj.Mean), Std: float64(cj.Std)}
	return nil
}

type bandViolationJSON struct {
	Metric string        `json:"metric"`
	Value  metrics.Value `json:"value"`
	Min    float64       `json:"min"`
	Max    float64       `json:"max"`
}

func (b BandViolation) MarshalJSON() ([]byte, error) {
	return json.Marshal(bandViolationJSON{Metric: b.Metric, Value: metrics.Value(b.Value), Min: b.Min, Max: b.Max})
}

func (b *BandViolation) UnmarshalJSON(data []byte) error {
	var bj bandViolationJSON
	if err := json.Unmarshal(data, &bj); err != nil {
		return err
	}
	*b = BandViolation{Metric: bj.Metric, Value: float64(bj.Value), Min: bj.Min, Max: bj.Max}
	return nil
}
