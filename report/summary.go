package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/matpipe/matpipe/config"
)

// BandViolation is a metric outside its configured sanity band.
type BandViolation struct {
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

func (b BandViolation) String() string {
	return fmt.Sprintf("%s = %.4f outside [%g, %g]", b.Metric, b.Value, b.Min, b.Max)
}

// CheckBands returns the training metrics that fall outside the bands of cfg.
// NaN values always violate.
func CheckBands(m Metrics, cfg config.ReportConfig) []BandViolation {
	var out []BandViolation
	check := func(name string, v, lo, hi float64) {
		if !(v >= lo && v <= hi) {
			out = append(out, BandViolation{Metric: name, Value: v, Min: lo, Max: hi})
		}
	}
	check("r2", m.R2, cfg.R2Min, cfg.R2Max)
	check("rmse", m.RMSE, cfg.RMSEMin, cfg.RMSEMax)
	return out
}

// Summary writes a human readable summary of r.
func Summary(w io.Writer, r *Run) error {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", r.ID)
	fmt.Fprintf(&b, "%-14s %s (%d samples, %d features)\n", "dataset", r.Dataset, r.Samples, r.Features)
	fmt.Fprintf(&b, "%-14s %.4f\n", "training R2", r.Training.R2)
	fmt.Fprintf(&b, "%-14s %.4f\n", "training RMSE", r.Training.RMSE)
	fmt.Fprintf(&b, "%-14s %.4f\n", "training MAE", r.Training.MAE)

	if cv := r.CV; cv != nil {
		fmt.Fprintf(&b, "cv %s over %d folds: %.4f ± %.4f\n", cv.Scoring, len(cv.Scores), cv.Mean, cv.Std)
		for i, s := range cv.Scores {
			fmt.Fprintf(&b, "  fold %2d  %.4f\n", i, s)
		}
	}

	if s := r.Search; s != nil && len(s.Candidates) > 0 {
		best := s.Best()
		fmt.Fprintf(&b, "search %d candidates, %d fits, best %s %.4f ± %.4f\n",
			len(s.Candidates), s.NFits, s.Scoring, best.Mean, best.Std)
		keys := make([]string, 0, len(best.Params))
		for k := range best.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s = %v\n", k, best.Params[k])
		}
	}

	for _, v := range r.Bands {
		fmt.Fprintf(&b, "warning: %s\n", v)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
