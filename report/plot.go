package report

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// PlotPredictions saves a predicted-vs-actual scatter with the y = x line.
// The image format follows the extension of path (.png, .svg, .pdf, ...).
func PlotPredictions(path, title string, actual, predicted []float64) error {
	if len(actual) != len(predicted) {
		return errors.NewDimensionError("PlotPredictions", len(actual), len(predicted), 0)
	}
	if len(actual) == 0 {
		return errors.WithStack(errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(actual))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range actual {
		pts[i] = plotter.XY{X: actual[i], Y: predicted[i]}
		lo = math.Min(lo, math.Min(actual[i], predicted[i]))
		hi = math.Max(hi, math.Max(actual[i], predicted[i]))
	}

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "scatter")
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(2)

	ideal, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "identity line")
	}
	ideal.LineStyle.Width = vg.Points(1)
	ideal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(s, ideal, plotter.NewGrid())
	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}

	log.GetLoggerWithName("report.plot").Info("plot written",
		log.PathKey, path,
		log.SamplesKey, len(actual),
	)
	return nil
}
