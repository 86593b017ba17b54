package featurize

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/pkg/errors"
)

var oxidationStats = []string{StatMinimum, StatMaximum, StatRange, StatStdDev}

// OxidationStates summarises the oxidation states of a composition's species:
// minimum, maximum, range and sample standard deviation (0 for a single
// species).
type OxidationStates struct {
	Column string
}

func (o OxidationStates) FeatureLabels() []string {
	labels := make([]string, len(oxidationStats))
	for i, s := range oxidationStats {
		labels[i] = s + " oxidation state"
	}
	return labels
}

func (o OxidationStates) Featurize(df *dataset.Frame) (*mat.Dense, error) {
	name, err := inputColumn(df, o.Column, "OxidationStates")
	if err != nil {
		return nil, err
	}
	comps, err := df.OxidCompositions(name)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(max(len(comps), 1), len(oxidationStats), nil)
	row := make([]float64, len(oxidationStats))
	for i, c := range comps {
		states := c.States()
		if len(states) == 0 {
			return nil, errors.Wrapf(errors.NewValueError("OxidationStates", "empty composition"), "row %d", i)
		}
		for k, s := range oxidationStats {
			row[k] = propertyStat(s, states, nil)
		}
		out.SetRow(i, row)
	}
	return shrink(out, len(comps)), nil
}
