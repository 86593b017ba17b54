package featurize

import (
	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/dataset"
)

// DensityFeatures describes the packing of a structure: density (g/cm³),
// volume per atom (Å³) and the number of sites in the cell.
type DensityFeatures struct {
	Column string
}

func (d DensityFeatures) FeatureLabels() []string {
	return []string{"density", "vpa", "nsites"}
}

func (d DensityFeatures) Featurize(df *dataset.Frame) (*mat.Dense, error) {
	name, err := inputColumn(df, d.Column, "DensityFeatures")
	if err != nil {
		return nil, err
	}
	structures, err := df.Structures(name)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(max(len(structures), 1), 3, nil)
	for i, s := range structures {
		out.SetRow(i, []float64{s.Density(), s.VolumePerAtom(), float64(s.NumSites())})
	}
	return shrink(out, len(structures)), nil
}

// shrink drops the placeholder row used when n is 0, since mat.Dense cannot
// be created with zero rows.
func shrink(m *mat.Dense, n int) *mat.Dense {
	if n == 0 {
		return &mat.Dense{}
	}
	return m
}
