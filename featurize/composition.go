package featurize

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/matpipe/matpipe/chem"
	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/pkg/errors"
)

// Element properties understood by ElementProperty.
const (
	PropNumber            = "Number"
	PropAtomicWeight      = "AtomicWeight"
	PropRow               = "Row"
	PropColumn            = "Column"
	PropElectronegativity = "Electronegativity"
)

// Statistics understood by ElementProperty and OxidationStates.
const (
	StatMinimum = "minimum"
	StatMaximum = "maximum"
	StatRange   = "range"
	StatMean    = "mean"
	StatAvgDev  = "avg_dev"
	StatMode    = "mode"
	StatStdDev  = "std_dev"
)

var (
	defaultProperties = []string{PropNumber, PropAtomicWeight, PropRow, PropColumn, PropElectronegativity}
	elementStats      = []string{StatMinimum, StatMaximum, StatRange, StatMean, StatAvgDev, StatMode}
)

func elementValue(e chem.Element, prop string) float64 {
	switch prop {
	case PropNumber:
		return float64(e.Z)
	case PropAtomicWeight:
		return e.AtomicMass
	case PropRow:
		return float64(e.Row())
	case PropColumn:
		return float64(e.Group)
	case PropElectronegativity:
		return e.Electronegativity
	}
	return math.NaN()
}

// ElementProperty computes fraction-weighted statistics of elemental
// properties over a composition. Labels are "<stat> <property>", properties
// outermost.
type ElementProperty struct {
	Column     string
	Properties []string
	Stats      []string
}

// NewElementProperty validates the property and statistic names. Empty lists
// select every supported property or statistic.
func NewElementProperty(column string, properties, stats []string) (*ElementProperty, error) {
	ep := &ElementProperty{Column: column, Properties: properties, Stats: stats}
	if err := ep.validate(); err != nil {
		return nil, err
	}
	return ep, nil
}

func (ep *ElementProperty) properties() []string {
	if len(ep.Properties) == 0 {
		return defaultProperties
	}
	return ep.Properties
}

func (ep *ElementProperty) stats() []string {
	if len(ep.Stats) == 0 {
		return elementStats
	}
	return ep.Stats
}

func (ep *ElementProperty) validate() error {
	for _, p := range ep.properties() {
		if !containsString(defaultProperties, p) {
			return errors.NewValueError("ElementProperty", "undefined element property "+p)
		}
	}
	for _, s := range ep.stats() {
		if !containsString(elementStats, s) {
			return errors.NewValueError("ElementProperty", "undefined statistic "+s)
		}
	}
	return nil
}

func (ep *ElementProperty) FeatureLabels() []string {
	var labels []string
	for _, p := range ep.properties() {
		for _, s := range ep.stats() {
			labels = append(labels, s+" "+p)
		}
	}
	return labels
}

func (ep *ElementProperty) Featurize(df *dataset.Frame) (*mat.Dense, error) {
	if err := ep.validate(); err != nil {
		return nil, err
	}
	name, err := inputColumn(df, ep.Column, "ElementProperty")
	if err != nil {
		return nil, err
	}
	comps, err := df.Compositions(name)
	if err != nil {
		return nil, err
	}

	props, stats := ep.properties(), ep.stats()
	out := mat.NewDense(max(len(comps), 1), len(props)*len(stats), nil)
	row := make([]float64, len(props)*len(stats))
	for i, c := range comps {
		symbols := c.Elements()
		if len(symbols) == 0 {
			return nil, errors.Wrapf(errors.NewValueError("ElementProperty", "empty composition"), "row %d", i)
		}
		fractions := make([]float64, len(symbols))
		values := make([]float64, len(symbols))
		for k, s := range symbols {
			fractions[k] = c.Fraction(s)
		}
		col := 0
		for _, p := range props {
			for k, s := range symbols {
				e, _ := chem.Lookup(s)
				values[k] = elementValue(e, p)
			}
			for _, st := range stats {
				row[col] = propertyStat(st, values, fractions)
				col++
			}
		}
		out.SetRow(i, row)
	}
	return shrink(out, len(comps)), nil
}

// propertyStat computes one statistic of values weighted by fractions.
// A nil weight slice weights every value equally.
func propertyStat(name string, values, weights []float64) float64 {
	switch name {
	case StatMinimum:
		return floatsMin(values)
	case StatMaximum:
		return floatsMax(values)
	case StatRange:
		return floatsMax(values) - floatsMin(values)
	case StatMean:
		return stat.Mean(values, weights)
	case StatAvgDev:
		mean := stat.Mean(values, weights)
		dev := make([]float64, len(values))
		for i, v := range values {
			dev[i] = math.Abs(v - mean)
		}
		return stat.Mean(dev, weights)
	case StatMode:
		best := 0
		for i := 1; i < len(values); i++ {
			wi, wb := 1.0, 1.0
			if weights != nil {
				wi, wb = weights[i], weights[best]
			}
			if wi > wb || (wi == wb && values[i] < values[best]) {
				best = i
			}
		}
		return values[best]
	case StatStdDev:
		if len(values) < 2 {
			return 0
		}
		return stat.StdDev(values, weights)
	}
	return math.NaN()
}

func floatsMin(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Min(m, x)
	}
	return m
}

func floatsMax(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Max(m, x)
	}
	return m
}
