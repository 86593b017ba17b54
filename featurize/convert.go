package featurize

import (
	"time"

	"github.com/matpipe/matpipe/chem"
	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// StrToComposition parses a formula field into a composition field.
type StrToComposition struct {
	Source string // default "formula"
	Target string // default "composition"
}

// Convert appends the composition field to df in place. The first formula
// that fails to parse aborts the conversion.
func (c StrToComposition) Convert(df *dataset.Frame) error {
	src, dst := orDefault(c.Source, "formula"), orDefault(c.Target, "composition")
	start := time.Now()

	formulas, err := df.Strings(src)
	if err != nil {
		return err
	}
	out := make([]chem.Composition, len(formulas))
	for i, f := range formulas {
		out[i], err = chem.ParseFormula(f)
		if err != nil {
			return errors.Wrapf(err, "StrToComposition: field %s row %d", src, i)
		}
	}
	if err := df.Add(dataset.NewSeries(dst, out)); err != nil {
		return err
	}

	log.GetLoggerWithName("featurize.convert").Debug("field converted",
		log.OperationKey, log.OperationConvert,
		log.FieldKey, dst,
		log.SamplesKey, len(out),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// CompositionToOxidComposition guesses oxidation states for a composition field.
type CompositionToOxidComposition struct {
	Source string // default "composition"
	Target string // default "composition_oxid"
}

// Convert appends the oxidation-state composition field to df in place.
func (c CompositionToOxidComposition) Convert(df *dataset.Frame) error {
	src, dst := orDefault(c.Source, "composition"), orDefault(c.Target, "composition_oxid")
	start := time.Now()

	comps, err := df.Compositions(src)
	if err != nil {
		return err
	}
	out := make([]chem.OxidComposition, len(comps))
	for i, comp := range comps {
		if comp.Len() == 0 {
			return errors.Wrapf(errors.NewValueError("CompositionToOxidComposition", "empty composition"),
				"field %s row %d", src, i)
		}
		out[i] = chem.GuessOxidationStates(comp)
	}
	if err := df.Add(dataset.NewSeries(dst, out)); err != nil {
		return err
	}

	log.GetLoggerWithName("featurize.convert").Debug("field converted",
		log.OperationKey, log.OperationConvert,
		log.FieldKey, dst,
		log.SamplesKey, len(out),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
