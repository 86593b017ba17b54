package pipeline

import (
	"context"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/parallel"
	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/featurize"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// NamedFrameStep is one named step of a FeaturePipeline.
type NamedFrameStep struct {
	Name string
	Step FrameStep
}

// FeaturePipeline applies frame steps in order and featurizes the result.
type FeaturePipeline struct {
	Steps      []NamedFrameStep
	Featurizer featurize.Featurizer
}

// NewFeaturePipeline validates step names and builds a FeaturePipeline.
func NewFeaturePipeline(final featurize.Featurizer, steps ...NamedFrameStep) (*FeaturePipeline, error) {
	if final == nil {
		return nil, errors.NewValidationError("featurizer", "feature pipeline needs a featurizer", nil)
	}
	names := make([]string, len(steps))
	for i, s := range steps {
		if s.Step == nil {
			return nil, errors.NewValidationError(s.Name, "step is nil", nil)
		}
		names[i] = s.Name
	}
	if err := checkNames(names); err != nil {
		return nil, err
	}
	return &FeaturePipeline{Steps: steps, Featurizer: final}, nil
}

// Select returns a FeaturePipeline reading a single field.
func Select(field string, final featurize.Featurizer) *FeaturePipeline {
	return &FeaturePipeline{
		Steps:      []NamedFrameStep{{Name: "select", Step: ColumnSelector{Field: field}}},
		Featurizer: final,
	}
}

// Exclude returns a FeaturePipeline that drops fields before featurizing.
func Exclude(fields []string, final featurize.Featurizer) *FeaturePipeline {
	return &FeaturePipeline{
		Steps:      []NamedFrameStep{{Name: "drop", Step: ColumnDropper{Fields: fields}}},
		Featurizer: final,
	}
}

func (p *FeaturePipeline) FeatureLabels() []string {
	return p.Featurizer.FeatureLabels()
}

func (p *FeaturePipeline) transform(df *dataset.Frame) (*dataset.Frame, error) {
	cur := df
	for _, s := range p.Steps {
		next, err := s.Step.Transform(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", s.Name)
		}
		cur = next
	}
	return cur, nil
}

// Fit fits every step and the featurizer that can be fitted, feeding each
// step's output forward.
func (p *FeaturePipeline) Fit(df *dataset.Frame, y mat.Vector) error {
	cur := df
	for _, s := range p.Steps {
		if f, ok := s.Step.(featurize.FrameFitter); ok {
			if err := f.Fit(cur, y); err != nil {
				return errors.Wrapf(err, "step %s", s.Name)
			}
		}
		next, err := s.Step.Transform(cur)
		if err != nil {
			return errors.Wrapf(err, "step %s", s.Name)
		}
		cur = next
	}
	if f, ok := p.Featurizer.(featurize.FrameFitter); ok {
		return f.Fit(cur, y)
	}
	return nil
}

// Featurize runs the steps and the featurizer. The block must keep one row
// per input row.
func (p *FeaturePipeline) Featurize(df *dataset.Frame) (*mat.Dense, error) {
	cur, err := p.transform(df)
	if err != nil {
		return nil, err
	}
	X, err := p.Featurizer.Featurize(cur)
	if err != nil {
		return nil, err
	}
	if r, _ := X.Dims(); r != df.Len() {
		return nil, errors.NewDimensionError("FeaturePipeline.Featurize", df.Len(), r, 0)
	}
	return X, nil
}

// Block is one named member of a FeatureUnion.
type Block struct {
	Name       string
	Featurizer featurize.Featurizer
}

// FeatureUnion featurizes the same frame with every block and concatenates
// the blocks horizontally in declared order.
type FeatureUnion struct {
	blocks []Block
	// NJobs bounds how many blocks run at once; <= 0 means one per CPU.
	NJobs int
}

// NewFeatureUnion validates block names and builds a union.
func NewFeatureUnion(blocks ...Block) (*FeatureUnion, error) {
	if len(blocks) == 0 {
		return nil, errors.NewValidationError("blocks", "feature union needs at least one block", 0)
	}
	names := make([]string, len(blocks))
	for i, b := range blocks {
		if b.Featurizer == nil {
			return nil, errors.NewValidationError(b.Name, "block featurizer is nil", nil)
		}
		names[i] = b.Name
	}
	if err := checkNames(names); err != nil {
		return nil, err
	}
	return &FeatureUnion{blocks: append([]Block(nil), blocks...), NJobs: 1}, nil
}

// Blocks returns the members in declared order.
func (u *FeatureUnion) Blocks() []Block {
	return append([]Block(nil), u.blocks...)
}

// FeatureLabels returns "<block>__<label>" for every output column.
func (u *FeatureUnion) FeatureLabels() []string {
	var labels []string
	for _, b := range u.blocks {
		for _, l := range b.Featurizer.FeatureLabels() {
			labels = append(labels, b.Name+"__"+l)
		}
	}
	return labels
}

// Fit forwards to every block that can be fitted.
func (u *FeatureUnion) Fit(df *dataset.Frame, y mat.Vector) error {
	for _, b := range u.blocks {
		if f, ok := b.Featurizer.(featurize.FrameFitter); ok {
			if err := f.Fit(df, y); err != nil {
				return errors.Wrapf(err, "block %s", b.Name)
			}
		}
	}
	return nil
}

// Featurize returns a df.Len() × Σk matrix. Any block whose row count
// differs from df.Len() aborts the union with a DimensionError naming it.
func (u *FeatureUnion) Featurize(df *dataset.Frame) (*mat.Dense, error) {
	logger := log.GetLoggerWithName("pipeline.union")
	outs := make([]*mat.Dense, len(u.blocks))

	err := parallel.ForEach(context.Background(), u.NJobs, len(u.blocks), func(_ context.Context, i int) error {
		b := u.blocks[i]
		start := time.Now()
		X, err := b.Featurizer.Featurize(df)
		if err != nil {
			return errors.Wrapf(err, "block %s", b.Name)
		}
		r, c := X.Dims()
		if r != df.Len() {
			return errors.NewDimensionError("FeatureUnion block "+b.Name, df.Len(), r, 0)
		}
		logger.Debug("block featurized",
			log.OperationKey, log.OperationFeaturize,
			log.BlockKey, b.Name,
			log.SamplesKey, r,
			log.FeaturesKey, c,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
		outs[i] = X
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, X := range outs {
		_, c := X.Dims()
		total += c
	}
	if df.Len() == 0 || total == 0 {
		return nil, errors.WithStack(errors.ErrEmptyData)
	}
	out := mat.NewDense(df.Len(), total, nil)
	col := 0
	for _, X := range outs {
		_, c := X.Dims()
		if c == 0 {
			continue
		}
		out.Slice(0, df.Len(), col, col+c).(*mat.Dense).Copy(X)
		col += c
	}
	logger.Info("features assembled",
		log.OperationKey, log.OperationFeaturize,
		log.SamplesKey, df.Len(),
		log.FeaturesKey, total,
	)
	return out, nil
}

func checkNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return errors.NewValidationError("name", "step names must not be empty", n)
		}
		if strings.Contains(n, "__") {
			return errors.NewValidationError("name", "step names must not contain \"__\"", n)
		}
		if _, dup := seen[n]; dup {
			return errors.NewValidationError("name", "duplicate step name", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}
