package pipeline

import (
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/core/model"
	"github.com/matpipe/matpipe/pkg/errors"
	"github.com/matpipe/matpipe/pkg/log"
)

// Step is one named stage of a Pipeline. Estimator is a model.Transformer
// or, for the last step only, a model.Regressor.
type Step struct {
	Name      string
	Estimator interface{}
}

// Pipeline chains matrix transformers and an optional final regressor.
type Pipeline struct {
	steps []Step
	state *model.StateManager
}

var _ model.Regressor = (*Pipeline)(nil)

// NewPipeline validates the steps and builds an unfitted pipeline.
func NewPipeline(steps ...Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errors.NewValidationError("steps", "pipeline needs at least one step", 0)
	}
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
		if err := checkStep(s, i == len(steps)-1); err != nil {
			return nil, err
		}
	}
	if err := checkNames(names); err != nil {
		return nil, err
	}
	return &Pipeline{steps: append([]Step(nil), steps...), state: model.NewStateManager()}, nil
}

func checkStep(s Step, last bool) error {
	switch s.Estimator.(type) {
	case model.Transformer:
		return nil
	case model.Regressor:
		if last {
			return nil
		}
		return errors.NewValidationError(s.Name, "only the last step may be a regressor", s.Estimator)
	default:
		return errors.NewValidationError(s.Name, "step is neither a transformer nor a regressor", s.Estimator)
	}
}

// Steps returns the steps in order.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

// Named returns the estimator of the named step.
func (p *Pipeline) Named(name string) (interface{}, bool) {
	for _, s := range p.steps {
		if s.Name == name {
			return s.Estimator, true
		}
	}
	return nil, false
}

func (p *Pipeline) final() (model.Regressor, bool) {
	r, ok := p.steps[len(p.steps)-1].Estimator.(model.Regressor)
	return r, ok
}

func (p *Pipeline) transformers() []Step {
	if _, ok := p.final(); ok {
		return p.steps[:len(p.steps)-1]
	}
	return p.steps
}

// Fit fits each transformer on the output of the previous one and the final
// regressor on the fully transformed matrix. Every step sees the same y.
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	logger := log.GetLoggerWithName("pipeline")
	start := time.Now()
	p.state.Reset()

	cur := X
	for _, s := range p.transformers() {
		t := s.Estimator.(model.Transformer)
		next, err := t.FitTransform(cur)
		if err != nil {
			return errors.Wrapf(err, "step %s", s.Name)
		}
		cur = next
	}
	if reg, ok := p.final(); ok {
		if err := reg.Fit(cur, y); err != nil {
			return errors.Wrapf(err, "step %s", p.steps[len(p.steps)-1].Name)
		}
	}

	r, c := X.Dims()
	p.state.SetDimensions(c, r)
	p.state.SetFitted()
	logger.Debug("pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

func (p *Pipeline) transform(X mat.Matrix, method string) (mat.Matrix, error) {
	if err := p.state.RequireFitted("Pipeline", method); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := p.state.RequireFeatures("Pipeline."+method, c); err != nil {
		return nil, err
	}
	cur := X
	for _, s := range p.transformers() {
		next, err := s.Estimator.(model.Transformer).Transform(cur)
		if err != nil {
			return nil, errors.Wrapf(err, "step %s", s.Name)
		}
		cur = next
	}
	return cur, nil
}

// Transform applies every transformer. It is only valid when the last step
// is a transformer.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if _, ok := p.final(); ok {
		return nil, errors.NewValueError("Pipeline.Transform", "last step is a regressor; use Predict")
	}
	return p.transform(X, "Transform")
}

// Predict transforms X and predicts with the final regressor.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	reg, ok := p.final()
	if !ok {
		return nil, errors.NewValueError("Pipeline.Predict", "last step is not a regressor")
	}
	Xt, err := p.transform(X, "Predict")
	if err != nil {
		return nil, err
	}
	return reg.Predict(Xt)
}

// Score returns the final regressor's R² on the transformed X.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	reg, ok := p.final()
	if !ok {
		return 0, errors.NewValueError("Pipeline.Score", "last step is not a regressor")
	}
	Xt, err := p.transform(X, "Score")
	if err != nil {
		return 0, err
	}
	return reg.Score(Xt, y)
}

// GetParams returns every step parameter as "<step>__<param>".
func (p *Pipeline) GetParams() map[string]interface{} {
	out := make(map[string]interface{})
	for _, s := range p.steps {
		g, ok := s.Estimator.(model.ParameterGetter)
		if !ok {
			continue
		}
		for k, v := range g.GetParams() {
			out[s.Name+"__"+k] = v
		}
	}
	return out
}

// SetParams routes "<step>__<param>" keys to their step. A bare step name
// replaces the step's estimator with an unfitted clone of the given value.
// Keys are applied in sorted order to copies of the affected steps; the
// pipeline is only updated when every key succeeds.
func (p *Pipeline) SetParams(params map[string]interface{}) error {
	steps := append([]Step(nil), p.steps...)
	replaced := make([]bool, len(steps))
	perStep := make(map[string]map[string]interface{})
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		stepName, param, nested := strings.Cut(k, "__")
		idx := p.index(stepName)
		if idx < 0 {
			return errors.NewValidationError(k, "no pipeline step named "+stepName, params[k])
		}
		if !nested {
			s := Step{Name: stepName, Estimator: cloneEstimator(params[k])}
			if err := checkStep(s, idx == len(steps)-1); err != nil {
				return err
			}
			steps[idx] = s
			replaced[idx] = true
			continue
		}
		if perStep[stepName] == nil {
			perStep[stepName] = make(map[string]interface{})
		}
		perStep[stepName][param] = params[k]
	}

	for i, s := range steps {
		ps, ok := perStep[s.Name]
		if !ok {
			continue
		}
		est := s.Estimator
		if !replaced[i] {
			est = cloneEstimator(est)
		}
		setter, ok := est.(model.ParameterSetter)
		if !ok {
			return errors.NewValidationError(s.Name, "step does not accept parameters", ps)
		}
		if err := setter.SetParams(ps); err != nil {
			return errors.Wrapf(err, "step %s", s.Name)
		}
		steps[i] = Step{Name: s.Name, Estimator: est}
	}

	p.steps = steps
	p.state.Reset()
	return nil
}

// cloneEstimator returns an unfitted copy of a step estimator. Values that are
// neither regressors nor transformers are returned as is for checkStep to reject.
func cloneEstimator(v interface{}) interface{} {
	switch e := v.(type) {
	case model.Regressor:
		return e.Clone()
	case model.Transformer:
		return e.Clone()
	}
	return v
}

func (p *Pipeline) index(name string) int {
	for i, s := range p.steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns an unfitted pipeline whose steps are unfitted clones.
func (p *Pipeline) Clone() model.Regressor {
	steps := make([]Step, len(p.steps))
	for i, s := range p.steps {
		steps[i] = Step{Name: s.Name, Estimator: cloneEstimator(s.Estimator)}
	}
	return &Pipeline{steps: steps, state: model.NewStateManager()}
}
