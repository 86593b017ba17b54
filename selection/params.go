package selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/matpipe/matpipe/pkg/errors"
)

// ParamGrid maps parameter names ("model__alpha") to the values to try.
type ParamGrid map[string][]interface{}

// Len returns the number of candidates the grid expands to.
func (g ParamGrid) Len() int {
	n := 1
	for _, vs := range g {
		n *= len(vs)
	}
	return n
}

// Candidates expands the grid into its cartesian product. Keys are visited
// in sorted order and the last key varies fastest. An empty grid yields a
// single empty candidate.
func (g ParamGrid) Candidates() ([]map[string]interface{}, error) {
	keys := sortedKeys(g)
	for _, k := range keys {
		if len(g[k]) == 0 {
			return nil, errors.NewValidationError(k, "parameter grid entry has no values", g[k])
		}
	}

	out := make([]map[string]interface{}, 0, g.Len())
	idx := make([]int, len(keys))
	for {
		c := make(map[string]interface{}, len(keys))
		for i, k := range keys {
			c[k] = g[k][idx[i]]
		}
		out = append(out, c)

		// odometer increment, last key first
		i := len(keys) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g[keys[i]]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out, nil
		}
	}
}

// Distribution is a source of parameter values for RandomizedSearchCV.
type Distribution interface {
	Sample(r *rand.Rand) interface{}
	Validate() error
}

// Range is the uniform distribution on [Low, High).
type Range struct{ Low, High float64 }

func (d Range) Sample(r *rand.Rand) interface{} {
	return d.Low + r.Float64()*(d.High-d.Low)
}

func (d Range) Validate() error {
	if !(d.Low < d.High) {
		return errors.NewValidationError("range", "low must be smaller than high", d)
	}
	return nil
}

// LogRange is log-uniform on [Low, High), both positive.
type LogRange struct{ Low, High float64 }

func (d LogRange) Sample(r *rand.Rand) interface{} {
	lo, hi := math.Log(d.Low), math.Log(d.High)
	return math.Exp(lo + r.Float64()*(hi-lo))
}

func (d LogRange) Validate() error {
	if d.Low <= 0 || !(d.Low < d.High) {
		return errors.NewValidationError("log_range", "bounds must satisfy 0 < low < high", d)
	}
	return nil
}

// IntRange draws integers uniformly from [Low, High).
type IntRange struct{ Low, High int }

func (d IntRange) Sample(r *rand.Rand) interface{} {
	return d.Low + r.IntN(d.High-d.Low)
}

func (d IntRange) Validate() error {
	if d.Low >= d.High {
		return errors.NewValidationError("int_range", "low must be smaller than high", d)
	}
	return nil
}

// List draws one of its elements uniformly.
type List []interface{}

func (d List) Sample(r *rand.Rand) interface{} {
	return d[r.IntN(len(d))]
}

func (d List) Validate() error {
	if len(d) == 0 {
		return errors.NewValidationError("list", "must not be empty", d)
	}
	return nil
}

// Value always yields V.
type Value struct{ V interface{} }

func (d Value) Sample(*rand.Rand) interface{} { return d.V }

func (d Value) Validate() error { return nil }

// ParamDistributions maps parameter names to distributions.
type ParamDistributions map[string]Distribution

// Sample draws n candidates. Within a draw keys are sampled in sorted order,
// so the sequence depends only on the generator state.
func (d ParamDistributions) Sample(r *rand.Rand, n int) ([]map[string]interface{}, error) {
	keys := sortedKeys(d)
	for _, k := range keys {
		if d[k] == nil {
			return nil, errors.NewValidationError(k, "distribution is nil", nil)
		}
		if err := d[k].Validate(); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("parameter %s", k))
		}
	}
	out := make([]map[string]interface{}, n)
	for i := range out {
		c := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			c[k] = d[k].Sample(r)
		}
		out[i] = c
	}
	return out, nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
