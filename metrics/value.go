package metrics

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/matpipe/matpipe/pkg/errors"
)

// Value is a metric value as stored in JSON documents. NaN and ±Inf, which
// JSON numbers cannot hold, are written as the strings "NaN", "+Inf" and
// "-Inf"; finite values stay plain numbers.
type Value float64

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte(strconv.Quote(strconv.FormatFloat(f, 'g', -1, 64))), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return errors.Wrap(err, "metric value")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return errors.Wrapf(err, "metric value %q", s)
		}
		*v = Value(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "metric value")
	}
	*v = Value(f)
	return nil
}

// Values converts scores for JSON encoding. nil stays nil.
func Values(fs []float64) []Value {
	if fs == nil {
		return nil
	}
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Value(f)
	}
	return out
}

// Floats is the inverse of Values.
func Floats(vs []Value) []float64 {
	if vs == nil {
		return nil
	}
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}
