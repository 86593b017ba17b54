package model

import (
	"fmt"

	"github.com/matpipe/matpipe/pkg/errors"
)

// ParamFloat converts a hyper-parameter value to float64. Integer values are
// accepted so that YAML/TOML grids like `alpha: [1, 10]` work unchanged.
func ParamFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, errors.NewValidationError(name, "must be a number", v)
	}
}

// ParamInt converts a hyper-parameter value to int. Floats must be integral.
func ParamInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, errors.NewValidationError(name, "must be an integer", v)
		}
		return int(x), nil
	default:
		return 0, errors.NewValidationError(name, "must be an integer", v)
	}
}

// ParamBool converts a hyper-parameter value to bool.
func ParamBool(name string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, errors.NewValidationError(name, "must be a boolean", v)
	}
	return b, nil
}

// UnknownParam is the error returned by SetParams for a key the model does not have.
func UnknownParam(model, key string, v interface{}) error {
	return errors.NewValidationError(key, fmt.Sprintf("unknown parameter for %s", model), v)
}
