package featurize

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/matpipe/matpipe/dataset"
	"github.com/matpipe/matpipe/pkg/errors"
)

// NumericColumns passes the float fields of a frame through unchanged.
//
// Fit records the numeric field names of the training frame so later frames
// produce the same columns. Before Fit the fields are taken from the frame
// being featurized, and FeatureLabels reports those of the last such frame.
type NumericColumns struct {
	mu     sync.Mutex
	fields []string
	seen   []string
}

func (n *NumericColumns) Fit(df *dataset.Frame, _ mat.Vector) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fields = df.NumericNames()
	return nil
}

func (n *NumericColumns) FeatureLabels() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fields != nil {
		return append([]string(nil), n.fields...)
	}
	return append([]string(nil), n.seen...)
}

func (n *NumericColumns) Featurize(df *dataset.Frame) (*mat.Dense, error) {
	n.mu.Lock()
	fields := n.fields
	if fields == nil {
		fields = df.NumericNames()
		n.seen = fields
	}
	n.mu.Unlock()

	if len(fields) == 0 {
		return nil, errors.NewValueError("NumericColumns", "frame has no numeric fields")
	}
	return df.Matrix(fields...)
}
