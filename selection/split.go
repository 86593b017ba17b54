// Package selection provides cross-validation splitters, cross-validated
// scoring and hyper-parameter search over model.Regressor values.
package selection

import (
	"math/rand/v2"

	"github.com/matpipe/matpipe/pkg/errors"
)

// Fold holds the row indices of one train/test split.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter generates cross-validation folds over n samples.
type Splitter interface {
	Split(n int) ([]Fold, error)
	GetNSplits() int
}

// KFold implements k-fold cross-validation splitter
//
// Test folds are consecutive chunks of the (optionally shuffled) index
// sequence; the first n % NSplits folds get one extra sample. Train indices
// are returned in ascending order.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	return &KFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int { return kf.NSplits }

// Split generates train/test indices for each fold
func (kf *KFold) Split(n int) ([]Fold, error) {
	if err := checkSplits(kf.NSplits, n); err != nil {
		return nil, err
	}
	indices := identity(n)
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		shuffle(r, indices)
	}
	return chunk(indices, kf.NSplits), nil
}

// RepeatedKFold repeats shuffled k-fold NRepeats times. All repeats draw
// their permutations from one PCG stream seeded with Seed, so the whole
// sequence of folds is fixed by the seed.
type RepeatedKFold struct {
	NSplits  int
	NRepeats int
	Seed     uint64
}

// NewRepeatedKFold creates a new repeated k-fold splitter
func NewRepeatedKFold(nSplits, nRepeats int, seed uint64) *RepeatedKFold {
	return &RepeatedKFold{NSplits: nSplits, NRepeats: nRepeats, Seed: seed}
}

// GetNSplits returns NSplits × NRepeats.
func (rk *RepeatedKFold) GetNSplits() int { return rk.NSplits * rk.NRepeats }

// Split returns the folds of every repeat, repeat by repeat.
func (rk *RepeatedKFold) Split(n int) ([]Fold, error) {
	if rk.NRepeats < 1 {
		return nil, errors.NewValidationError("n_repeats", "must be at least 1", rk.NRepeats)
	}
	if err := checkSplits(rk.NSplits, n); err != nil {
		return nil, err
	}
	r := rand.New(rand.NewPCG(rk.Seed, rk.Seed))
	folds := make([]Fold, 0, rk.GetNSplits())
	for rep := 0; rep < rk.NRepeats; rep++ {
		indices := identity(n)
		shuffle(r, indices)
		folds = append(folds, chunk(indices, rk.NSplits)...)
	}
	return folds, nil
}

func checkSplits(k, n int) error {
	if k < 2 {
		return errors.NewValidationError("n_splits", "must be at least 2", k)
	}
	if n < k {
		return errors.NewValueError("Split",
			"cannot have more folds than samples")
	}
	return nil
}

func identity(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func shuffle(r *rand.Rand, indices []int) {
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
}

func chunk(indices []int, k int) []Fold {
	n := len(indices)
	foldSize, remainder := n/k, n%k
	folds := make([]Fold, k)

	current := 0
	for i := 0; i < k; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		inTest := make([]bool, n)
		for _, idx := range test {
			inTest[idx] = true
		}
		train := make([]int, 0, n-testSize)
		for idx := 0; idx < n; idx++ {
			if !inTest[idx] {
				train = append(train, idx)
			}
		}

		folds[i] = Fold{Train: train, Test: test}
		current += testSize
	}
	return folds
}

// isPartition reports whether every sample is in exactly one test fold.
func isPartition(folds []Fold, n int) bool {
	seen := make([]int, n)
	for _, f := range folds {
		for _, idx := range f.Test {
			if idx < 0 || idx >= n {
				return false
			}
			seen[idx]++
		}
	}
	for _, c := range seen {
		if c != 1 {
			return false
		}
	}
	return true
}
