package model

import (
	"encoding/gob"
	"io"
	"math"

	"github.com/pkg/errors"
)

// NBins is the default resolution of a BinnedKde, matching the upstream
// score-distribution estimator's default bin and sample count.
const NBins = 10000

// BinnedKde is a fixed-width histogram over [0,1] whose Bins sum to 1. It
// answers pmf queries in O(1) by rounding the query into a bin index,
// trading density-estimation fidelity for constant-time lookup inside
// SMA's per-base inner loop.
type BinnedKde struct {
	Bins []float64
}

// NewBinnedKde wraps a precomputed, already-normalized bin slice.
func NewBinnedKde(bins []float64) BinnedKde {
	return BinnedKde{Bins: bins}
}

// Pmf returns the estimated density at x, x expected in [0,1]. Values
// outside [0,1] are clamped to the nearest edge bin rather than erroring;
// Score occasionally emits values numerically just outside the unit
// interval on closed boundaries.
func (k BinnedKde) Pmf(x float64) float64 {
	n := len(k.Bins)
	idx := int(math.Round(x * float64(n-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return k.Bins[idx]
}

// Sum returns the total mass across all bins, expected to equal 1 within
// floating point tolerance.
func (k BinnedKde) Sum() float64 {
	var s float64
	for _, b := range k.Bins {
		s += b
	}
	return s
}

// WriteTo serializes the BinnedKde as a gob-encoded tagged blob.
func (k BinnedKde) WriteTo(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(k); err != nil {
		return errors.Wrap(err, "encoding binned kde")
	}
	return nil
}

// ReadBinnedKde deserializes a BinnedKde previously written by WriteTo.
func ReadBinnedKde(r io.Reader) (BinnedKde, error) {
	var k BinnedKde
	if err := gob.NewDecoder(r).Decode(&k); err != nil {
		return BinnedKde{}, errors.Wrap(err, "decoding binned kde")
	}
	return k, nil
}
