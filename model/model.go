package model

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// Model maps kmer to its fitted GaussianMixture and its skip frequency.
// Both maps are sparse: an absent kmer means "no information", never
// a zero value to be trusted.
type Model struct {
	Mixtures      map[string]GaussianMixture
	SkipFrequency map[string]float64
}

// NewModel returns an empty, ready-to-populate Model.
func NewModel() *Model {
	return &Model{
		Mixtures:      make(map[string]GaussianMixture),
		SkipFrequency: make(map[string]float64),
	}
}

// Mixture looks up the mixture for kmer, reporting ok=false if absent.
func (m *Model) Mixture(kmer string) (GaussianMixture, bool) {
	g, ok := m.Mixtures[kmer]
	return g, ok
}

// Skip looks up the skip frequency for kmer, reporting ok=false if absent.
func (m *Model) Skip(kmer string) (float64, bool) {
	f, ok := m.SkipFrequency[kmer]
	return f, ok
}

// WriteTo serializes the model as a gob-encoded tagged blob. The
// round-trip preserves every float64 bit
// pattern exactly, including NaN (gob's IEEE-754 wire encoding is exact).
func (m *Model) WriteTo(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "encoding model")
	}
	return nil
}

// ReadModel deserializes a Model previously written by WriteTo.
func ReadModel(r io.Reader) (*Model, error) {
	m := &Model{}
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return nil, errors.Wrap(err, "decoding model")
	}
	return m, nil
}
