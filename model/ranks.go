package model

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// Ranks maps kmer to its approximated KL(positive || negative) divergence;
// higher means the positive control is more discriminable at that kmer.
type Ranks map[string]float64

// WriteTo serializes ranks as a gob-encoded tagged blob.
func (r Ranks) WriteTo(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(r); err != nil {
		return errors.Wrap(err, "encoding ranks")
	}
	return nil
}

// ReadRanks deserializes Ranks previously written by WriteTo.
func ReadRanks(r io.Reader) (Ranks, error) {
	var out Ranks
	if err := gob.NewDecoder(r).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decoding ranks")
	}
	return out, nil
}
