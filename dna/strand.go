// Package dna holds the small sequence-level value types shared by every
// stage of the pipeline: Strand, Region, Motif and basic kmer helpers.
package dna

import "github.com/pkg/errors"

// Strand is the tri-state orientation of a read or feature relative to the
// reference.
type Strand int8

const (
	// Unknown strand: either never observed in an alignment, or observed
	// with inconsistent orientation across multiple alignments.
	Unknown Strand = 0
	// Plus is the forward/Watson strand.
	Plus Strand = 1
	// Minus is the reverse/Crick strand.
	Minus Strand = -1
)

// String renders the strand using the familiar +/-/. convention.
func (s Strand) String() string {
	switch s {
	case Plus:
		return "+"
	case Minus:
		return "-"
	default:
		return "."
	}
}

// RGB returns the bed12 rgb triple conventionally used to color features by
// strand: red for plus, blue for minus, black for unknown.
func (s Strand) RGB() string {
	switch s {
	case Plus:
		return "255,0,0"
	case Minus:
		return "0,0,255"
	default:
		return "0,0,0"
	}
}

// ParseStrand parses the single-character +/-/. strand encoding.
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "+":
		return Plus, nil
	case "-":
		return Minus, nil
	case ".":
		return Unknown, nil
	default:
		return Unknown, errors.Errorf("invalid strand %q, want one of +, -, .", s)
	}
}

// Complement returns the Watson-Crick complement of a single uppercase
// ACGT/N base, leaving any other byte unchanged. No case folding is
// performed; callers are expected to uppercase first.
func Complement(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'T':
		return 'A'
	case 'N':
		return 'N'
	default:
		return b
	}
}

// ComplementSeq returns the per-base complement of seq without reversing it.
// The minus-strand context window is never reverse-complemented, only
// complemented in place; see reference.Context.
func ComplementSeq(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[i] = Complement(seq[i])
	}
	return string(out)
}
