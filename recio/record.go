// Package recio implements this pipeline's columnar record-batch file
// format and the record schemas (Eventalign, ScoredRead) that flow through
// it, plus the TSV and BED text formats at the pipeline's edges.
package recio

import (
	"github.com/grailbio/nanopore-occ/dna"
)

// Metadata describes one read: its placement on the reference and the
// window of positions Collapse observed for it.
type Metadata struct {
	Name     string
	Chrom    string
	Start0b  uint64
	NPLength uint64
	Strand   dna.Strand
	Seq      string // optional; empty if not materialized
}

// SeqLength is the half-open window width plus the 5 trailing bases the
// last kmer position contributes.
func (m Metadata) SeqLength() uint64 {
	return m.NPLength + 5
}

// Start1b is the one-based first scored position.
func (m Metadata) Start1b() uint64 {
	return m.Start0b + 1
}

// SeqStop1bExclusive is the one-based exclusive end of the full context
// window (start_0b + seq_length).
func (m Metadata) SeqStop1bExclusive() uint64 {
	return m.Start0b + m.SeqLength()
}

// End1bExclusive is the one-based exclusive end of the scored region,
// seq_stop_1b_exclusive - 5.
func (m Metadata) End1bExclusive() uint64 {
	return m.SeqStop1bExclusive() - 5
}

// Signal is one event-collapsed position: the kmer observed there, its
// mean current, total dwell time, and every raw sample that contributed.
type Signal struct {
	Pos       uint64
	Kmer      string
	Mean      float64
	DwellTime float64
	Samples   []float64
}

// Eventalign is Collapse's output unit: one read's metadata plus its
// signals in strictly increasing, unique position order.
type Eventalign struct {
	Metadata Metadata
	Signals  []Signal
}

// Score is one scored base position.
type Score struct {
	Pos         uint64
	Kmer        string
	Skipped     bool
	SignalScore *float64 // nil iff Skipped
	SkipScore   float64
	Combined    float64
}

// ScoredRead is Score's output unit: one read's metadata plus its sparse
// per-position scores.
type ScoredRead struct {
	Metadata Metadata
	Scores   []Score
}
