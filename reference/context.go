// Package reference builds the per-read genomic context window Score uses
// to look up kmers around each base position, backed by an indexed FASTA.
package reference

import (
	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/recio"
)

// Context holds the genomic bases covering one read's window, already
// strand-complemented (never reversed) if the read is on the minus
// strand.
type Context struct {
	bases     string
	readStart uint64
	startSlop uint64
}

// Build fetches the context window for meta from genome: the half-open
// interval [start_0b-5, start_0b+seq_length), clipped to [0, chromLen).
func Build(genome fasta.Fasta, meta recio.Metadata) (Context, error) {
	chromLen, err := genome.Len(meta.Chrom)
	if err != nil {
		return Context{}, errors.Wrapf(err, "looking up length of %s", meta.Chrom)
	}

	startSlop := meta.Start0b
	if startSlop > 5 {
		startSlop = 5
	}
	var start uint64
	if meta.Start0b < 5 {
		start = 0
	} else {
		start = meta.Start0b - 5
	}
	stop := meta.SeqStop1bExclusive()
	if stop > chromLen {
		stop = chromLen
	}
	if stop <= start {
		return Context{}, errors.Errorf("empty context window for %s at %s:%d", meta.Name, meta.Chrom, meta.Start0b)
	}

	seq, err := genome.Get(meta.Chrom, start, stop)
	if err != nil {
		return Context{}, errors.Wrapf(err, "fetching reference sequence for %s", meta.Name)
	}
	if meta.Strand == dna.Minus {
		seq = dna.ComplementSeq(seq)
	}
	return Context{bases: seq, readStart: meta.Start0b, startSlop: startSlop}, nil
}

// truePos maps a genomic position (relative to the read's own coordinate
// system) into an index within the fetched context bases.
func (c Context) truePos(pos uint64) uint64 {
	return (pos - c.readStart) + c.startSlop
}

// SixmerAt returns the 6-mer starting at genomic position pos, and false if
// the window doesn't extend far enough (near a chromosome end).
func (c Context) SixmerAt(pos uint64) (string, bool) {
	tp := c.truePos(pos)
	if tp+dna.KmerWidth > uint64(len(c.bases)) {
		return "", false
	}
	return c.bases[tp : tp+dna.KmerWidth], true
}

// Surrounding returns every 6-mer-aligned window whose span covers the
// motif's modified base when the motif is anchored at pos. Windows that
// would run past the end of the context are omitted.
func (c Context) Surrounding(pos uint64, m dna.Motif) []string {
	truePos := c.truePos(pos) + uint64(m.Position0b())
	var trueStart uint64
	if truePos >= 5 {
		trueStart = truePos - 5
	}
	ctxLen := uint64(len(c.bases))
	var out []string
	for basePos := trueStart; basePos <= truePos; basePos++ {
		if basePos+dna.KmerWidth <= ctxLen {
			out = append(out, c.bases[basePos:basePos+dna.KmerWidth])
		}
	}
	return out
}

// SurroundingPositions is Surrounding's genomic-coordinate counterpart: the
// same window of 6-mer-aligned positions, returned as positions in the
// read's own coordinate system rather than as fetched kmer strings. Used by
// the npsmlr scorer to look up Signals directly by position instead of
// by sequence.
func (c Context) SurroundingPositions(pos uint64, m dna.Motif) []uint64 {
	truePos := c.truePos(pos) + uint64(m.Position0b())
	var trueStart uint64
	if truePos >= 5 {
		trueStart = truePos - 5
	}
	ctxLen := uint64(len(c.bases))
	var out []uint64
	for basePos := trueStart; basePos <= truePos; basePos++ {
		if basePos+dna.KmerWidth <= ctxLen {
			out = append(out, basePos-c.startSlop+c.readStart)
		}
	}
	return out
}
