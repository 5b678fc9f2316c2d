package train

import (
	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/recio"
)

// skipCounts accumulates, per kmer, how many times a base position whose
// 6-mer equals that kmer was seen at all (total) versus seen with no
// Signal entry (skipped).
type skipCounts struct {
	skipped map[string]uint64
	total   map[string]uint64
}

func newSkipCounts() *skipCounts {
	return &skipCounts{skipped: make(map[string]uint64), total: make(map[string]uint64)}
}

// Add tallies every position in read's window against genome's sequence.
// The counter walks the forward reference; no strand complement is
// applied here.
func (s *skipCounts) Add(genome fasta.Fasta, read recio.Eventalign) error {
	meta := read.Metadata
	chromLen, err := genome.Len(meta.Chrom)
	if err != nil {
		return errors.Wrapf(err, "looking up length of %s", meta.Chrom)
	}
	stop := meta.SeqStop1bExclusive()
	if stop > chromLen {
		stop = chromLen
	}
	if stop <= meta.Start0b {
		return nil
	}
	seq, err := genome.Get(meta.Chrom, meta.Start0b, stop)
	if err != nil {
		return errors.Wrapf(err, "fetching reference sequence for %s", meta.Name)
	}

	hasSignal := make(map[uint64]bool, len(read.Signals))
	for _, sig := range read.Signals {
		hasSignal[sig.Pos] = true
	}

	for i := 0; i+dna.KmerWidth <= len(seq); i++ {
		pos := meta.Start0b + uint64(i)
		kmer := seq[i : i+dna.KmerWidth]
		if !dna.ValidKmer(kmer) {
			continue
		}
		s.total[kmer]++
		if !hasSignal[pos] {
			s.skipped[kmer]++
		}
	}
	return nil
}

// Frequencies computes skip_frequency = skipped/total per kmer.
func (s *skipCounts) Frequencies() map[string]float64 {
	out := make(map[string]float64, len(s.total))
	for kmer, total := range s.total {
		if total == 0 {
			continue
		}
		out[kmer] = float64(s.skipped[kmer]) / float64(total)
	}
	return out
}
