package score

import (
	"math"
	"strings"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/reference"
)

// NpsmlrOptions configures NpsmlrScorer, the cheaper alternative scoring
// mode that sums per-sample log-density ratios instead of running the
// full z-test.
type NpsmlrOptions struct {
	Motifs     []dna.Motif // default dna.AllBases()
	FreqThresh int         // default 10: max samples.len() before a candidate is dropped
	Cutoff     float64     // default 10: samples whose log-density under either control is at or below -Cutoff are outliers
	RangeLo    float64     // default 40
	RangeHi    float64     // default 170
}

// DefaultNpsmlrOptions scores every base with the standard thresholds.
func DefaultNpsmlrOptions() NpsmlrOptions {
	return NpsmlrOptions{Motifs: dna.AllBases(), FreqThresh: 10, Cutoff: 10, RangeLo: 40, RangeHi: 170}
}

// NpsmlrScorer is the alternative per-read scorer.
type NpsmlrScorer struct {
	Pos, Neg *model.Model
	Ranks    model.Ranks
	Genome   fasta.Fasta
	Opts     NpsmlrOptions
}

type npsmlrCandidate struct {
	kmer          string
	posSum, negSum float64
}

// Score gathers, for every signal whose kmer matches a configured motif,
// the signals at the motif's surrounding positions, filters by
// sample-count and motif-repeat-count, sums log-densities over in-range
// samples under the full positive mixture and the single chosen negative
// Gaussian (discarding samples whose log-density under either control
// falls at or below -Cutoff), picks the highest-ranked surviving
// candidate, and converts the two log-sums into a probability via a
// numerically stable logistic transform.
func (s *NpsmlrScorer) Score(read recio.Eventalign) (recio.ScoredRead, error) {
	motifs := s.Opts.Motifs
	if len(motifs) == 0 {
		motifs = dna.AllBases()
	}
	freqThresh := s.Opts.FreqThresh
	if freqThresh <= 0 {
		freqThresh = 10
	}
	lo, hi := s.Opts.RangeLo, s.Opts.RangeHi
	if hi <= lo {
		lo, hi = 40, 170
	}
	cutoff := s.Opts.Cutoff
	if cutoff <= 0 {
		cutoff = 10
	}

	ctx, err := reference.Build(s.Genome, read.Metadata)
	if err != nil {
		return recio.ScoredRead{}, err
	}

	dataPos := make(map[uint64]recio.Signal, len(read.Signals))
	for _, sig := range read.Signals {
		dataPos[sig.Pos] = sig
	}

	var scores []recio.Score
	for _, anchor := range read.Signals {
		m, ok := matchingMotif(motifs, anchor.Kmer)
		if !ok {
			continue
		}

		var candidates []npsmlrCandidate
		for _, surrPos := range ctx.SurroundingPositions(anchor.Pos, m) {
			sig, ok := dataPos[surrPos]
			if !ok {
				continue
			}
			if len(sig.Samples) > freqThresh {
				continue
			}
			if strings.Count(sig.Kmer, m.Bases) > 1 {
				continue
			}
			posMix, ok := s.Pos.Mixture(sig.Kmer)
			if !ok {
				continue
			}
			negMix, ok := s.Neg.Mixture(sig.Kmer)
			if !ok {
				continue
			}
			negComp := negMix.HighestWeight()

			var posSum, negSum float64
			var n int
			for _, v := range sig.Samples {
				if v < lo || v > hi {
					continue
				}
				posLL := posMix.LogDensity(v)
				negLL := gaussianLogDensity(v, negComp)
				if posLL <= -cutoff || negLL <= -cutoff {
					continue
				}
				posSum += posLL
				negSum += negLL
				n++
			}
			if n == 0 {
				continue
			}
			candidates = append(candidates, npsmlrCandidate{kmer: sig.Kmer, posSum: posSum, negSum: negSum})
		}
		if len(candidates) == 0 {
			continue
		}

		best := candidates[0]
		bestRank := s.Ranks[best.kmer]
		for _, c := range candidates[1:] {
			if r := s.Ranks[c.kmer]; r > bestRank {
				best, bestRank = c, r
			}
		}

		rate := 1 / (1 + math.Exp(best.negSum-best.posSum))
		scores = append(scores, recio.Score{
			Pos:         anchor.Pos,
			Kmer:        anchor.Kmer,
			Skipped:     false,
			SignalScore: &rate,
			SkipScore:   0,
			Combined:    rate,
		})
	}
	return recio.ScoredRead{Metadata: read.Metadata, Scores: scores}, nil
}

func matchingMotif(motifs []dna.Motif, kmer string) (dna.Motif, bool) {
	for _, m := range motifs {
		if strings.HasPrefix(kmer, m.Bases) {
			return m, true
		}
	}
	return dna.Motif{}, false
}
