// Package score assigns each scorable base position of an experimental
// read a calibrated modification probability, by combining the best-
// supported kmer signal in a 6-wide window with a skip-frequency
// fallback.
package score

import (
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/reference"
)

// Options configures Scorer.
type Options struct {
	Motifs          []dna.Motif // default dna.AllBases()
	PValueThreshold float64     // default 0.05
	Cutoff          float64     // default 10
}

// DefaultOptions scores every base with the standard thresholds.
func DefaultOptions() Options {
	return Options{Motifs: dna.AllBases(), PValueThreshold: 0.05, Cutoff: 10}
}

// Scorer holds the two control models and kmer ranks scoring needs, kept
// read-only and shared across every read it scores.
type Scorer struct {
	Pos, Neg *model.Model
	Ranks    model.Ranks
	Genome   fasta.Fasta
	Opts     Options
}

// Score scores every base position of read against the motif set, context
// window and control models, returning a ScoredRead with one Score per
// motif-matching position. A position whose 6-mer runs past the fetched
// context, or whose window has no kmer with both controls' skip frequency,
// gets no Score.
func (s *Scorer) Score(read recio.Eventalign) (recio.ScoredRead, error) {
	motifs := s.Opts.Motifs
	if len(motifs) == 0 {
		motifs = dna.AllBases()
	}

	ctx, err := reference.Build(s.Genome, read.Metadata)
	if err != nil {
		return recio.ScoredRead{}, errors.Wrapf(err, "building context for %s", read.Metadata.Name)
	}

	dataPos := make(map[uint64]recio.Signal, len(read.Signals))
	present := make(map[uint64]bool, len(read.Signals))
	for _, sig := range read.Signals {
		dataPos[sig.Pos] = sig
		present[sig.Pos] = true
	}

	var scores []recio.Score
	start1b := read.Metadata.Start1b()
	end1bExcl := read.Metadata.End1bExclusive()
	for p := start1b; p < end1bExcl; p++ {
		kmer, ok := ctx.SixmerAt(p)
		if !ok {
			continue
		}
		if !startsWithAnyMotif(motifs, kmer) {
			continue
		}

		sigScore, sigOK := signalScore(p, dataPos, s.Pos, s.Neg, s.Ranks, s.Opts.PValueThreshold, s.Opts.Cutoff)
		skipVal, skipErr := skipScore(p, present, ctx, s.Pos, s.Neg)
		if skipErr != nil {
			log.Printf("score: position %d unscorable (%v)", p, skipErr)
			continue
		}

		var signalScorePtr *float64
		combined := skipVal
		if sigOK {
			v := sigScore
			signalScorePtr = &v
			if sigScore > skipVal {
				combined = sigScore
			}
		}

		scores = append(scores, recio.Score{
			Pos:         p,
			Kmer:        kmer,
			Skipped:     !sigOK,
			SignalScore: signalScorePtr,
			SkipScore:   skipVal,
			Combined:    combined,
		})
	}
	return recio.ScoredRead{Metadata: read.Metadata, Scores: scores}, nil
}

// startsWithAnyMotif reports whether kmer begins with any configured
// motif's base string.
func startsWithAnyMotif(motifs []dna.Motif, kmer string) bool {
	for _, m := range motifs {
		if len(kmer) >= len(m.Bases) && kmer[:len(m.Bases)] == m.Bases {
			return true
		}
	}
	return false
}
