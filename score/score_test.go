package score_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/score"
)

func buildControls() (*model.Model, *model.Model) {
	pos := model.NewModel()
	neg := model.NewModel()
	pos.Mixtures["ACGTAC"] = model.GaussianMixture{Components: []model.Gaussian{{Weight: 1, Mean: 100, Variance: 4}}}
	neg.Mixtures["ACGTAC"] = model.GaussianMixture{Components: []model.Gaussian{{Weight: 1, Mean: 70, Variance: 4}}}
	pos.SkipFrequency["ACGTAC"] = 0.3
	neg.SkipFrequency["ACGTAC"] = 0.3
	return pos, neg
}

func buildGenome(t *testing.T) fasta.Fasta {
	t.Helper()
	g, err := fasta.New(strings.NewReader(">chrI\n" + strings.Repeat("ACGTAC", 10) + "\n"))
	require.NoError(t, err)
	return g
}

func TestScoreEmitsOnlyMotifMatchingPositions(t *testing.T) {
	pos, neg := buildControls()
	genome := buildGenome(t)
	motif, err := dna.ParseMotif("1:AC")
	require.NoError(t, err)

	s := &score.Scorer{Pos: pos, Neg: neg, Ranks: model.Ranks{"ACGTAC": 1}, Genome: genome, Opts: score.Options{Motifs: []dna.Motif{motif}, PValueThreshold: 0.05, Cutoff: 10}}

	read := recio.Eventalign{
		Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 0, NPLength: 6, Strand: dna.Plus},
		Signals: []recio.Signal{
			{Pos: 0, Kmer: "ACGTAC", Mean: 100, Samples: []float64{100}},
		},
	}
	scored, err := s.Score(read)
	require.NoError(t, err)
	require.NotEmpty(t, scored.Scores)
	for _, sc := range scored.Scores {
		assert.True(t, strings.HasPrefix(sc.Kmer, motif.Bases), "every emitted score's kmer must start with the gating motif")
	}
}

func TestScoreBoundsAndSkippedInvariant(t *testing.T) {
	pos, neg := buildControls()
	genome := buildGenome(t)

	s := &score.Scorer{Pos: pos, Neg: neg, Ranks: model.Ranks{"ACGTAC": 1}, Genome: genome, Opts: score.DefaultOptions()}

	read := recio.Eventalign{
		Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 0, NPLength: 6, Strand: dna.Plus},
		Signals: []recio.Signal{
			{Pos: 0, Kmer: "ACGTAC", Mean: 100, Samples: []float64{100}},
		},
	}
	scored, err := s.Score(read)
	require.NoError(t, err)
	require.NotEmpty(t, scored.Scores)
	for _, sc := range scored.Scores {
		assert.GreaterOrEqual(t, sc.Combined, 0.0)
		assert.LessOrEqual(t, sc.Combined, 1.0)
		assert.GreaterOrEqual(t, sc.SkipScore, 0.0)
		assert.LessOrEqual(t, sc.SkipScore, 1.0)
		assert.Equal(t, sc.Skipped, sc.SignalScore == nil)
		if sc.SignalScore != nil {
			assert.GreaterOrEqual(t, *sc.SignalScore, 0.0)
			assert.LessOrEqual(t, *sc.SignalScore, 1.0)
			assert.Equal(t, sc.Combined, math.Max(*sc.SignalScore, sc.SkipScore))
		} else {
			assert.Equal(t, sc.SkipScore, sc.Combined)
		}
	}
}

func TestPositionWithoutSkipFrequenciesIsUnscorable(t *testing.T) {
	pos, neg := buildControls()
	// Strip the skip frequencies: the signal route still has evidence, but
	// with no kmer in any window carrying both controls' skip frequency
	// the whole position is unscorable and must not be emitted.
	pos.SkipFrequency = map[string]float64{}
	neg.SkipFrequency = map[string]float64{}
	genome := buildGenome(t)

	s := &score.Scorer{Pos: pos, Neg: neg, Ranks: model.Ranks{"ACGTAC": 1}, Genome: genome, Opts: score.DefaultOptions()}

	read := recio.Eventalign{
		Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 0, NPLength: 6, Strand: dna.Plus},
		Signals: []recio.Signal{
			{Pos: 0, Kmer: "ACGTAC", Mean: 100, Samples: []float64{100}},
		},
	}
	scored, err := s.Score(read)
	require.NoError(t, err)
	assert.Empty(t, scored.Scores)
}

func TestSkipScoreSymmetricGivesOneHalf(t *testing.T) {
	pos := model.NewModel()
	neg := model.NewModel()
	// A mono-base genome means every window position shares one kmer, so
	// the symmetric skip-frequency case applies at every position.
	g, err := fasta.New(strings.NewReader(">chrI\n" + strings.Repeat("A", 40) + "\n"))
	require.NoError(t, err)
	pos.SkipFrequency["AAAAAA"] = 0.3
	neg.SkipFrequency["AAAAAA"] = 0.3
	// No mixtures, so every position must fall back to the skip score only.
	s := &score.Scorer{Pos: pos, Neg: neg, Ranks: model.Ranks{}, Genome: g, Opts: score.DefaultOptions()}

	read := recio.Eventalign{
		Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 6, NPLength: 6, Strand: dna.Plus},
		Signals: []recio.Signal{
			{Pos: 6, Kmer: "AAAAAA", Mean: 100, Samples: []float64{100}},
			{Pos: 7, Kmer: "AAAAAA", Mean: 100, Samples: []float64{100}},
			{Pos: 8, Kmer: "AAAAAA", Mean: 100, Samples: []float64{100}},
			{Pos: 9, Kmer: "AAAAAA", Mean: 100, Samples: []float64{100}},
			{Pos: 10, Kmer: "AAAAAA", Mean: 100, Samples: []float64{100}},
			{Pos: 11, Kmer: "AAAAAA", Mean: 100, Samples: []float64{100}},
		},
	}
	scored, err := s.Score(read)
	require.NoError(t, err)
	require.NotEmpty(t, scored.Scores)
	for _, sc := range scored.Scores {
		assert.True(t, sc.Skipped)
		assert.InDelta(t, 0.5, sc.SkipScore, 1e-9)
	}
}
