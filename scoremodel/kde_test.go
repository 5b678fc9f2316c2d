package scoremodel_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/scoremodel"
)

func ptr(v float64) *float64 { return &v }

func TestExtractSignalScoresDiscardsAbsentAndNaN(t *testing.T) {
	reads := []recio.ScoredRead{
		{Scores: []recio.Score{
			{SignalScore: ptr(0.5)},
			{SignalScore: nil},
			{SignalScore: ptr(math.NaN())},
			{SignalScore: ptr(0.9)},
		}},
	}
	got := scoremodel.ExtractSignalScores(reads)
	assert.Equal(t, []float64{0.5, 0.9}, got)
}

func TestFitRejectsEmptySamples(t *testing.T) {
	_, err := scoremodel.Fit(nil, scoremodel.DefaultOptions())
	assert.Error(t, err)
}

func TestFitNormalizesToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	samples := make([]float64, 500)
	for i := range samples {
		v := 0.5 + 0.1*rng.NormFloat64()
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		samples[i] = v
	}
	opts := scoremodel.Options{NSamples: 200, NBins: 100, Seed: 2456}
	kde, err := scoremodel.Fit(samples, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, kde.Sum(), 1e-9)
	for _, x := range []float64{0, 0.25, 0.5, 0.75, 1} {
		v := kde.Pmf(x)
		assert.False(t, math.IsNaN(v))
		assert.False(t, math.IsInf(v, 0))
	}
}
