package model_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/model"
)

func TestGaussianMixtureDensity(t *testing.T) {
	mix := model.GaussianMixture{Components: []model.Gaussian{
		{Weight: 0.5, Mean: 0, Variance: 1},
		{Weight: 0.5, Mean: 5, Variance: 1},
	}}
	d := mix.Density(0)
	assert.Greater(t, d, 0.0)
	assert.True(t, math.IsInf(mix.LogDensity(1000), -1) || mix.LogDensity(1000) < -50)
}

func TestHighestWeightAndMostDivergent(t *testing.T) {
	neg := model.GaussianMixture{Components: []model.Gaussian{
		{Weight: 0.9, Mean: 0, Variance: 1},
		{Weight: 0.1, Mean: 1, Variance: 1},
	}}
	pos := model.GaussianMixture{Components: []model.Gaussian{
		{Weight: 0.5, Mean: 0, Variance: 1},
		{Weight: 0.5, Mean: 10, Variance: 1},
	}}
	chosenNeg := neg.HighestWeight()
	assert.Equal(t, 0.0, chosenNeg.Mean)

	chosenPos := pos.MostDivergentFrom(chosenNeg)
	assert.Equal(t, 10.0, chosenPos.Mean)
}

func TestModelRoundTrip(t *testing.T) {
	m := model.NewModel()
	m.Mixtures["AAAAAA"] = model.GaussianMixture{Components: []model.Gaussian{
		{Weight: 1, Mean: 90, Variance: 4},
	}}
	m.SkipFrequency["AAAAAA"] = 0.3

	var buf bytes.Buffer
	require.NoError(t, m.WriteTo(&buf))

	got, err := model.ReadModel(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got.SkipFrequency["AAAAAA"], 1e-12)
	mix, ok := got.Mixture("AAAAAA")
	require.True(t, ok)
	assert.InDelta(t, 90.0, mix.Components[0].Mean, 1e-12)

	_, ok = got.Mixture("CCCCCC")
	assert.False(t, ok)
}

func TestRanksRoundTrip(t *testing.T) {
	r := model.Ranks{"AAAAAA": 1.5, "TTTTTT": -0.2}
	var buf bytes.Buffer
	require.NoError(t, r.WriteTo(&buf))
	got, err := model.ReadRanks(&buf)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestBinnedKdeNormalizationAndLookup(t *testing.T) {
	bins := make([]float64, model.NBins)
	for i := range bins {
		bins[i] = 1.0 / float64(model.NBins)
	}
	k := model.NewBinnedKde(bins)
	assert.InDelta(t, 1.0, k.Sum(), 1e-9)
	assert.False(t, math.IsNaN(k.Pmf(0)))
	assert.False(t, math.IsNaN(k.Pmf(1)))
	assert.False(t, math.IsNaN(k.Pmf(0.5)))

	var buf bytes.Buffer
	require.NoError(t, k.WriteTo(&buf))
	got, err := model.ReadBinnedKde(&buf)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.Sum(), 1e-9)
}
