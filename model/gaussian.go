// Package model holds the fitted, read-only artifacts shared across Score
// and SMA: per-kmer Gaussian mixtures, skip frequencies, kmer ranks and
// binned kernel density estimates.
package model

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Gaussian is one weighted component of a GaussianMixture.
type Gaussian struct {
	Weight   float64
	Mean     float64
	Variance float64
}

func (g Gaussian) dist() distuv.Normal {
	return distuv.Normal{Mu: g.Mean, Sigma: math.Sqrt(g.Variance)}
}

// LogProb returns ln(weight * density(x)).
func (g Gaussian) LogProb(x float64) float64 {
	return math.Log(g.Weight) + g.dist().LogProb(x)
}

// GaussianMixture is a weighted sum of 1 or 2 univariate Gaussians. Weights
// sum to 1. A one-component mixture must still be usable wherever a
// two-component mixture is expected.
type GaussianMixture struct {
	Components []Gaussian
}

// Density evaluates the mixture's probability density at x.
func (m GaussianMixture) Density(x float64) float64 {
	var sum float64
	for _, c := range m.Components {
		sum += c.Weight * c.dist().Prob(x)
	}
	return sum
}

// LogDensity evaluates ln(Density(x)).
func (m GaussianMixture) LogDensity(x float64) float64 {
	return math.Log(m.Density(x))
}

// HighestWeight returns the component with the largest weight, the
// "chosen negative Gaussian" of the signal scorer.
func (m GaussianMixture) HighestWeight() Gaussian {
	best := m.Components[0]
	for _, c := range m.Components[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	return best
}

// klComponent is the closed-form KL divergence D(p || q) between two
// univariate Gaussians, used to pick the "chosen positive Gaussian" (the
// positive-mixture component with the largest KL divergence from the
// chosen negative Gaussian).
func klComponent(p, q Gaussian) float64 {
	varP, varQ := p.Variance, q.Variance
	return math.Log(math.Sqrt(varQ)/math.Sqrt(varP)) +
		(varP+math.Pow(p.Mean-q.Mean, 2))/(2*varQ) - 0.5
}

// MostDivergentFrom returns the component of m with the largest KL
// divergence from ref.
func (m GaussianMixture) MostDivergentFrom(ref Gaussian) Gaussian {
	best := m.Components[0]
	bestKL := klComponent(best, ref)
	for _, c := range m.Components[1:] {
		kl := klComponent(c, ref)
		if kl > bestKL {
			best, bestKL = c, kl
		}
	}
	return best
}
