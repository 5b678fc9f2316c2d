// Package rank approximates the Kullback-Leibler divergence between each
// kmer's positive- and negative-control mixture, giving Score a per-kmer
// discriminability ranking.
package rank

import (
	"math"
	"math/rand"
	"sort"

	"github.com/grailbio/nanopore-occ/model"
)

// Options configures Compute.
type Options struct {
	NSamples int   // default 100000
	Seed     int64 // default 2456
}

// DefaultOptions returns the standard sample count and seed.
func DefaultOptions() Options {
	return Options{NSamples: 100000, Seed: 2456}
}

// Compute returns the approximated KL(positive || negative) divergence for
// every kmer present in both pos and neg. Sampling uses a single generator
// seeded from opts.Seed, advanced in lexicographic kmer order, so that
// repeated runs with the same inputs and seed are bit-identical.
func Compute(pos, neg *model.Model, opts Options) model.Ranks {
	if opts.NSamples <= 0 {
		opts.NSamples = 100000
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	var kmers []string
	for k := range pos.Mixtures {
		if _, ok := neg.Mixtures[k]; ok {
			kmers = append(kmers, k)
		}
	}
	sort.Strings(kmers)

	ranks := make(model.Ranks, len(kmers))
	for _, k := range kmers {
		posMix := pos.Mixtures[k]
		negMix := neg.Mixtures[k]
		ranks[k] = klApprox(posMix, negMix, opts.NSamples, rng)
	}
	return ranks
}

// klApprox draws n samples from posMix and returns the mean of
// ln f_pos(x) - ln f_neg(x) over those draws.
func klApprox(posMix, negMix model.GaussianMixture, n int, rng *rand.Rand) float64 {
	var total float64
	for i := 0; i < n; i++ {
		x := sampleMixture(posMix, rng)
		total += posMix.LogDensity(x) - negMix.LogDensity(x)
	}
	return total / float64(n)
}

// sampleMixture draws one value from mix, choosing a component proportional
// to its weight.
func sampleMixture(mix model.GaussianMixture, rng *rand.Rand) float64 {
	u := rng.Float64()
	var cum float64
	for i, c := range mix.Components {
		cum += c.Weight
		if u <= cum || i == len(mix.Components)-1 {
			return rng.NormFloat64()*math.Sqrt(c.Variance) + c.Mean
		}
	}
	return mix.Components[len(mix.Components)-1].Mean
}
