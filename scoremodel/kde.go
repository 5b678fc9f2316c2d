// Package scoremodel fits the Gaussian kernel density estimate over a
// control's scored reads and discretizes it into a fixed-bin PMF for O(1)
// lookup by SMA.
package scoremodel

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
)

// Options configures Fit.
type Options struct {
	NSamples int   // default 10000
	NBins    int   // default model.NBins (10000)
	Seed     int64 // default 2456
}

// DefaultOptions returns the standard sample, bin and seed defaults.
func DefaultOptions() Options {
	return Options{NSamples: 10000, NBins: model.NBins, Seed: 2456}
}

// ExtractSignalScores collects every defined SignalScore across reads,
// discarding NaN.
func ExtractSignalScores(reads []recio.ScoredRead) []float64 {
	var out []float64
	for _, r := range reads {
		for _, sc := range r.Scores {
			if sc.SignalScore == nil {
				continue
			}
			v := *sc.SignalScore
			if math.IsNaN(v) {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}

// Fit subsamples samples down to opts.NSamples (uniformly, seeded), fits a
// Gaussian KDE with Silverman's rule-of-thumb bandwidth, evaluates it at
// opts.NBins equispaced points over [0,1], and normalizes the result to
// sum to 1.
func Fit(samples []float64, opts Options) (model.BinnedKde, error) {
	if len(samples) == 0 {
		return model.BinnedKde{}, errors.New("no samples to fit a score distribution from")
	}
	if opts.NSamples <= 0 {
		opts.NSamples = 10000
	}
	if opts.NBins <= 0 {
		opts.NBins = model.NBins
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	sub := subsample(samples, opts.NSamples, rng)

	bandwidth := silvermanBandwidth(sub)
	if bandwidth <= 0 || math.IsNaN(bandwidth) {
		return model.BinnedKde{}, errors.New("degenerate bandwidth, samples have zero spread")
	}

	bins := make([]float64, opts.NBins)
	var total float64
	for i := 0; i < opts.NBins; i++ {
		x := float64(i) / float64(opts.NBins-1)
		v := gaussianKde(x, sub, bandwidth)
		bins[i] = v
		total += v
	}
	if total <= 0 || math.IsNaN(total) {
		return model.BinnedKde{}, errors.New("kde evaluated to zero mass across all bins")
	}
	for i := range bins {
		bins[i] /= total
	}
	return model.NewBinnedKde(bins), nil
}

// subsample draws up to n values uniformly without replacement from
// samples, returning samples itself if it already has n or fewer values.
func subsample(samples []float64, n int, rng *rand.Rand) []float64 {
	if len(samples) <= n {
		return samples
	}
	idx := rng.Perm(len(samples))[:n]
	out := make([]float64, n)
	for i, j := range idx {
		out[i] = samples[j]
	}
	return out
}

// silvermanBandwidth is the classic rule-of-thumb bandwidth:
// h = 0.9 * min(sigma, IQR/1.34) * n^(-1/5).
func silvermanBandwidth(samples []float64) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	sigma := stat.StdDev(sorted, nil)
	iqr := stat.Quantile(0.75, stat.Empirical, sorted, nil) - stat.Quantile(0.25, stat.Empirical, sorted, nil)
	a := sigma
	if iqr > 0 && iqr/1.34 < a {
		a = iqr / 1.34
	}
	return 0.9 * a * math.Pow(float64(n), -0.2)
}

// gaussianKde evaluates the Gaussian-kernel density estimate at x given
// bandwidth h.
func gaussianKde(x float64, samples []float64, h float64) float64 {
	var sum float64
	for _, s := range samples {
		u := (x - s) / h
		sum += math.Exp(-0.5*u*u) / math.Sqrt(2*math.Pi)
	}
	return sum / (float64(len(samples)) * h)
}
