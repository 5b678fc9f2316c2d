package train

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/grailbio/nanopore-occ/model"
)

// FitOptions configures fitGMM.
type FitOptions struct {
	K         int // 1 or 2 components
	NRuns     int
	Tolerance float64
	Seed      int64
}

// DefaultFitOptions is two components, 10 restarts, 1e-4 convergence
// tolerance.
func DefaultFitOptions() FitOptions {
	return FitOptions{K: 2, NRuns: 10, Tolerance: 1e-4, Seed: 2456}
}

const minVariance = 1e-8

// fitGMM fits a univariate Gaussian mixture to samples by EM, restarting
// opts.NRuns times from different k-means-style initializations and
// keeping the run with the highest log-likelihood. Returns an error if
// samples is too small to support opts.K components or every restart
// degenerates (singular covariance); the caller logs and omits the kmer.
func fitGMM(samples []float64, opts FitOptions) (model.GaussianMixture, error) {
	if opts.K <= 0 {
		opts.K = 1
	}
	if len(samples) < opts.K {
		return model.GaussianMixture{}, errors.Errorf("need at least %d samples to fit %d components, got %d", opts.K, opts.K, len(samples))
	}
	if opts.K == 1 {
		mean := stat.Mean(samples, nil)
		variance := stat.Variance(samples, nil)
		if variance < minVariance || math.IsNaN(variance) {
			return model.GaussianMixture{}, errors.Errorf("degenerate single-component variance %v", variance)
		}
		return model.GaussianMixture{Components: []model.Gaussian{
			{Weight: 1, Mean: mean, Variance: variance},
		}}, nil
	}

	rng := newRNG(opts.Seed)
	var best model.GaussianMixture
	bestLL := math.Inf(-1)
	found := false
	for run := 0; run < opts.NRuns; run++ {
		mix, ll, err := emOnce(samples, opts.K, opts.Tolerance, rng)
		if err != nil {
			continue
		}
		if ll > bestLL {
			best, bestLL, found = mix, ll, true
		}
	}
	if !found {
		return model.GaussianMixture{}, errors.Errorf("all %d EM restarts failed (degenerate data)", opts.NRuns)
	}
	return best, nil
}

// emOnce runs one EM restart to convergence (or a hard iteration cap),
// initializing component means from k samples picked uniformly at random
// without replacement, and returns the fitted mixture
// plus its final log-likelihood.
func emOnce(samples []float64, k int, tol float64, rng *rngSource) (model.GaussianMixture, float64, error) {
	n := len(samples)
	means := make([]float64, k)
	variances := make([]float64, k)
	weights := make([]float64, k)
	globalVar := stat.Variance(samples, nil)
	if globalVar < minVariance || math.IsNaN(globalVar) {
		return model.GaussianMixture{}, 0, errors.New("degenerate global variance")
	}
	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		means[i] = samples[perm[i%n]]
		variances[i] = globalVar
		weights[i] = 1.0 / float64(k)
	}

	resp := make([][]float64, k)
	for i := range resp {
		resp[i] = make([]float64, n)
	}

	const maxIters = 200
	prevLL := math.Inf(-1)
	var ll float64
	for iter := 0; iter < maxIters; iter++ {
		// E-step.
		ll = 0
		for j := 0; j < n; j++ {
			var rowSum float64
			for i := 0; i < k; i++ {
				d := gaussDensity(samples[j], means[i], variances[i])
				resp[i][j] = weights[i] * d
				rowSum += resp[i][j]
			}
			if rowSum <= 0 || math.IsNaN(rowSum) {
				return model.GaussianMixture{}, 0, errors.New("zero responsibility mass, singular component")
			}
			for i := 0; i < k; i++ {
				resp[i][j] /= rowSum
			}
			ll += math.Log(rowSum)
		}

		// M-step.
		for i := 0; i < k; i++ {
			var nk, meanSum float64
			for j := 0; j < n; j++ {
				nk += resp[i][j]
				meanSum += resp[i][j] * samples[j]
			}
			if nk < 1e-6 {
				return model.GaussianMixture{}, 0, errors.New("empty component during EM")
			}
			newMean := meanSum / nk
			var varSum float64
			for j := 0; j < n; j++ {
				d := samples[j] - newMean
				varSum += resp[i][j] * d * d
			}
			newVar := varSum / nk
			if newVar < minVariance {
				newVar = minVariance
			}
			means[i] = newMean
			variances[i] = newVar
			weights[i] = nk / float64(n)
		}

		if math.Abs(ll-prevLL) < tol {
			prevLL = ll
			break
		}
		prevLL = ll
	}

	comps := make([]model.Gaussian, k)
	for i := 0; i < k; i++ {
		comps[i] = model.Gaussian{Weight: weights[i], Mean: means[i], Variance: variances[i]}
	}
	return model.GaussianMixture{Components: comps}, prevLL, nil
}

func gaussDensity(x, mean, variance float64) float64 {
	return math.Exp(-0.5*(x-mean)*(x-mean)/variance) / math.Sqrt(2*math.Pi*variance)
}
