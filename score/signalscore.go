package score

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
)

var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// chooseNegative returns the "chosen negative Gaussian": the component of
// negMix with the largest weight.
func chooseNegative(negMix model.GaussianMixture) model.Gaussian {
	return negMix.HighestWeight()
}

// choosePositive returns the component of posMix with the largest KL
// divergence from negComp, the "chosen positive Gaussian".
func choosePositive(negComp model.Gaussian, posMix model.GaussianMixture) model.Gaussian {
	return posMix.MostDivergentFrom(negComp)
}

// zTestPValue is the two-tailed p-value between two Gaussians via the
// standard normal survival function.
func zTestPValue(pos, neg model.Gaussian) float64 {
	z := (pos.Mean - neg.Mean) / math.Sqrt(pos.Variance+neg.Variance)
	return 2 * standardNormal.Survival(math.Abs(z))
}

// windowPositions returns the six genomic positions W(p) = {p-5,...,p}
// whose 6-mers overlap p, clipped at 0.
func windowPositions(p uint64) []uint64 {
	out := make([]uint64, 0, 6)
	var start uint64
	if p >= 5 {
		start = p - 5
	}
	for q := start; q <= p; q++ {
		out = append(out, q)
	}
	return out
}

// signalScore keeps, among the Signals present in W(p), only those whose
// kmer passes the z-test p-value threshold against its pos/neg control
// mixtures, takes the highest-ranked survivor, and converts its mean
// current into a calibrated probability. Returns ok=false when no
// candidate survives or model coverage is insufficient at the winning
// value (the ln-density cutoff).
func signalScore(p uint64, dataPos map[uint64]recio.Signal, pos, neg *model.Model, ranks model.Ranks, pValueThreshold, cutoff float64) (float64, bool) {
	var (
		bestSig    recio.Signal
		bestRank   float64
		bestRanked bool
		haveBest   bool
	)
	for _, q := range windowPositions(p) {
		sig, ok := dataPos[q]
		if !ok {
			continue
		}
		posMix, ok := pos.Mixture(sig.Kmer)
		if !ok {
			continue
		}
		negMix, ok := neg.Mixture(sig.Kmer)
		if !ok {
			continue
		}
		negComp := chooseNegative(negMix)
		posComp := choosePositive(negComp, posMix)
		if zTestPValue(posComp, negComp) >= pValueThreshold {
			continue
		}
		// An absent kmer loses to any ranked one ("None loses"); among equals
		// the later candidate wins.
		r, ranked := ranks[sig.Kmer]
		if !haveBest || (ranked && !bestRanked) || (ranked == bestRanked && r >= bestRank) {
			bestSig, bestRank, bestRanked, haveBest = sig, r, ranked, true
		}
	}
	if !haveBest {
		return 0, false
	}

	posMix, _ := pos.Mixture(bestSig.Kmer)
	negMix, _ := neg.Mixture(bestSig.Kmer)
	negComp := chooseNegative(negMix)
	posComp := choosePositive(negComp, posMix)

	lnPos := gaussianLogDensity(bestSig.Mean, posComp)
	lnNeg := gaussianLogDensity(bestSig.Mean, negComp)

	// Insufficient model coverage at this value if both ln-densities fall
	// below the cutoff.
	if lnPos < -cutoff && lnNeg < -cutoff {
		return 0, false
	}
	fPos := math.Exp(lnPos)
	fNeg := math.Exp(lnNeg)
	return fPos / (fPos + fNeg), true
}

// gaussianLogDensity is the plain (unweighted) log-density of a single
// Gaussian component at x.
func gaussianLogDensity(x float64, g model.Gaussian) float64 {
	return -0.5*math.Log(2*math.Pi*g.Variance) - (x-g.Mean)*(x-g.Mean)/(2*g.Variance)
}
