package score

import (
	"math"

	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/reference"
)

// skipScore averages, over the six positions in W(p), the evidence a
// position's presence/absence carries given each control's skip frequency
// for that position's kmer. Returns an error when no position in the
// window has both controls' skip frequency recorded; the position is then
// unscorable by this route.
func skipScore(p uint64, present map[uint64]bool, ctx reference.Context, pos, neg *model.Model) (float64, error) {
	var sum float64
	var n int
	for _, q := range windowPositions(p) {
		kmer, ok := ctx.SixmerAt(q)
		if !ok {
			continue
		}
		sPos, ok := pos.Skip(kmer)
		if !ok {
			continue
		}
		sNeg, ok := neg.Skip(kmer)
		if !ok {
			continue
		}
		var contribution float64
		if present[q] {
			contribution = sPos / (sPos + sNeg)
		} else {
			posAbsent := 1 - sPos
			negAbsent := 1 - sNeg
			contribution = posAbsent / (posAbsent + negAbsent)
		}
		if math.IsNaN(contribution) {
			continue
		}
		sum += contribution
		n++
	}
	if n == 0 {
		return 0, errors.New("no kmer in window has recorded skip frequency in both controls")
	}
	return sum / float64(n), nil
}
