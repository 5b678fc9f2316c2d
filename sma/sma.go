// Package sma segments one scored read into alternating linker and
// nucleosome runs via a semi-Markov dynamic program over the two
// controls' binned score distributions.
package sma

import (
	"math"

	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
)

// NumStates is the DP's state count: state 0 is linker, states 1..146 are
// nucleosome-progress states.
const NumStates = 147

// MaxNucleosomeRun is the longest single nucleosome a backtrace may emit
// in one step (NumStates-1, since state 146 is the deepest nucleosome
// entry point).
const MaxNucleosomeRun = NumStates - 1

// Options configures Segment.
type Options struct {
	Motifs []dna.Motif // default dna.AllBases(); restricts which scored positions emit
}

// DefaultOptions scores every base.
func DefaultOptions() Options {
	return Options{Motifs: dna.AllBases()}
}

// Segment runs the dense 147-row log-space DP over read and backtraces it
// into a run-length-encoded bed12 block. posKde
// scores the linker state, negKde scores every nucleosome state.
func Segment(read recio.ScoredRead, posKde, negKde model.BinnedKde, opts Options) (recio.Bed12Block, error) {
	motifs := opts.Motifs
	if len(motifs) == 0 {
		motifs = dna.AllBases()
	}

	seqLength := read.Metadata.SeqLength()
	if seqLength == 0 {
		return recio.Bed12Block{}, errors.Errorf("sma: read %s has zero-length window", read.Metadata.Name)
	}

	byCol := make(map[uint64]recio.Score, len(read.Scores))
	for _, s := range read.Scores {
		if !dna.AnyWithinKmer(motifs, s.Kmer) {
			continue
		}
		byCol[s.Pos-read.Metadata.Start0b+1] = s
	}

	matrix := buildMatrix(seqLength, byCol, posKde, negKde)
	states := backtrace(matrix, seqLength)
	if uint64(len(states)) != seqLength {
		return recio.Bed12Block{}, errors.Errorf("sma: read %s backtrace produced %d states, want %d", read.Metadata.Name, len(states), seqLength)
	}
	return toBed12(read.Metadata, states), nil
}

// buildMatrix fills the 147 x (seqLength+1) log-space DP matrix. Column
// 0 is the uniform start; every later column
// is the best score reachable from any state in the previous column, plus
// the emission of the state being entered.
func buildMatrix(seqLength uint64, byCol map[uint64]recio.Score, posKde, negKde model.BinnedKde) [][]float64 {
	matrix := make([][]float64, NumStates)
	for i := range matrix {
		matrix[i] = make([]float64, seqLength+1)
	}
	uniform := math.Log(1.0 / NumStates)
	for i := 0; i < NumStates; i++ {
		matrix[i][0] = uniform
	}

	for c := uint64(1); c <= seqLength; c++ {
		best := math.Inf(-1)
		for i := 0; i < NumStates; i++ {
			if v := matrix[i][c-1]; v > best {
				best = v
			}
		}

		var emitLinker, emitNuc float64
		if s, ok := byCol[c]; ok {
			emitLinker = math.Log(posKde.Pmf(s.Combined))
			emitNuc = math.Log(negKde.Pmf(s.Combined))
		}

		matrix[0][c] = best + emitLinker
		for r := 1; r < NumStates; r++ {
			matrix[r][c] = best + emitNuc
		}
	}
	return matrix
}

// backtrace walks the matrix from the last column, committing one linker
// base per linker argmax and min(r, col) nucleosome bases per nucleosome
// argmax r, so a run never spills past the columns that remain.
func backtrace(matrix [][]float64, seqLength uint64) []bool {
	col := seqLength
	states := make([]bool, 0, seqLength)
	for col > 0 {
		r := argmaxRow(matrix, col)
		if r == 0 {
			states = append(states, false)
			col--
			continue
		}
		n := uint64(r)
		if n > col {
			n = col
		}
		for i := uint64(0); i < n; i++ {
			states = append(states, true)
		}
		if uint64(r) >= col {
			col = 0
		} else {
			col -= uint64(r)
		}
	}
	reverseBools(states)
	return states
}

// argmaxRow returns the row index with the largest value in matrix[:, col].
func argmaxRow(matrix [][]float64, col uint64) int {
	best := 0
	bestVal := matrix[0][col]
	for r := 1; r < NumStates; r++ {
		if matrix[r][col] > bestVal {
			best, bestVal = r, matrix[r][col]
		}
	}
	return best
}

func reverseBools(s []bool) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// toBed12 run-length-encodes a linker/nucleosome state sequence into a
// single bed12 block whose sub-blocks are the nucleosome runs.
func toBed12(meta recio.Metadata, nucleosome []bool) recio.Bed12Block {
	var sizes, starts []uint64
	i := 0
	for i < len(nucleosome) {
		if !nucleosome[i] {
			i++
			continue
		}
		start := i
		j := i
		for j < len(nucleosome) && nucleosome[j] {
			j++
		}
		starts = append(starts, uint64(start))
		sizes = append(sizes, uint64(j-start))
		i = j
	}

	thickStart, thickEnd := meta.Start0b, meta.Start0b
	if len(sizes) > 0 {
		thickStart = meta.Start0b + starts[0]
		thickEnd = meta.Start0b + starts[len(starts)-1] + sizes[len(sizes)-1]
	}

	return recio.Bed12Block{
		Chrom:          meta.Chrom,
		Start0b:        meta.Start0b,
		End0bExclusive: meta.Start0b + uint64(len(nucleosome)),
		Name:           meta.Name,
		Strand:         meta.Strand,
		ThickStart:     thickStart,
		ThickEnd:       thickEnd,
		BlockSizes:     sizes,
		BlockStarts:    starts,
	}
}
