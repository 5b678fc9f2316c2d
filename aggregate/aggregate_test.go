package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/aggregate"
	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/recio"
)

func TestRunCountsCoverageAndModification(t *testing.T) {
	blocks := []recio.Bed12Block{
		{
			Chrom: "chrI", Start0b: 0, End0bExclusive: 10, Name: "R1", Strand: dna.Plus,
			BlockSizes: []uint64{3}, BlockStarts: []uint64{2}, // nucleosome over [2,5)
		},
		{
			Chrom: "chrI", Start0b: 0, End0bExclusive: 10, Name: "R2", Strand: dna.Plus,
			BlockSizes: nil, BlockStarts: nil, // all linker
		},
	}
	rows := aggregate.Run(blocks)
	require.Len(t, rows, 10)

	byPos := make(map[uint64]recio.AggregateRow, len(rows))
	for _, r := range rows {
		byPos[r.Pos] = r
	}

	assert.Equal(t, uint64(2), byPos[3].Total)
	assert.Equal(t, uint64(1), byPos[3].Modified)
	assert.InDelta(t, 0.5, byPos[3].Frac(), 1e-9)

	assert.Equal(t, uint64(2), byPos[0].Total)
	assert.Equal(t, uint64(0), byPos[0].Modified)
	assert.Equal(t, 0.0, byPos[0].Frac())
}

func TestFracIsZeroWhenUncovered(t *testing.T) {
	row := recio.AggregateRow{Chrom: "chrI", Pos: 5, Modified: 0, Total: 0}
	assert.Equal(t, 0.0, row.Frac())
}
