package reference_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/reference"
)

func TestBuildComplementsWithoutReversingOnMinusStrand(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chrI\nACGTACGTACGTACGTACGTACGTACGT\n"))
	require.NoError(t, err)

	plusMeta := recio.Metadata{Chrom: "chrI", Start0b: 10, NPLength: 5, Strand: dna.Plus}
	plusCtx, err := reference.Build(fa, plusMeta)
	require.NoError(t, err)

	minusMeta := plusMeta
	minusMeta.Strand = dna.Minus
	minusCtx, err := reference.Build(fa, minusMeta)
	require.NoError(t, err)

	plusKmer, ok := plusCtx.SixmerAt(plusMeta.Start0b)
	require.True(t, ok)
	minusKmer, ok := minusCtx.SixmerAt(minusMeta.Start0b)
	require.True(t, ok)
	assert.Equal(t, dna.ComplementSeq(plusKmer), minusKmer)
	assert.Equal(t, len(plusKmer), len(minusKmer))
}

func TestSixmerAtNearChromosomeEnd(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chrI\nACGTAC\n"))
	require.NoError(t, err)
	meta := recio.Metadata{Chrom: "chrI", Start0b: 0, NPLength: 1, Strand: dna.Plus}
	ctx, err := reference.Build(fa, meta)
	require.NoError(t, err)
	_, ok := ctx.SixmerAt(100)
	assert.False(t, ok)
}

func TestSurroundingOmitsOutOfRangeWindows(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chrI\n" + strings.Repeat("ACGT", 20) + "\n"))
	require.NoError(t, err)
	meta := recio.Metadata{Chrom: "chrI", Start0b: 20, NPLength: 10, Strand: dna.Plus}
	ctx, err := reference.Build(fa, meta)
	require.NoError(t, err)
	m, err := dna.ParseMotif("1:GC")
	require.NoError(t, err)
	windows := ctx.Surrounding(meta.Start0b+meta.NPLength, m)
	for _, w := range windows {
		assert.Len(t, w, 6)
	}
}
