package strand_test

import (
	"bytes"
	"testing"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/strand"
)

func writeBAM(t *testing.T, header *sam.Header, records []*sam.Record) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w, err := bam.NewWriter(&buf, header, 1)
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())
	return &buf
}

func alignedRead(name string, ref *sam.Reference, pos int, flags sam.Flags) *sam.Record {
	return &sam.Record{
		Name:  name,
		Ref:   ref,
		Pos:   pos,
		MapQ:  60,
		Flags: flags,
		Cigar: []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 4)},
		Seq:   sam.NewSeq([]byte("ACGT")),
		Qual:  []byte{40, 40, 40, 40},
	}
}

func TestBuildTableResolvesStrandPerRead(t *testing.T) {
	chrI, err := sam.NewReference("chrI", "", "", 1000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chrI})
	require.NoError(t, err)

	buf := writeBAM(t, header, []*sam.Record{
		alignedRead("fwd", chrI, 10, 0),
		alignedRead("rev", chrI, 20, sam.Reverse),
		alignedRead("lost", chrI, 30, sam.Unmapped),
	})

	tbl, err := strand.BuildTable(buf)
	require.NoError(t, err)
	assert.Equal(t, dna.Plus, tbl.Lookup("fwd"))
	assert.Equal(t, dna.Minus, tbl.Lookup("rev"))
	// Unmapped records carry no orientation, same as reads absent from the
	// alignment entirely.
	assert.Equal(t, dna.Unknown, tbl.Lookup("lost"))
	assert.Equal(t, dna.Unknown, tbl.Lookup("absent"))
}

func TestBuildTableMarksInconsistentStrandUnknown(t *testing.T) {
	chrI, err := sam.NewReference("chrI", "", "", 1000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chrI})
	require.NoError(t, err)

	buf := writeBAM(t, header, []*sam.Record{
		alignedRead("swap", chrI, 10, 0),
		alignedRead("swap", chrI, 50, sam.Secondary|sam.Reverse),
		// A later consistent record must not resurrect a read already
		// marked unknown.
		alignedRead("swap", chrI, 90, sam.Secondary),
		alignedRead("multi", chrI, 15, 0),
		alignedRead("multi", chrI, 60, sam.Secondary),
	})

	tbl, err := strand.BuildTable(buf)
	require.NoError(t, err)
	assert.Equal(t, dna.Unknown, tbl.Lookup("swap"))
	assert.Equal(t, dna.Plus, tbl.Lookup("multi"))
}

func TestLookupUnknownForAbsentRead(t *testing.T) {
	tbl := &strand.Table{}
	assert.Equal(t, dna.Unknown, tbl.Lookup("nonexistent-read"))
}
