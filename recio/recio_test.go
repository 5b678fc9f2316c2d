package recio_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/recio"
)

func TestMetadataDerivedArithmetic(t *testing.T) {
	m := recio.Metadata{Chrom: "chrI", Start0b: 100, NPLength: 50, Strand: dna.Plus}
	assert.Equal(t, uint64(55), m.SeqLength())
	assert.Equal(t, uint64(101), m.Start1b())
	assert.Equal(t, m.SeqStop1bExclusive()-5, m.End1bExclusive())
	assert.Equal(t, m.Start0b+m.SeqLength(), m.SeqStop1bExclusive())
}

func TestBatchWriteReadRoundTrip(t *testing.T) {
	ev := recio.Eventalign{
		Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 100, NPLength: 2, Strand: dna.Plus},
		Signals: []recio.Signal{
			{Pos: 100, Kmer: "AAAAAA", Mean: 2.0, DwellTime: 0.03, Samples: []float64{1, 2, 3}},
			{Pos: 101, Kmer: "AAAAAC", Mean: 4.0, DwellTime: 0.03, Samples: []float64{4}},
		},
	}

	var buf bytes.Buffer
	w, err := recio.NewWriter(&buf, recio.SchemaEventalign, 1)
	require.NoError(t, err)
	require.NoError(t, w.Append(ev))
	require.NoError(t, w.Close())

	r, err := recio.NewReader(&buf, recio.SchemaEventalign)
	require.NoError(t, err)
	batch, err := r.ReadEventalignBatch()
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, ev, batch[0])

	_, err = r.ReadEventalignBatch()
	assert.Equal(t, io.EOF, err)
}

func TestBatchSchemaMismatchRejected(t *testing.T) {
	var buf bytes.Buffer
	w, err := recio.NewWriter(&buf, recio.SchemaScored, 0)
	require.NoError(t, err)
	require.NoError(t, w.Append(recio.ScoredRead{}))
	require.NoError(t, w.Close())

	_, err = recio.NewReader(&buf, recio.SchemaEventalign)
	assert.Error(t, err)
}

func TestEventalignTSVReader(t *testing.T) {
	data := "contig\tposition\tread_name\tevent_length\tmodel_kmer\tsamples\n" +
		"chrI\t100\tR1\t0.01\tAAAAAA\t1.0,2.0\n" +
		"chrI\t101\tR1\t0.02\tAAAAAC\t4.0\n"
	r := recio.NewEventalignTSVReader(strings.NewReader(data))
	row, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "chrI", row.Contig)
	assert.Equal(t, uint64(100), row.Position)
	assert.Equal(t, []float64{1.0, 2.0}, row.Samples)

	row, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, uint64(101), row.Position)

	_, err = r.Read()
	assert.Equal(t, io.EOF, err)
}

func TestBed12RoundTrip(t *testing.T) {
	blocks := []recio.Bed12Block{
		{
			Chrom: "chrI", Start0b: 100, End0bExclusive: 200, Name: "R1",
			Strand: dna.Plus, ThickStart: 100, ThickEnd: 200,
			BlockSizes: []uint64{10, 20}, BlockStarts: []uint64{0, 50},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, recio.WriteBed12(&buf, blocks))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 1)
	got, err := recio.ParseBed12Line(lines[0])
	require.NoError(t, err)
	assert.Equal(t, blocks[0], got)
}

func TestAggregateRowFrac(t *testing.T) {
	r := recio.AggregateRow{Chrom: "chrI", Pos: 5, Modified: 3, Total: 4}
	assert.InDelta(t, 0.75, r.Frac(), 1e-9)

	var buf bytes.Buffer
	require.NoError(t, recio.WriteAggregateRows(&buf, []recio.AggregateRow{r}))
	assert.Equal(t, "chrI\t5\t3\t4\t0.750000\n", buf.String())
}
