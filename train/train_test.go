package train

import (
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/recio"
)

func TestSampleStoreCapsReservoirSize(t *testing.T) {
	s := NewSampleStore(5, 1)
	for i := 0; i < 1000; i++ {
		s.Add("AAAAAA", float64(i))
	}
	assert.Len(t, s.Samples("AAAAAA"), 5)
}

func TestSampleStoreDropsNonFiniteSamples(t *testing.T) {
	s := NewSampleStore(10, 1)
	s.Add("AAAAAA", math.NaN())
	s.Add("AAAAAA", math.Inf(1))
	s.Add("AAAAAA", math.Inf(-1))
	s.Add("AAAAAA", 1.5)
	assert.Equal(t, []float64{1.5}, s.Samples("AAAAAA"))
}

func TestKmersRestrictedByMotif(t *testing.T) {
	m, err := dna.ParseMotif("1:AAAA")
	require.NoError(t, err)
	kmers := Kmers([]dna.Motif{m})
	for _, k := range kmers {
		assert.True(t, dna.AnyWithinKmer([]dna.Motif{m}, k))
	}
	assert.Less(t, len(kmers), len(dna.AllKmers()))
}

func TestSkipCountsFrequency(t *testing.T) {
	genome, err := fasta.New(strings.NewReader(">chrI\n" + strings.Repeat("A", 20) + "\n"))
	require.NoError(t, err)

	read := recio.Eventalign{
		Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 0, NPLength: 3},
		Signals: []recio.Signal{
			{Pos: 0, Kmer: "AAAAAA", Mean: 1},
			{Pos: 2, Kmer: "AAAAAA", Mean: 1},
		},
	}
	sc := newSkipCounts()
	require.NoError(t, sc.Add(genome, read))

	freqs := sc.Frequencies()
	// Window covers positions 0,1,2 (np_length=3); position 1 has no
	// Signal entry, so 1 of 3 occurrences of "AAAAAA" is a skip.
	assert.InDelta(t, 1.0/3.0, freqs["AAAAAA"], 1e-9)
}

func TestFitGMMSingleComponentRecoversMoments(t *testing.T) {
	samples := []float64{10, 10, 10, 12, 8, 10, 10, 10, 12, 8}
	mix, err := fitGMM(samples, FitOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, mix.Components, 1)
	assert.InDelta(t, 10, mix.Components[0].Mean, 1e-9)
	assert.Greater(t, mix.Components[0].Variance, 0.0)
}

func TestFitGMMRejectsTooFewSamples(t *testing.T) {
	_, err := fitGMM([]float64{1}, FitOptions{K: 2})
	assert.Error(t, err)
}

type fakeReader struct {
	batches [][]recio.Eventalign
	i       int
}

func (f *fakeReader) ReadEventalignBatch() ([]recio.Eventalign, error) {
	if f.i >= len(f.batches) {
		return nil, io.EOF
	}
	b := f.batches[f.i]
	f.i++
	var err error
	if f.i == len(f.batches) {
		err = io.EOF
	}
	return b, err
}

func TestRunFitsOneComponentModelAndSkipFrequency(t *testing.T) {
	genome, err := fasta.New(strings.NewReader(">chrI\n" + strings.Repeat("A", 20) + "\n"))
	require.NoError(t, err)

	reads := []recio.Eventalign{
		{
			Metadata: recio.Metadata{Name: "R1", Chrom: "chrI", Start0b: 0, NPLength: 10},
			Signals: []recio.Signal{
				{Pos: 0, Kmer: "AAAAAA", Mean: 100},
				{Pos: 1, Kmer: "AAAAAA", Mean: 102},
				{Pos: 2, Kmer: "AAAAAA", Mean: 98},
			},
		},
	}
	opts := DefaultOptions()
	opts.Single = true
	opts.Workers = 2
	opts.Motifs = []dna.Motif{mustMotif(t, "1:AAAAAA")}

	m, err := Run(&fakeReader{batches: [][]recio.Eventalign{reads}}, genome, opts)
	require.NoError(t, err)

	mix, ok := m.Mixture("AAAAAA")
	require.True(t, ok)
	require.Len(t, mix.Components, 1)
	assert.InDelta(t, 100, mix.Components[0].Mean, 5)

	freq, ok := m.Skip("AAAAAA")
	require.True(t, ok)
	assert.GreaterOrEqual(t, freq, 0.0)
	assert.LessOrEqual(t, freq, 1.0)
}

func mustMotif(t *testing.T, s string) dna.Motif {
	t.Helper()
	m, err := dna.ParseMotif(s)
	require.NoError(t, err)
	return m
}
