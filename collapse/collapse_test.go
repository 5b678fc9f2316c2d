package collapse_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/nanopore-occ/collapse"
	"github.com/grailbio/nanopore-occ/recio"
)

type fakeRows struct {
	rows []recio.EventalignRow
	i    int
}

func (f *fakeRows) Read() (recio.EventalignRow, error) {
	if f.i >= len(f.rows) {
		return recio.EventalignRow{}, io.EOF
	}
	r := f.rows[f.i]
	f.i++
	return r, nil
}

type collectWriter struct {
	recs []interface{}
}

func (c *collectWriter) Append(r interface{}) error {
	c.recs = append(c.recs, r)
	return nil
}

func TestCollapseMergesDuplicatePositions(t *testing.T) {
	rows := &fakeRows{rows: []recio.EventalignRow{
		{Contig: "chrI", Position: 100, ReadName: "R1", EventLength: 0.01, ModelKmer: "AAAAAA", Samples: []float64{1.0, 2.0}},
		{Contig: "chrI", Position: 100, ReadName: "R1", EventLength: 0.02, ModelKmer: "AAAAAA", Samples: []float64{3.0}},
		{Contig: "chrI", Position: 101, ReadName: "R1", EventLength: 0.03, ModelKmer: "AAAAAC", Samples: []float64{4.0}},
	}}
	out := &collectWriter{}
	require.NoError(t, collapse.Run(rows, nil, out, collapse.Options{BatchCapacity: 10}))

	require.Len(t, out.recs, 1)
	rec := out.recs[0].(recio.Eventalign)
	assert.Equal(t, uint64(2), rec.Metadata.NPLength)
	require.Len(t, rec.Signals, 2)

	assert.Equal(t, uint64(100), rec.Signals[0].Pos)
	assert.Equal(t, []float64{1.0, 2.0, 3.0}, rec.Signals[0].Samples)
	assert.InDelta(t, 2.0, rec.Signals[0].Mean, 1e-9)
	assert.InDelta(t, 0.03, rec.Signals[0].DwellTime, 1e-9)

	assert.Equal(t, uint64(101), rec.Signals[1].Pos)
	assert.Equal(t, []float64{4.0}, rec.Signals[1].Samples)
	assert.InDelta(t, 4.0, rec.Signals[1].Mean, 1e-9)
}

func TestCollapseRejectsZeroCapacity(t *testing.T) {
	rows := &fakeRows{}
	out := &collectWriter{}
	err := collapse.Run(rows, nil, out, collapse.Options{BatchCapacity: 0})
	assert.Error(t, err)
}

func TestCollapseOrderingAndUniquePositions(t *testing.T) {
	rows := &fakeRows{rows: []recio.EventalignRow{
		{Contig: "chrI", Position: 10, ReadName: "R1", ModelKmer: "AAAAAA", Samples: []float64{1}},
		{Contig: "chrI", Position: 11, ReadName: "R1", ModelKmer: "AAAAAC", Samples: []float64{2}},
		{Contig: "chrI", Position: 12, ReadName: "R1", ModelKmer: "AAAAAG", Samples: []float64{3}},
		{Contig: "chrI", Position: 5, ReadName: "R2", ModelKmer: "CCCCCC", Samples: []float64{9}},
	}}
	out := &collectWriter{}
	require.NoError(t, collapse.Run(rows, nil, out, collapse.Options{BatchCapacity: 10}))
	require.Len(t, out.recs, 2)

	r1 := out.recs[0].(recio.Eventalign)
	assert.Equal(t, "R1", r1.Metadata.Name)
	var lastPos uint64
	seen := map[uint64]bool{}
	for i, s := range r1.Signals {
		if i > 0 {
			assert.Greater(t, s.Pos, lastPos)
		}
		assert.False(t, seen[s.Pos])
		seen[s.Pos] = true
		lastPos = s.Pos
	}

	r2 := out.recs[1].(recio.Eventalign)
	assert.Equal(t, "R2", r2.Metadata.Name)
}
