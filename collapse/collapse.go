// Package collapse merges per-event signal rows into one record per
// (read, reference position), the pipeline's first stage.
package collapse

import (
	"io"

	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/strand"
)

// RowReader is satisfied by recio.EventalignTSVReader; pulled out as an
// interface so tests can feed synthetic rows without building a TSV.
type RowReader interface {
	Read() (recio.EventalignRow, error)
}

// BatchWriter is satisfied by *recio.Writer.
type BatchWriter interface {
	Append(record interface{}) error
}

// Options configures Run.
type Options struct {
	// BatchCapacity is the output batch size. Must be > 0. Run only
	// validates it: each finished read is appended to out at once, and
	// any batching is done by out.
	BatchCapacity int
}

type readKey struct {
	readName string
	contig   string
}

// Run streams rows from r, resolves each read's strand from strands, and
// writes one Eventalign record per read to out, in input order.
func Run(r RowReader, strands *strand.Table, out BatchWriter, opts Options) error {
	if opts.BatchCapacity <= 0 {
		return errors.Errorf("batch capacity must be > 0, got %d", opts.BatchCapacity)
	}

	var (
		haveCurrent bool
		current     readKey
		signals     []recio.Signal
		open        *recio.Signal
		firstPos    uint64
		lastPos     uint64
	)

	finalize := func() error {
		if !haveCurrent {
			return nil
		}
		if open != nil {
			signals = append(signals, *open)
			open = nil
		}
		if len(signals) == 0 {
			return nil
		}
		npLength := lastPos - firstPos + 1
		st := dna.Unknown
		if strands != nil {
			st = strands.Lookup(current.readName)
		}
		meta := recio.Metadata{
			Name:     current.readName,
			Chrom:    current.contig,
			Start0b:  firstPos,
			NPLength: npLength,
			Strand:   st,
		}
		rec := recio.Eventalign{Metadata: meta, Signals: signals}
		if err := out.Append(rec); err != nil {
			return errors.Wrap(err, "writing collapsed read")
		}
		signals = nil
		return nil
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "reading eventalign row")
		}

		key := readKey{readName: row.ReadName, contig: row.Contig}
		if !haveCurrent || key != current {
			if err := finalize(); err != nil {
				return err
			}
			haveCurrent = true
			current = key
			firstPos = row.Position
			open = nil
		}

		if open != nil && open.Pos == row.Position {
			open.Samples = append(open.Samples, row.Samples...)
			open.DwellTime += row.EventLength
			open.Mean = mean(open.Samples)
			continue
		}
		if open != nil {
			signals = append(signals, *open)
		}
		open = &recio.Signal{
			Pos:       row.Position,
			Kmer:      row.ModelKmer,
			Mean:      mean(row.Samples),
			DwellTime: row.EventLength,
			Samples:   append([]float64(nil), row.Samples...),
		}
		lastPos = row.Position
	}
	return finalize()
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
