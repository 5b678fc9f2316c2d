package recio

import (
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

// eventalignRow is one line of the eventalign TSV: contig, position,
// read_name, event_length, model_kmer, samples, plus whatever other
// columns the upstream aligner emits (ignored via HasHeaderRow + tag
// matching, so column order and extra columns never matter).
type eventalignRow struct {
	Contig      string  `tsv:"contig"`
	Position    uint64  `tsv:"position"`
	ReadName    string  `tsv:"read_name"`
	EventLength float64 `tsv:"event_length"`
	ModelKmer   string  `tsv:"model_kmer"`
	Samples     string  `tsv:"samples"`
}

// EventalignRow is the parsed form of one TSV row, with Samples split and
// converted to float64.
type EventalignRow struct {
	Contig      string
	Position    uint64
	ReadName    string
	EventLength float64
	ModelKmer   string
	Samples     []float64
}

// EventalignTSVReader streams parsed rows from an eventalign TSV, tab
// delimited with a header row naming the recognized columns.
type EventalignTSVReader struct {
	r *tsv.Reader
}

// NewEventalignTSVReader wraps r.
func NewEventalignTSVReader(r io.Reader) *EventalignTSVReader {
	tr := tsv.NewReader(r)
	tr.HasHeaderRow = true
	tr.UseHeaderNames = true
	return &EventalignTSVReader{r: tr}
}

// Read returns the next parsed row, or io.EOF at the end of the stream.
// Malformed rows (bad numeric parse) are surfaced as errors that abort the
// stream.
func (r *EventalignTSVReader) Read() (EventalignRow, error) {
	var raw eventalignRow
	if err := r.r.Read(&raw); err != nil {
		if err == io.EOF {
			return EventalignRow{}, io.EOF
		}
		return EventalignRow{}, errors.Wrap(err, "reading eventalign TSV row")
	}
	samples, err := parseSamples(raw.Samples)
	if err != nil {
		return EventalignRow{}, errors.Wrapf(err, "parsing samples in row for %s:%d", raw.Contig, raw.Position)
	}
	return EventalignRow{
		Contig:      raw.Contig,
		Position:    raw.Position,
		ReadName:    raw.ReadName,
		EventLength: raw.EventLength,
		ModelKmer:   raw.ModelKmer,
		Samples:     samples,
	}, nil
}

func parseSamples(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid sample %q", p)
		}
		out[i] = v
	}
	return out, nil
}
