package recio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/nanopore-occ/dna"
)

// Bed12Block is one bed12 data line: a read's outer interval plus the
// nucleosome sub-blocks SMA's backtrace produced within it.
type Bed12Block struct {
	Chrom          string
	Start0b        uint64
	End0bExclusive uint64
	Name           string
	Strand         dna.Strand
	ThickStart     uint64
	ThickEnd       uint64
	BlockSizes     []uint64
	BlockStarts    []uint64 // relative to Start0b
}

// WriteBed12 writes one bed12 line per block, in the order
// chrom, start, end, name, score(0), strand, thickStart, thickEnd, rgb,
// blockCount, blockSizes, blockStarts.
func WriteBed12(w io.Writer, blocks []Bed12Block) error {
	for _, b := range blocks {
		sizes := make([]string, len(b.BlockSizes))
		for i, s := range b.BlockSizes {
			sizes[i] = strconv.FormatUint(s, 10)
		}
		starts := make([]string, len(b.BlockStarts))
		for i, s := range b.BlockStarts {
			starts[i] = strconv.FormatUint(s, 10)
		}
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t0\t%s\t%d\t%d\t%s\t%d\t%s\t%s\n",
			b.Chrom, b.Start0b, b.End0bExclusive, b.Name, b.Strand.String(),
			b.ThickStart, b.ThickEnd, b.Strand.RGB(), len(b.BlockSizes),
			strings.Join(sizes, ","), strings.Join(starts, ","))
		if err != nil {
			return err
		}
	}
	return nil
}

// ParseBed12Line parses one bed12 data line (ignoring an optional leading
// track header line, which callers should skip before calling this).
func ParseBed12Line(line string) (Bed12Block, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 12 {
		return Bed12Block{}, fmt.Errorf("bed12 line has %d fields, want 12: %q", len(fields), line)
	}
	start, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return Bed12Block{}, fmt.Errorf("invalid bed12 start: %w", err)
	}
	end, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Bed12Block{}, fmt.Errorf("invalid bed12 end: %w", err)
	}
	strand, err := dna.ParseStrand(fields[5])
	if err != nil {
		return Bed12Block{}, err
	}
	thickStart, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return Bed12Block{}, fmt.Errorf("invalid bed12 thickStart: %w", err)
	}
	thickEnd, err := strconv.ParseUint(fields[7], 10, 64)
	if err != nil {
		return Bed12Block{}, fmt.Errorf("invalid bed12 thickEnd: %w", err)
	}
	sizes, err := parseUintList(fields[10])
	if err != nil {
		return Bed12Block{}, fmt.Errorf("invalid bed12 blockSizes: %w", err)
	}
	starts, err := parseUintList(fields[11])
	if err != nil {
		return Bed12Block{}, fmt.Errorf("invalid bed12 blockStarts: %w", err)
	}
	return Bed12Block{
		Chrom:          fields[0],
		Start0b:        start,
		End0bExclusive: end,
		Name:           fields[3],
		Strand:         strand,
		ThickStart:     thickStart,
		ThickEnd:       thickEnd,
		BlockSizes:     sizes,
		BlockStarts:    starts,
	}, nil
}

func parseUintList(s string) ([]uint64, error) {
	s = strings.TrimSuffix(s, ",")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// AggregateRow is one output line of the per-position block rollup.
type AggregateRow struct {
	Chrom    string
	Pos      uint64
	Modified uint64
	Total    uint64
}

// Frac returns modified/total, 0 if total is 0.
func (r AggregateRow) Frac() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Modified) / float64(r.Total)
}

// WriteAggregateRows writes chrom, pos, modified, total, frac per line.
func WriteAggregateRows(w io.Writer, rows []AggregateRow) error {
	for _, r := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.6f\n", r.Chrom, r.Pos, r.Modified, r.Total, r.Frac()); err != nil {
			return err
		}
	}
	return nil
}
