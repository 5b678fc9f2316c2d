// Package aggregate rolls up per-read bed12 blocks emitted by SMA into
// per-position modification fractions across the whole dataset.
package aggregate

import (
	"sort"

	"github.com/grailbio/nanopore-occ/recio"
)

type position struct {
	chrom string
	pos   uint64
}

type tally struct {
	modified uint64
	total    uint64
}

// Run counts, for every reference position covered by any block's outer
// interval, how many reads cover it (total) and how many of those reads'
// nucleosome sub-blocks touch it (modified). Rows are returned sorted by
// (chrom, pos) for deterministic output.
func Run(blocks []recio.Bed12Block) []recio.AggregateRow {
	counts := make(map[position]*tally)
	for _, b := range blocks {
		modifiedPos := make(map[uint64]bool, len(b.BlockSizes))
		for i, size := range b.BlockSizes {
			start := b.Start0b + b.BlockStarts[i]
			for off := uint64(0); off < size; off++ {
				modifiedPos[start+off] = true
			}
		}

		for p := b.Start0b; p < b.End0bExclusive; p++ {
			key := position{chrom: b.Chrom, pos: p}
			t, ok := counts[key]
			if !ok {
				t = &tally{}
				counts[key] = t
			}
			t.total++
			if modifiedPos[p] {
				t.modified++
			}
		}
	}

	rows := make([]recio.AggregateRow, 0, len(counts))
	for k, t := range counts {
		rows = append(rows, recio.AggregateRow{Chrom: k.chrom, Pos: k.pos, Modified: t.modified, Total: t.total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Chrom != rows[j].Chrom {
			return rows[i].Chrom < rows[j].Chrom
		}
		return rows[i].Pos < rows[j].Pos
	})
	return rows
}
