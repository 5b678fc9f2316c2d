// Package strand resolves each read's orientation relative to the
// reference from a sorted, indexed alignment file. The core pipeline never
// streams the alignment itself; only this one lookup is needed, before
// Collapse starts streaming its TSV.
package strand

import (
	"io"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
)

// Table maps read name to its resolved strand. A read seen with
// inconsistent orientation across multiple alignment records (multimapped
// with a strand swap) resolves to dna.Unknown with a warning.
type Table struct {
	byRead map[string]dna.Strand
}

// Lookup returns the strand recorded for readName, or dna.Unknown if the
// read never appeared in the alignment file.
func (t *Table) Lookup(readName string) dna.Strand {
	s, ok := t.byRead[readName]
	if !ok {
		return dna.Unknown
	}
	return s
}

// BuildTable scans every record in a BAM stream and resolves one strand
// per read name. r need not be indexed or sorted; the whole file is read
// once, up front, before Collapse begins streaming its TSV.
func BuildTable(r io.Reader) (*Table, error) {
	br, err := bam.NewReader(r, 0)
	if err != nil {
		return nil, errors.Wrap(err, "opening alignment BAM")
	}
	defer br.Close()

	t := &Table{byRead: make(map[string]dna.Strand)}
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading alignment record")
		}
		if rec.Flags&sam.Unmapped != 0 {
			continue
		}
		recStrand := dna.Plus
		if rec.Flags&sam.Reverse != 0 {
			recStrand = dna.Minus
		}
		if prev, ok := t.byRead[rec.Name]; ok {
			if prev == dna.Unknown {
				continue
			}
			if prev != recStrand {
				log.Printf("strand: read %s aligned with inconsistent strand across records, marking unknown", rec.Name)
				t.byRead[rec.Name] = dna.Unknown
			}
			continue
		}
		t.byRead[rec.Name] = recStrand
	}
	return t, nil
}
