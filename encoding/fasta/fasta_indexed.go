package fasta

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// faiEntry is one line of a samtools-style .fai index: a sequence's total
// base count, the byte offset of its first base, and its line layout
// (bases per line, bytes per line including the terminator).
type faiEntry struct {
	length    uint64
	offset    uint64
	lineBases uint64
	lineWidth uint64
}

func parseFaiEntry(line string) (string, faiEntry, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 5 {
		return "", faiEntry{}, errors.Errorf("fai line has %d fields, want 5: %q", len(fields), line)
	}
	var ent faiEntry
	var err error
	for i, dst := range []*uint64{&ent.length, &ent.offset, &ent.lineBases, &ent.lineWidth} {
		if *dst, err = strconv.ParseUint(fields[i+1], 10, 64); err != nil {
			return "", faiEntry{}, errors.Wrapf(err, "invalid fai line %q", line)
		}
	}
	if ent.lineBases == 0 || ent.lineWidth < ent.lineBases {
		return "", faiEntry{}, errors.Errorf("inconsistent line layout in fai line %q", line)
	}
	return fields[0], ent, nil
}

type indexedFasta struct {
	r        io.ReaderAt
	seqs     map[string]faiEntry
	seqNames []string
}

// NewIndexed returns a Fasta that answers Get queries by reading only the
// bytes covering the requested window, located through a samtools-style
// .fai index. Every Get is a single stateless ReadAt against r, so the
// returned Fasta needs no locking and is safe for concurrent use.
func NewIndexed(r io.ReaderAt, index io.Reader) (Fasta, error) {
	f := &indexedFasta{r: r, seqs: make(map[string]faiEntry)}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, ent, err := parseFaiEntry(line)
		if err != nil {
			return nil, err
		}
		f.seqs[name] = ent
		f.seqNames = append(f.seqNames, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading fai index")
	}
	return f, nil
}

// FaiToReferenceLengths reads a .fai index and returns a map of reference
// name to reference length, without touching the FASTA itself.
func FaiToReferenceLengths(index io.Reader) (map[string]uint64, error) {
	lengths := make(map[string]uint64)
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, ent, err := parseFaiEntry(line)
		if err != nil {
			return nil, err
		}
		lengths[name] = ent.length
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading fai index")
	}
	return lengths, nil
}

// byteOffset maps the i'th base of a sequence to its byte position in the
// FASTA body, accounting for the line terminators between full lines.
func (e faiEntry) byteOffset(i uint64) uint64 {
	newline := e.lineWidth - e.lineBases
	return e.offset + i + newline*(i/e.lineBases)
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	if end <= start {
		return "", errors.New("start must be less than end")
	}
	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end > ent.length {
		return "", errors.Errorf("query range %d-%d runs past end of sequence %s (length %d)",
			start, end, seqName, ent.length)
	}

	// Read the byte span covering [start, end), newlines included. The
	// span ends at the last requested base, never at a line terminator,
	// so a final line with no trailing newline reads cleanly.
	lo := ent.byteOffset(start)
	hi := ent.byteOffset(end-1) + 1
	buf := make([]byte, hi-lo)
	if _, err := f.r.ReadAt(buf, int64(lo)); err != nil {
		return "", errors.Wrapf(err, "reading %s:%d-%d (bad index?)", seqName, start, end)
	}

	out := make([]byte, 0, end-start)
	linePos := (lo - ent.offset) % ent.lineWidth
	for _, b := range buf {
		if linePos < ent.lineBases {
			out = append(out, b)
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(out), nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
