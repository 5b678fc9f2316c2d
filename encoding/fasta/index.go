package fasta

import (
	"bufio"
	"bytes"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// faiWriter accumulates one sequence's layout as its lines stream past and
// emits one index row per finished sequence. The line layout (bases and
// bytes per line) is taken from the sequence's first line, as "samtools
// faidx" does.
type faiWriter struct {
	out       *tsv.Writer
	name      string
	offset    int64
	bases     int64
	lineBases int64
	lineWidth int64
	err       error
}

func (w *faiWriter) setErr(e error) {
	if e != nil && w.err == nil {
		w.err = e
	}
}

func (w *faiWriter) flush() {
	w.out.WriteString(w.name)
	w.out.WriteInt64(w.bases)
	w.out.WriteInt64(w.offset)
	w.out.WriteInt64(w.lineBases)
	w.out.WriteInt64(w.lineWidth)
	w.setErr(w.out.EndLine())
}

func (w *faiWriter) startSequence(header []byte, bodyOffset int64) {
	if w.lineWidth != 0 {
		if w.name == "" {
			w.setErr(errors.E("malformed FASTA file"))
		}
		w.flush()
	}
	w.name = string(bytes.SplitN(header, []byte(" "), 2)[0])
	w.offset = bodyOffset
	w.bases, w.lineBases, w.lineWidth = 0, 0, 0
}

func (w *faiWriter) addLine(fullLine, line []byte) {
	if w.lineWidth == 0 {
		w.lineWidth = int64(len(fullLine))
		w.lineBases = int64(len(line))
	}
	w.bases += int64(len(line))
}

// GenerateIndex generates an index (*.fai) from FASTA. The index can be
// later passed to NewIndexed() to random-access the FASTA file quickly.
//
// The index format is defined by "samtools faidx"
// (http://www.htslib.org/doc/faidx.html).
func GenerateIndex(out io.Writer, in io.Reader) error {
	w := &faiWriter{out: tsv.NewWriter(out)}
	r := bufio.NewReader(in)
	var cumByte int64
	for w.err == nil {
		fullLine, readErr := r.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			w.setErr(readErr)
			break
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) > 0 {
			if line[0] == '>' {
				w.startSequence(line[1:], cumByte)
			} else {
				w.addLine(fullLine, line)
			}
		}
		if readErr == io.EOF {
			break
		}
	}
	w.flush()
	w.setErr(w.out.Flush())
	if cumByte == 0 {
		w.setErr(errors.E("empty FASTA file"))
	}
	return w.err
}
