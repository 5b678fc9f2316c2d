package recio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// SchemaTag distinguishes the two record kinds a file may carry. A reader
// declares the schema it expects up front and fails fast on a mismatch,
// rather than discovering the wrong kind mid-stream.
type SchemaTag string

const (
	SchemaEventalign SchemaTag = "eventalign"
	SchemaScored     SchemaTag = "scored"
)

const fileMagic = "NPOCC1\n"

// DefaultBatchCapacity is the default number of records buffered per batch
// before a writer flushes, matching Collapse's default output batch size.
const DefaultBatchCapacity = 2048

// Writer appends record batches of a single schema to an underlying
// stream. Every Flush (automatic at BatchCapacity, and once more at Close)
// emits one self-describing, checksummed, zstd-compressed batch.
type Writer struct {
	w        io.Writer
	schema   SchemaTag
	capacity int
	pending  []interface{}
	wroteHdr bool
}

// NewWriter returns a Writer for the given schema, flushing every capacity
// records (0 uses DefaultBatchCapacity).
func NewWriter(w io.Writer, schema SchemaTag, capacity int) (*Writer, error) {
	if capacity < 0 {
		return nil, errors.Errorf("negative batch capacity %d", capacity)
	}
	if capacity == 0 {
		capacity = DefaultBatchCapacity
	}
	return &Writer{w: w, schema: schema, capacity: capacity}, nil
}

func (bw *Writer) writeHeader() error {
	if bw.wroteHdr {
		return nil
	}
	if _, err := io.WriteString(bw.w, fileMagic); err != nil {
		return errors.Wrap(err, "writing file magic")
	}
	if err := writeLenPrefixed(bw.w, []byte(bw.schema)); err != nil {
		return errors.Wrap(err, "writing schema tag")
	}
	bw.wroteHdr = true
	return nil
}

// Append adds one record (an Eventalign or a ScoredRead, matching the
// writer's schema) to the pending batch, flushing if it reaches capacity.
func (bw *Writer) Append(record interface{}) error {
	if err := bw.writeHeader(); err != nil {
		return err
	}
	bw.pending = append(bw.pending, record)
	if len(bw.pending) >= bw.capacity {
		return bw.Flush()
	}
	return nil
}

// Flush emits the pending records as one batch, even if below capacity.
// A Flush with no pending records is a no-op.
func (bw *Writer) Flush() error {
	if len(bw.pending) == 0 {
		return nil
	}
	if err := bw.writeHeader(); err != nil {
		return err
	}
	var raw []byte
	{
		var buf bytes.Buffer
		enc := gob.NewEncoder(&buf)
		if err := enc.Encode(bw.pending); err != nil {
			return errors.Wrap(err, "gob-encoding batch")
		}
		raw = buf.Bytes()
	}

	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return errors.Wrap(err, "creating zstd encoder")
	}
	compressed := zw.EncodeAll(raw, nil)
	zw.Close()

	checksum := seahash.Sum64(compressed)

	if err := writeUint64(bw.w, uint64(len(compressed))); err != nil {
		return err
	}
	if _, err := bw.w.Write(compressed); err != nil {
		return errors.Wrap(err, "writing batch body")
	}
	if err := writeUint64(bw.w, checksum); err != nil {
		return err
	}
	vlog.VI(1).Infof("recio: wrote %s batch, %d records, %d bytes compressed", bw.schema, len(bw.pending), len(compressed))
	bw.pending = bw.pending[:0]
	return nil
}

// Close flushes any pending records. It does not close the underlying
// writer.
func (bw *Writer) Close() error {
	return bw.Flush()
}

// Reader reads record batches previously written by Writer, verifying the
// schema tag and each batch's checksum.
type Reader struct {
	r      *bufio.Reader
	schema SchemaTag
}

// NewReader opens r, requiring its schema tag to equal wantSchema.
func NewReader(r io.Reader, wantSchema SchemaTag) (*Reader, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, errors.Wrap(err, "reading file magic")
	}
	if string(magic) != fileMagic {
		return nil, errors.Errorf("not a recio file (bad magic)")
	}
	tag, err := readLenPrefixed(br)
	if err != nil {
		return nil, errors.Wrap(err, "reading schema tag")
	}
	schema := SchemaTag(tag)
	if schema != wantSchema {
		return nil, errors.Errorf("schema mismatch: file has %q, reader wants %q", schema, wantSchema)
	}
	return &Reader{r: br, schema: schema}, nil
}

// Schema returns the file's declared schema tag.
func (br *Reader) Schema() SchemaTag { return br.schema }

// nextBatch reads and verifies one compressed batch, returning the
// decompressed, gob-encoded payload. io.EOF signals a clean end of file.
func (br *Reader) nextBatch() ([]byte, error) {
	n, err := readUint64(br.r)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading batch length")
	}
	compressed := make([]byte, n)
	if _, err := io.ReadFull(br.r, compressed); err != nil {
		return nil, errors.Wrap(err, "reading batch body")
	}
	wantChecksum, err := readUint64(br.r)
	if err != nil {
		return nil, errors.Wrap(err, "reading batch checksum")
	}
	if got := seahash.Sum64(compressed); got != wantChecksum {
		return nil, errors.Errorf("batch checksum mismatch: got %x, want %x", got, wantChecksum)
	}
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating zstd decoder")
	}
	defer zr.Close()
	raw, err := zr.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "decompressing batch")
	}
	return raw, nil
}

// ReadEventalignBatch reads the next batch of Eventalign records, returning
// io.EOF when the file is exhausted.
func (br *Reader) ReadEventalignBatch() ([]Eventalign, error) {
	raw, err := br.nextBatch()
	if err != nil {
		return nil, err
	}
	var recs []interface{}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&recs); err != nil {
		return nil, errors.Wrap(err, "gob-decoding batch")
	}
	out := make([]Eventalign, 0, len(recs))
	for _, r := range recs {
		ev, ok := r.(Eventalign)
		if !ok {
			return nil, errors.Errorf("batch record is not an Eventalign: %T", r)
		}
		out = append(out, ev)
	}
	return out, nil
}

// ReadScoredBatch reads the next batch of ScoredRead records, returning
// io.EOF when the file is exhausted.
func (br *Reader) ReadScoredBatch() ([]ScoredRead, error) {
	raw, err := br.nextBatch()
	if err != nil {
		return nil, err
	}
	var recs []interface{}
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&recs); err != nil {
		return nil, errors.Wrap(err, "gob-decoding batch")
	}
	out := make([]ScoredRead, 0, len(recs))
	for _, r := range recs {
		sr, ok := r.(ScoredRead)
		if !ok {
			return nil, errors.Errorf("batch record is not a ScoredRead: %T", r)
		}
		out = append(out, sr)
	}
	return out, nil
}

func init() {
	gob.Register(Eventalign{})
	gob.Register(ScoredRead{})
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return errors.Wrap(err, "writing uint64")
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func writeLenPrefixed(w io.Writer, b []byte) error {
	if err := writeUint64(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readLenPrefixed(r io.Reader) ([]byte, error) {
	n, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	_, err = io.ReadFull(r, b)
	return b, err
}
