package recio

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"math"

	"github.com/golang/snappy"
)

// signalWire is Signal's on-the-wire shape: Samples replaced by its
// snappy-compressed byte encoding. The teacher's own columnar format
// (encoding/pam) field-codes each column separately; this does the same
// for the one numeric column in this schema that can grow large, leaving
// the batch's outer zstd envelope (recio/batch.go) to cover everything
// else.
type signalWire struct {
	Pos       uint64
	Kmer      string
	Mean      float64
	DwellTime float64
	Samples   []byte
}

func encodeSamples(samples []float64) []byte {
	raw := make([]byte, 8*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return snappy.Encode(nil, raw)
}

func decodeSamples(compressed []byte) ([]float64, error) {
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, err
	}
	samples := make([]float64, len(raw)/8)
	for i := range samples {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return samples, nil
}

// GobEncode implements gob.GobEncoder, snappy-compressing Samples.
func (s Signal) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	wire := signalWire{Pos: s.Pos, Kmer: s.Kmer, Mean: s.Mean, DwellTime: s.DwellTime, Samples: encodeSamples(s.Samples)}
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder, the inverse of GobEncode.
func (s *Signal) GobDecode(data []byte) error {
	var wire signalWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return err
	}
	samples, err := decodeSamples(wire.Samples)
	if err != nil {
		return err
	}
	s.Pos = wire.Pos
	s.Kmer = wire.Kmer
	s.Mean = wire.Mean
	s.DwellTime = wire.DwellTime
	s.Samples = samples
	return nil
}
