// Package train fits per-kmer Gaussian mixtures and skip frequencies from a
// stream of collapsed control reads.
package train

import (
	"math"

	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/nanopore-occ/dna"
)

const numShards = 64

// SampleStore is a bounded reservoir sampler keyed by kmer. Samples are
// sharded across numShards independent maps by a hash of the kmer to keep
// any one map small; each kmer's reservoir is bounded to capacity values
// regardless of how many samples are offered.
type SampleStore struct {
	capacity int
	shards   [numShards]map[string]*reservoir
	rng      *rngSource
}

type reservoir struct {
	seen    int
	samples []float64
}

// NewSampleStore returns a store that keeps up to capacity samples per
// kmer, seeded from seed.
func NewSampleStore(capacity int, seed int64) *SampleStore {
	s := &SampleStore{capacity: capacity, rng: newRNG(seed)}
	for i := range s.shards {
		s.shards[i] = make(map[string]*reservoir)
	}
	return s
}

func shardFor(kmer string) int {
	return int(farm.Hash64([]byte(kmer)) % uint64(numShards))
}

// Add records one (kmer, sample) pair, skipping non-finite samples.
func (s *SampleStore) Add(kmer string, sample float64) {
	if math.IsNaN(sample) || math.IsInf(sample, 0) {
		return
	}
	shard := s.shards[shardFor(kmer)]
	r, ok := shard[kmer]
	if !ok {
		r = &reservoir{}
		shard[kmer] = r
	}
	if len(r.samples) < s.capacity {
		r.samples = append(r.samples, sample)
	} else {
		j := s.rng.Intn(r.seen + 1)
		if j < s.capacity {
			r.samples[j] = sample
		}
	}
	r.seen++
}

// Samples returns the (up to capacity) samples recorded for kmer.
func (s *SampleStore) Samples(kmer string) []float64 {
	r, ok := s.shards[shardFor(kmer)][kmer]
	if !ok {
		return nil
	}
	return r.samples
}

// Kmers enumerates every six-letter kmer, restricted to those containing
// one of motifs if motifs is non-empty, returned in lexicographic order.
func Kmers(motifs []dna.Motif) []string {
	all := dna.AllKmers()
	if len(motifs) == 0 {
		return all
	}
	var out []string
	for _, k := range all {
		if dna.AnyWithinKmer(motifs, k) {
			out = append(out, k)
		}
	}
	return out
}
