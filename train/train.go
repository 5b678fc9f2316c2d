package train

import (
	"io"
	"runtime"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
)

// Reader is satisfied by a batch-at-a-time Eventalign source, e.g. a
// *recio.Reader restricted to recio.SchemaEventalign.
type Reader interface {
	ReadEventalignBatch() ([]recio.Eventalign, error)
}

// Options configures Run.
type Options struct {
	NSamplesPerKmer int // default 50000
	Single          bool
	DBSCAN          bool
	Motifs          []dna.Motif
	Seed            int64
	Workers         int // default runtime.NumCPU()
}

// DefaultOptions returns the standard training parameters.
func DefaultOptions() Options {
	return Options{NSamplesPerKmer: 50000, Seed: 2456, Workers: runtime.NumCPU()}
}

const (
	dbscanEps       = 1e-3
	dbscanMinPoints = 3
)

// Run consumes every Eventalign batch from r (one control's collapsed
// reads), builds the sample reservoir and skip counters in one streaming
// pass, then fits one Gaussian mixture per kmer across a bounded worker
// pool, returning the resulting Model.
func Run(r Reader, genome fasta.Fasta, opts Options) (*model.Model, error) {
	if opts.NSamplesPerKmer <= 0 {
		opts.NSamplesPerKmer = 50000
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}

	store := NewSampleStore(opts.NSamplesPerKmer, opts.Seed)
	skips := newSkipCounts()

	for {
		batch, err := r.ReadEventalignBatch()
		if len(batch) > 0 {
			for _, read := range batch {
				for _, sig := range read.Signals {
					if dna.ValidKmer(sig.Kmer) {
						store.Add(sig.Kmer, sig.Mean)
					}
				}
				if genome != nil {
					if serr := skips.Add(genome, read); serr != nil {
						return nil, errors.Wrap(serr, "accumulating skip counts")
					}
				}
			}
		}
		if err != nil {
			if errors.Cause(err) == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "reading eventalign batch")
		}
	}

	kmers := Kmers(opts.Motifs)
	fitOpts := DefaultFitOptions()
	fitOpts.Seed = opts.Seed
	if opts.Single {
		fitOpts.K = 1
	}

	mixtures := fitAll(kmers, store, opts, fitOpts)

	m := model.NewModel()
	for kmer, mix := range mixtures {
		m.Mixtures[kmer] = mix
	}
	for kmer, freq := range skips.Frequencies() {
		m.SkipFrequency[kmer] = freq
	}
	return m, nil
}

// fitAll dispatches one fit per kmer across opts.Workers goroutines,
// logging and omitting (not failing) kmers whose fit errors.
func fitAll(kmers []string, store *SampleStore, opts Options, fitOpts FitOptions) map[string]model.GaussianMixture {
	type job struct {
		kmer    string
		samples []float64
	}
	jobs := make(chan job)
	results := make(chan struct {
		kmer string
		mix  model.GaussianMixture
		ok   bool
	})

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				samples := j.samples
				if opts.DBSCAN {
					kept := dbscan1D(samples, dbscanEps, dbscanMinPoints)
					if len(kept) < 2 {
						log.Printf("train: kmer %s has fewer than 2 points after dbscan, skipping", j.kmer)
						results <- struct {
							kmer string
							mix  model.GaussianMixture
							ok   bool
						}{j.kmer, model.GaussianMixture{}, false}
						continue
					}
					filtered := make([]float64, len(kept))
					for i, idx := range kept {
						filtered[i] = samples[idx]
					}
					samples = filtered
				}
				mix, err := fitGMM(samples, fitOpts)
				if err != nil {
					log.Printf("train: failed to fit kmer %s: %v", j.kmer, err)
					results <- struct {
						kmer string
						mix  model.GaussianMixture
						ok   bool
					}{j.kmer, model.GaussianMixture{}, false}
					continue
				}
				results <- struct {
					kmer string
					mix  model.GaussianMixture
					ok   bool
				}{j.kmer, mix, true}
			}
		}()
	}

	go func() {
		for _, k := range kmers {
			samples := store.Samples(k)
			if len(samples) == 0 {
				continue
			}
			jobs <- job{kmer: k, samples: samples}
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make(map[string]model.GaussianMixture)
	for r := range results {
		if r.ok {
			out[r.kmer] = r.mix
		}
	}
	return out
}
