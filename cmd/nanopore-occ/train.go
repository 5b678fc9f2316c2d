package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/train"
)

func newCmdTrain() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "train",
		Short:    "Fit per-kmer Gaussian mixtures and skip frequencies from one control's collapsed reads",
		ArgsName: "input.rec output.model",
	}
	opts := train.DefaultOptions()
	refPath := cmd.Flags.String("reference", "", "Indexed reference FASTA (required for the skip-frequency counter)")
	indexPath := cmd.Flags.String("index", "", "Reference .fai index; defaults to reference+\".fai\"")
	nSamples := cmd.Flags.Int("samples-per-kmer", opts.NSamplesPerKmer, "Reservoir size per kmer")
	single := cmd.Flags.Bool("single", false, "Fit a one-component mixture instead of two")
	useDBSCAN := cmd.Flags.Bool("dbscan", false, "Pre-filter each kmer's samples with 1-D DBSCAN before fitting")
	motifsFlag := cmd.Flags.String("motifs", "", "Comma-separated position:bases motifs restricting which kmers are trained")
	seed := cmd.Flags.Int64("seed", opts.Seed, "Reservoir-sampling seed")
	workers := cmd.Flags.Int("workers", opts.Workers, "Worker pool size for per-kmer fits")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("train takes input.rec and output.model, but found %v", argv)
		}
		motifs, err := parseMotifList(*motifsFlag)
		if err != nil {
			return err
		}

		ctx := context.Background()
		in, err := recio.OpenReader(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer in.Close()
		br, err := recio.NewReader(in, recio.SchemaEventalign)
		if err != nil {
			return errors.Wrap(err, "opening eventalign batch reader")
		}

		var genome fasta.Fasta
		if *refPath != "" {
			genome, err = openIndexedFasta(ctx, *refPath, *indexPath)
			if err != nil {
				return errors.Wrap(err, "opening reference")
			}
		}

		opts.NSamplesPerKmer = *nSamples
		opts.Single = *single
		opts.DBSCAN = *useDBSCAN
		opts.Motifs = motifs
		opts.Seed = *seed
		opts.Workers = *workers

		m, err := train.Run(br, genome, opts)
		if err != nil {
			return errors.Wrap(err, "training model")
		}

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output model")
		}
		defer out.Close()
		return m.WriteTo(out)
	})
	return cmd
}

func parseMotifList(s string) ([]dna.Motif, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]dna.Motif, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m, err := dna.ParseMotif(p)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing motif %q", p)
		}
		out = append(out, m)
	}
	return out, nil
}

// openIndexedFasta opens a local, randomly-seekable reference FASTA plus
// its .fai sidecar. Indexed random access needs a real file handle (the
// s3:// iostore abstraction only yields a streaming io.Reader), so the
// reference FASTA path is local-file only; the .fai index is opened through
// recio.OpenReader.
func openIndexedFasta(ctx context.Context, refPath, indexPath string) (fasta.Fasta, error) {
	if indexPath == "" {
		indexPath = refPath + ".fai"
	}
	refFile, err := os.Open(refPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening reference FASTA")
	}
	idxFile, err := recio.OpenReader(ctx, indexPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening .fai index")
	}
	defer idxFile.Close()
	return fasta.NewIndexed(refFile, idxFile)
}
