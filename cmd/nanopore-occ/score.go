package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/score"
)

func newCmdScore() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "score",
		Short:    "Assign every motif-matching base position a calibrated modification score",
		ArgsName: "input.rec output.rec",
	}
	refPath := cmd.Flags.String("reference", "", "Indexed reference FASTA")
	indexPath := cmd.Flags.String("index", "", "Reference .fai index; defaults to reference+\".fai\"")
	posModelPath := cmd.Flags.String("pos-model", "", "Positive-control model")
	negModelPath := cmd.Flags.String("neg-model", "", "Negative-control model")
	ranksPath := cmd.Flags.String("ranks", "", "Kmer ranks")
	motifsFlag := cmd.Flags.String("motifs", "", "Comma-separated position:bases motifs gating which positions are scored; default scores every base")
	pvalue := cmd.Flags.Float64("pvalue", score.DefaultOptions().PValueThreshold, "Two-tailed p-value threshold a candidate signal must beat")
	cutoff := cmd.Flags.Float64("cutoff", score.DefaultOptions().Cutoff, "Ln-density floor, negated: the z-test scorer drops a signal score when both controls' ln-density is below -cutoff; npsmlr drops samples at or below -cutoff under either control")
	npsmlr := cmd.Flags.Bool("npsmlr", false, "Use the cheaper log-density-sum scorer instead of the full z-test scorer")
	freqThresh := cmd.Flags.Int("freq-thresh", score.DefaultNpsmlrOptions().FreqThresh, "npsmlr: max samples per signal before it is dropped")
	rangeLo := cmd.Flags.Float64("range-lo", score.DefaultNpsmlrOptions().RangeLo, "npsmlr: lower bound of the in-range sample window")
	rangeHi := cmd.Flags.Float64("range-hi", score.DefaultNpsmlrOptions().RangeHi, "npsmlr: upper bound of the in-range sample window")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("score takes input.rec and output.rec, but found %v", argv)
		}
		motifs, err := parseMotifList(*motifsFlag)
		if err != nil {
			return err
		}
		for _, m := range motifs {
			if len(m.Bases) > dna.KmerWidth {
				return fmt.Errorf("score: motif %q is longer than %d bases", m.Bases, dna.KmerWidth)
			}
		}

		ctx := context.Background()
		if *refPath == "" || *posModelPath == "" || *negModelPath == "" || *ranksPath == "" {
			return fmt.Errorf("score requires -reference, -pos-model, -neg-model and -ranks")
		}

		genome, err := openIndexedFasta(ctx, *refPath, *indexPath)
		if err != nil {
			return errors.Wrap(err, "opening reference")
		}
		pos, err := readModel(ctx, *posModelPath)
		if err != nil {
			return errors.Wrap(err, "reading positive model")
		}
		neg, err := readModel(ctx, *negModelPath)
		if err != nil {
			return errors.Wrap(err, "reading negative model")
		}
		ranks, err := readRanks(ctx, *ranksPath)
		if err != nil {
			return errors.Wrap(err, "reading ranks")
		}

		in, err := recio.OpenReader(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer in.Close()
		br, err := recio.NewReader(in, recio.SchemaEventalign)
		if err != nil {
			return errors.Wrap(err, "opening eventalign batch reader")
		}

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer out.Close()
		bw, err := recio.NewWriter(out, recio.SchemaScored, 0)
		if err != nil {
			return err
		}

		scoreFn := buildScoreFunc(pos, neg, ranks, genome, motifs, *npsmlr, *pvalue, *cutoff, *freqThresh, *rangeLo, *rangeHi)

		for {
			batch, err := br.ReadEventalignBatch()
			for _, read := range batch {
				scored, serr := scoreFn(read)
				if serr != nil {
					return errors.Wrapf(serr, "scoring read %s", read.Metadata.Name)
				}
				if aerr := bw.Append(scored); aerr != nil {
					return errors.Wrap(aerr, "writing scored read")
				}
			}
			if err != nil {
				if err == io.EOF {
					break
				}
				return errors.Wrap(err, "reading eventalign batch")
			}
		}
		return bw.Close()
	})
	return cmd
}

func buildScoreFunc(pos, neg *model.Model, ranks model.Ranks, genome fasta.Fasta, motifs []dna.Motif, npsmlr bool, pvalue, cutoff float64, freqThresh int, rangeLo, rangeHi float64) func(recio.Eventalign) (recio.ScoredRead, error) {
	if npsmlr {
		opts := score.DefaultNpsmlrOptions()
		if len(motifs) > 0 {
			opts.Motifs = motifs
		}
		opts.FreqThresh = freqThresh
		opts.Cutoff = cutoff
		opts.RangeLo, opts.RangeHi = rangeLo, rangeHi
		s := &score.NpsmlrScorer{Pos: pos, Neg: neg, Ranks: ranks, Genome: genome, Opts: opts}
		return s.Score
	}
	opts := score.DefaultOptions()
	if len(motifs) > 0 {
		opts.Motifs = motifs
	}
	opts.PValueThreshold = pvalue
	opts.Cutoff = cutoff
	s := &score.Scorer{Pos: pos, Neg: neg, Ranks: ranks, Genome: genome, Opts: opts}
	return s.Score
}
