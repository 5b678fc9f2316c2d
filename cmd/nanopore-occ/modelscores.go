package main

import (
	"context"
	"fmt"
	"io"

	"github.com/biogo/hts/bam"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/scoremodel"
)

func newCmdModelScores() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "model-scores",
		Short:    "Fit a binned KDE over a control's scores, from scored reads or a modification-BAM",
		ArgsName: "input output.kde",
	}
	opts := scoremodel.DefaultOptions()
	nSamples := cmd.Flags.Int("samples", opts.NSamples, "Uniform subsample size fed to the KDE")
	nBins := cmd.Flags.Int("bins", opts.NBins, "Number of equispaced bins over [0,1]")
	seed := cmd.Flags.Int64("seed", opts.Seed, "Subsampling seed")
	modbam := cmd.Flags.Bool("modbam", false, "Treat input as a modification-tagged BAM instead of a scored.rec file")
	modID := cmd.Flags.String("mod-id", "", "Modification id to extract from Mm/Ml tags (required with -modbam)")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("model-scores takes input and output.kde, but found %v", argv)
		}
		ctx := context.Background()

		var samples []float64
		if *modbam {
			if *modID == "" {
				return fmt.Errorf("model-scores -modbam requires -mod-id")
			}
			f, err := recio.OpenReader(ctx, argv[0])
			if err != nil {
				return errors.Wrap(err, "opening modification BAM")
			}
			defer f.Close()
			samples, err = extractModBamScores(f, *modID)
			if err != nil {
				return err
			}
		} else {
			f, err := recio.OpenReader(ctx, argv[0])
			if err != nil {
				return errors.Wrap(err, "opening scored reads")
			}
			defer f.Close()
			br, err := recio.NewReader(f, recio.SchemaScored)
			if err != nil {
				return errors.Wrap(err, "opening scored batch reader")
			}
			var reads []recio.ScoredRead
			for {
				batch, err := br.ReadScoredBatch()
				reads = append(reads, batch...)
				if err != nil {
					if err == io.EOF {
						break
					}
					return errors.Wrap(err, "reading scored batch")
				}
			}
			samples = scoremodel.ExtractSignalScores(reads)
		}

		opts.NSamples = *nSamples
		opts.NBins = *nBins
		opts.Seed = *seed
		kde, err := scoremodel.Fit(samples, opts)
		if err != nil {
			return errors.Wrap(err, "fitting score-distribution model")
		}

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer out.Close()
		return kde.WriteTo(out)
	})
	return cmd
}

// extractModBamScores reads every record in r and pulls its per-base
// modification probability stream, warning (not failing) on reads with no
// Mm/Ml tags.
func extractModBamScores(r io.Reader, modID string) ([]float64, error) {
	br, err := bam.NewReader(r, 0)
	if err != nil {
		return nil, errors.Wrap(err, "opening modification BAM")
	}
	defer br.Close()

	var out []float64
	for {
		rec, err := br.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading modification BAM record")
		}
		probs, ok, err := scoremodel.ExtractModProbs(rec, modID)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing modification tags for %s", rec.Name)
		}
		if !ok {
			log.Printf("model-scores: read %s has no Mm/Ml modification tags, skipping", rec.Name)
			continue
		}
		out = append(out, probs...)
	}
	return out, nil
}
