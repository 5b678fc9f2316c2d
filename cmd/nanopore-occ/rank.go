package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/model"
	"github.com/grailbio/nanopore-occ/rank"
	"github.com/grailbio/nanopore-occ/recio"
)

func newCmdRank() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "rank",
		Short:    "Approximate the KL divergence between the positive and negative control mixture of every shared kmer",
		ArgsName: "pos.model neg.model output.ranks",
	}
	opts := rank.DefaultOptions()
	nSamples := cmd.Flags.Int("samples", opts.NSamples, "Monte-Carlo draws per kmer")
	seed := cmd.Flags.Int64("seed", opts.Seed, "Sampling seed")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("rank takes pos.model, neg.model and output.ranks, but found %v", argv)
		}
		ctx := context.Background()

		pos, err := readModel(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "reading positive model")
		}
		neg, err := readModel(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "reading negative model")
		}

		opts.NSamples = *nSamples
		opts.Seed = *seed
		ranks := rank.Compute(pos, neg, opts)

		out, err := recio.OpenWriter(ctx, argv[2])
		if err != nil {
			return errors.Wrap(err, "creating output ranks")
		}
		defer out.Close()
		return ranks.WriteTo(out)
	})
	return cmd
}

func readModel(ctx context.Context, path string) (*model.Model, error) {
	f, err := recio.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return model.ReadModel(f)
}

func readRanks(ctx context.Context, path string) (model.Ranks, error) {
	f, err := recio.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return model.ReadRanks(f)
}

func readBinnedKde(ctx context.Context, path string) (model.BinnedKde, error) {
	f, err := recio.OpenReader(ctx, path)
	if err != nil {
		return model.BinnedKde{}, err
	}
	defer f.Close()
	return model.ReadBinnedKde(f)
}
