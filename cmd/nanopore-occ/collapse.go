package main

import (
	"context"
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/collapse"
	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/strand"
)

func newCmdCollapse() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "collapse",
		Short:    "Merge per-event eventalign rows into one record per read, position",
		ArgsName: "eventalign.tsv output.rec",
	}
	alignment := cmd.Flags.String("alignment", "", "Sorted, indexed BAM to resolve per-read strand (unknown strand if omitted)")
	capacity := cmd.Flags.Int("capacity", recio.DefaultBatchCapacity, "Output records buffered per batch")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("collapse takes eventalign.tsv and output.rec, but found %v", argv)
		}
		ctx := context.Background()

		in, err := recio.OpenReader(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "opening eventalign TSV")
		}
		defer in.Close()

		var strands *strand.Table
		if *alignment != "" {
			bamFile, err := recio.OpenReader(ctx, *alignment)
			if err != nil {
				return errors.Wrap(err, "opening alignment BAM")
			}
			strands, err = strand.BuildTable(bamFile)
			bamFile.Close()
			if err != nil {
				return errors.Wrap(err, "building strand table")
			}
		}

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer out.Close()

		bw, err := recio.NewWriter(out, recio.SchemaEventalign, *capacity)
		if err != nil {
			return err
		}

		tsvReader := recio.NewEventalignTSVReader(in)
		if err := collapse.Run(tsvReader, strands, bw, collapse.Options{BatchCapacity: *capacity}); err != nil {
			return errors.Wrap(err, "collapsing eventalign")
		}
		if err := bw.Close(); err != nil {
			return errors.Wrap(err, "flushing output")
		}
		return nil
	})
	return cmd
}
