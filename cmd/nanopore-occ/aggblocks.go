package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/aggregate"
	"github.com/grailbio/nanopore-occ/recio"
)

func newCmdAggBlocks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "agg-blocks",
		Short:    "Roll up per-read bed12 nucleosome blocks into per-position modification fractions",
		ArgsName: "input.bed output.tsv",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("agg-blocks takes input.bed and output.tsv, but found %v", argv)
		}
		ctx := context.Background()
		in, err := recio.OpenReader(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer in.Close()

		var blocks []recio.Bed12Block
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || strings.HasPrefix(line, "track ") {
				continue
			}
			block, perr := recio.ParseBed12Line(line)
			if perr != nil {
				return errors.Wrapf(perr, "parsing bed12 line %q", line)
			}
			blocks = append(blocks, block)
		}
		if serr := scanner.Err(); serr != nil {
			return errors.Wrap(serr, "scanning input")
		}
		if len(blocks) == 0 {
			return errors.New("agg-blocks: input has no bed12 data lines")
		}

		rows := aggregate.Run(blocks)

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer out.Close()
		return recio.WriteAggregateRows(out, rows)
	})
	return cmd
}
