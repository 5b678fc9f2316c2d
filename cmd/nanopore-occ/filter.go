package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/dna"
	"github.com/grailbio/nanopore-occ/recio"
)

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "filter",
		Short:    "Keep bed lines whose overlap with a region meets a minimum fraction of the region's length",
		ArgsName: "input.bed output.bed",
	}
	regionFlag := cmd.Flags.String("region", "", "chrom:start-end region to filter against")
	pct := cmd.Flags.Float64("pct", 0, "Minimum fraction of the region's length a line's overlap must cover, in [0,1]")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("filter takes input.bed and output.bed, but found %v", argv)
		}
		if *regionFlag == "" {
			return fmt.Errorf("filter requires -region")
		}
		region, err := dna.ParseRegion(*regionFlag)
		if err != nil {
			return errors.Wrap(err, "parsing -region")
		}
		if *pct < 0 || *pct > 1 {
			return fmt.Errorf("filter: -pct must be within [0,1], got %v", *pct)
		}

		ctx := context.Background()
		in, err := recio.OpenReader(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer in.Close()

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer out.Close()

		regionLen := region.Len()
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || strings.HasPrefix(line, "track ") || strings.HasPrefix(line, "#") {
				continue
			}
			lineRegion, perr := dna.ParseBedLine(line)
			if perr != nil {
				return errors.Wrapf(perr, "parsing bed line %q", line)
			}
			if !lineRegion.Overlaps(region) {
				continue
			}
			overlapLen := lineRegion.OverlapLength(region)
			pctOverlap := float64(overlapLen) / float64(regionLen)
			if pctOverlap < *pct {
				continue
			}
			if _, werr := fmt.Fprintln(out, line); werr != nil {
				return errors.Wrap(werr, "writing output")
			}
		}
		return errors.Wrap(scanner.Err(), "scanning input")
	})
	return cmd
}
