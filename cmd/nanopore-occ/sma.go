package main

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/recio"
	"github.com/grailbio/nanopore-occ/sma"
)

func newCmdSma() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sma",
		Short:    "Segment scored reads into linker/nucleosome runs via the semi-Markov dynamic program",
		ArgsName: "input.rec output.bed",
	}
	posKdePath := cmd.Flags.String("pos-kde", "", "Positive-control binned KDE")
	negKdePath := cmd.Flags.String("neg-kde", "", "Negative-control binned KDE")
	motifsFlag := cmd.Flags.String("motifs", "", "Comma-separated position:bases motifs restricting which scores emit; default every base")
	trackName := cmd.Flags.String("track-name", "", "If set, write a UCSC track header line before the bed12 data")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return fmt.Errorf("sma takes input.rec and output.bed, but found %v", argv)
		}
		if *posKdePath == "" || *negKdePath == "" {
			return fmt.Errorf("sma requires -pos-kde and -neg-kde")
		}
		motifs, err := parseMotifList(*motifsFlag)
		if err != nil {
			return err
		}

		ctx := context.Background()
		posKde, err := readBinnedKde(ctx, *posKdePath)
		if err != nil {
			return errors.Wrap(err, "reading positive-control KDE")
		}
		negKde, err := readBinnedKde(ctx, *negKdePath)
		if err != nil {
			return errors.Wrap(err, "reading negative-control KDE")
		}

		in, err := recio.OpenReader(ctx, argv[0])
		if err != nil {
			return errors.Wrap(err, "opening input")
		}
		defer in.Close()
		br, err := recio.NewReader(in, recio.SchemaScored)
		if err != nil {
			return errors.Wrap(err, "opening scored batch reader")
		}

		out, err := recio.OpenWriter(ctx, argv[1])
		if err != nil {
			return errors.Wrap(err, "creating output")
		}
		defer out.Close()
		if *trackName != "" {
			if _, werr := fmt.Fprintf(out, "track name=%s\n", *trackName); werr != nil {
				return errors.Wrap(werr, "writing track header")
			}
		}

		opts := sma.DefaultOptions()
		if len(motifs) > 0 {
			opts.Motifs = motifs
		}

		for {
			batch, err := br.ReadScoredBatch()
			for _, read := range batch {
				block, serr := sma.Segment(read, posKde, negKde, opts)
				if serr != nil {
					return errors.Wrapf(serr, "segmenting read %s", read.Metadata.Name)
				}
				if werr := recio.WriteBed12(out, []recio.Bed12Block{block}); werr != nil {
					return errors.Wrap(werr, "writing bed12 block")
				}
			}
			if err != nil {
				if err == io.EOF {
					break
				}
				return errors.Wrap(err, "reading scored batch")
			}
		}
		return nil
	})
	return cmd
}
