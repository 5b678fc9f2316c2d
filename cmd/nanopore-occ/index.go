package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grailbio/base/cmdutil"
	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/encoding/fasta"
	"github.com/grailbio/nanopore-occ/recio"
)

func newCmdIndex() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "index",
		Short:    "Generate a .fai random-access index for a reference FASTA",
		ArgsName: "reference.fa [reference.fa.fai]",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 && len(argv) != 2 {
			return fmt.Errorf("index takes reference.fa and an optional output path, but found %v", argv)
		}
		outPath := argv[0] + ".fai"
		if len(argv) == 2 {
			outPath = argv[1]
		}

		in, err := os.Open(argv[0])
		if err != nil {
			return errors.Wrap(err, "opening reference FASTA")
		}
		defer in.Close()

		ctx := context.Background()
		out, err := recio.OpenWriter(ctx, outPath)
		if err != nil {
			return errors.Wrap(err, "creating index")
		}
		defer out.Close()

		if err := fasta.GenerateIndex(out, in); err != nil {
			return errors.Wrap(err, "generating index")
		}
		return nil
	})
	return cmd
}
