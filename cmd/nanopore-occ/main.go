// Command nanopore-occ runs the nanopore DNA-protein-occupancy detection
// pipeline: collapse raw eventalign rows, train control models, rank
// kmers, score reads, fit score-distribution models, segment reads into
// nucleosome/linker runs, and aggregate per-position occupancy.
package main

import (
	"log"

	"github.com/grailbio/base/grail"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/nanopore-occ/recio"
)

func root() *cmdline.Command {
	return &cmdline.Command{
		Name:     "nanopore-occ",
		Short:    "Detect protein occupancy on single DNA molecules from nanopore signal",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdCollapse(),
			newCmdTrain(),
			newCmdRank(),
			newCmdScore(),
			newCmdModelScores(),
			newCmdSma(),
			newCmdIndex(),
			newCmdFilter(),
			newCmdAggBlocks(),
		},
	}
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	recio.EnableS3()
	cleanup := grail.Init()
	defer cleanup()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(root())
}
