package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

func main() {
	cmd := &commander.Command{
		UsageLine: "gesturenet",
		Short:     "trains single-hidden-layer sigmoid classifiers",
		Subcommands: []*commander.Command{
			trainCmd(),
			presetsCmd(),
		},
		Flag: *flag.NewFlagSet("gesturenet", flag.ExitOnError),
	}

	if err := cmd.Dispatch(os.Args[1:]); err != nil {
		fmt.Printf("**err**: %v\n", err)
		os.Exit(1)
	}
}
