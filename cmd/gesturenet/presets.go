package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"

	"gesturenet/internal/config"
)

func presetsCmd() *commander.Command {
	return &commander.Command{
		Run:       runPresets,
		UsageLine: "presets",
		Short:     "lists the known training presets",
		Flag:      *flag.NewFlagSet("presets", flag.ExitOnError),
	}
}

func runPresets(cmd *commander.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tINPUTS\tHIDDEN\tRATE\tTARGET\tEPOCHS\tRESTARTS")
	for _, name := range config.Names() {
		hp, err := config.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%g\t%g\t%d\t%d\n", name, hp.Inputs, hp.Hidden, hp.LearningRate, hp.TargetError, hp.MaxEpochs, hp.MaxRestarts)
	}
	return w.Flush()
}
