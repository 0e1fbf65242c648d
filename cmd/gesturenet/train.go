package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"

	"gesturenet/internal/config"
	"gesturenet/internal/dataset"
	"gesturenet/internal/model"
	"gesturenet/internal/trainer"
)

func trainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       runTrain,
		UsageLine: "train [options]",
		Short:     "trains a preset network on CSV pattern files",
		Long: `
trains a preset network on CSV pattern files

	$ gesturenet train -config configs/xor.yaml [-classify patterns.csv]

Each CSV row holds the pattern columns followed by the target.
`,
		Flag: *flag.NewFlagSet("train", flag.ExitOnError),
	}
	cmd.Flag.String("config", "configs/xor.yaml", "Path to YAML config")
	cmd.Flag.String("preset", "", "Override preset")
	cmd.Flag.String("root", "", "Override training root")
	cmd.Flag.Int64("seed", 0, "PRNG seed")
	cmd.Flag.Int("log-every", 0, "Log every N epochs")
	cmd.Flag.Int("num-workers", 0, "Number of dataset loader workers")
	cmd.Flag.String("classify", "", "CSV file to score with the trained network")
	return cmd
}

func runTrain(cmd *commander.Command, args []string) error {
	cfgPath := cmd.Flag.Lookup("config").Value.Get().(string)
	root := cmd.Flag.Lookup("root").Value.Get().(string)
	classifyPath := cmd.Flag.Lookup("classify").Value.Get().(string)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	overrides := config.Overrides{
		Preset:     cmd.Flag.Lookup("preset").Value.Get().(string),
		Seed:       cmd.Flag.Lookup("seed").Value.Get().(int64),
		LogEvery:   cmd.Flag.Lookup("log-every").Value.Get().(int),
		NumWorkers: cmd.Flag.Lookup("num-workers").Value.Get().(int),
	}
	if root != "" {
		overrides.TrainRoots = []string{root}
	}
	cfg.ApplyOverrides(overrides)

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	accept, err := cfg.Acceptance()
	if err != nil {
		return err
	}

	roots, err := dataset.DiscoverByRoot(cfg.TrainRoots)
	if err != nil {
		return err
	}
	for root, files := range roots {
		if len(files) == 0 {
			return errors.Errorf("no pattern files discovered under %s", root)
		}
		log.Printf("root=%s files=%d", root, len(files))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := dataset.Load(ctx, dataset.LoaderOptions{
		Roots:      roots,
		Seed:       cfg.Seed,
		NumWorkers: cfg.NumWorkers,
	})
	if err != nil {
		return errors.Wrap(err, "load patterns")
	}
	log.Printf("preset=%s examples=%d", cfg.Preset, set.Len())

	launcher := trainer.NewLauncher(trainer.Options{
		Concurrency: cfg.Concurrency,
		LogEvery:    cfg.LogEvery,
		Seed:        cfg.Seed,
	})
	trained := make(chan *model.Network, 1)
	if _, err := launcher.Launch(cfg.Preset, set.Patterns, set.Targets, func(net *model.Network) {
		trained <- net
	}); err != nil {
		return err
	}

	var net *model.Network
	select {
	case <-ctx.Done():
		return ctx.Err()
	case net = <-trained:
	}

	rms := net.LastError()
	log.Printf("training finished rms=%.4f accept=%.4f accepted=%t", rms, accept, rms <= accept)
	if rms > accept {
		return errors.Errorf("network did not reach acceptance error %.4f (rms %.4f)", accept, rms)
	}

	if classifyPath != "" {
		return classifyFile(ctx, net, classifyPath)
	}
	return nil
}

func classifyFile(ctx context.Context, c model.Classifier, path string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	examples, errCh := dataset.StreamFile(ctx, path)
	for ex := range examples {
		if len(ex.Pattern) != c.Inputs() {
			return errors.Wrapf(model.ErrInvalidInput, "%s: %d pattern columns, network takes %d", ex.Key, len(ex.Pattern), c.Inputs())
		}
		score, err := c.Classify(ex.Pattern)
		if err != nil {
			return errors.Wrap(err, ex.Key)
		}
		fmt.Printf("%s %.6f %g\n", ex.Key, score, ex.Target)
	}
	return <-errCh
}
