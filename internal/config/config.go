package config

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	Preset      string   `yaml:"preset"`
	TrainRoots  []string `yaml:"train_roots"`
	Seed        int64    `yaml:"seed"`
	LogEvery    int      `yaml:"log_every"`
	NumWorkers  int      `yaml:"num_workers"`
	Concurrency int      `yaml:"concurrency"`
	AcceptError float64  `yaml:"accept_error"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Preset     string
	TrainRoots []string
	Seed       int64
	LogEvery   int
	NumWorkers int
}

// Load reads and validates a Config from YAML.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}

	cfg, err := parseYAML(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Preset != "" {
		c.Preset = o.Preset
	}
	if len(o.TrainRoots) > 0 {
		c.TrainRoots = append([]string(nil), o.TrainRoots...)
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.NumWorkers > 0 {
		c.NumWorkers = o.NumWorkers
	}
}

// Hyperparams resolves the configured preset.
func (c *Config) Hyperparams() (Hyperparams, error) {
	return Lookup(c.Preset)
}

// Acceptance returns the error a caller should accept: AcceptError when set,
// otherwise the preset target.
func (c *Config) Acceptance() (float64, error) {
	if c.AcceptError > 0 {
		return c.AcceptError, nil
	}
	hp, err := c.Hyperparams()
	if err != nil {
		return 0, err
	}
	return hp.TargetError, nil
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := Lookup(c.Preset); err != nil {
		return err
	}
	if len(c.TrainRoots) == 0 {
		return errors.New("at least one training root must be set")
	}
	for i, root := range c.TrainRoots {
		if root == "" {
			return errors.Errorf("train_roots[%d] is empty", i)
		}
	}
	if c.AcceptError < 0 {
		return errors.Errorf("accept_error must be >= 0 (got %v)", c.AcceptError)
	}
	if c.Concurrency < 0 {
		return errors.Errorf("concurrency must be >= 0 (got %d)", c.Concurrency)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 100
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	return nil
}

func parseYAML(raw []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
