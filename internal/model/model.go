package model

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput reports a pattern or target set whose shape does not
	// match the network.
	ErrInvalidInput = errors.New("model: invalid input")
	// ErrInvalidParams reports unusable network sizes or hyperparameters.
	ErrInvalidParams = errors.New("model: invalid parameters")
)

// Classifier scores a single pattern of Inputs values.
type Classifier interface {
	Inputs() int
	Classify(pattern []float64) (float64, error)
}

// TrainingSet pairs input patterns with their targets, in training order.
type TrainingSet struct {
	Patterns [][]float64
	Targets  []float64
}

// NewTrainingSet builds a set and checks that every pattern has a target and
// all patterns share one width.
func NewTrainingSet(patterns [][]float64, targets []float64) (TrainingSet, error) {
	set := TrainingSet{Patterns: patterns, Targets: targets}
	if len(patterns) != len(targets) {
		return TrainingSet{}, errors.Wrapf(ErrInvalidInput, "%d patterns but %d targets", len(patterns), len(targets))
	}
	if len(patterns) == 0 {
		return set, nil
	}
	if err := set.Validate(len(patterns[0])); err != nil {
		return TrainingSet{}, err
	}
	return set, nil
}

// Len returns the number of examples.
func (s TrainingSet) Len() int {
	return len(s.Patterns)
}

// Validate checks the set is non-empty and every pattern is width wide.
func (s TrainingSet) Validate(width int) error {
	if len(s.Patterns) == 0 {
		return errors.Wrap(ErrInvalidInput, "empty training set")
	}
	if len(s.Patterns) != len(s.Targets) {
		return errors.Wrapf(ErrInvalidInput, "%d patterns but %d targets", len(s.Patterns), len(s.Targets))
	}
	for i, p := range s.Patterns {
		if len(p) != width {
			return errors.Wrapf(ErrInvalidInput, "pattern %d has width %d, want %d", i, len(p), width)
		}
	}
	return nil
}

// EpochStats describes one completed epoch.
type EpochStats struct {
	Attempt  int
	Epoch    int
	Error    float64
	Duration time.Duration
}

// Params captures the knobs of a training run.
type Params struct {
	LearningRate float64
	TargetError  float64
	MaxEpochs    int
	MaxRestarts  int

	// Rand seeds every weight initialization. A nil Rand is replaced with a
	// clock seeded source.
	Rand *rand.Rand

	// OnEpoch, when set, observes every finished epoch.
	OnEpoch func(EpochStats)
}
