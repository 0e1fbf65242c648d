package config

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnrecognizedConfig reports a preset name outside the known set.
var ErrUnrecognizedConfig = errors.New("config: unrecognized preset")

// Preset names a fixed set of hyperparameters.
type Preset string

const (
	// Gesture detects gestures from 3D coordinate patterns.
	Gesture Preset = "gesture"
	// XOR is the two-input exclusive-or problem.
	XOR Preset = "xor"
)

// Hyperparams is the resolved network shape and training schedule of a
// preset.
type Hyperparams struct {
	Inputs       int
	Hidden       int
	LearningRate float64
	TargetError  float64
	MaxEpochs    int
	MaxRestarts  int
}

var presets = map[Preset]Hyperparams{
	Gesture: {
		Inputs:       33,
		Hidden:       11,
		LearningRate: 0.5,
		TargetError:  0.05,
		MaxEpochs:    3000,
		MaxRestarts:  20,
	},
	XOR: {
		Inputs:       2,
		Hidden:       3,
		LearningRate: 0.5,
		TargetError:  0.05,
		MaxEpochs:    5000,
		MaxRestarts:  10,
	},
}

// Lookup resolves a preset by name, ignoring case and surrounding space.
func Lookup(name string) (Hyperparams, error) {
	hp, ok := presets[Preset(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Hyperparams{}, errors.Wrapf(ErrUnrecognizedConfig, "%q", name)
	}
	return hp, nil
}

// Names lists the known presets in sorted order.
func Names() []string {
	names := make([]string, 0, len(presets))
	for p := range presets {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}
