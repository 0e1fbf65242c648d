package model

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"
)

// Network is a perceptron with one sigmoid hidden layer and a single sigmoid
// output. It is not safe for concurrent use while training.
type Network struct {
	inputs    int
	hidden    []*Unit
	output    *Unit
	lastError float64
}

// NewNetwork allocates a network over inputs inputs with hidden hidden
// units. Weights are initialized by Train.
func NewNetwork(inputs, hidden int) (*Network, error) {
	if inputs <= 0 {
		return nil, errors.Wrapf(ErrInvalidParams, "inputs must be > 0 (got %d)", inputs)
	}
	if hidden <= 0 {
		return nil, errors.Wrapf(ErrInvalidParams, "hidden must be > 0 (got %d)", hidden)
	}
	units := make([]*Unit, hidden)
	for i := range units {
		units[i] = NewUnit(inputs)
	}
	return &Network{
		inputs: inputs,
		hidden: units,
		output: NewUnit(hidden),
	}, nil
}

// Inputs returns the pattern width the network accepts.
func (n *Network) Inputs() int {
	return n.inputs
}

// Hidden returns the hidden layer size.
func (n *Network) Hidden() int {
	return n.output.Inputs()
}

// LastError returns the RMS error of the most recent training epoch.
func (n *Network) LastError() float64 {
	return n.lastError
}

// Classify runs a forward pass and returns the output in (0, 1).
func (n *Network) Classify(pattern []float64) (float64, error) {
	if len(pattern) != n.inputs {
		return 0, errors.Wrapf(ErrInvalidInput, "pattern has width %d, want %d", len(pattern), n.inputs)
	}
	p := newPass(len(n.hidden))
	if err := n.forward(pattern, p); err != nil {
		return 0, err
	}
	return p.out, nil
}

// Train fits the network to set and returns the RMS error of the last epoch.
// When an attempt runs out of epochs the weights are re-drawn, up to
// MaxRestarts times. Missing the target error is not an error.
func (n *Network) Train(set TrainingSet, params Params) (float64, error) {
	if err := params.validate(); err != nil {
		return 0, err
	}
	if err := set.Validate(n.inputs); err != nil {
		return 0, err
	}
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	n.initWeights(rng)
	p := newPass(len(n.hidden))
	epoch, restarts := 0, 0
	for {
		start := time.Now()
		rms, err := n.epoch(set, params.LearningRate, p)
		if err != nil {
			return 0, err
		}
		n.lastError = rms
		epoch++
		if params.OnEpoch != nil {
			params.OnEpoch(EpochStats{
				Attempt:  restarts + 1,
				Epoch:    epoch,
				Error:    rms,
				Duration: time.Since(start),
			})
		}
		if rms <= params.TargetError {
			return rms, nil
		}
		if epoch >= params.MaxEpochs {
			if restarts >= params.MaxRestarts {
				return rms, nil
			}
			n.initWeights(rng)
			epoch = 0
			restarts++
		}
	}
}

func (p Params) validate() error {
	if p.MaxEpochs <= 0 {
		return errors.Wrapf(ErrInvalidParams, "max epochs must be > 0 (got %d)", p.MaxEpochs)
	}
	if p.MaxRestarts < 0 {
		return errors.Wrapf(ErrInvalidParams, "max restarts must be >= 0 (got %d)", p.MaxRestarts)
	}
	if math.IsNaN(p.LearningRate) || math.IsInf(p.LearningRate, 0) {
		return errors.Wrapf(ErrInvalidParams, "learning rate must be finite (got %v)", p.LearningRate)
	}
	if math.IsNaN(p.TargetError) || math.IsInf(p.TargetError, 0) || p.TargetError < 0 {
		return errors.Wrapf(ErrInvalidParams, "target error must be finite and >= 0 (got %v)", p.TargetError)
	}
	return nil
}

func (n *Network) initWeights(rng *rand.Rand) {
	for _, u := range n.hidden {
		u.InitWeights(rng)
	}
	n.output.InitWeights(rng)
}

// pass holds the intermediates of one forward pass.
type pass struct {
	hiddenAct []float64
	hiddenOut []float64
	outAct    float64
	out       float64
}

func newPass(hidden int) *pass {
	return &pass{
		hiddenAct: make([]float64, hidden),
		hiddenOut: make([]float64, hidden),
	}
}

func (n *Network) forward(pattern []float64, p *pass) error {
	for j, u := range n.hidden {
		act, err := u.Activate(pattern)
		if err != nil {
			return err
		}
		p.hiddenAct[j] = act
		p.hiddenOut[j] = sigmoid(act)
	}
	act, err := n.output.Activate(p.hiddenOut)
	if err != nil {
		return err
	}
	p.outAct = act
	p.out = sigmoid(act)
	return nil
}

// backward updates the weights from the forward pass in p and returns the
// squared error of the pattern. The output unit is adjusted first and the
// hidden deltas read its updated weights.
func (n *Network) backward(pattern []float64, target, rate float64, p *pass) (float64, error) {
	diff := target - p.out
	outDelta := diff * sigmoidDeriv(p.outAct)
	if err := n.output.AdjustWeights(rate, outDelta, p.hiddenOut); err != nil {
		return 0, err
	}
	for j, u := range n.hidden {
		delta := outDelta * n.output.Weight(j+1) * sigmoidDeriv(p.hiddenAct[j])
		if err := u.AdjustWeights(rate, delta, pattern); err != nil {
			return 0, err
		}
	}
	return diff * diff, nil
}

// epoch trains on every example once, in order, and returns the RMS error.
func (n *Network) epoch(set TrainingSet, rate float64, p *pass) (float64, error) {
	sum := 0.0
	for i, pattern := range set.Patterns {
		if err := n.forward(pattern, p); err != nil {
			return 0, err
		}
		sq, err := n.backward(pattern, set.Targets[i], rate, p)
		if err != nil {
			return 0, err
		}
		sum += sq
	}
	return math.Sqrt(sum / float64(len(set.Patterns))), nil
}
