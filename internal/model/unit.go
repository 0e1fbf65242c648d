package model

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Unit is a single neuron: a bias weight followed by one weight per input.
type Unit struct {
	weights []float64
}

// NewUnit allocates a unit over inputs inputs. Weights start at zero until
// InitWeights is called.
func NewUnit(inputs int) *Unit {
	return &Unit{weights: make([]float64, 1+inputs)}
}

// Inputs returns the number of inputs the unit accepts.
func (u *Unit) Inputs() int {
	return len(u.weights) - 1
}

// Weight returns weight i; 0 is the bias.
func (u *Unit) Weight(i int) float64 {
	return u.weights[i]
}

// InitWeights draws every weight uniformly from [-0.1, 0.1).
func (u *Unit) InitWeights(rng *rand.Rand) {
	for i := range u.weights {
		u.weights[i] = 0.2*rng.Float64() - 0.1
	}
}

// Activate returns the weighted sum of inputs plus the bias.
func (u *Unit) Activate(inputs []float64) (float64, error) {
	if err := u.checkWidth(inputs); err != nil {
		return 0, err
	}
	sum := u.weights[0]
	for i, x := range inputs {
		sum += x * u.weights[i+1]
	}
	return sum, nil
}

// AdjustWeights moves every weight by rate*delta times its input. The bias
// input is 1.
func (u *Unit) AdjustWeights(rate, delta float64, inputs []float64) error {
	if err := u.checkWidth(inputs); err != nil {
		return err
	}
	step := rate * delta
	u.weights[0] += step
	for i, x := range inputs {
		u.weights[i+1] += step * x
	}
	return nil
}

func (u *Unit) checkWidth(inputs []float64) error {
	if len(inputs) != len(u.weights)-1 {
		return errors.Wrapf(ErrInvalidInput, "got %d inputs, unit takes %d", len(inputs), len(u.weights)-1)
	}
	return nil
}
