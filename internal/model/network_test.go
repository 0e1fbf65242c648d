package model

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func xorSet(t *testing.T) TrainingSet {
	t.Helper()
	set, err := NewTrainingSet(
		[][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		[]float64{0, 1, 1, 0},
	)
	if err != nil {
		t.Fatalf("NewTrainingSet: %v", err)
	}
	return set
}

func TestSigmoidRange(t *testing.T) {
	if got := sigmoid(0); got != 0.5 {
		t.Fatalf("sigmoid(0)=%f want 0.5", got)
	}
	for _, x := range []float64{-30, -5, -1, -1e-9, 1e-9, 1, 5, 30} {
		s := sigmoid(x)
		if s <= 0 || s >= 1 {
			t.Fatalf("sigmoid(%g)=%g outside (0, 1)", x, s)
		}
	}
	if got := sigmoidDeriv(0); got != 0.25 {
		t.Fatalf("sigmoidDeriv(0)=%f want 0.25", got)
	}
}

func TestSigmoidSaturatesWithoutClamping(t *testing.T) {
	if got := sigmoid(-1000); got != 0 {
		t.Fatalf("sigmoid(-1000)=%g want 0", got)
	}
	if got := sigmoid(1000); got != 1 {
		t.Fatalf("sigmoid(1000)=%g want 1", got)
	}
	if got := sigmoid(math.NaN()); !math.IsNaN(got) {
		t.Fatalf("sigmoid(NaN)=%g want NaN", got)
	}
	if got := sigmoidDeriv(math.NaN()); !math.IsNaN(got) {
		t.Fatalf("sigmoidDeriv(NaN)=%g want NaN", got)
	}
}

func TestTrainNaNErrorStopsAtRestartBound(t *testing.T) {
	net, err := NewNetwork(2, 2)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	set := TrainingSet{
		Patterns: [][]float64{{math.NaN(), 1}, {0, 1}},
		Targets:  []float64{1, 0},
	}
	epochs := 0
	rms, err := net.Train(set, Params{
		LearningRate: 0.5,
		TargetError:  0.05,
		MaxEpochs:    4,
		MaxRestarts:  1,
		Rand:         rand.New(rand.NewSource(2)),
		OnEpoch:      func(EpochStats) { epochs++ },
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !math.IsNaN(rms) || !math.IsNaN(net.LastError()) {
		t.Fatalf("expected NaN error to propagate, got %g (last %g)", rms, net.LastError())
	}
	if epochs != 8 {
		t.Fatalf("expected (1+1)*4=8 epochs, ran %d", epochs)
	}
}

func TestTrainKeepsWeightsWhenTargetHitOnLastEpoch(t *testing.T) {
	net, err := NewNetwork(2, 2)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	var trained []float64
	epochs := 0
	_, err = net.Train(xorSet(t), Params{
		LearningRate: 0.5,
		TargetError:  10,
		MaxEpochs:    1,
		MaxRestarts:  3,
		Rand:         rand.New(rand.NewSource(4)),
		OnEpoch: func(s EpochStats) {
			epochs++
			trained = append([]float64(nil), net.output.weights...)
		},
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if epochs != 1 {
		t.Fatalf("expected a single epoch, ran %d", epochs)
	}
	if !reflect.DeepEqual(net.output.weights, trained) {
		t.Fatalf("weights re-drawn after reaching the target: %v vs %v", net.output.weights, trained)
	}
}

func TestNewNetworkRejectsBadSizes(t *testing.T) {
	if _, err := NewNetwork(0, 2); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for zero inputs, got %v", err)
	}
	if _, err := NewNetwork(2, -1); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for negative hidden, got %v", err)
	}
}

func TestClassifyWidthMismatch(t *testing.T) {
	net, err := NewNetwork(3, 2)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	if _, err := net.Classify([]float64{1, 2}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClassifyMatchesTrainingForward(t *testing.T) {
	net, err := NewNetwork(3, 4)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	net.initWeights(rand.New(rand.NewSource(11)))
	pattern := []float64{0.3, -1.2, 0.8}

	p := newPass(net.Hidden())
	if err := net.forward(pattern, p); err != nil {
		t.Fatalf("forward: %v", err)
	}
	before := net.output.weights[1]
	got, err := net.Classify(pattern)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got != p.out {
		t.Fatalf("Classify=%g, training forward=%g", got, p.out)
	}
	if got <= 0 || got >= 1 {
		t.Fatalf("Classify=%g outside (0, 1)", got)
	}
	if net.output.weights[1] != before || net.LastError() != 0 {
		t.Fatalf("Classify mutated the network")
	}
}

func TestBackwardReadsUpdatedOutputWeight(t *testing.T) {
	net, err := NewNetwork(1, 1)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	net.hidden[0].weights = []float64{0.1, 0.2}
	net.output.weights = []float64{-0.1, 0.3}
	const rate, target = 0.5, 1.0
	pattern := []float64{1}

	ha := 0.1 + 1*0.2
	ho := sigmoid(ha)
	oa := -0.1 + ho*0.3
	out := sigmoid(oa)
	delta := (target - out) * sigmoidDeriv(oa)
	outBias := -0.1 + rate*delta
	outW := 0.3 + rate*delta*ho
	hiddenDelta := delta * outW * sigmoidDeriv(ha)
	hiddenBias := 0.1 + rate*hiddenDelta
	hiddenW := 0.2 + rate*hiddenDelta*1

	p := newPass(1)
	if err := net.forward(pattern, p); err != nil {
		t.Fatalf("forward: %v", err)
	}
	sq, err := net.backward(pattern, target, rate, p)
	if err != nil {
		t.Fatalf("backward: %v", err)
	}
	if want := (target - out) * (target - out); math.Abs(sq-want) > 1e-15 {
		t.Fatalf("squared error %g want %g", sq, want)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"output bias", net.output.Weight(0), outBias},
		{"output weight", net.output.Weight(1), outW},
		{"hidden bias", net.hidden[0].Weight(0), hiddenBias},
		{"hidden weight", net.hidden[0].Weight(1), hiddenW},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-15 {
			t.Fatalf("%s=%.17g want %.17g", c.name, c.got, c.want)
		}
	}

	stale := 0.1 + rate*delta*0.3*sigmoidDeriv(ha)
	if math.Abs(net.hidden[0].Weight(0)-stale) < 1e-12 {
		t.Fatalf("hidden bias matches the pre-update output weight")
	}
}

func TestTrainDeterministic(t *testing.T) {
	set := xorSet(t)
	run := func() (*Network, float64) {
		net, err := NewNetwork(2, 3)
		if err != nil {
			t.Fatalf("NewNetwork: %v", err)
		}
		rms, err := net.Train(set, Params{
			LearningRate: 0.5,
			TargetError:  0.05,
			MaxEpochs:    300,
			MaxRestarts:  2,
			Rand:         rand.New(rand.NewSource(42)),
		})
		if err != nil {
			t.Fatalf("Train: %v", err)
		}
		return net, rms
	}
	a, errA := run()
	b, errB := run()
	if errA != errB {
		t.Fatalf("final errors differ: %g vs %g", errA, errB)
	}
	if !reflect.DeepEqual(a.output.weights, b.output.weights) {
		t.Fatalf("output weights differ: %v vs %v", a.output.weights, b.output.weights)
	}
	for j := range a.hidden {
		if !reflect.DeepEqual(a.hidden[j].weights, b.hidden[j].weights) {
			t.Fatalf("hidden[%d] weights differ", j)
		}
	}
	if a.LastError() != errA {
		t.Fatalf("LastError=%g, Train returned %g", a.LastError(), errA)
	}
}

func TestTrainRestartBound(t *testing.T) {
	net, err := NewNetwork(2, 2)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	var epochs, attempts int
	rms, err := net.Train(xorSet(t), Params{
		LearningRate: 0.5,
		TargetError:  0,
		MaxEpochs:    3,
		MaxRestarts:  2,
		Rand:         rand.New(rand.NewSource(1)),
		OnEpoch: func(s EpochStats) {
			epochs++
			attempts = s.Attempt
			if s.Error < 0 {
				t.Fatalf("negative RMS error %g", s.Error)
			}
		},
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if epochs != 9 {
		t.Fatalf("expected (2+1)*3=9 epochs, ran %d", epochs)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, last was %d", attempts)
	}
	if rms <= 0 || rms != net.LastError() {
		t.Fatalf("unexpected final error %g (last %g)", rms, net.LastError())
	}
}

func TestTrainConvergesOnXOR(t *testing.T) {
	net, err := NewNetwork(2, 4)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	restarts := 0
	rms, err := net.Train(xorSet(t), Params{
		LearningRate: 0.5,
		TargetError:  0.05,
		MaxEpochs:    5000,
		MaxRestarts:  10,
		Rand:         rand.New(rand.NewSource(5)),
		OnEpoch: func(s EpochStats) {
			restarts = s.Attempt - 1
		},
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if rms > 0.05 {
		t.Fatalf("XOR did not converge: rms=%f after %d restarts", rms, restarts)
	}
	for i, pattern := range [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		score, err := net.Classify(pattern)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		want := 0.0
		if i%3 != 0 {
			want = 1
		}
		if math.Abs(score-want) > 0.5 {
			t.Fatalf("pattern %v scored %f, want near %f", pattern, score, want)
		}
	}
}

func TestTrainRejectsDegenerateInput(t *testing.T) {
	net, err := NewNetwork(2, 2)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	good := Params{LearningRate: 0.5, TargetError: 0.05, MaxEpochs: 10, MaxRestarts: 1}

	bad := good
	bad.MaxEpochs = 0
	if _, err := net.Train(xorSet(t), bad); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for zero epochs, got %v", err)
	}
	bad = good
	bad.MaxRestarts = -1
	if _, err := net.Train(xorSet(t), bad); !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams for negative restarts, got %v", err)
	}
	if _, err := net.Train(TrainingSet{}, good); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty set, got %v", err)
	}
	wide := TrainingSet{Patterns: [][]float64{{1, 2, 3}}, Targets: []float64{1}}
	if _, err := net.Train(wide, good); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for wide pattern, got %v", err)
	}
	if _, err := NewTrainingSet([][]float64{{1, 2}}, []float64{1, 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for target count mismatch, got %v", err)
	}
}
