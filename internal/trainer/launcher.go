package trainer

import (
	"context"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"gesturenet/internal/config"
	"gesturenet/internal/metrics"
	"gesturenet/internal/model"
)

const defaultLogEvery = 100

// Options configures a Launcher.
type Options struct {
	// Concurrency bounds how many jobs train at once. Zero uses the host's
	// logical core count.
	Concurrency int
	// LogEvery is the number of epochs between progress logs.
	LogEvery int
	// Seed, when non-zero, seeds the n-th launched job with Seed+n.
	Seed int64
}

// Launcher runs training jobs in the background.
type Launcher struct {
	opts     Options
	slots    chan struct{}
	wg       sync.WaitGroup
	launched atomic.Int64

	// afterStart runs inside Launch once the job goroutine exists.
	afterStart func()
}

// NewLauncher builds a launcher from opts.
func NewLauncher(opts Options) *Launcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = hostCores()
	}
	if opts.LogEvery <= 0 {
		opts.LogEvery = defaultLogEvery
	}
	return &Launcher{
		opts:  opts,
		slots: make(chan struct{}, opts.Concurrency),
	}
}

func hostCores() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Launch resolves preset, checks the training data against it and starts
// training in a new goroutine. It never blocks on training. onComplete, if
// set, is called exactly once from the job goroutine after Launch has
// returned. Errors are reported before any work starts.
func (l *Launcher) Launch(preset string, patterns [][]float64, targets []float64, onComplete func(*model.Network)) (*Job, error) {
	hp, err := config.Lookup(preset)
	if err != nil {
		return nil, err
	}
	set, err := model.NewTrainingSet(copyPatterns(patterns), append([]float64(nil), targets...))
	if err != nil {
		return nil, err
	}
	if err := set.Validate(hp.Inputs); err != nil {
		return nil, errors.Wrapf(err, "preset %s", preset)
	}
	net, err := model.NewNetwork(hp.Inputs, hp.Hidden)
	if err != nil {
		return nil, err
	}

	n := l.launched.Add(1) - 1
	seed := time.Now().UnixNano()
	if l.opts.Seed != 0 {
		seed = l.opts.Seed + n
	}
	job := &Job{
		id:     uuid.New().String(),
		preset: preset,
		done:   make(chan struct{}),
	}

	released := make(chan struct{})
	defer close(released)

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		<-released
		l.run(job, net, set, hp, rand.New(rand.NewSource(seed)), onComplete)
	}()

	log.Printf("job=%s preset=%s launched inputs=%d hidden=%d examples=%d", job.id, preset, hp.Inputs, hp.Hidden, set.Len())
	if l.afterStart != nil {
		l.afterStart()
	}
	return job, nil
}

// Wait blocks until every launched job has delivered its result.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

func (l *Launcher) run(job *Job, net *model.Network, set model.TrainingSet, hp config.Hyperparams, rng *rand.Rand, onComplete func(*model.Network)) {
	l.slots <- struct{}{}
	defer func() { <-l.slots }()

	start := time.Now()
	var window metrics.Window
	rms, err := net.Train(set, model.Params{
		LearningRate: hp.LearningRate,
		TargetError:  hp.TargetError,
		MaxEpochs:    hp.MaxEpochs,
		MaxRestarts:  hp.MaxRestarts,
		Rand:         rng,
		OnEpoch: func(s model.EpochStats) {
			window.Record(s.Duration, s.Error)
			if s.Epoch%l.opts.LogEvery == 0 {
				snap := window.Snapshot()
				log.Printf("job=%s attempt=%d epoch=%d epochs_per_sec=%.1f epoch_ms=%.3f rms=%.4f mean_rms=%.4f std_rms=%.4f",
					job.id,
					s.Attempt,
					s.Epoch,
					snap.EpochsPerSec,
					snap.AvgEpochMS,
					snap.LastError,
					snap.MeanError,
					snap.StdDevError,
				)
			}
		},
	})
	if err != nil {
		log.Printf("job=%s failed: %v", job.id, err)
	} else {
		log.Printf("job=%s done rms=%.4f converged=%t elapsed=%s", job.id, rms, rms <= hp.TargetError, time.Since(start).Round(time.Millisecond))
	}

	job.net, job.rms, job.err = net, rms, err
	if onComplete != nil {
		onComplete(net)
	}
	close(job.done)
}

func copyPatterns(patterns [][]float64) [][]float64 {
	out := make([][]float64, len(patterns))
	for i, p := range patterns {
		out[i] = append([]float64(nil), p...)
	}
	return out
}

// Job is the handle of one launched training run.
type Job struct {
	id     string
	preset string
	done   chan struct{}

	net *model.Network
	rms float64
	err error
}

// ID returns the job's unique id.
func (j *Job) ID() string { return j.id }

// Preset returns the preset name the job was launched with.
func (j *Job) Preset() string { return j.preset }

// Done is closed once the completion callback has returned.
func (j *Job) Done() <-chan struct{} { return j.done }

// Err blocks until the job finishes and returns its training error, if any.
func (j *Job) Err() error {
	<-j.done
	return j.err
}

// Wait blocks until the job finishes or ctx ends. Cancelling ctx stops the
// wait, not the training.
func (j *Job) Wait(ctx context.Context) (*model.Network, float64, error) {
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case <-j.done:
		return j.net, j.rms, j.err
	}
}

var (
	defaultOnce     sync.Once
	defaultLauncher *Launcher
)

// Launch starts a job on a process-wide launcher sized to the host.
func Launch(preset string, patterns [][]float64, targets []float64, onComplete func(*model.Network)) (*Job, error) {
	defaultOnce.Do(func() {
		defaultLauncher = NewLauncher(Options{})
	})
	return defaultLauncher.Launch(preset, patterns, targets, onComplete)
}
