package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Window accumulates per-epoch stats between progress logs.
type Window struct {
	compute time.Duration
	errs    []float64
}

// Record adds a finished epoch to the window.
func (w *Window) Record(computeTime time.Duration, rms float64) {
	w.compute += computeTime
	w.errs = append(w.errs, rms)
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Epochs: len(w.errs)}
	if w.compute > 0 {
		snap.EpochsPerSec = float64(len(w.errs)) / w.compute.Seconds()
	}
	if n := len(w.errs); n > 0 {
		snap.AvgEpochMS = (w.compute.Seconds() * 1000) / float64(n)
		snap.LastError = w.errs[n-1]
		if n > 1 {
			snap.MeanError, snap.StdDevError = stat.MeanStdDev(w.errs, nil)
		} else {
			snap.MeanError = w.errs[0]
		}
	}

	w.compute = 0
	w.errs = w.errs[:0]
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Epochs       int
	EpochsPerSec float64
	AvgEpochMS   float64
	LastError    float64
	MeanError    float64
	StdDevError  float64
}
