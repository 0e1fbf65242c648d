package dataset

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"gesturenet/internal/model"
)

// LoaderOptions configures the multi-root loader.
type LoaderOptions struct {
	Roots      map[string][]string
	Seed       int64
	NumWorkers int
}

// StartLoader streams every example of every file under opts.Roots. Files
// are visited round robin across roots, shuffled within a root when Seed is
// non-zero, and rows keep their file order. Files are read by NumWorkers
// workers but examples are emitted in visit order.
func StartLoader(parent context.Context, opts LoaderOptions) (<-chan Example, <-chan error, error) {
	if len(opts.Roots) == 0 {
		return nil, nil, errors.New("loader: no dataset roots provided")
	}
	total := 0
	for _, files := range opts.Roots {
		total += len(files)
	}
	if total == 0 {
		return nil, nil, errors.New("loader: no pattern files discovered")
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	jobs := make(chan fileJob, opts.NumWorkers)
	cursors := make(chan fileCursor, opts.NumWorkers)
	out := make(chan Example, opts.NumWorkers*2)
	errCh := make(chan error, 1)

	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	go produceJobs(ctx, jobs, buildRoundRobinOrder(opts.Roots, rng))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, cursors)
		}()
	}

	go func() {
		wg.Wait()
		close(cursors)
	}()

	go func() {
		defer cancel()
		defer close(out)
		defer close(errCh)
		runAggregator(ctx, cursors, out, errCh)
	}()

	return out, errCh, nil
}

// Load runs the loader to completion and returns the examples as a training
// set.
func Load(ctx context.Context, opts LoaderOptions) (model.TrainingSet, error) {
	stream, errCh, err := StartLoader(ctx, opts)
	if err != nil {
		return model.TrainingSet{}, err
	}
	var patterns [][]float64
	var targets []float64
	for ex := range stream {
		patterns = append(patterns, ex.Pattern)
		targets = append(targets, ex.Target)
	}
	if err, ok := <-errCh; ok && err != nil {
		return model.TrainingSet{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.TrainingSet{}, err
	}
	return model.NewTrainingSet(patterns, targets)
}

type fileJob struct {
	id   int64
	path string
}

type fileCursor struct {
	id       int64
	examples <-chan Example
	errCh    <-chan error
}

func worker(ctx context.Context, jobs <-chan fileJob, cursors chan<- fileCursor) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			examples, errCh := StreamFile(ctx, job.path)
			cursor := fileCursor{id: job.id, examples: examples, errCh: errCh}
			select {
			case <-ctx.Done():
				return
			case cursors <- cursor:
			}
		}
	}
}

func runAggregator(ctx context.Context, cursors <-chan fileCursor, out chan<- Example, errCh chan<- error) {
	pending := make(map[int64]fileCursor)
	var nextID int64
	for {
		cursor, ok := pending[nextID]
		if !ok {
			select {
			case <-ctx.Done():
				return
			case cursor, ok = <-cursors:
				if !ok {
					return
				}
				pending[cursor.id] = cursor
			}
			continue
		}

	drain:
		for {
			select {
			case <-ctx.Done():
				return
			case ex, ok := <-cursor.examples:
				if !ok {
					break drain
				}
				select {
				case <-ctx.Done():
					return
				case out <- ex:
				}
			}
		}

		if err := <-cursor.errCh; err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
			return
		}
		delete(pending, nextID)
		nextID++
	}
}

func produceJobs(ctx context.Context, jobs chan<- fileJob, order []orderEntry) {
	defer close(jobs)
	for id, entry := range order {
		select {
		case <-ctx.Done():
			return
		case jobs <- fileJob{id: int64(id), path: entry.path}:
		}
	}
}

type orderEntry struct {
	root string
	path string
}

func buildRoundRobinOrder(roots map[string][]string, rng *rand.Rand) []orderEntry {
	rootNames := make([]string, 0, len(roots))
	copied := make(map[string][]string, len(roots))
	for root, files := range roots {
		if len(files) == 0 {
			continue
		}
		rootNames = append(rootNames, root)
		copied[root] = append([]string(nil), files...)
	}
	sort.Strings(rootNames)
	if rng != nil {
		for _, root := range rootNames {
			files := copied[root]
			rng.Shuffle(len(files), func(i, j int) {
				files[i], files[j] = files[j], files[i]
			})
		}
	}
	var order []orderEntry
	for {
		advanced := false
		for _, root := range rootNames {
			files := copied[root]
			if len(files) == 0 {
				continue
			}
			order = append(order, orderEntry{root: root, path: files[0]})
			copied[root] = files[1:]
			advanced = true
		}
		if !advanced {
			break
		}
	}
	return order
}
