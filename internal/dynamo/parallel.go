package dynamo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job builds one independent run. Build is called on the worker goroutine,
// so everything it returns is owned by that worker.
type Job struct {
	Name  string
	Build func() (*Sequence, error)
}

type Ensemble struct {
	jobs    []Job
	workers int
}

// NewEnsemble runs jobs with at most workers in flight; workers <= 0 means
// no limit.
func NewEnsemble(workers int, jobs ...Job) *Ensemble {
	return &Ensemble{jobs: jobs, workers: workers}
}

// Run returns results in job order. The first failure cancels the
// remaining jobs.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.jobs))

	g, gctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for i, job := range e.jobs {
		g.Go(func() error {
			seq, err := job.Build()
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			res, err := seq.Collect(gctx)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
