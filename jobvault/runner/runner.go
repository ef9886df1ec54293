// Package runner executes batches of jobs with bounded concurrency.
// Result-set operations are already serialized per fingerprint by the
// store, so distinct jobs fit in parallel safely.
package runner

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/jobvault/jobvault/jobvault/job"
)

// DefaultConcurrency bounds parallel fits when no limit is configured.
const DefaultConcurrency = 4

// RunAll runs every job under the given store policy with at most
// maxWorkers fitting concurrently, returning the artifacts in job order.
// The first error cancels the remaining work.
func RunAll(ctx context.Context, jobs []*job.Job, policy job.StorePolicy, maxWorkers int) ([]any, error) {
	if maxWorkers <= 0 {
		maxWorkers = DefaultConcurrency
	}

	results := make([]any, len(jobs))
	p := pool.New().
		WithErrors().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(maxWorkers)

	for i, j := range jobs {
		p.Go(func(ctx context.Context) error {
			res, err := j.Run(ctx, policy)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunGrid drains a grid iterator and runs every produced job. Jobs are
// constructed sequentially (grid iteration registers entries in order)
// and then fitted in parallel.
func RunGrid(ctx context.Context, it *job.GridIter, policy job.StorePolicy, maxWorkers int) ([]any, error) {
	jobs, err := it.Collect()
	if err != nil {
		return nil, err
	}
	return RunAll(ctx, jobs, policy, maxWorkers)
}
