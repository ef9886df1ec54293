package job

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ParamGrid maps each parameter name to its candidate values. The
// Cartesian product of the value lists defines a family of jobs.
type ParamGrid map[string][]any

// Size returns the number of combinations in the grid's product, zero if
// any value list is empty.
func (g ParamGrid) Size() int {
	if len(g) == 0 {
		return 1
	}
	n := 1
	for _, vals := range g {
		n *= len(vals)
	}
	return n
}

// GridIter lazily produces jobs over a parameter grid, in the style of
// sql.Rows: call Next until it returns false, read each job with Job, and
// check Err afterwards.
type GridIter struct {
	ctx     context.Context
	factory *Factory
	learner string
	data    mat.Matrix
	labels  []float64
	filter  bool

	keys   []string
	values [][]any
	idx    []int
	done   bool

	cur *Job
	err error
}

func newGridIter(ctx context.Context, f *Factory, learnerName string, data mat.Matrix, labels []float64, grid ParamGrid, filterDuplicates bool) *GridIter {
	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	it := &GridIter{
		ctx:     ctx,
		factory: f,
		learner: learnerName,
		data:    data,
		labels:  labels,
		filter:  filterDuplicates,
		keys:    keys,
		values:  make([][]any, len(keys)),
		idx:     make([]int, len(keys)),
	}
	for i, k := range keys {
		it.values[i] = grid[k]
		if len(it.values[i]) == 0 {
			it.done = true
		}
	}
	return it
}

// Next advances to the next produced job. Duplicate jobs are constructed
// (registering their entries) but skipped when filtering is on. Next
// returns false once the grid is exhausted or an error occurred.
func (it *GridIter) Next() bool {
	it.cur = nil
	for !it.done && it.err == nil {
		params := make(map[string]any, len(it.keys))
		for i, k := range it.keys {
			params[k] = it.values[i][it.idx[i]]
		}
		it.advance()

		j, err := it.factory.NewJob(it.ctx, it.learner, it.data, it.labels, params)
		if err != nil {
			it.err = err
			return false
		}
		if it.filter && j.Duplicate() {
			continue
		}
		it.cur = j
		return true
	}
	return false
}

// advance increments the odometer, last key fastest.
func (it *GridIter) advance() {
	if len(it.idx) == 0 {
		it.done = true
		return
	}
	for i := len(it.idx) - 1; i >= 0; i-- {
		it.idx[i]++
		if it.idx[i] < len(it.values[i]) {
			return
		}
		it.idx[i] = 0
	}
	it.done = true
}

// Job returns the job produced by the last successful Next.
func (it *GridIter) Job() *Job {
	return it.cur
}

// Err returns the first error encountered during iteration.
func (it *GridIter) Err() error {
	return it.err
}

// Collect drains the iterator into a slice.
func (it *GridIter) Collect() ([]*Job, error) {
	var jobs []*Job
	for it.Next() {
		jobs = append(jobs, it.Job())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}
