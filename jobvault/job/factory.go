package job

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/jobvault/jobvault/jobvault/store"
)

// Factory binds a fingerprint store and produces jobs against it.
type Factory struct {
	st  *store.Store
	log zerolog.Logger
}

// NewFactory binds a factory to a store.
func NewFactory(st *store.Store, logger zerolog.Logger) *Factory {
	return &Factory{
		st:  st,
		log: logger.With().Str("component", "factory").Logger(),
	}
}

// NewJob constructs a job against the bound store. See New.
func (f *Factory) NewJob(ctx context.Context, learnerName string, data mat.Matrix, labels []float64, params map[string]any, opts ...Option) (*Job, error) {
	return New(ctx, f.st, f.log, learnerName, data, labels, params, opts...)
}

// JobGrid returns a lazy iterator over one job per point of the Cartesian
// product of grid, in deterministic order (grid keys sorted, first key
// outermost). Every produced combination constructs a job, so duplicate
// registration happens as a side effect of iteration; when
// filterDuplicates is true, jobs whose entry already existed are skipped
// from the produced sequence.
//
// Each call returns a fresh iterator starting from the first combination.
func (f *Factory) JobGrid(ctx context.Context, learnerName string, data mat.Matrix, labels []float64, grid ParamGrid, filterDuplicates bool) *GridIter {
	return newGridIter(ctx, f, learnerName, data, labels, grid, filterDuplicates)
}

// ClearJobs irrecoverably drops every entry in the bound namespace. Result
// blobs referenced by the dropped entries are deleted first so the blob
// store does not accumulate orphans.
func (f *Factory) ClearJobs(ctx context.Context) error {
	docs, err := f.st.List(ctx)
	if err != nil {
		return err
	}

	deleted := 0
	for _, doc := range docs {
		id, ok := doc[store.FieldResult].(string)
		if !ok || id == "" {
			continue
		}
		if err := f.st.DeleteBlob(ctx, store.BlobID(id)); err != nil {
			if errors.Is(err, store.ErrBlobNotFound) {
				continue
			}
			return err
		}
		deleted++
	}

	if err := f.st.Drop(ctx); err != nil {
		return err
	}
	f.log.Info().Int("entries", len(docs)).Int("blobs", deleted).Msg("cleared all jobs")
	return nil
}
