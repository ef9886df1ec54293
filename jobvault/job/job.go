// Package job implements the content-addressed result cache: jobs derive
// a fingerprint from their inputs at construction, register themselves in
// a fingerprint store with duplicate detection, and lazily compute,
// memoize, and replace a single result blob tied to that fingerprint.
package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/jobvault/jobvault/jobvault/learner"
	"github.com/jobvault/jobvault/jobvault/store"
)

// Job is a transient handle on a cached computation. Its fingerprint is
// computed once at construction from the literal input contents and never
// changes; the data and labels must not be mutated for the lifetime of
// the job, or the fingerprint will no longer describe what Run trains on.
//
// Multiple Job instances may reference the same stored entry.
type Job struct {
	st  *store.Store
	log zerolog.Logger

	learnerName string
	data        mat.Matrix
	labels      []float64
	params      map[string]any
	label       string
	hasLabel    bool

	identity  store.Document
	key       string
	duplicate bool
}

// Option configures job construction.
type Option func(*jobOptions)

type jobOptions struct {
	label    string
	hasLabel bool
}

// WithLabel tags the job with a free-form label. The label is part of the
// job's identity: two jobs with identical inputs but different labels are
// distinct entries, and a labeled job never collides with an unlabeled one.
func WithLabel(label string) Option {
	return func(o *jobOptions) {
		o.label = label
		o.hasLabel = true
	}
}

// New fingerprints the inputs, checks the store for an existing entry with
// the same fingerprint, and registers the job if it is not already known.
// Construction always reads the store and writes to it when no matching
// entry exists; constructing a second job with identical inputs is the
// defined way to detect already-registered work.
func New(ctx context.Context, st *store.Store, logger zerolog.Logger, learnerName string, data mat.Matrix, labels []float64, params map[string]any, opts ...Option) (*Job, error) {
	if !learner.Registered(learnerName) {
		return nil, fmt.Errorf("%w: %q", learner.ErrNotRegistered, learnerName)
	}

	var o jobOptions
	for _, opt := range opts {
		opt(&o)
	}

	canon, err := canonicalParams(params)
	if err != nil {
		return nil, err
	}

	identity := identityDocument(hashMatrix(data), hashFloats(labels), learnerName, canon, o.label, o.hasLabel)
	key, err := fingerprintKey(identity)
	if err != nil {
		return nil, err
	}

	j := &Job{
		st:          st,
		log:         logger.With().Str("component", "job").Str("fingerprint", key).Logger(),
		learnerName: learnerName,
		data:        data,
		labels:      labels,
		params:      canon,
		label:       o.label,
		hasLabel:    o.hasLabel,
		identity:    identity,
		key:         key,
	}

	unlock := st.Lock(key)
	defer unlock()

	_, found, err := st.FindOne(ctx, store.Document{store.FieldFingerprint: key})
	if err != nil {
		return nil, err
	}
	if found {
		j.duplicate = true
		return j, nil
	}

	doc := store.Document{store.FieldFingerprint: key}
	for k, v := range identity {
		doc[k] = v
	}
	if err := st.Insert(ctx, doc); err != nil {
		if errors.Is(err, store.ErrEntryExists) {
			// Lost a cross-process registration race; the entry is there.
			j.duplicate = true
			return j, nil
		}
		return nil, err
	}
	j.log.Debug().Msg("registered job entry")
	return j, nil
}

// Duplicate reports whether an entry with this job's fingerprint already
// existed when the job was constructed. Fixed for the life of the handle.
func (j *Job) Duplicate() bool {
	return j.duplicate
}

// Fingerprint returns the hex digest identifying this job's entry.
func (j *Job) Fingerprint() string {
	return j.key
}

// Label returns the job's label and whether one was set.
func (j *Job) Label() (string, bool) {
	return j.label, j.hasLabel
}

// Params returns a copy of the job's canonicalized parameters.
func (j *Job) Params() map[string]any {
	out := make(map[string]any, len(j.params))
	for k, v := range j.params {
		out[k] = v
	}
	return out
}

// Run returns the stored result for this fingerprint if one exists,
// checking the store fresh on every call; a result stored through any
// duplicate handle short-circuits execution here too. Otherwise it
// reconstructs the learner, fits it, persists according to policy, and
// returns the freshly fitted artifact (the full artifact, even when the
// policy stores a reduced form).
func (j *Job) Run(ctx context.Context, policy StorePolicy) (any, error) {
	policy, err := normalizePolicy(policy)
	if err != nil {
		return nil, err
	}

	if res, ok, err := j.Result(ctx); err != nil {
		return nil, err
	} else if ok {
		j.log.Debug().Msg("returning stored result")
		return res, nil
	}

	fitted, err := j.compute()
	if err != nil {
		return nil, err
	}

	switch policy {
	case StoreFullResult:
		err = j.SetResult(ctx, fitted)
	case StoreScore:
		err = j.SetResult(ctx, fitted.Score(j.data, j.labels))
	case StorePrediction:
		err = j.SetResult(ctx, fitted.Predict(j.data))
	case StoreNone:
		// Nothing persisted; subsequent runs recompute.
	}
	if err != nil {
		return nil, err
	}
	return fitted, nil
}

// Rerun unconditionally clears any existing result and recomputes with
// the default store policy, returning the fresh artifact.
func (j *Job) Rerun(ctx context.Context) (any, error) {
	if err := j.ClearResult(ctx); err != nil {
		return nil, err
	}

	fitted, err := j.compute()
	if err != nil {
		return nil, err
	}
	if err := j.SetResult(ctx, fitted); err != nil {
		return nil, err
	}
	return fitted, nil
}

// compute reconstructs the learner from its registered name, applies the
// job's parameters, and fits it on the data.
func (j *Job) compute() (learner.Learner, error) {
	l, err := learner.New(j.learnerName)
	if err != nil {
		return nil, err
	}
	if err := l.Configure(j.params); err != nil {
		return nil, fmt.Errorf("configuring %q: %w", j.learnerName, err)
	}
	if err := l.Fit(j.data, j.labels); err != nil {
		return nil, fmt.Errorf("fitting %q: %w", j.learnerName, err)
	}
	return l, nil
}

// Result fetches and deserializes the stored result for this fingerprint.
// It reports false when the entry is missing, carries no result reference,
// or the referenced blob was cleared out from under the reference.
func (j *Job) Result(ctx context.Context) (any, bool, error) {
	entry, found, err := j.st.FindOne(ctx, store.Document{store.FieldFingerprint: j.key})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	id, ok := entry[store.FieldResult].(string)
	if !ok || id == "" {
		return nil, false, nil
	}

	payload, err := j.st.GetBlob(ctx, store.BlobID(id))
	if err != nil {
		if errors.Is(err, store.ErrBlobNotFound) {
			// A standalone clear leaves the reference dangling; treat it
			// as no result so the next Run recomputes.
			return nil, false, nil
		}
		return nil, false, err
	}

	v, err := decodeResult(payload)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// SetResult replaces the stored result for this fingerprint: the previous
// blob is deleted before the new one is written so a replaced result never
// leaks its payload, then the entry's result reference is upserted.
// Result-set operations are serialized per fingerprint.
func (j *Job) SetResult(ctx context.Context, v any) error {
	unlock := j.st.Lock(j.key)
	defer unlock()

	if err := j.clearLocked(ctx); err != nil {
		return err
	}

	payload, err := encodeResult(v)
	if err != nil {
		return err
	}
	id, err := j.st.PutBlob(ctx, payload)
	if err != nil {
		return err
	}
	return j.st.Update(ctx,
		store.Document{store.FieldFingerprint: j.key},
		store.Document{store.FieldResult: string(id)},
		true)
}

// ClearResult deletes the current result blob, if any, forcing the next
// Run to recompute. The entry's result reference is left to be overwritten
// by the next SetResult.
func (j *Job) ClearResult(ctx context.Context) error {
	unlock := j.st.Lock(j.key)
	defer unlock()
	return j.clearLocked(ctx)
}

func (j *Job) clearLocked(ctx context.Context) error {
	entry, found, err := j.st.FindOne(ctx, store.Document{store.FieldFingerprint: j.key})
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	id, ok := entry[store.FieldResult].(string)
	if !ok || id == "" {
		return nil
	}
	return j.st.DeleteBlob(ctx, store.BlobID(id))
}

// Get returns the value stored under key on this job's entry.
func (j *Job) Get(ctx context.Context, key string) (any, error) {
	entry, found, err := j.st.FindOne(ctx, store.Document{store.FieldFingerprint: j.key})
	if err != nil {
		return nil, err
	}
	if found {
		if v, ok := entry[key]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: no attribute %q associated with this job", ErrMetadataNotFound, key)
}

// Set upserts key to value on this job's entry, for free-form caller
// bookkeeping such as run duration or host.
func (j *Job) Set(ctx context.Context, key string, value any) error {
	return j.st.Update(ctx,
		store.Document{store.FieldFingerprint: j.key},
		store.Document{key: value},
		true)
}
