package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Store is the fingerprint store handle injected into jobs and factories:
// a document collection, its associated blob store, and a per-fingerprint
// lock table. It has no ambient global state; open one explicitly and pass
// it around.
type Store struct {
	docs    DocumentStore
	blobs   BlobStore
	locks   *fpLocks
	log     zerolog.Logger
	closeFn func() error
}

// New pairs a document store with a blob store.
func New(docs DocumentStore, blobs BlobStore, logger zerolog.Logger) *Store {
	return &Store{
		docs:  docs,
		blobs: blobs,
		locks: newFPLocks(),
		log:   logger.With().Str("component", "store").Logger(),
	}
}

// Close releases any connections the Store owns. Stores built directly
// from backend instances have nothing to close.
func (s *Store) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}

// Lock acquires the single-writer lock for a fingerprint digest and
// returns the release function.
func (s *Store) Lock(fingerprint string) func() {
	return s.locks.acquire(fingerprint)
}

// FindOne returns the first document matching all given fields.
func (s *Store) FindOne(ctx context.Context, match Document) (Document, bool, error) {
	doc, found, err := s.docs.FindOne(ctx, match)
	if err != nil {
		return nil, false, fmt.Errorf("find entry: %w", err)
	}
	return doc, found, nil
}

// Insert adds a new document. ErrEntryExists passes through untouched so
// callers can treat fingerprint collisions as duplicates.
func (s *Store) Insert(ctx context.Context, doc Document) error {
	if err := s.docs.Insert(ctx, doc); err != nil {
		if errors.Is(err, ErrEntryExists) {
			return err
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// Update sets fields on the first document matching the given fields,
// inserting a merged document when upsert is true and nothing matches.
func (s *Store) Update(ctx context.Context, match, set Document, upsert bool) error {
	if err := s.docs.Update(ctx, match, set, upsert); err != nil {
		return fmt.Errorf("update entry: %w", err)
	}
	return nil
}

// List returns every document in the bound namespace.
func (s *Store) List(ctx context.Context) ([]Document, error) {
	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return docs, nil
}

// Drop removes every document in the bound namespace.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.docs.Drop(ctx); err != nil {
		return fmt.Errorf("drop entries: %w", err)
	}
	s.log.Info().Msg("dropped all entries")
	return nil
}

// PutBlob stores a payload and returns its identifier.
func (s *Store) PutBlob(ctx context.Context, payload []byte) (BlobID, error) {
	id, err := s.blobs.Put(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("put blob: %w", err)
	}
	s.log.Debug().Str("blob", string(id)).Int("bytes", len(payload)).Msg("stored blob")
	return id, nil
}

// GetBlob fetches a payload by identifier. ErrBlobNotFound passes through.
func (s *Store) GetBlob(ctx context.Context, id BlobID) ([]byte, error) {
	payload, err := s.blobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get blob %s: %w", id, err)
	}
	return payload, nil
}

// DeleteBlob removes a payload by identifier. Deleting an absent blob is
// not an error; replacement paths may race with each other.
func (s *Store) DeleteBlob(ctx context.Context, id BlobID) error {
	if err := s.blobs.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

// BlobExists reports whether a payload exists for the identifier.
func (s *Store) BlobExists(ctx context.Context, id BlobID) (bool, error) {
	ok, err := s.blobs.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", id, err)
	}
	return ok, nil
}
