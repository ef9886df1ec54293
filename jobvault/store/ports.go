// Package store provides the fingerprint store: a document collection keyed
// by arbitrary field sets plus a blob store for opaque result payloads.
// Backends implement the two narrow interfaces below; the Store type pairs
// one of each with a per-fingerprint lock table.
package store

import (
	"context"
	"errors"
)

var (
	// ErrEntryExists is returned by Insert when the document's fingerprint
	// collides with an existing entry. Callers treat it as a concurrent
	// duplicate registration, not a failure.
	ErrEntryExists = errors.New("store: entry already exists")
	// ErrBlobNotFound is returned when a blob identifier resolves to nothing.
	ErrBlobNotFound = errors.New("store: blob not found")
)

// Reserved document fields written by the job layer.
const (
	// FieldFingerprint holds the hex digest of a job's identity. Backends
	// enforce uniqueness on it when present.
	FieldFingerprint = "fingerprint"
	// FieldResult holds the blob identifier of a stored result.
	FieldResult = "result"
)

// Document is a free-form persisted record.
type Document map[string]any

// BlobID identifies an opaque payload in a BlobStore.
type BlobID string

// DocumentStore is a thin abstraction over a document collection. FindOne
// and Update match documents containing all the given fields with equal
// values (structural equality).
type DocumentStore interface {
	FindOne(ctx context.Context, match Document) (Document, bool, error)
	Insert(ctx context.Context, doc Document) error
	Update(ctx context.Context, match, set Document, upsert bool) error
	// List returns every document in scope. It exists so bulk clears can
	// enumerate result blobs before dropping the collection.
	List(ctx context.Context) ([]Document, error)
	Drop(ctx context.Context) error
}

// BlobStore stores opaque byte payloads referenced by identifier.
type BlobStore interface {
	Put(ctx context.Context, payload []byte) (BlobID, error)
	Get(ctx context.Context, id BlobID) ([]byte, error)
	Delete(ctx context.Context, id BlobID) error
	Exists(ctx context.Context, id BlobID) (bool, error)
}
