package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MemoryDocuments is an in-memory DocumentStore for tests and ephemeral
// caches. It enforces the same fingerprint uniqueness the durable backend
// does. Safe for concurrent use.
type MemoryDocuments struct {
	mu   sync.RWMutex
	docs []Document
}

// NewMemoryDocuments returns an empty in-memory document store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{}
}

func (m *MemoryDocuments) FindOne(ctx context.Context, match Document) (Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.docs {
		if matches(doc, match) {
			return cloneDocument(doc), true, nil
		}
	}
	return nil, false, nil
}

func (m *MemoryDocuments) Insert(ctx context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fp, ok := doc[FieldFingerprint]; ok {
		for _, existing := range m.docs {
			if valueEqual(existing[FieldFingerprint], fp) {
				return ErrEntryExists
			}
		}
	}
	m.docs = append(m.docs, cloneDocument(doc))
	return nil
}

func (m *MemoryDocuments) Update(ctx context.Context, match, set Document, upsert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if matches(doc, match) {
			applySet(doc, set)
			return nil
		}
	}
	if upsert {
		merged := applySet(cloneDocument(match), set)
		m.docs = append(m.docs, merged)
	}
	return nil
}

func (m *MemoryDocuments) List(ctx context.Context) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		out = append(out, cloneDocument(doc))
	}
	return out, nil
}

func (m *MemoryDocuments) Drop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	return nil
}

// Len returns the number of stored documents.
func (m *MemoryDocuments) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// MemoryBlobs is an in-memory BlobStore. Safe for concurrent use.
type MemoryBlobs struct {
	mu    sync.RWMutex
	blobs map[BlobID][]byte
}

// NewMemoryBlobs returns an empty in-memory blob store.
func NewMemoryBlobs() *MemoryBlobs {
	return &MemoryBlobs{blobs: make(map[BlobID][]byte)}
}

func (m *MemoryBlobs) Put(ctx context.Context, payload []byte) (BlobID, error) {
	id := BlobID(uuid.NewString())
	buf := make([]byte, len(payload))
	copy(buf, payload)
	m.mu.Lock()
	m.blobs[id] = buf
	m.mu.Unlock()
	return id, nil
}

func (m *MemoryBlobs) Get(ctx context.Context, id BlobID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.blobs[id]
	if !ok {
		return nil, ErrBlobNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (m *MemoryBlobs) Delete(ctx context.Context, id BlobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(m.blobs, id)
	return nil
}

func (m *MemoryBlobs) Exists(ctx context.Context, id BlobID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[id]
	return ok, nil
}

// Len returns the number of stored blobs.
func (m *MemoryBlobs) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// NewMemory returns a Store backed entirely by memory.
func NewMemory(logger zerolog.Logger) *Store {
	return New(NewMemoryDocuments(), NewMemoryBlobs(), logger)
}

var (
	_ DocumentStore = (*MemoryDocuments)(nil)
	_ BlobStore     = (*MemoryBlobs)(nil)
)
