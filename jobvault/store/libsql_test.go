package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/jobvault/jobvault/jobvault/db"
)

func createTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobvault-test.db")
	conn, err := db.Connect(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLibSQLDocumentsCRUD(t *testing.T) {
	conn := createTestDB(t)
	ctx := context.Background()
	docs := NewLibSQLDocuments(conn, "default")

	_, found, err := docs.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	assert.False(t, found)

	entry := Document{
		FieldFingerprint: "abc",
		"data_hash":      "d1",
		"callable":       "linear",
		"params":         map[string]any{"ridge": 0.1},
	}
	require.NoError(t, docs.Insert(ctx, entry))

	// Indexed fingerprint lookup.
	doc, found, err := docs.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "linear", doc["callable"])
	assert.Equal(t, map[string]any{"ridge": 0.1}, doc["params"])

	// Scan path with multiple fields, including nested params.
	doc, found, err = docs.FindOne(ctx, Document{
		"callable": "linear",
		"params":   map[string]any{"ridge": 0.1},
	})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc", doc[FieldFingerprint])

	require.NoError(t, docs.Update(ctx, Document{FieldFingerprint: "abc"}, Document{FieldResult: "blob-1"}, true))
	doc, found, err = docs.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "blob-1", doc[FieldResult])

	all, err := docs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, docs.Drop(ctx))
	_, found, err = docs.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLibSQLDocumentsUniqueFingerprint(t *testing.T) {
	conn := createTestDB(t)
	ctx := context.Background()
	docs := NewLibSQLDocuments(conn, "default")

	require.NoError(t, docs.Insert(ctx, Document{FieldFingerprint: "abc"}))
	err := docs.Insert(ctx, Document{FieldFingerprint: "abc"})
	assert.ErrorIs(t, err, ErrEntryExists)
}

func TestLibSQLDocumentsNamespaceIsolation(t *testing.T) {
	conn := createTestDB(t)
	ctx := context.Background()
	a := NewLibSQLDocuments(conn, "exp-a")
	b := NewLibSQLDocuments(conn, "exp-b")

	require.NoError(t, a.Insert(ctx, Document{FieldFingerprint: "abc"}))

	// Same fingerprint in another namespace is a fresh entry.
	require.NoError(t, b.Insert(ctx, Document{FieldFingerprint: "abc"}))

	_, found, err := b.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, a.Drop(ctx))
	_, found, err = b.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	assert.True(t, found, "dropping one namespace must not touch another")
}

func TestLibSQLDocumentsUpdateUpsert(t *testing.T) {
	conn := createTestDB(t)
	ctx := context.Background()
	docs := NewLibSQLDocuments(conn, "default")

	// No match, no upsert: no-op.
	require.NoError(t, docs.Update(ctx, Document{FieldFingerprint: "zzz"}, Document{"n": 1.0}, false))
	all, err := docs.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// No match, upsert: merged insert.
	require.NoError(t, docs.Update(ctx, Document{FieldFingerprint: "zzz"}, Document{"n": 1.0}, true))
	doc, found, err := docs.FindOne(ctx, Document{FieldFingerprint: "zzz"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1.0, doc["n"])
}

func TestLibSQLBlobsRoundTrip(t *testing.T) {
	conn := createTestDB(t)
	ctx := context.Background()
	blobs := NewLibSQLBlobs(conn)

	id, err := blobs.Put(ctx, []byte("payload"))
	require.NoError(t, err)

	ok, err := blobs.Exists(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	payload, err := blobs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), payload)

	require.NoError(t, blobs.Delete(ctx, id))
	_, err = blobs.Get(ctx, id)
	assert.ErrorIs(t, err, ErrBlobNotFound)
	err = blobs.Delete(ctx, id)
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestNewLibSQLStore(t *testing.T) {
	conn := createTestDB(t)
	ctx := context.Background()
	st := NewLibSQL(conn, "default", zerolog.Nop())

	require.NoError(t, st.Insert(ctx, Document{FieldFingerprint: "abc"}))
	id, err := st.PutBlob(ctx, []byte("result"))
	require.NoError(t, err)
	require.NoError(t, st.Update(ctx, Document{FieldFingerprint: "abc"}, Document{FieldResult: string(id)}, true))

	doc, found, err := st.FindOne(ctx, Document{FieldFingerprint: "abc"})
	require.NoError(t, err)
	require.True(t, found)

	payload, err := st.GetBlob(ctx, BlobID(doc[FieldResult].(string)))
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), payload)
}
