package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LibSQLDocuments is a DocumentStore over an embedded libsql database.
// Documents are stored as JSON text scoped to a namespace; the fingerprint
// field, when present, is mirrored into an indexed column carrying a
// uniqueness constraint so concurrent duplicate inserts conflict instead
// of silently coexisting.
type LibSQLDocuments struct {
	conn      *sql.DB
	namespace string
}

// NewLibSQLDocuments binds a document store to a namespace within conn.
// The schema must already be migrated (see the db package).
func NewLibSQLDocuments(conn *sql.DB, namespace string) *LibSQLDocuments {
	return &LibSQLDocuments{conn: conn, namespace: namespace}
}

func (s *LibSQLDocuments) FindOne(ctx context.Context, match Document) (Document, bool, error) {
	// Indexed fast path when matching on the fingerprint alone.
	if fp, ok := match[FieldFingerprint].(string); ok && len(match) == 1 {
		var raw string
		err := s.conn.QueryRowContext(ctx,
			`SELECT doc FROM job_entries WHERE namespace = ? AND fingerprint = ?`,
			s.namespace, fp).Scan(&raw)
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to query entry: %w", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, false, err
		}
		return doc, true, nil
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT doc FROM job_entries WHERE namespace = ? ORDER BY created_at, id`,
		s.namespace)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, false, fmt.Errorf("failed to scan entry: %w", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, false, err
		}
		if matches(doc, match) {
			return doc, true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating entries: %w", err)
	}
	return nil, false, nil
}

func (s *LibSQLDocuments) Insert(ctx context.Context, doc Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	var fp any
	if v, ok := doc[FieldFingerprint].(string); ok {
		fp = v
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO job_entries (id, namespace, fingerprint, doc, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), s.namespace, fp, string(raw), time.Now().UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEntryExists
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (s *LibSQLDocuments) Update(ctx context.Context, match, set Document, upsert bool) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin update: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, doc FROM job_entries WHERE namespace = ? ORDER BY created_at, id`,
		s.namespace)
	if err != nil {
		return fmt.Errorf("failed to query entries: %w", err)
	}

	var matchedID string
	var matched Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan entry: %w", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			rows.Close()
			return err
		}
		if matches(doc, match) {
			matchedID, matched = id, doc
			break
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating entries: %w", err)
	}

	if matched == nil {
		if !upsert {
			return tx.Commit()
		}
		merged := applySet(cloneDocument(match), set)
		raw, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		var fp any
		if v, ok := merged[FieldFingerprint].(string); ok {
			fp = v
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO job_entries (id, namespace, fingerprint, doc, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), s.namespace, fp, string(raw), time.Now().UnixNano()); err != nil {
			return fmt.Errorf("failed to upsert entry: %w", err)
		}
		return tx.Commit()
	}

	applySet(matched, set)
	raw, err := json.Marshal(matched)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	var fp any
	if v, ok := matched[FieldFingerprint].(string); ok {
		fp = v
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE job_entries SET doc = ?, fingerprint = ? WHERE id = ?`,
		string(raw), fp, matchedID); err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return tx.Commit()
}

func (s *LibSQLDocuments) List(ctx context.Context) ([]Document, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT doc FROM job_entries WHERE namespace = ? ORDER BY created_at, id`,
		s.namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}
	return docs, nil
}

func (s *LibSQLDocuments) Drop(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM job_entries WHERE namespace = ?`, s.namespace); err != nil {
		return fmt.Errorf("failed to drop entries: %w", err)
	}
	return nil
}

// LibSQLBlobs is a BlobStore over the same libsql database. Blobs are
// shared across namespaces, mirroring how the document collections share
// one blob area.
type LibSQLBlobs struct {
	conn *sql.DB
}

// NewLibSQLBlobs returns a blob store over conn.
func NewLibSQLBlobs(conn *sql.DB) *LibSQLBlobs {
	return &LibSQLBlobs{conn: conn}
}

func (b *LibSQLBlobs) Put(ctx context.Context, payload []byte) (BlobID, error) {
	id := BlobID(uuid.NewString())
	if _, err := b.conn.ExecContext(ctx,
		`INSERT INTO job_blobs (id, payload, created_at) VALUES (?, ?, ?)`,
		string(id), payload, time.Now().UnixNano()); err != nil {
		return "", fmt.Errorf("failed to insert blob: %w", err)
	}
	return id, nil
}

func (b *LibSQLBlobs) Get(ctx context.Context, id BlobID) ([]byte, error) {
	var payload []byte
	err := b.conn.QueryRowContext(ctx,
		`SELECT payload FROM job_blobs WHERE id = ?`, string(id)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blob: %w", err)
	}
	return payload, nil
}

func (b *LibSQLBlobs) Delete(ctx context.Context, id BlobID) error {
	res, err := b.conn.ExecContext(ctx,
		`DELETE FROM job_blobs WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (b *LibSQLBlobs) Exists(ctx context.Context, id BlobID) (bool, error) {
	var one int
	err := b.conn.QueryRowContext(ctx,
		`SELECT 1 FROM job_blobs WHERE id = ?`, string(id)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query blob: %w", err)
	}
	return true, nil
}

// NewLibSQL returns a Store over a migrated libsql connection, bound to a
// namespace.
func NewLibSQL(conn *sql.DB, namespace string, logger zerolog.Logger) *Store {
	return New(NewLibSQLDocuments(conn, namespace), NewLibSQLBlobs(conn), logger)
}

func decodeDoc(raw string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return doc, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var (
	_ DocumentStore = (*LibSQLDocuments)(nil)
	_ BlobStore     = (*LibSQLBlobs)(nil)
)
