package store

import (
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	internal "github.com/jobvault/jobvault/jobvault"
	"github.com/jobvault/jobvault/jobvault/config"
	"github.com/jobvault/jobvault/jobvault/db"
)

// Open builds a Store from configuration: connects and migrates the
// document backend, then attaches the configured blob backend. The
// returned Store owns the underlying connections; call Close when done.
func Open(cfg config.StoreConfig, logger zerolog.Logger) (*Store, error) {
	switch cfg.Backend {
	case "memory":
		blobs, err := openBlobs(cfg, nil)
		if err != nil {
			return nil, err
		}
		if blobs == nil {
			blobs = NewMemoryBlobs()
		}
		return New(NewMemoryDocuments(), blobs, logger), nil

	case "libsql", "":
		conn, err := db.Connect(cfg.DatabasePath, logger)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(conn); err != nil {
			conn.Close()
			return nil, err
		}
		namespace := cfg.Namespace
		if namespace == "" {
			namespace = internal.DefaultNamespace
		}
		blobs, err := openBlobs(cfg, conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		if blobs == nil {
			blobs = NewLibSQLBlobs(conn)
		}
		st := New(NewLibSQLDocuments(conn, namespace), blobs, logger)
		st.closeFn = conn.Close
		return st, nil

	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

// openBlobs returns the explicitly configured blob backend, or nil when
// the blob store should follow the document backend.
func openBlobs(cfg config.StoreConfig, conn *sql.DB) (BlobStore, error) {
	switch cfg.Blob.Backend {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryBlobs(), nil
	case "libsql":
		if conn == nil {
			return nil, fmt.Errorf("store: libsql blob backend requires the libsql document backend")
		}
		return NewLibSQLBlobs(conn), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Blob.RedisAddr,
			DB:   cfg.Blob.RedisDB,
		})
		return NewRedisBlobs(client, cfg.Blob.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("store: unknown blob backend %q", cfg.Blob.Backend)
	}
}
