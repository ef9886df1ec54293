package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBlobs is a BlobStore over Redis, for deployments that keep the
// document collection in libsql but want result payloads in a shared
// side store.
type RedisBlobs struct {
	client *redis.Client
	prefix string
}

// NewRedisBlobs returns a blob store over client. Keys are prefixed so the
// blob space can share a database with other applications.
func NewRedisBlobs(client *redis.Client, prefix string) *RedisBlobs {
	if prefix == "" {
		prefix = "jobvault:blob:"
	}
	return &RedisBlobs{client: client, prefix: prefix}
}

func (r *RedisBlobs) key(id BlobID) string {
	return r.prefix + string(id)
}

func (r *RedisBlobs) Put(ctx context.Context, payload []byte) (BlobID, error) {
	id := BlobID(uuid.NewString())
	if err := r.client.Set(ctx, r.key(id), payload, 0).Err(); err != nil {
		return "", fmt.Errorf("failed to set blob: %w", err)
	}
	return id, nil
}

func (r *RedisBlobs) Get(ctx context.Context, id BlobID) ([]byte, error) {
	payload, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	return payload, nil
}

func (r *RedisBlobs) Delete(ctx context.Context, id BlobID) error {
	n, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	if n == 0 {
		return ErrBlobNotFound
	}
	return nil
}

func (r *RedisBlobs) Exists(ctx context.Context, id BlobID) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return n > 0, nil
}

var _ BlobStore = (*RedisBlobs)(nil)
