package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"zone_scheduler/internal/models"
)

// DocumentRedis keeps each document as one JSON string value.
type DocumentRedis struct {
	client redis.Cmdable
	prefix string
}

func NewDocumentRedis(client redis.Cmdable, prefix string) *DocumentRedis {
	return &DocumentRedis{client: client, prefix: prefix}
}

var _ DocumentStore = (*DocumentRedis)(nil)

func (r *DocumentRedis) redisKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Save overwrites the value under key. No expiry is set.
func (r *DocumentRedis) Save(ctx context.Context, key string, doc *models.Document) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode document %q: %w", key, err)
	}
	if err := r.client.Set(ctx, r.redisKey(key), body, 0).Err(); err != nil {
		return fmt.Errorf("save document %q: %w", key, err)
	}
	return nil
}

// Load returns the document under key, or nil if the key does not exist.
func (r *DocumentRedis) Load(ctx context.Context, key string) (*models.Document, error) {
	body, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load document %q: %w", key, err)
	}
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, fmt.Errorf("decode document %q: %w", key, err)
	}
	return doc, nil
}

// NewRedisClient opens a client and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %q: %w", addr, err)
	}
	return client, nil
}
