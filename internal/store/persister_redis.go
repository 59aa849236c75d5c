package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPersister stores the document under a single key.
type RedisPersister struct {
	client redis.Cmdable
	key    string
}

func NewRedisPersister(client redis.Cmdable, key string) *RedisPersister {
	return &RedisPersister{client: client, key: key}
}

func (p *RedisPersister) Load(ctx context.Context) ([]byte, error) {
	doc, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", p.key, err)
	}
	return doc, nil
}

func (p *RedisPersister) Save(ctx context.Context, doc []byte) error {
	if err := p.client.Set(ctx, p.key, doc, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", p.key, err)
	}
	return nil
}
