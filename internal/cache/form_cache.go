package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leadvett/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const formTTL = 10 * time.Minute

// FormCache caches forms by share link for the public intake endpoints.
// Get returns (nil, nil) on a miss.
type FormCache interface {
	Get(ctx context.Context, shareLink uuid.UUID) (*models.Form, error)
	Set(ctx context.Context, form *models.Form) error
	Invalidate(ctx context.Context, shareLink uuid.UUID) error
}

// NewRedisClient connects to REDIS_URL. An empty url disables caching.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type formCache struct {
	client *redis.Client
}

// NewFormCache returns a Redis-backed cache, or a no-op cache when client is nil.
func NewFormCache(client *redis.Client) FormCache {
	if client == nil {
		return noopFormCache{}
	}
	return &formCache{client: client}
}

func formKey(shareLink uuid.UUID) string {
	return fmt.Sprintf("form:share:%s", shareLink)
}

func (c *formCache) Get(ctx context.Context, shareLink uuid.UUID) (*models.Form, error) {
	data, err := c.client.Get(ctx, formKey(shareLink)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var form models.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("decode cached form: %w", err)
	}
	return &form, nil
}

func (c *formCache) Set(ctx context.Context, form *models.Form) error {
	data, err := json.Marshal(form)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, formKey(form.ShareLink), data, formTTL).Err()
}

func (c *formCache) Invalidate(ctx context.Context, shareLink uuid.UUID) error {
	return c.client.Del(ctx, formKey(shareLink)).Err()
}

type noopFormCache struct{}

func (noopFormCache) Get(context.Context, uuid.UUID) (*models.Form, error) { return nil, nil }
func (noopFormCache) Set(context.Context, *models.Form) error              { return nil }
func (noopFormCache) Invalidate(context.Context, uuid.UUID) error          { return nil }
