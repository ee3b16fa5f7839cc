// Package redis implements the visit recorder and the distributed
// single-flight lock on Redis, for deployments where several engine
// replicas share one subject.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/averycross/waygate/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Recorder implements ports.VisitRecorder using Redis.
type Recorder struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithTTL sets an expiration for visit records.
func WithTTL(ttl time.Duration) Option {
	return func(r *Recorder) { r.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Recorder) { r.prefix = prefix }
}

// New creates a Redis recorder with its own client.
func New(address, password string, db int, opts ...Option) *Recorder {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis recorder from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Recorder {
	r := &Recorder{
		client: client,
		prefix: "waygate:visit:",
		ttl:    0, // no expiration by default
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) key(contextID string) string {
	return r.prefix + contextID
}

func (r *Recorder) indexKey() string {
	return r.prefix + "index"
}

// MarkVisited records or increments a visit.
func (r *Recorder) MarkVisited(ctx context.Context, contextID, variant string) error {
	v, err := r.Visit(ctx, contextID)
	if errors.Is(err, ports.ErrVisitNotFound) {
		v = &ports.Visit{ContextID: contextID}
	} else if err != nil {
		return err
	}

	v.Count++
	v.VisitedAt = time.Now()
	if variant != "" {
		v.Variant = variant
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal visit: %w", err)
	}
	if err := r.client.Set(ctx, r.key(contextID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	if err := r.client.SAdd(ctx, r.indexKey(), contextID).Err(); err != nil {
		return fmt.Errorf("redis index update failed: %w", err)
	}
	return nil
}

// Visit returns the record for a context.
func (r *Recorder) Visit(ctx context.Context, contextID string) (*ports.Visit, error) {
	data, err := r.client.Get(ctx, r.key(contextID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, ports.ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var v ports.Visit
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal visit: %w", err)
	}
	return &v, nil
}

// List returns all visit records referenced by the index set. Records that
// expired under a TTL are pruned from the index as they are discovered.
func (r *Recorder) List(ctx context.Context) ([]ports.Visit, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis index read failed: %w", err)
	}

	visits := make([]ports.Visit, 0, len(ids))
	for _, id := range ids {
		v, err := r.Visit(ctx, id)
		if errors.Is(err, ports.ErrVisitNotFound) {
			_ = r.client.SRem(ctx, r.indexKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		visits = append(visits, *v)
	}
	return visits, nil
}
