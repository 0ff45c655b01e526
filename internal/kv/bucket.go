package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// ConversationsBucket holds full conversation message lists.
	ConversationsBucket = "conversations"

	// PageCacheBucket holds extracted page text keyed by URL.
	PageCacheBucket = "pagecache"
)

// Store is the key-value surface the persistence layers depend on.
// The second return of Get reports presence: a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// bucket adapts a JetStream key-value bucket to the Store interface.
type bucket struct {
	kv jetstream.KeyValue
}

// EnsureBucket creates the named bucket if it does not exist and returns it.
// Entries expire ttl after their last write, so a re-save refreshes the
// retention window.
func EnsureBucket(ctx context.Context, client *Client, name string, ttl time.Duration) (Store, error) {
	js := client.JetStream()

	kvb, err := js.KeyValue(ctx, name)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		kvb, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      name,
			TTL:         ttl,
			Storage:     jetstream.FileStorage,
			Description: "helpdesk-assistant " + name,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bucket %s: %w", name, err)
	}

	return &bucket{kv: kvb}, nil
}

func (b *bucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	entry, err := b.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry.Value(), true, nil
}

func (b *bucket) Put(ctx context.Context, key string, value []byte) error {
	if _, err := b.kv.Put(ctx, key, value); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

func (b *bucket) Delete(ctx context.Context, key string) error {
	if err := b.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
