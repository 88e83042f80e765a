package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"pkmn_guesser/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const updateRetries = 5

// RedisStore keeps each document as a JSON string and publishes the full
// document on a per-key channel after every write, which gives subscribers
// the same snapshot-on-change semantics the engine expects from Firestore.
// Partial updates run inside an optimistic WATCH transaction, so the
// read-merge-write is atomic per document.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings. Provide addr (host:port), password and
// db index.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func docKey(key string) string     { return "room:" + key }
func changeChan(key string) string { return "room:" + key + ":changes" }

func (s *RedisStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	raw, err := s.client.Get(ctx, docKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, docKey(key), raw, 0)
		pipe.Publish(ctx, changeChan(key), raw)
		return nil
	})
	return err
}

func (s *RedisStore) Update(ctx context.Context, key string, fields map[string]any) error {
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, docKey(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		applyFields(doc, fields)

		merged, err := json.Marshal(doc)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, docKey(key), merged, 0)
			pipe.Publish(ctx, changeChan(key), merged)
			return nil
		})
		return err
	}

	for i := 0; i < updateRetries; i++ {
		err := s.client.Watch(ctx, txn, docKey(key))
		if errors.Is(err, redis.TxFailedErr) {
			// concurrent write landed between read and commit; re-read and retry
			continue
		}
		return err
	}
	return redis.TxFailedErr
}

func (s *RedisStore) Subscribe(ctx context.Context, key string, fn func(json.RawMessage)) (func(), error) {
	pubsub := s.client.Subscribe(ctx, changeChan(key))

	// Force the SUBSCRIBE onto the wire before the initial read so no write
	// can land between the snapshot and the first notification.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	initial, err := s.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		_ = pubsub.Close()
		return nil, err
	}

	// All deliveries, the initial snapshot included, happen on the drain
	// goroutine. Callers subscribe while holding their own locks and the
	// callback re-enters them, so fn must never run on the caller's goroutine.
	go func() {
		if initial != nil {
			fn(initial)
		}
		for msg := range pubsub.Channel() {
			fn(json.RawMessage(msg.Payload))
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				logger.Warn("redis unsubscribe failed", "key", key, "error", err)
			}
		})
	}
	return unsubscribe, nil
}

// Close releases the underlying client. Active subscriptions end with it.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ DocumentStore = (*RedisStore)(nil)
