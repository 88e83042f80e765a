package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"
)

// The engine subscribes while holding its session lock, and every snapshot
// callback re-acquires that same lock. Both store implementations must
// therefore return from Subscribe before the first callback runs, and must
// never deliver on the subscriber's goroutine.
func runSubscribeContract(t *testing.T, st DocumentStore, key string) {
	t.Helper()
	ctx := context.Background()

	if err := st.Set(ctx, key, map[string]any{"status": "waiting_for_guest"}); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	delivered := make(chan map[string]any, 8)

	// mu is held across the Subscribe call and taken again inside the
	// callback, mirroring the engine's locking pattern. A store that runs
	// the initial snapshot synchronously deadlocks here.
	mu.Lock()
	subscribed := make(chan func(), 1)
	go func() {
		unsub, err := st.Subscribe(ctx, key, func(raw json.RawMessage) {
			mu.Lock()
			mu.Unlock()
			var doc map[string]any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return
			}
			delivered <- doc
		})
		if err != nil {
			t.Error(err)
			close(subscribed)
			return
		}
		subscribed <- unsub
	}()

	var unsub func()
	select {
	case u, ok := <-subscribed:
		if !ok {
			t.FailNow()
		}
		unsub = u
	case <-time.After(2 * time.Second):
		t.Fatal("Subscribe blocked while the caller held its lock")
	}
	defer unsub()
	mu.Unlock()

	select {
	case doc := <-delivered:
		if doc["status"] != "waiting_for_guest" {
			t.Fatalf("initial snapshot = %v", doc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial snapshot never delivered")
	}

	if err := st.Set(ctx, key, map[string]any{"status": "playing"}); err != nil {
		t.Fatal(err)
	}
	select {
	case doc := <-delivered:
		if doc["status"] != "playing" {
			t.Fatalf("change snapshot = %v", doc)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change notification never delivered")
	}
}

func TestMemoryStoreSubscribeContract(t *testing.T) {
	runSubscribeContract(t, NewMemoryStore(), "123456")
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisStoreSubscribeContract(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	pass := os.Getenv("REDIS_PASSWORD")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	st, err := NewRedisStore(addr, pass, db)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	runSubscribeContract(t, st, fmt.Sprintf("contract-%d", time.Now().UnixNano()))
}
