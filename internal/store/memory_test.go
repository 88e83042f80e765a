package store

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

type testDoc struct {
	Status string         `json:"status"`
	Turn   string         `json:"turn"`
	Player map[string]any `json:"player1"`
}

func TestGetMissing(t *testing.T) {
	m := NewMemoryStore()
	if _, err := m.Get(context.Background(), "000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestSetThenGet(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if err := m.Set(ctx, "123456", testDoc{Status: "waiting_for_guest"}); err != nil {
		t.Fatal(err)
	}

	raw, err := m.Get(ctx, "123456")
	if err != nil {
		t.Fatal(err)
	}
	var got testDoc
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got.Status != "waiting_for_guest" {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestUpdateMissing(t *testing.T) {
	m := NewMemoryStore()
	err := m.Update(context.Background(), "999999", map[string]any{"status": "playing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestUpdateDottedPath(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	m.Set(ctx, "123456", map[string]any{
		"status":  "selecting_pokemon",
		"player1": map[string]any{"id": "a", "eliminated": []int{}},
	})

	err := m.Update(ctx, "123456", map[string]any{
		"player1.eliminated": []int{4, 7},
		"status":             "playing",
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := m.Get(ctx, "123456")
	var doc map[string]any
	json.Unmarshal(raw, &doc)

	if doc["status"] != "playing" {
		t.Fatalf("status = %v", doc["status"])
	}
	p1 := doc["player1"].(map[string]any)
	if p1["id"] != "a" {
		t.Fatalf("sibling field lost: %v", p1)
	}
	elim := p1["eliminated"].([]any)
	if len(elim) != 2 {
		t.Fatalf("eliminated = %v", elim)
	}
}

func TestApplyFieldsCreatesIntermediate(t *testing.T) {
	doc := map[string]any{}
	applyFields(doc, map[string]any{"interaction.status": "answered"})

	inter, ok := doc["interaction"].(map[string]any)
	if !ok || inter["status"] != "answered" {
		t.Fatalf("doc = %v", doc)
	}
}

func TestApplyFieldsOverwritesNonObject(t *testing.T) {
	doc := map[string]any{"interaction": "oops"}
	applyFields(doc, map[string]any{"interaction.status": "waiting_response"})

	inter, ok := doc["interaction"].(map[string]any)
	if !ok || inter["status"] != "waiting_response" {
		t.Fatalf("doc = %v", doc)
	}
}

func collect(t *testing.T, ch <-chan json.RawMessage, n int) []map[string]any {
	t.Helper()
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		select {
		case raw := <-ch:
			var doc map[string]any
			if err := json.Unmarshal(raw, &doc); err != nil {
				t.Fatal(err)
			}
			out = append(out, doc)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for snapshot %d of %d", i+1, n)
		}
	}
	return out
}

func TestSubscribeInitialSnapshot(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	m.Set(ctx, "123456", map[string]any{"status": "waiting_for_guest"})

	ch := make(chan json.RawMessage, 8)
	unsub, err := m.Subscribe(ctx, "123456", func(raw json.RawMessage) { ch <- raw })
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()

	got := collect(t, ch, 1)
	if got[0]["status"] != "waiting_for_guest" {
		t.Fatalf("initial snapshot = %v", got[0])
	}
}

// A subscriber sees every write, in write order.
func TestSubscribeOrdering(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	m.Set(ctx, "123456", map[string]any{"seq": 0})

	ch := make(chan json.RawMessage, 16)
	unsub, err := m.Subscribe(ctx, "123456", func(raw json.RawMessage) { ch <- raw })
	if err != nil {
		t.Fatal(err)
	}
	defer unsub()

	for i := 1; i <= 5; i++ {
		m.Set(ctx, "123456", map[string]any{"seq": i})
	}

	docs := collect(t, ch, 6)
	seqs := make([]float64, 0, len(docs))
	for _, d := range docs {
		seqs = append(seqs, d["seq"].(float64))
	}
	if !reflect.DeepEqual(seqs, []float64{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("sequence = %v", seqs)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	m.Set(ctx, "123456", map[string]any{"seq": 0})

	ch := make(chan json.RawMessage, 8)
	unsub, err := m.Subscribe(ctx, "123456", func(raw json.RawMessage) { ch <- raw })
	if err != nil {
		t.Fatal(err)
	}

	collect(t, ch, 1)
	unsub()
	unsub() // second call is a no-op

	m.Set(ctx, "123456", map[string]any{"seq": 1})

	select {
	case raw := <-ch:
		t.Fatalf("received %s after unsubscribe", raw)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribersAreIndependent(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	m.Set(ctx, "123456", map[string]any{"seq": 0})

	ch1 := make(chan json.RawMessage, 8)
	ch2 := make(chan json.RawMessage, 8)
	unsub1, _ := m.Subscribe(ctx, "123456", func(raw json.RawMessage) { ch1 <- raw })
	defer unsub1()
	unsub2, _ := m.Subscribe(ctx, "123456", func(raw json.RawMessage) { ch2 <- raw })

	collect(t, ch1, 1)
	collect(t, ch2, 1)

	unsub2()
	m.Set(ctx, "123456", map[string]any{"seq": 1})

	if got := collect(t, ch1, 1); got[0]["seq"].(float64) != 1 {
		t.Fatalf("live subscriber got %v", got[0])
	}
}
