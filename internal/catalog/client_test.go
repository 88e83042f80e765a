package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"pkmn_guesser/internal/domain"
)

func payloadFor(id int, types []string, image string) map[string]any {
	typesJSON := make([]map[string]any, 0, len(types))
	for _, name := range types {
		typesJSON = append(typesJSON, map[string]any{"type": map[string]any{"name": name}})
	}
	return map[string]any{
		"id":    id,
		"name":  fmt.Sprintf("cand-%d", id),
		"types": typesJSON,
		"sprites": map[string]any{
			"other": map[string]any{
				"official-artwork": map[string]any{
					"front_default": image,
				},
			},
		},
	}
}

func TestFetchOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pokemon/25" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(payloadFor(25, []string{"electric"}, "http://img.test/25.png"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.FetchOne(context.Background(), 25)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Candidate{ID: 25, Name: "cand-25", Types: []string{"electric"}, Image: "http://img.test/25.png"}
	if got.ID != want.ID || got.Name != want.Name || got.Image != want.Image || len(got.Types) != 1 {
		t.Fatalf("got %+v; want %+v", got, want)
	}
}

func TestFetchOneMissingArtwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payloadFor(1, []string{"grass"}, ""))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchOne(context.Background(), 1); err == nil {
		t.Fatal("expected error for missing artwork")
	}
}

func TestFetchOneServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.FetchOne(context.Background(), 1); err == nil {
		t.Fatal("expected error for 500")
	}
}

// Failing ids are dropped from the range, not fatal for the batch, and the
// surviving entries keep id order.
func TestLoadRangeDropsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.URL.Path, "/pokemon/%d", &id)
		if id == 3 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(payloadFor(id, []string{"normal"}, fmt.Sprintf("http://img.test/%d.png", id)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	list, err := c.LoadRange(context.Background(), domain.Region{Start: 1, End: 5, Name: "test"})
	if err != nil {
		t.Fatal(err)
	}

	if len(list) != 4 {
		t.Fatalf("got %d candidates; want 4", len(list))
	}
	wantIDs := []int{1, 2, 4, 5}
	for i, c := range list {
		if c.ID != wantIDs[i] {
			t.Fatalf("position %d: id = %d; want %d", i, c.ID, wantIDs[i])
		}
	}
}

func TestLoadRangeInvalid(t *testing.T) {
	c := NewClient("http://unused.test")
	if _, err := c.LoadRange(context.Background(), domain.Region{Start: 10, End: 5}); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestLoadRangeCaches(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var id int
		fmt.Sscanf(r.URL.Path, "/pokemon/%d", &id)
		json.NewEncoder(w).Encode(payloadFor(id, []string{"normal"}, fmt.Sprintf("http://img.test/%d.png", id)))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	region := domain.Region{Start: 1, End: 3, Name: "test"}

	if _, err := c.LoadRange(context.Background(), region); err != nil {
		t.Fatal(err)
	}
	first := hits.Load()
	if first != 3 {
		t.Fatalf("first load made %d requests; want 3", first)
	}

	if _, err := c.LoadRange(context.Background(), region); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != first {
		t.Fatalf("second load hit the network (%d requests total)", hits.Load())
	}
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payloadFor(1, []string{"normal"}, "http://img.test/1.png"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL)
	if _, err := c.LoadRange(ctx, domain.Region{Start: 1, End: 3, Name: "test"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
