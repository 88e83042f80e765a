package domain

import (
	"testing"
	"time"
)

func TestNewRoomDocument(t *testing.T) {
	now := time.Now()
	doc := NewRoomDocument("host-1", now)

	if doc.Status != StatusWaitingForGuest {
		t.Fatalf("status = %s", doc.Status)
	}
	if doc.HostID != "host-1" || doc.Player1.ID != "host-1" {
		t.Fatal("host identity not recorded in both places")
	}
	if doc.Turn != "host-1" {
		t.Fatalf("turn = %s; want host", doc.Turn)
	}
	if doc.Player1.Eliminated == nil || doc.Player2.Eliminated == nil {
		t.Fatal("elimination sets must be empty, not absent")
	}
	if doc.LastActivity != now.UnixMilli() {
		t.Fatalf("lastActivity = %d", doc.LastActivity)
	}
}

func TestSlotAndOpponent(t *testing.T) {
	doc := NewRoomDocument("a", time.Now())
	doc.Player2.ID = "b"

	if doc.Slot("a") != &doc.Player1 {
		t.Fatal("slot a")
	}
	if doc.Slot("b") != &doc.Player2 {
		t.Fatal("slot b")
	}
	if doc.Slot("c") != nil {
		t.Fatal("unknown id should have no slot")
	}
	if doc.Opponent("a") != &doc.Player2 || doc.Opponent("b") != &doc.Player1 {
		t.Fatal("opponent lookup")
	}
}

// A waiting room has an empty player2 id; an empty string must never resolve
// to the vacant slot.
func TestSlotEmptyID(t *testing.T) {
	doc := NewRoomDocument("a", time.Now())
	if doc.Slot("") != nil {
		t.Fatal("empty id resolved to a slot")
	}
}

func TestNextTurn(t *testing.T) {
	doc := NewRoomDocument("a", time.Now())
	doc.Player2.ID = "b"

	if doc.NextTurn() != "b" {
		t.Fatalf("next = %s; want b", doc.NextTurn())
	}
	doc.Turn = "b"
	if doc.NextTurn() != "a" {
		t.Fatalf("next = %s; want a", doc.NextTurn())
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	doc := NewRoomDocument("a", now)

	if doc.Expired(now, time.Hour) {
		t.Fatal("fresh room expired")
	}
	if !doc.Expired(now.Add(61*time.Minute), time.Hour) {
		t.Fatal("stale room not expired")
	}
	if doc.Expired(now.Add(59*time.Minute), time.Hour) {
		t.Fatal("room expired before timeout")
	}
}

func TestHasEliminated(t *testing.T) {
	slot := PlayerSlot{Eliminated: []int{1, 4, 7}}
	if !slot.HasEliminated(4) {
		t.Fatal("4 should be eliminated")
	}
	if slot.HasEliminated(2) {
		t.Fatal("2 should not be eliminated")
	}
}

func TestRegionCacheKey(t *testing.T) {
	r := Region{Start: 1, End: 151, Name: "kanto"}
	if r.CacheKey() != "1-151" {
		t.Fatalf("cache key = %s", r.CacheKey())
	}
}

func TestCandidateHasType(t *testing.T) {
	c := Candidate{ID: 6, Types: []string{"fire", "flying"}}
	if !c.HasType("flying") {
		t.Fatal("flying")
	}
	if c.HasType("water") {
		t.Fatal("water")
	}
}
