package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func initTestJWT(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()
}

func TestGenerateAndParse(t *testing.T) {
	initTestJWT(t)

	id := NewAnonymousID()
	token, err := GenerateJWT(id)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ParseJWT(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != id {
		t.Fatalf("parsed id = %q; want %q", got, id)
	}
}

func TestParseGarbage(t *testing.T) {
	initTestJWT(t)
	if _, err := ParseJWT("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestParseWrongSecret(t *testing.T) {
	initTestJWT(t)

	claims := jwt.MapClaims{
		"player_id": "someone",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseJWT(signed); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestParseExpired(t *testing.T) {
	initTestJWT(t)

	claims := jwt.MapClaims{
		"player_id": "someone",
		"exp":       time.Now().Add(-time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseJWT(signed); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestParseMissingPlayerID(t *testing.T) {
	initTestJWT(t)

	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ParseJWT(signed); err == nil {
		t.Fatal("expected error for token without player_id")
	}
}

func TestAnonymousIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewAnonymousID()
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
