package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pkmn_guesser/internal/service"

	"github.com/gin-gonic/gin"
)

func TestJWTMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	service.InitJWT()

	r := gin.New()
	r.GET("/test", JWT(), func(c *gin.Context) {
		id, _ := c.Get("player_id")
		c.JSON(200, gin.H{"player_id": id})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	// no header
	res, err := http.Get(srv.URL + "/test")
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 401 {
		t.Fatalf("no token: expected 401 got %d", res.StatusCode)
	}

	// bad token
	req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 401 {
		t.Fatalf("bad token: expected 401 got %d", res.StatusCode)
	}

	// valid token
	token, err := service.GenerateJWT("player-abc")
	if err != nil {
		t.Fatal(err)
	}
	req, _ = http.NewRequest("GET", srv.URL+"/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("valid token: expected 200 got %d", res.StatusCode)
	}
}

func TestSimpleRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/test", SimpleRateLimit(2, time.Minute), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < 2; i++ {
		res, err := http.Get(srv.URL + "/test")
		if err != nil {
			t.Fatal(err)
		}
		if res.StatusCode != 200 {
			t.Fatalf("request %d: expected 200 got %d", i+1, res.StatusCode)
		}
	}

	res, err := http.Get(srv.URL + "/test")
	if err != nil {
		t.Fatal(err)
	}
	if res.StatusCode != 429 {
		t.Fatalf("expected 429 got %d", res.StatusCode)
	}
}
