package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Smoke test for a running server: two anonymous players create and join a
// room over the HTTP API, both ws event streams connect, and the host sends
// a question the guest answers. Requires APP_PORT (default 8080) and a
// catalog reachable from the server.
type player struct {
	name  string
	base  string
	token string
	conn  *websocket.Conn
}

func (p *player) post(path string, body any) map[string]any {
	var buf bytes.Buffer
	if body == nil {
		body = map[string]any{}
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		log.Fatalf("%s encode %s: %v", p.name, path, err)
	}

	req, err := http.NewRequest(http.MethodPost, p.base+path, &buf)
	if err != nil {
		log.Fatalf("%s request %s: %v", p.name, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s POST %s: %v", p.name, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("%s decode %s: %v", p.name, path, err)
	}
	if resp.StatusCode >= 400 {
		log.Fatalf("%s POST %s: status %d: %v", p.name, path, resp.StatusCode, out)
	}
	return out
}

func (p *player) connect(port string) {
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, p.token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("%s dial: %v", p.name, err)
	}
	p.conn = conn
}

// waitEvent drains the stream until an event of the wanted type shows up.
func (p *player) waitEvent(want string, timeout time.Duration) map[string]any {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			continue
		}
		var obj map[string]any
		if json.Unmarshal(msg, &obj) != nil {
			continue
		}
		if t, ok := obj["type"].(string); ok && t == want {
			return obj
		}
	}
	log.Fatalf("%s: no %q event within %s", p.name, want, timeout)
	return nil
}

// waitPhase polls /game/state until the session reaches the given phase.
func (p *player) waitPhase(want string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodGet, p.base+"/game/state", nil)
		req.Header.Set("Authorization", "Bearer "+p.token)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			var st map[string]any
			_ = json.NewDecoder(resp.Body).Decode(&st)
			resp.Body.Close()
			if phase, _ := st["phase"].(string); phase == want {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	log.Fatalf("%s: phase %q not reached within %s", p.name, want, timeout)
}

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://127.0.0.1:%s/api/v1", port)

	host := &player{name: "host", base: base}
	guest := &player{name: "guest", base: base}

	for _, p := range []*player{host, guest} {
		resp := p.post("/auth", nil)
		p.token, _ = resp["token"].(string)
		if p.token == "" {
			log.Fatalf("%s: no token in auth response", p.name)
		}
		p.connect(port)
		defer p.conn.Close()
		p.waitEvent("ready", 2*time.Second)
	}

	host.post("/game/mode", map[string]any{"mode": "online"})
	room := host.post("/game/room", nil)
	code, _ := room["code"].(string)
	log.Printf("room created: %s", code)

	guest.post("/game/mode", map[string]any{"mode": "online"})
	guest.post("/game/room/join", map[string]any{"code": code})

	host.post("/game/room/region", map[string]any{"start": 1, "end": 9, "name": "smoke"})
	host.waitPhase("selecting_pokemon", 30*time.Second)
	guest.waitPhase("selecting_pokemon", 30*time.Second)
	host.post("/game/secret", map[string]any{"candidate_id": 1})
	guest.post("/game/secret", map[string]any{"candidate_id": 9})

	host.waitPhase("playing", 15*time.Second)
	log.Println("match started")

	host.post("/game/question", map[string]any{"criteria": []string{"grass"}, "is_type": true})
	guest.waitEvent("question", 5*time.Second)
	guest.post("/game/answer", map[string]any{"response": true})
	host.waitEvent("board", 5*time.Second)

	log.Println("smoke test finished")
}
