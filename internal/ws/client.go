package ws

import (
	"encoding/json"
	"log"
	"time"

	"pkmn_guesser/internal/engine"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Client pushes game events for one player's session down a websocket.
// The socket is write-mostly: inbound frames only keep the connection alive,
// all game actions go through the HTTP API.
type Client struct {
	PlayerID string
	Conn     *websocket.Conn
	Send     chan []byte
	Done     chan struct{}

	session *engine.Session
}

func NewClient(playerID string, conn *websocket.Conn, session *engine.Session) *Client {
	return &Client{
		PlayerID: playerID,
		Conn:     conn,
		Send:     make(chan []byte, 64),
		Done:     make(chan struct{}),
		session:  session,
	}
}

func (c *Client) Run() {
	go c.writePump()
	go c.forwardEvents()

	// send explicit ready handshake so clients can wait for it
	readyMsg := []byte(`{"type":"ready"}`)
	select {
	case c.Send <- readyMsg:
	case <-time.After(500 * time.Millisecond):
		log.Printf("Client.Run: timeout queuing ready for player=%s", c.PlayerID)
	}

	c.readPump()
}

// forwardEvents drains the session's event stream into the socket. The stream
// stays open for the session's whole life, so this goroutine exits on Done.
func (c *Client) forwardEvents() {
	events := c.session.Events()
	for {
		select {
		case ev := <-events:
			msg, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			select {
			case c.Send <- msg:
			default:
				// slow consumer, drop; the UI resyncs from /state
			}
		case <-c.Done:
			return
		}
	}
}

//read
func (c *Client) readPump() {
	defer func() {
		close(c.Done)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
		// inbound frames are ignored, actions arrive over HTTP
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.Done:
			return
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
