package domain

import (
	"strconv"
	"time"
)

// RoomStatus - фаза комнаты
type RoomStatus string

const (
	StatusWaitingForGuest  RoomStatus = "waiting_for_guest"
	StatusSelectingRegion  RoomStatus = "selecting_region"
	StatusSelectingPokemon RoomStatus = "selecting_pokemon"
	StatusPlaying          RoomStatus = "playing"
)

// Interaction statuses
const (
	InteractionWaiting  = "waiting_response"
	InteractionAnswered = "answered"
)

// Structural criteria tags for non-type questions.
const (
	CriteriaSingle = "single"
	CriteriaDual   = "dual"
)

// Region is the numeric id range both players load their boards from.
type Region struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Name  string `json:"name"`
}

// CacheKey identifies the candidate list loaded for this region.
func (r Region) CacheKey() string {
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// Interaction is the transient record of one in-flight question/answer
// exchange. It exists only between a question being sent and the asker
// applying the resulting eliminations.
type Interaction struct {
	Type     string   `json:"type"` // always "question"; kept for wire compatibility
	Criteria []string `json:"criteria"`
	IsType   bool     `json:"isType"`
	Status   string   `json:"status"`
	Asker    string   `json:"asker"`
	Response *bool    `json:"response,omitempty"`
}

// PlayerSlot is one side of the shared room document.
type PlayerSlot struct {
	ID         string     `json:"id"`
	Secret     *Candidate `json:"secret"`
	Eliminated []int      `json:"eliminated"`
}

// HasEliminated reports whether id is already in the slot's elimination set.
func (p PlayerSlot) HasEliminated(id int) bool {
	for _, e := range p.Eliminated {
		if e == id {
			return true
		}
	}
	return false
}

// RoomDocument is the single shared mutable record for one online match,
// keyed by a 6-digit numeric code. Both players write it concurrently;
// the protocol keeps consequential fields single-writer per exchange.
type RoomDocument struct {
	CreatedAt    time.Time    `json:"createdAt"`
	LastActivity int64        `json:"lastActivity"` // epoch millis, non-decreasing
	HostID       string       `json:"hostId"`
	Status       RoomStatus   `json:"status"`
	Region       *Region      `json:"region"`
	Turn         string       `json:"turn"`
	Winner       string       `json:"winner"`
	Interaction  *Interaction `json:"interaction"`
	Player1      PlayerSlot   `json:"player1"`
	Player2      PlayerSlot   `json:"player2"`
}

// NewRoomDocument builds a fresh waiting_for_guest document with the given
// identity as host. Used both for room creation and for recycling an
// abandoned room.
func NewRoomDocument(hostID string, now time.Time) RoomDocument {
	return RoomDocument{
		CreatedAt:    now,
		LastActivity: now.UnixMilli(),
		HostID:       hostID,
		Status:       StatusWaitingForGuest,
		Region:       nil,
		Turn:         hostID,
		Winner:       "",
		Interaction:  nil,
		Player1:      PlayerSlot{ID: hostID, Eliminated: []int{}},
		Player2:      PlayerSlot{Eliminated: []int{}},
	}
}

// Slot returns the player slot owned by id, or nil if id is neither player.
func (d *RoomDocument) Slot(id string) *PlayerSlot {
	switch id {
	case d.Player1.ID:
		return &d.Player1
	case d.Player2.ID:
		if id != "" {
			return &d.Player2
		}
	}
	return nil
}

// Opponent returns the slot of the other player.
func (d *RoomDocument) Opponent(id string) *PlayerSlot {
	if d.Player1.ID == id {
		return &d.Player2
	}
	return &d.Player1
}

// NextTurn returns the id of whichever player does not currently own the turn.
func (d *RoomDocument) NextTurn() string {
	if d.Turn == d.Player1.ID {
		return d.Player2.ID
	}
	return d.Player1.ID
}

// Expired reports whether the room's last activity is older than timeout.
func (d *RoomDocument) Expired(now time.Time, timeout time.Duration) bool {
	return now.UnixMilli()-d.LastActivity > timeout.Milliseconds()
}
