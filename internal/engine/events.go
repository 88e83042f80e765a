package engine

import "pkmn_guesser/internal/domain"

// EventType names the notifications the presentation layer reacts to.
type EventType string

const (
	// client-facing push events
	EventPhase    EventType = "phase"
	EventBoard    EventType = "board"
	EventQuestion EventType = "question"
	EventWinner   EventType = "winner"
)

// Event is one push notification to the UI. Fields are populated per type:
// phase events carry Phase, question events carry Criteria/IsType, winner
// events carry Won and the opponent's revealed secret.
type Event struct {
	Type     EventType         `json:"type"`
	Phase    Phase             `json:"phase,omitempty"`
	Criteria []string          `json:"criteria,omitempty"`
	IsType   bool              `json:"is_type,omitempty"`
	Won      *bool             `json:"won,omitempty"`
	Revealed *domain.Candidate `json:"revealed,omitempty"`
}
