package domain

import "time"

// MatchResult - исход матча для одного игрока
type MatchResult string

const (
	MatchResultWin  MatchResult = "win"
	MatchResultLose MatchResult = "lose"
)

// MatchRecord - запись истории завершённого онлайн-матча
type MatchRecord struct {
	ID         int64                  `db:"id" json:"id"`
	PlayerID   string                 `db:"player_id" json:"player_id"`
	OpponentID string                 `db:"opponent_id" json:"opponent_id"`
	RoomCode   string                 `db:"room_code" json:"room_code"`
	Result     MatchResult            `db:"result" json:"result"`
	Region     string                 `db:"region" json:"region"`
	Details    map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}
