package repository

import (
	"context"
	"encoding/json"
	"time"

	"pkmn_guesser/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, m *domain.MatchRecord) error {
	detailsJSON, err := json.Marshal(m.Details)
	if err != nil {
		return err
	}

	var id int64
	var createdAt time.Time
	err = r.db.QueryRow(ctx,
		`INSERT INTO matches (player_id, opponent_id, room_code, result, region, details)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, created_at`,
		m.PlayerID,
		m.OpponentID,
		m.RoomCode,
		m.Result,
		m.Region,
		detailsJSON,
	).Scan(&id, &createdAt)
	if err != nil {
		return err
	}

	m.ID = id
	m.CreatedAt = createdAt
	return nil
}

func (r *MatchRepository) GetByPlayer(ctx context.Context, playerID string) ([]*domain.MatchRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, player_id, opponent_id, room_code, result, region, details, created_at
         FROM matches
         WHERE player_id = $1
         ORDER BY created_at DESC
         LIMIT 100`,
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.MatchRecord
	for rows.Next() {
		var (
			m            domain.MatchRecord
			detailsBytes []byte
		)
		if err := rows.Scan(&m.ID, &m.PlayerID, &m.OpponentID, &m.RoomCode, &m.Result, &m.Region, &detailsBytes, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailsBytes) > 0 {
			_ = json.Unmarshal(detailsBytes, &m.Details)
		}
		res = append(res, &m)
	}

	return res, rows.Err()
}
