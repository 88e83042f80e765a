package handlers

import (
	"errors"
	"net/http"

	"pkmn_guesser/internal/engine"
	"pkmn_guesser/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB        *pgxpool.Pool
	Sessions  *engine.Manager
	MatchRepo *repository.MatchRepository
}

func NewHandler(sessions *engine.Manager, db *pgxpool.Pool) *Handler {
	h := &Handler{
		DB:       db,
		Sessions: sessions,
	}
	if db != nil {
		h.MatchRepo = repository.NewMatchRepository(db)
	}
	return h
}

// getPlayerID извлекает player_id из контекста Gin
func getPlayerID(c interface{ Get(string) (any, bool) }) (string, bool) {
	val, ok := c.Get("player_id")
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// session resolves the caller's game session, replying 401 on a missing identity.
func (h *Handler) session(c *gin.Context) (*engine.Session, bool) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return h.Sessions.Session(playerID), true
}

// respondGameError maps engine errors onto HTTP statuses.
func respondGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, engine.ErrRoomFull):
		c.JSON(http.StatusConflict, gin.H{"error": "room is full"})
	case errors.Is(err, engine.ErrNoActiveRoom):
		// fatal for the current session, the client should rejoin via fragment
		c.JSON(http.StatusGone, gin.H{"error": "no active room"})
	case errors.Is(err, engine.ErrNotYourTurn):
		c.JSON(http.StatusConflict, gin.H{"error": "not your turn"})
	case errors.Is(err, engine.ErrAlreadyGuessed):
		c.JSON(http.StatusConflict, gin.H{"error": "already guessed this turn"})
	case errors.Is(err, engine.ErrPendingInteraction):
		c.JSON(http.StatusConflict, gin.H{"error": "question already pending"})
	case errors.Is(err, engine.ErrNoPendingQuestion):
		c.JSON(http.StatusConflict, gin.H{"error": "no question to answer"})
	case errors.Is(err, engine.ErrWrongMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "operation not valid in this mode"})
	case errors.Is(err, engine.ErrNotPlaying):
		c.JSON(http.StatusConflict, gin.H{"error": "game is not in progress"})
	case errors.Is(err, engine.ErrBoardNotLoaded):
		c.JSON(http.StatusConflict, gin.H{"error": "board not loaded"})
	case errors.Is(err, engine.ErrTooManyFilters):
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many filters selected"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
