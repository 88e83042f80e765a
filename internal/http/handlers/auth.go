package handlers

import (
	"net/http"

	"pkmn_guesser/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	Token string `json:"token"`
}

// Auth issues an anonymous player identity. If the client already holds a
// valid token it gets the same identity back, so reloads keep the session.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	playerID := ""
	if req.Token != "" {
		if id, err := service.ParseJWT(req.Token); err == nil {
			playerID = id
		}
		// стейл или битый токен — просто выдаём новую личность
	}
	if playerID == "" {
		playerID = service.NewAnonymousID()
	}

	token, err := service.GenerateJWT(playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"player_id": playerID,
	})
}
