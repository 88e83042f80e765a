package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MyMatches lists the caller's finished games, newest first.
// Requires the match history database; without one the feature is off.
func (h *Handler) MyMatches(c *gin.Context) {
	playerID, ok := getPlayerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.MatchRepo == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match history disabled"})
		return
	}

	matches, err := h.MatchRepo.GetByPlayer(c.Request.Context(), playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
