package handlers

import (
	"net/http"

	"pkmn_guesser/internal/engine"

	"github.com/gin-gonic/gin"
)

type ModeRequest struct {
	Mode string `json:"mode" binding:"required,oneof=local online"`
}

// SelectMode chooses local or online play for the caller's session.
func (h *Handler) SelectMode(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.SelectMode(engine.Mode(req.Mode)); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": req.Mode})
}

type RegionRequest struct {
	Start int    `json:"start" binding:"required,min=1"`
	End   int    `json:"end" binding:"required,min=1"`
	Name  string `json:"name"`
}

// StartLocal begins a pass-and-play game on one device.
func (h *Handler) StartLocal(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.End < req.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not precede start"})
		return
	}

	if err := s.StartLocalGame(c.Request.Context(), req.Start, req.End); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// CreateRoom creates an online room and joins the caller as host.
func (h *Handler) CreateRoom(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	code, err := s.CreateOnlineRoom(c.Request.Context())
	if err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":     code,
		"fragment": engine.FragmentFor(code),
	})
}

type JoinRequest struct {
	Code     string `json:"code"`
	Fragment string `json:"fragment"`
}

// JoinRoom joins a room by code, or by a shared link fragment when the code
// is not given. Reconnecting to one's own room is a plain rejoin.
func (h *Handler) JoinRoom(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	code := req.Code
	if code == "" {
		parsed, ok := engine.ParseGameFragment(req.Fragment)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code or fragment required"})
			return
		}
		code = parsed
	}

	if err := s.JoinGame(c.Request.Context(), code); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// SetRegion picks the candidate pool for an online room. Host only by
// convention; the engine enforces the room state transitions.
func (h *Handler) SetRegion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.End < req.Start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not precede start"})
		return
	}

	if err := s.SetOnlineRegion(c.Request.Context(), req.Start, req.End, req.Name); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

type CandidateRequest struct {
	CandidateID int `json:"candidate_id" binding:"required,min=1"`
}

// SelectSecret commits the caller's hidden pick.
func (h *Handler) SelectSecret(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.SelectSecret(c.Request.Context(), req.CandidateID); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

type QuestionRequest struct {
	Criteria []string `json:"criteria" binding:"required,min=1"`
	IsType   bool     `json:"is_type"`
}

// SendQuestion posts a question to the opponent.
func (h *Handler) SendQuestion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.SendQuestion(c.Request.Context(), req.Criteria, req.IsType); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

type AnswerRequest struct {
	Response *bool `json:"response" binding:"required"`
}

// AnswerQuestion answers the pending question with yes or no.
func (h *Handler) AnswerQuestion(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.AnswerQuestion(c.Request.Context(), *req.Response); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

type FilterRequest struct {
	Criteria []string `json:"criteria" binding:"required,min=1"`
	IsType   bool     `json:"is_type"`
	Response bool     `json:"response"`
}

// ApplyFilter eliminates candidates for an answered question and hands the
// turn over. In local mode the players drive this directly.
func (h *Handler) ApplyFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.ApplyFilter(c.Request.Context(), req.Criteria, req.IsType, req.Response); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// MakeGuess names the opponent's secret. A wrong guess ends the turn.
func (h *Handler) MakeGuess(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	result, err := s.MakeGuess(c.Request.Context(), req.CandidateID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ToggleCandidate flips a single board cell in and out of the eliminated set.
func (h *Handler) ToggleCandidate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req CandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.ToggleCandidate(c.Request.Context(), req.CandidateID); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// ToggleVisibility hides or shows eliminated cells. Display-only.
func (h *Handler) ToggleVisibility(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"hide_eliminated": s.ToggleVisibility()})
}

type FilterSelectRequest struct {
	Type string `json:"type" binding:"required"`
}

// SelectFilter stages a type tag for the next question (two at most).
func (h *Handler) SelectFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req FilterSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := s.SelectFilter(req.Type); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": s.SelectedFilters()})
}

// EndTurn passes the turn without eliminating anything.
func (h *Handler) EndTurn(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.HandleEndTurn(c.Request.Context()); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// Rematch restarts a finished game with the same opponent.
func (h *Handler) Rematch(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	if err := s.TriggerRematch(c.Request.Context()); err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.State())
}

// Reset tears the session down to the mode selection screen.
func (h *Handler) Reset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.ResetGame()
	c.JSON(http.StatusOK, s.State())
}

type RecoverRequest struct {
	Fragment string `json:"fragment" binding:"required"`
}

// Recover re-derives the active room from a shared link fragment after the
// client lost its local state.
func (h *Handler) Recover(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	code, err := s.RecoverRoomCode(c.Request.Context(), req.Fragment)
	if err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "state": s.State()})
}

// State returns the caller's current view of the game.
func (h *Handler) State(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.State())
}
