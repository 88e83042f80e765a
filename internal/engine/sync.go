package engine

import (
	"context"
	"encoding/json"
	"time"

	"pkmn_guesser/internal/domain"
	"pkmn_guesser/internal/rules"
)

// writeTimeout bounds the reciprocal writes the handler issues itself (the
// asker's apply-and-advance, the host's flip to playing).
const writeTimeout = 10 * time.Second

// handleSnapshot runs on every room-document notification. Per notification
// it re-derives, in order: role (once, with a single recovery path), whether
// a question must be surfaced, whether an own question was just answered
// (apply-and-advance, then stop), and otherwise the phase handler for the
// document's status. Every branch is idempotent; the store may redeliver
// the same document content.
func (s *Session) handleSnapshot(raw json.RawMessage) {
	var doc domain.RoomDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Errorw("bad room snapshot", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.roomCode == "" {
		// reset raced with an in-flight notification; the room was abandoned
		return
	}
	s.doc = &doc

	if s.role == RoleUnknown {
		switch s.id {
		case doc.HostID:
			s.role = RoleHost
		case doc.Player2.ID:
			s.role = RoleGuest
		}
	}

	if inter := doc.Interaction; inter != nil {
		if inter.Status == domain.InteractionWaiting && inter.Asker != s.id {
			s.emit(Event{Type: EventQuestion, Criteria: inter.Criteria, IsType: inter.IsType})
			return
		}
		if inter.Status == domain.InteractionAnswered && inter.Asker == s.id {
			s.applyAndAdvanceLocked(&doc)
			return
		}
	}

	switch doc.Status {
	case domain.StatusWaitingForGuest:
		s.setPhaseLocked(PhaseWaitingForGuest)
	case domain.StatusSelectingRegion:
		// also the rematch re-entry point
		s.winnerShown = false
		s.recorded = false
		s.hasGuessed = false
		s.setPhaseLocked(PhaseSelectingRegion)
	case domain.StatusSelectingPokemon:
		s.handleSelectingLocked(&doc)
	case domain.StatusPlaying:
		s.handlePlayingLocked(&doc)
	}

	if doc.Winner != "" {
		s.handleWinnerLocked(&doc)
	}
}

// applyAndAdvanceLocked is the asker's authoritative close of a question:
// compute the elimination delta from the locally cached list, union it into
// the asker's own set, hand over the turn and clear the interaction in one
// atomic partial update, so "filter applied" and "turn advanced" can never
// disagree.
func (s *Session) applyAndAdvanceLocked(doc *domain.RoomDocument) {
	inter := doc.Interaction
	if inter == nil || inter.Response == nil {
		return
	}

	ids := rules.ComputeEliminations(s.candidates, inter.Criteria, inter.IsType, *inter.Response)

	slot := doc.Slot(s.id)
	if slot == nil {
		s.log.Errorw("answered interaction but no own slot", "code", s.roomCode)
		return
	}
	newElim := rules.Union(slot.Eliminated, ids)

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err := s.deps.Store.Update(ctx, s.roomCode, map[string]any{
		s.slotFieldLocked() + ".eliminated": newElim,
		"turn":                              doc.NextTurn(),
		"interaction":                       nil,
		"lastActivity":                      nowMillis(),
	})
	if err != nil {
		s.log.Errorw("apply-and-advance failed", "code", s.roomCode, "error", err)
		return
	}
	s.log.Debugw("applied answer", "eliminated", len(ids), "yes", *inter.Response)
}

// handleSelectingLocked drives the secret-selection phase: make sure the
// board for the chosen region is loaded, then (host only) flip the room to
// playing once both secrets are in. The flip re-checks status so repeated
// notifications never write twice.
func (s *Session) handleSelectingLocked(doc *domain.RoomDocument) {
	if doc.Region == nil {
		return
	}

	key := doc.Region.CacheKey()
	if len(s.candidates) == 0 || s.loadedRegion != key {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		list, err := s.deps.Catalog.LoadRange(ctx, *doc.Region)
		if err != nil {
			s.log.Errorw("board load failed", "region", doc.Region.Name, "error", err)
			return
		}
		s.candidates = list
		s.loadedRegion = key
	}

	s.hasGuessed = false
	s.setPhaseLocked(PhaseSelectingPokemon)

	if doc.Player1.Secret != nil && doc.Player2.Secret != nil &&
		doc.Status != domain.StatusPlaying && s.role == RoleHost {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err := s.deps.Store.Update(ctx, s.roomCode, map[string]any{
			"status":       domain.StatusPlaying,
			"lastActivity": nowMillis(),
		})
		if err != nil {
			s.log.Errorw("flip to playing failed", "code", s.roomCode, "error", err)
		}
	}
}

func (s *Session) handlePlayingLocked(doc *domain.RoomDocument) {
	s.setPhaseLocked(PhasePlaying)

	if s.lastTurnOwner != doc.Turn {
		s.lastTurnOwner = doc.Turn
		if doc.Turn == s.id {
			s.hasGuessed = false
		}
	}
	s.emit(Event{Type: EventBoard})
}

// handleWinnerLocked surfaces the outcome once per match lifetime and, when
// a history repository is wired, records this player's row.
func (s *Session) handleWinnerLocked(doc *domain.RoomDocument) {
	if s.winnerShown {
		return
	}
	s.winnerShown = true
	s.setPhaseLocked(PhaseFinished)

	won := doc.Winner == s.id
	opp := doc.Opponent(s.id)
	s.emit(Event{Type: EventWinner, Won: &won, Revealed: opp.Secret})

	if s.deps.History == nil || s.recorded {
		return
	}
	s.recorded = true

	rec := &domain.MatchRecord{
		PlayerID:   s.id,
		OpponentID: opp.ID,
		RoomCode:   s.roomCode,
		Result:     domain.MatchResultLose,
	}
	if won {
		rec.Result = domain.MatchResultWin
	}
	if doc.Region != nil {
		rec.Region = doc.Region.Name
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.History.Create(ctx, rec); err != nil {
			s.log.Errorw("match history store failed", "error", err)
		}
	}()
}
