package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"pkmn_guesser/internal/domain"
	"pkmn_guesser/internal/game"
	"pkmn_guesser/internal/rules"
	"pkmn_guesser/internal/store"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// newRoomCode generates the 6-digit code a room document is keyed by.
func newRoomCode() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// CreateOnlineRoom writes a fresh waiting_for_guest document under a random
// code and joins it as host. Returns the code for sharing.
func (s *Session) CreateOnlineRoom(ctx context.Context) (string, error) {
	code := newRoomCode()
	doc := domain.NewRoomDocument(s.id, time.Now())

	if err := s.deps.Store.Set(ctx, code, doc); err != nil {
		return "", fmt.Errorf("creating room: %w", err)
	}
	RoomsCreated.Inc()
	s.log.Infow("room created", "code", code)

	// role assignment and subscription go through the same path as a guest's
	// join, so reconnects and creates behave identically
	if err := s.JoinGame(ctx, code); err != nil {
		return "", err
	}
	return code, nil
}

// JoinGame attaches this session to the room behind code: reconnect when the
// identity already owns a slot, claim the guest slot when free, recycle the
// room when abandoned, reject when full.
func (s *Session) JoinGame(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.deps.Store.Get(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up room: %w", err)
	}

	var doc domain.RoomDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding room document: %w", err)
	}

	now := time.Now()
	switch {
	case doc.Expired(now, s.deps.SessionTimeout):
		// abandoned: overwrite wholesale, joining identity becomes host
		fresh := domain.NewRoomDocument(s.id, now)
		if err := s.deps.Store.Set(ctx, code, fresh); err != nil {
			return fmt.Errorf("recycling room: %w", err)
		}
		doc = fresh
		s.role = RoleHost
		RoomsRecycled.Inc()
		s.log.Infow("room recycled", "code", code)

	case doc.HostID == s.id:
		s.role = RoleHost // reconnect, no slot mutation

	case doc.Player2.ID == s.id:
		s.role = RoleGuest // reconnect, no slot mutation

	case doc.Player2.ID == "":
		s.role = RoleGuest
		err := s.deps.Store.Update(ctx, code, map[string]any{
			"player2.id":   s.id,
			"status":       domain.StatusSelectingRegion,
			"lastActivity": now.UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("claiming guest slot: %w", err)
		}

	default:
		return ErrRoomFull
	}

	// release any previous subscription before attaching to this room
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}

	s.mode = ModeOnline
	s.roomCode = code
	s.doc = &doc
	s.winnerShown = false
	s.recorded = false

	// reconnecting into a match already past region selection: load the
	// board before the first notification needs it
	if doc.Region != nil {
		list, err := s.deps.Catalog.LoadRange(ctx, *doc.Region)
		if err != nil {
			return fmt.Errorf("loading candidate data: %w", err)
		}
		s.candidates = list
		s.loadedRegion = doc.Region.CacheKey()
	}

	// the subscription must outlive the join request
	unsub, err := s.deps.Store.Subscribe(context.Background(), code, s.handleSnapshot)
	if err != nil {
		return fmt.Errorf("subscribing to room: %w", err)
	}
	s.unsub = unsub
	s.log.Infow("joined room", "code", code, "role", s.role)
	return nil
}

// RecoverRoomCode re-derives the room from the page's link fragment after
// client state was lost. Fails with ErrNoActiveRoom when the fragment does
// not carry a code either; the UI treats that as fatal and reloads.
func (s *Session) RecoverRoomCode(ctx context.Context, fragment string) (string, error) {
	s.mu.Lock()
	if s.roomCode != "" {
		code := s.roomCode
		s.mu.Unlock()
		return code, nil
	}
	s.mu.Unlock()

	code, ok := ParseGameFragment(fragment)
	if !ok {
		return "", ErrNoActiveRoom
	}
	if err := s.JoinGame(ctx, code); err != nil {
		return "", err
	}
	return code, nil
}

// roomLocked guards every mutating online action.
func (s *Session) roomLocked() (string, *domain.RoomDocument, error) {
	if s.mode != ModeOnline {
		return "", nil, ErrWrongMode
	}
	if s.roomCode == "" || s.doc == nil {
		return "", nil, ErrNoActiveRoom
	}
	return s.roomCode, s.doc, nil
}

func (s *Session) slotFieldLocked() string {
	if s.role == RoleGuest {
		return "player2"
	}
	return "player1"
}

// SetOnlineRegion picks the candidate range for the match and moves the room
// to secret selection.
func (s *Session) SetOnlineRegion(ctx context.Context, start, end int, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, _, err := s.roomLocked()
	if err != nil {
		return err
	}

	return s.deps.Store.Update(ctx, code, map[string]any{
		"region":       domain.Region{Start: start, End: end, Name: name},
		"status":       domain.StatusSelectingPokemon,
		"lastActivity": nowMillis(),
	})
}

// SelectSecret records this player's hidden pick.
func (s *Session) SelectSecret(ctx context.Context, candidateID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeLocal {
		return s.selectLocalSecretLocked(candidateID)
	}

	code, _, err := s.roomLocked()
	if err != nil {
		return err
	}
	cand, ok := s.candidateLocked(candidateID)
	if !ok {
		return ErrBoardNotLoaded
	}

	return s.deps.Store.Update(ctx, code, map[string]any{
		s.slotFieldLocked() + ".secret": cand,
		"lastActivity":                  nowMillis(),
	})
}

func (s *Session) selectLocalSecretLocked(candidateID int) error {
	if s.local == nil {
		return ErrWrongMode
	}
	cand, ok := s.candidateLocked(candidateID)
	if !ok {
		return ErrBoardNotLoaded
	}

	player := 1
	if s.local.Secret(1) != nil {
		player = 2
	}
	if err := s.local.SetSecret(player, cand); err != nil {
		return err
	}
	if s.local.Ready() {
		s.setPhaseLocked(PhasePlaying)
	}
	return nil
}

func (s *Session) candidateLocked(id int) (domain.Candidate, bool) {
	for _, c := range s.candidates {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Candidate{}, false
}

// SendQuestion publishes a question for the opponent to answer. Only the
// turn owner may ask, and only one interaction exists at a time.
func (s *Session) SendQuestion(ctx context.Context, criteria []string, isType bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, doc, err := s.roomLocked()
	if err != nil {
		return err
	}
	if doc.Status != domain.StatusPlaying {
		return ErrNotPlaying
	}
	if doc.Turn != s.id {
		return ErrNotYourTurn
	}
	if doc.Interaction != nil {
		return ErrPendingInteraction
	}

	s.filters = make(map[string]struct{})
	err = s.deps.Store.Update(ctx, code, map[string]any{
		"interaction": domain.Interaction{
			Type:     "question",
			Criteria: criteria,
			IsType:   isType,
			Status:   domain.InteractionWaiting,
			Asker:    s.id,
		},
		"lastActivity": nowMillis(),
	})
	if err == nil {
		QuestionsAsked.Inc()
	}
	return err
}

// AnswerQuestion supplies the boolean for the opponent's pending question.
// The answerer never touches eliminations or the turn; the asker applies
// those once it sees the answered interaction.
func (s *Session) AnswerQuestion(ctx context.Context, response bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, doc, err := s.roomLocked()
	if err != nil {
		return err
	}
	inter := doc.Interaction
	if inter == nil || inter.Status != domain.InteractionWaiting || inter.Asker == s.id {
		return ErrNoPendingQuestion
	}

	return s.deps.Store.Update(ctx, code, map[string]any{
		"interaction.status":   domain.InteractionAnswered,
		"interaction.response": response,
		"lastActivity":         nowMillis(),
	})
}

// ApplyFilter eliminates candidates from this player's own board given a
// criteria/answer pair, then ends the turn. It backs both the local-mode
// question flow and the manual online filter shortcut; the online write is
// suppressed while an interaction is pending, because the asker-applies
// path in the snapshot handler owns that write.
func (s *Session) ApplyFilter(ctx context.Context, criteria []string, isType, responseYes bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := rules.ComputeEliminations(s.candidates, criteria, isType, responseYes)
	s.filters = make(map[string]struct{})

	if s.mode == ModeLocal {
		if s.local == nil {
			return ErrWrongMode
		}
		s.local.Eliminate(ids)
		s.local.EndTurn()
		s.hasGuessed = false
		s.emit(Event{Type: EventBoard})
		return nil
	}

	code, doc, err := s.roomLocked()
	if err != nil {
		return err
	}

	fields := map[string]any{
		"turn":         doc.NextTurn(),
		"lastActivity": nowMillis(),
	}
	if doc.Interaction == nil {
		slot := doc.Slot(s.id)
		if slot == nil {
			return ErrNoActiveRoom
		}
		fields[s.slotFieldLocked()+".eliminated"] = rules.Union(slot.Eliminated, ids)
	}
	return s.deps.Store.Update(ctx, code, fields)
}

// GuessResult tells the caller how a direct guess resolved.
type GuessResult struct {
	Correct  bool              `json:"correct"`
	Revealed *domain.Candidate `json:"revealed,omitempty"`
}

// MakeGuess asserts that candidateID is the opponent's secret. Allowed at
// most once per own turn. A correct guess ends the match; a wrong one
// eliminates the candidate on the guesser's own board and hands over the
// turn in the same write.
func (s *Session) MakeGuess(ctx context.Context, candidateID int) (GuessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasGuessed {
		return GuessResult{}, ErrAlreadyGuessed
	}

	if s.mode == ModeLocal {
		if s.local == nil {
			return GuessResult{}, ErrWrongMode
		}
		correct, secret, err := s.local.Guess(candidateID)
		if err != nil {
			return GuessResult{}, err
		}
		if correct {
			won := true
			s.setPhaseLocked(PhaseFinished)
			s.emit(Event{Type: EventWinner, Won: &won, Revealed: &secret})
			Guesses.WithLabelValues("correct").Inc()
			return GuessResult{Correct: true, Revealed: &secret}, nil
		}
		s.local.EndTurn() // the incoming player gets a fresh guess
		Guesses.WithLabelValues("wrong").Inc()
		s.emit(Event{Type: EventBoard})
		return GuessResult{Correct: false}, nil
	}

	code, doc, err := s.roomLocked()
	if err != nil {
		return GuessResult{}, err
	}
	if doc.Status != domain.StatusPlaying {
		return GuessResult{}, ErrNotPlaying
	}
	if doc.Turn != s.id {
		return GuessResult{}, ErrNotYourTurn
	}

	opp := doc.Opponent(s.id)
	if opp.Secret == nil {
		return GuessResult{}, ErrNotPlaying
	}

	if candidateID == opp.Secret.ID {
		err := s.deps.Store.Update(ctx, code, map[string]any{
			"winner":       s.id,
			"lastActivity": nowMillis(),
		})
		if err != nil {
			return GuessResult{}, err
		}
		Guesses.WithLabelValues("correct").Inc()
		return GuessResult{Correct: true, Revealed: opp.Secret}, nil
	}

	slot := doc.Slot(s.id)
	fields := map[string]any{
		"turn":         doc.NextTurn(),
		"lastActivity": nowMillis(),
	}
	if slot != nil && !slot.HasEliminated(candidateID) {
		fields[s.slotFieldLocked()+".eliminated"] = append(append([]int{}, slot.Eliminated...), candidateID)
	}
	if err := s.deps.Store.Update(ctx, code, fields); err != nil {
		return GuessResult{}, err
	}
	s.hasGuessed = true
	Guesses.WithLabelValues("wrong").Inc()
	return GuessResult{Correct: false}, nil
}

// ToggleCandidate flips a candidate in this player's own elimination set, a
// bookkeeping aid with no protocol meaning. Online it is allowed only on
// your own turn, matching the board input rules.
func (s *Session) ToggleCandidate(ctx context.Context, candidateID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeLocal {
		if s.local == nil {
			return ErrWrongMode
		}
		s.local.Toggle(candidateID)
		s.emit(Event{Type: EventBoard})
		return nil
	}

	code, doc, err := s.roomLocked()
	if err != nil {
		return err
	}
	if doc.Turn != s.id {
		return ErrNotYourTurn
	}
	slot := doc.Slot(s.id)
	if slot == nil {
		return ErrNoActiveRoom
	}

	var next []int
	if slot.HasEliminated(candidateID) {
		for _, id := range slot.Eliminated {
			if id != candidateID {
				next = append(next, id)
			}
		}
		if next == nil {
			next = []int{}
		}
	} else {
		next = append(append([]int{}, slot.Eliminated...), candidateID)
	}

	return s.deps.Store.Update(ctx, code, map[string]any{
		s.slotFieldLocked() + ".eliminated": next,
		"lastActivity":                      nowMillis(),
	})
}

// HandleEndTurn hands the turn to the other player without asking anything.
func (s *Session) HandleEndTurn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeLocal {
		if s.local == nil {
			return ErrWrongMode
		}
		s.local.EndTurn()
		s.hasGuessed = false
		s.emit(Event{Type: EventBoard})
		return nil
	}

	code, doc, err := s.roomLocked()
	if err != nil {
		return err
	}
	return s.deps.Store.Update(ctx, code, map[string]any{
		"turn":         doc.NextTurn(),
		"lastActivity": nowMillis(),
	})
}

// TriggerRematch resets the finished match back to region selection: same
// room, same players, cleared secrets, eliminations, winner and turn handed
// back to the host.
func (s *Session) TriggerRematch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeLocal {
		s.local = game.NewLocalSession()
		s.hasGuessed = false
		s.setPhaseLocked(PhaseSelectingRegion)
		return nil
	}

	code, doc, err := s.roomLocked()
	if err != nil {
		return err
	}

	s.winnerShown = false
	s.recorded = false
	s.hasGuessed = false
	return s.deps.Store.Update(ctx, code, map[string]any{
		"status":             domain.StatusSelectingRegion,
		"region":             nil,
		"winner":             "",
		"interaction":        nil,
		"turn":               doc.HostID,
		"player1.secret":     nil,
		"player1.eliminated": []int{},
		"player2.secret":     nil,
		"player2.eliminated": []int{},
		"lastActivity":       nowMillis(),
	})
}
