package game

import (
	"errors"
	"sync"

	"pkmn_guesser/internal/domain"
)

var (
	ErrBadPlayer    = errors.New("player must be 1 or 2")
	ErrNoSecret     = errors.New("opponent has not picked a secret yet")
	ErrAlreadyBegun = errors.New("secrets already chosen")
)

// LocalSession is the single-device variant of a match: both players share
// one screen, so both slots live in process memory and turn handover is just
// a field swap. Created on local-mode start, discarded on reset or rematch.
type LocalSession struct {
	mu   sync.Mutex
	turn int
	p1   localPlayer
	p2   localPlayer
}

type localPlayer struct {
	secret     *domain.Candidate
	eliminated map[int]struct{}
}

func NewLocalSession() *LocalSession {
	return &LocalSession{
		turn: 1,
		p1:   localPlayer{eliminated: make(map[int]struct{})},
		p2:   localPlayer{eliminated: make(map[int]struct{})},
	}
}

func (s *LocalSession) player(n int) (*localPlayer, error) {
	switch n {
	case 1:
		return &s.p1, nil
	case 2:
		return &s.p2, nil
	}
	return nil, ErrBadPlayer
}

// SetSecret records a player's hidden pick during the selection phase.
func (s *LocalSession) SetSecret(player int, c domain.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(player)
	if err != nil {
		return err
	}
	p.secret = &c
	return nil
}

// Ready reports whether both players have picked a secret.
func (s *LocalSession) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p1.secret != nil && s.p2.secret != nil
}

func (s *LocalSession) Turn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn
}

// EndTurn hands the board to the other player and returns the new owner.
func (s *LocalSession) EndTurn() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.turn == 1 {
		s.turn = 2
	} else {
		s.turn = 1
	}
	return s.turn
}

// Toggle flips a candidate's membership in the current player's elimination
// set. Local boards allow un-eliminating; that is a bookkeeping aid, not a
// protocol write.
func (s *LocalSession) Toggle(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.player(s.turn)
	if _, ok := p.eliminated[id]; ok {
		delete(p.eliminated, id)
	} else {
		p.eliminated[id] = struct{}{}
	}
}

// Eliminate unions ids into the current player's set.
func (s *LocalSession) Eliminate(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, _ := s.player(s.turn)
	for _, id := range ids {
		p.eliminated[id] = struct{}{}
	}
}

// Guess resolves a direct guess against the opponent's secret. A wrong guess
// eliminates the guessed candidate on the guesser's own board.
func (s *LocalSession) Guess(id int) (correct bool, secret domain.Candidate, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	me, _ := s.player(s.turn)
	opp := &s.p1
	if s.turn == 1 {
		opp = &s.p2
	}
	if opp.secret == nil {
		return false, domain.Candidate{}, ErrNoSecret
	}

	if id == opp.secret.ID {
		return true, *opp.secret, nil
	}
	me.eliminated[id] = struct{}{}
	return false, *opp.secret, nil
}

// Eliminated returns a copy of a player's elimination set.
func (s *LocalSession) Eliminated(player int) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(player)
	if err != nil {
		return nil
	}
	out := make([]int, 0, len(p.eliminated))
	for id := range p.eliminated {
		out = append(out, id)
	}
	return out
}

// Secret returns a player's pick, or nil before selection.
func (s *LocalSession) Secret(player int) *domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.player(player)
	if err != nil || p.secret == nil {
		return nil
	}
	c := *p.secret
	return &c
}
