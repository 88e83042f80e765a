package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pkmn_guesser/internal/catalog"
	"pkmn_guesser/internal/domain"
	"pkmn_guesser/internal/game"
	"pkmn_guesser/internal/logger"
	"pkmn_guesser/internal/repository"
	"pkmn_guesser/internal/store"

	"go.uber.org/zap"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeOnline Mode = "online"
)

type Role string

const (
	RoleUnknown Role = ""
	RoleHost    Role = "host"
	RoleGuest   Role = "guest"
)

// Phase is the presentation-layer view of where a session is.
type Phase string

const (
	PhaseLobby            Phase = "lobby"
	PhaseWaitingForGuest  Phase = "waiting_for_guest"
	PhaseSelectingRegion  Phase = "selecting_region"
	PhaseSelectingPokemon Phase = "selecting_pokemon"
	PhasePlaying          Phase = "playing"
	PhaseFinished         Phase = "finished"
)

var (
	ErrRoomNotFound       = errors.New("engine: room not found")
	ErrRoomFull           = errors.New("engine: room is full")
	ErrNoActiveRoom       = errors.New("engine: no active room for this session")
	ErrNotYourTurn        = errors.New("engine: not your turn")
	ErrAlreadyGuessed     = errors.New("engine: already guessed this turn")
	ErrWrongMode          = errors.New("engine: operation not valid in this mode")
	ErrNotPlaying         = errors.New("engine: match is not in the playing phase")
	ErrPendingInteraction = errors.New("engine: a question is already pending")
	ErrNoPendingQuestion  = errors.New("engine: no question is waiting for an answer")
	ErrBoardNotLoaded     = errors.New("engine: candidate list not loaded yet")
	ErrTooManyFilters     = errors.New("engine: at most two filter types may be selected")
)

// Deps are the collaborators a session talks to. History is optional; when
// nil, finished matches are simply not recorded.
type Deps struct {
	Store          store.DocumentStore
	Catalog        *catalog.Client
	History        *repository.MatchRepository
	SessionTimeout time.Duration
}

// Session is the per-player synchronization context: one anonymous identity,
// one mode, at most one active room subscription. All match/session data
// lives here rather than in process-global state, with an explicit
// create/reset lifecycle.
type Session struct {
	id   string
	deps Deps
	log  *zap.SugaredLogger

	mu    sync.Mutex
	mode  Mode
	phase Phase

	// local mode
	local *game.LocalSession

	// online mode
	roomCode string
	role     Role
	doc      *domain.RoomDocument
	unsub    func()

	// ephemeral client state, rebuilt on (re)subscription
	candidates     []domain.Candidate
	loadedRegion   string
	hasGuessed     bool
	lastTurnOwner  string
	hideEliminated bool
	filters        map[string]struct{}

	winnerShown bool
	recorded    bool

	events chan Event
}

func NewSession(playerID string, deps Deps) *Session {
	return &Session{
		id:      playerID,
		deps:    deps,
		log:     logger.With("player", playerID),
		phase:   PhaseLobby,
		filters: make(map[string]struct{}),
		events:  make(chan Event, 32),
	}
}

// ID returns the opaque identity this session plays under.
func (s *Session) ID() string { return s.id }

// Events is the push stream consumed by the presentation transport.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warnw("event dropped, UI not draining", "type", ev.Type)
	}
}

func (s *Session) setPhaseLocked(p Phase) {
	if s.phase == p {
		return
	}
	s.phase = p
	s.emit(Event{Type: EventPhase, Phase: p})
}

// SelectMode picks local or online play from the lobby.
func (s *Session) SelectMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case ModeLocal:
		s.mode = ModeLocal
		s.setPhaseLocked(PhaseSelectingRegion)
	case ModeOnline:
		s.mode = ModeOnline
		s.setPhaseLocked(PhaseLobby)
	default:
		return fmt.Errorf("engine: unknown mode %q", mode)
	}
	return nil
}

// StartLocalGame loads the region's candidates and opens a fresh
// single-device session.
func (s *Session) StartLocalGame(ctx context.Context, start, end int) error {
	region := domain.Region{Start: start, End: end, Name: fmt.Sprintf("%d-%d", start, end)}

	list, err := s.deps.Catalog.LoadRange(ctx, region)
	if err != nil {
		return fmt.Errorf("loading candidate data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = ModeLocal
	s.local = game.NewLocalSession()
	s.candidates = list
	s.loadedRegion = region.CacheKey()
	s.hasGuessed = false
	s.setPhaseLocked(PhaseSelectingPokemon)
	return nil
}

// ResetGame abandons whatever match is in progress and returns to the lobby.
// The room subscription is released exactly once; notifications for the
// abandoned room must not reach this session again.
func (s *Session) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.mode = ""
	s.local = nil
	s.roomCode = ""
	s.role = RoleUnknown
	s.doc = nil
	s.candidates = nil
	s.loadedRegion = ""
	s.hasGuessed = false
	s.lastTurnOwner = ""
	s.hideEliminated = false
	s.filters = make(map[string]struct{})
	s.winnerShown = false
	s.recorded = false
	s.setPhaseLocked(PhaseLobby)
}

// ToggleVisibility flips the hide-eliminated display preference.
func (s *Session) ToggleVisibility() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hideEliminated = !s.hideEliminated
	s.emit(Event{Type: EventBoard})
	return s.hideEliminated
}

// SelectFilter adds or removes a type tag from the in-progress question
// selection. The UI allows at most two.
func (s *Session) SelectFilter(t string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.filters[t]; ok {
		delete(s.filters, t)
		return nil
	}
	if len(s.filters) >= 2 {
		return ErrTooManyFilters
	}
	s.filters[t] = struct{}{}
	return nil
}

// SelectedFilters returns the current filter selection.
func (s *Session) SelectedFilters() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.filters))
	for t := range s.filters {
		out = append(out, t)
	}
	return out
}

// QuestionView is the pending question as surfaced to the answering UI.
type QuestionView struct {
	Criteria []string `json:"criteria"`
	IsType   bool     `json:"is_type"`
	Mine     bool     `json:"mine"` // true when this session asked it
}

// State is the read-only snapshot the UI polls.
type State struct {
	Mode           Mode               `json:"mode"`
	Phase          Phase              `json:"phase"`
	RoomCode       string             `json:"room_code,omitempty"`
	Fragment       string             `json:"fragment,omitempty"`
	Role           Role               `json:"role,omitempty"`
	MyTurn         bool               `json:"my_turn"`
	Candidates     []domain.Candidate `json:"candidates"`
	Eliminated     []int              `json:"eliminated"`
	HideEliminated bool               `json:"hide_eliminated"`
	Secret         *domain.Candidate  `json:"secret,omitempty"`
	Question       *QuestionView      `json:"question,omitempty"`
	Winner         string             `json:"winner,omitempty"`
	HasGuessed     bool               `json:"has_guessed"`
}

// State assembles the current view. Everything here is derived from the last
// known document snapshot (online) or the in-process session (local), plus
// locally remembered display preferences.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Mode:           s.mode,
		Phase:          s.phase,
		RoomCode:       s.roomCode,
		Role:           s.role,
		Candidates:     s.candidates,
		HideEliminated: s.hideEliminated,
		HasGuessed:     s.hasGuessed,
	}
	if s.roomCode != "" {
		st.Fragment = FragmentFor(s.roomCode)
	}

	switch s.mode {
	case ModeLocal:
		if s.local != nil {
			turn := s.local.Turn()
			st.MyTurn = true // the device owner is always the acting player
			st.Eliminated = s.local.Eliminated(turn)
			st.Secret = s.local.Secret(turn)
		}
	case ModeOnline:
		if s.doc != nil {
			st.MyTurn = s.doc.Turn == s.id
			st.Winner = s.doc.Winner
			if slot := s.doc.Slot(s.id); slot != nil {
				st.Eliminated = slot.Eliminated
				st.Secret = slot.Secret
			}
			if inter := s.doc.Interaction; inter != nil && inter.Status == domain.InteractionWaiting {
				st.Question = &QuestionView{
					Criteria: inter.Criteria,
					IsType:   inter.IsType,
					Mine:     inter.Asker == s.id,
				}
			}
		}
	}
	return st
}

// FragmentFor renders the shareable link fragment for a room code.
func FragmentFor(code string) string {
	return "#game=" + code
}

// ParseGameFragment extracts a 6-digit room code from a link fragment or a
// full URL containing one. Used to auto-join and to recover a lost room id.
func ParseGameFragment(raw string) (string, bool) {
	idx := strings.Index(raw, "#game=")
	if idx < 0 {
		return "", false
	}
	rest := raw[idx+len("#game="):]
	if len(rest) < 6 {
		return "", false
	}
	code := rest[:6]
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return code, true
}
