package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/model/chat"
)

var (
	ErrSessionRequired = errors.New("session id is required")
	ErrEmptyText       = errors.New("message text is required")
	ErrInvalidSender   = errors.New("invalid message sender")
)

// Draft is a message to be appended; the ledger assigns ID and timestamp.
type Draft struct {
	Sender string
	Text   string
}

// Turn is one atomic ledger mutation: zero or more appends plus an
// optional escalation flag transition, all applied under the session lock.
type Turn struct {
	Drafts     []Draft
	NeedsHuman *bool
}

// Service owns every session's ledger. Appends, escalate and resolve on
// one session serialize through that session's lock; sessions are fully
// independent of each other.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu      sync.Mutex
	session chat.Session
	entries []chat.Message
}

// NewService bootstraps the in-memory ledger.
func NewService() *Service {
	return &Service{sessions: make(map[string]*sessionState)}
}

// EnsureSession creates the session if it does not exist yet and returns
// its current snapshot. New sessions start with NeedsHuman=false.
func (s *Service) EnsureSession(_ context.Context, sessionID string) (chat.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return chat.Session{}, ErrSessionRequired
	}

	state := s.ensureState(sessionID)

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.session, nil
}

// GetSession returns a snapshot of the session, reporting existence.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, bool) {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return chat.Session{}, false
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.session, true
}

// Append writes a single message, implicitly creating the session.
func (s *Service) Append(ctx context.Context, sessionID, sender, text string) (chat.Message, error) {
	msgs, _, err := s.ApplyTurn(ctx, sessionID, Turn{Drafts: []Draft{{Sender: sender, Text: text}}})
	if err != nil {
		return chat.Message{}, err
	}
	return msgs[0], nil
}

// ApplyTurn appends the drafts in order and applies the optional flag
// transition as one atomic step. Either every draft lands or none does.
// Timestamps are forced monotonic within the session: a new entry gets
// max(now, previous+1ms).
func (s *Service) ApplyTurn(_ context.Context, sessionID string, turn Turn) ([]chat.Message, chat.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, chat.Session{}, ErrSessionRequired
	}
	for _, draft := range turn.Drafts {
		if !chat.ValidSender(draft.Sender) {
			return nil, chat.Session{}, ErrInvalidSender
		}
		if strings.TrimSpace(draft.Text) == "" {
			return nil, chat.Session{}, ErrEmptyText
		}
	}

	state := s.ensureState(sessionID)

	state.mu.Lock()
	defer state.mu.Unlock()

	appended := make([]chat.Message, 0, len(turn.Drafts))
	for _, draft := range turn.Drafts {
		stamp := time.Now().UTC()
		if n := len(state.entries); n > 0 {
			if floor := state.entries[n-1].Timestamp.Add(time.Millisecond); stamp.Before(floor) {
				stamp = floor
			}
		}
		msg := chat.Message{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Sender:    draft.Sender,
			Text:      draft.Text,
			Timestamp: stamp,
		}
		state.entries = append(state.entries, msg)
		appended = append(appended, msg)
	}

	if turn.NeedsHuman != nil {
		state.session.NeedsHuman = *turn.NeedsHuman
	}
	if len(appended) > 0 {
		state.session.LastActiveAt = appended[len(appended)-1].Timestamp
	}

	return appended, state.session, nil
}

// History returns the full ordered ledger for the session. Unknown
// sessions yield an empty slice, not an error: polling a conversation
// that has not started yet is normal.
func (s *Service) History(_ context.Context, sessionID string) []chat.Message {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return []chat.Message{}
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	copied := make([]chat.Message, len(state.entries))
	copy(copied, state.entries)
	return copied
}

// Resolve clears the escalation flag. It is idempotent: resolving an
// already-resolved session changes nothing and appends nothing. When the
// flag actually flips and note is non-empty, exactly one system message
// records the hand-back.
func (s *Service) Resolve(_ context.Context, sessionID, note string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return false, ErrSessionRequired
	}

	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.session.NeedsHuman {
		return false, nil
	}

	state.session.NeedsHuman = false
	if note != "" {
		stamp := time.Now().UTC()
		if n := len(state.entries); n > 0 {
			if floor := state.entries[n-1].Timestamp.Add(time.Millisecond); stamp.Before(floor) {
				stamp = floor
			}
		}
		msg := chat.Message{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Sender:    chat.SenderSystem,
			Text:      note,
			Timestamp: stamp,
		}
		state.entries = append(state.entries, msg)
		state.session.LastActiveAt = stamp
	}
	return true, nil
}

// ListActive projects the support queue: every session with at least one
// message, most recently active first. Each row is a consistent
// per-session snapshot; no lock spans two sessions.
func (s *Service) ListActive(_ context.Context) []chat.QueueEntry {
	s.mu.RLock()
	states := make([]*sessionState, 0, len(s.sessions))
	for _, state := range s.sessions {
		states = append(states, state)
	}
	s.mu.RUnlock()

	entries := make([]chat.QueueEntry, 0, len(states))
	for _, state := range states {
		state.mu.Lock()
		if len(state.entries) > 0 {
			entries = append(entries, chat.QueueEntry{
				SessionID:    state.session.ID,
				NeedsHuman:   state.session.NeedsHuman,
				LastActiveAt: state.session.LastActiveAt,
			})
		}
		state.mu.Unlock()
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastActiveAt.After(entries[j].LastActiveAt)
	})
	return entries
}

func (s *Service) ensureState(sessionID string) *sessionState {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok = s.sessions[sessionID]; ok {
		return state
	}
	state = &sessionState{
		session: chat.Session{
			ID:        sessionID,
			CreatedAt: time.Now().UTC(),
		},
	}
	s.sessions[sessionID] = state
	return state
}
