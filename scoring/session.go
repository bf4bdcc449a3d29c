package scoring

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("scoring session not found")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrNothingToRedo   = errors.New("nothing to redo")
)

// ScoreAction is one edit in a session's undo/redo log.
type ScoreAction struct {
	PlayerID      int       `json:"player_id"`
	PreviousScore int       `json:"previous_score"`
	NewScore      int       `json:"new_score"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session is the undo/redo log for one live score editing session. It is a
// LIFO stack pair scoped to a single admin's editing view: ephemeral, never
// persisted, gone on server restart. There is no coordination between
// sessions; concurrent edits by two admins are last-write-wins at the store.
type Session struct {
	ID           string
	TournamentID int

	mu   sync.Mutex
	undo []ScoreAction
	redo []ScoreAction
}

// Push records an edit on the undo stack and clears the redo stack. A new
// edit invalidates anything previously undone.
func (s *Session) Push(action ScoreAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.undo = append(s.undo, action)
	s.redo = s.redo[:0]
}

// RollbackLast removes the most recent pushed action without touching the
// redo stack. Called when the persistence step of that edit failed.
func (s *Session) RollbackLast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.undo); n > 0 {
		s.undo = s.undo[:n-1]
	}
}

// Undo pops the most recent action onto the redo stack and returns it. The
// caller is responsible for persisting action.PreviousScore; on persistence
// failure it must call UnwindUndo to restore the log.
func (s *Session) Undo() (ScoreAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.undo)
	if n == 0 {
		return ScoreAction{}, ErrNothingToUndo
	}
	action := s.undo[n-1]
	s.undo = s.undo[:n-1]
	s.redo = append(s.redo, action)
	return action, nil
}

// UnwindUndo reverses a failed Undo, moving the action back to the undo stack.
func (s *Session) UnwindUndo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.redo); n > 0 {
		s.undo = append(s.undo, s.redo[n-1])
		s.redo = s.redo[:n-1]
	}
}

// Redo pops the most recently undone action back onto the undo stack and
// returns it. The caller persists action.NewScore; on failure it must call
// UnwindRedo.
func (s *Session) Redo() (ScoreAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.redo)
	if n == 0 {
		return ScoreAction{}, ErrNothingToRedo
	}
	action := s.redo[n-1]
	s.redo = s.redo[:n-1]
	s.undo = append(s.undo, action)
	return action, nil
}

// UnwindRedo reverses a failed Redo.
func (s *Session) UnwindRedo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.undo); n > 0 {
		s.redo = append(s.redo, s.undo[n-1])
		s.undo = s.undo[:n-1]
	}
}

// Depths reports the sizes of the undo and redo stacks.
func (s *Session) Depths() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}

// SessionManager owns all live scoring sessions, keyed by session ID.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Open creates a fresh session for a tournament and returns it.
func (m *SessionManager) Open(tournamentID int) *Session {
	session := &Session{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
	}
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

// Get returns the session with the given ID.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close discards a session and its history.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
