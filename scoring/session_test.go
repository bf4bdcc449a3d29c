package scoring

import (
	"errors"
	"testing"
	"time"
)

func action(playerID, prev, next int) ScoreAction {
	return ScoreAction{PlayerID: playerID, PreviousScore: prev, NewScore: next, Timestamp: time.Now()}
}

func TestUndoIsInverseInLIFOOrder(t *testing.T) {
	s := &Session{ID: "test", TournamentID: 1}
	s.Push(action(7, 0, 10))
	s.Push(action(7, 10, 25))
	s.Push(action(9, 0, 5))

	// Undo walks back in reverse order, each returning the score to restore.
	a, err := s.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if a.PlayerID != 9 || a.PreviousScore != 0 {
		t.Errorf("first undo: got player %d prev %d, want player 9 prev 0", a.PlayerID, a.PreviousScore)
	}

	a, err = s.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if a.PlayerID != 7 || a.PreviousScore != 10 {
		t.Errorf("second undo: got player %d prev %d, want player 7 prev 10", a.PlayerID, a.PreviousScore)
	}

	a, err = s.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if a.PlayerID != 7 || a.PreviousScore != 0 {
		t.Errorf("third undo: got player %d prev %d, want player 7 prev 0", a.PlayerID, a.PreviousScore)
	}

	if _, err := s.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestRedoReappliesUndoneEdit(t *testing.T) {
	s := &Session{ID: "test", TournamentID: 1}
	s.Push(action(7, 0, 10))

	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}

	a, err := s.Redo()
	if err != nil {
		t.Fatal(err)
	}
	if a.PlayerID != 7 || a.NewScore != 10 {
		t.Errorf("redo: got player %d score %d, want player 7 score 10", a.PlayerID, a.NewScore)
	}

	if _, err := s.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestNewEditClearsRedoStack(t *testing.T) {
	s := &Session{ID: "test", TournamentID: 1}
	s.Push(action(7, 0, 10))
	s.Push(action(7, 10, 20))

	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if _, redo := s.Depths(); redo != 1 {
		t.Fatalf("expected redo depth 1 after undo, got %d", redo)
	}

	s.Push(action(9, 0, 5))

	if _, redo := s.Depths(); redo != 0 {
		t.Errorf("expected redo stack cleared by new edit, got depth %d", redo)
	}
}

func TestRollbackLastDropsFailedEdit(t *testing.T) {
	s := &Session{ID: "test", TournamentID: 1}
	s.Push(action(7, 0, 10))
	s.Push(action(7, 10, 20))

	s.RollbackLast()

	undo, _ := s.Depths()
	if undo != 1 {
		t.Fatalf("expected undo depth 1, got %d", undo)
	}
	a, err := s.Undo()
	if err != nil {
		t.Fatal(err)
	}
	if a.NewScore != 10 {
		t.Errorf("expected surviving edit to be the first one, got score %d", a.NewScore)
	}
}

func TestUnwindRestoresStacks(t *testing.T) {
	s := &Session{ID: "test", TournamentID: 1}
	s.Push(action(7, 0, 10))

	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	s.UnwindUndo()

	undo, redo := s.Depths()
	if undo != 1 || redo != 0 {
		t.Errorf("after UnwindUndo: got undo %d redo %d, want 1/0", undo, redo)
	}

	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	s.UnwindRedo()

	undo, redo = s.Depths()
	if undo != 0 || redo != 1 {
		t.Errorf("after UnwindRedo: got undo %d redo %d, want 0/1", undo, redo)
	}
}

func TestSessionManagerLifecycle(t *testing.T) {
	m := NewSessionManager()

	session := m.Open(42)
	if session.ID == "" {
		t.Fatal("expected a session ID")
	}
	if session.TournamentID != 42 {
		t.Errorf("got tournament %d, want 42", session.TournamentID)
	}

	got, err := m.Get(session.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != session {
		t.Error("Get returned a different session")
	}

	m.Close(session.ID)
	if _, err := m.Get(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after Close, got %v", err)
	}
}
