package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chimucheck/backend/repositories"
	"github.com/chimucheck/backend/scoring"
)

// ScoreEntry is one (player, score) pair in a bulk update.
type ScoreEntry struct {
	PlayerID int `json:"player_id"`
	Score    int `json:"score"`
}

// BulkResult reports best-effort batch outcomes: each record is attempted
// independently, failures are counted rather than aborting the batch.
type BulkResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// SessionState is returned to the editor after every session operation so it
// can render its undo/redo controls.
type SessionState struct {
	SessionID string `json:"session_id"`
	UndoDepth int    `json:"undo_depth"`
	RedoDepth int    `json:"redo_depth"`
	PlayerID  int    `json:"player_id,omitempty"`
	Score     int    `json:"score,omitempty"`
}

type ScoreService interface {
	UpdatePlayerScore(ctx context.Context, tournamentID, playerID, newScore int) error
	BulkUpdateScores(ctx context.Context, tournamentID int, entries []ScoreEntry) (BulkResult, error)

	OpenSession(ctx context.Context, tournamentID int) (*SessionState, error)
	ApplySessionEdit(ctx context.Context, sessionID string, playerID, newScore int) (*SessionState, error)
	AdjustSessionScore(ctx context.Context, sessionID string, playerID, offset int) (*SessionState, error)
	UndoSession(ctx context.Context, sessionID string) (*SessionState, error)
	RedoSession(ctx context.Context, sessionID string) (*SessionState, error)
	CloseSession(sessionID string)
}

type scoreService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	sessions         *scoring.SessionManager
	live             LiveService
	logger           *slog.Logger
}

func NewScoreService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	sessions *scoring.SessionManager,
	live LiveService,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		sessions:         sessions,
		live:             live,
		logger:           logger,
	}
}

// UpdatePlayerScore persists a single score. The value is any integer;
// negatives are accepted. Score edits are only allowed once the tournament
// has left registration.
func (s *scoreService) UpdatePlayerScore(ctx context.Context, tournamentID, playerID, newScore int) error {
	if err := s.checkScoresEditable(ctx, tournamentID); err != nil {
		return err
	}

	if err := s.registrationRepo.UpdateScore(ctx, nil, tournamentID, playerID, newScore); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return err
	}

	s.live.BroadcastLeaderboard(ctx, tournamentID)
	return nil
}

// BulkUpdateScores applies entries row by row with independent persistence
// calls. There is no cross-record transaction: a failing row is counted and
// the rest proceed.
func (s *scoreService) BulkUpdateScores(ctx context.Context, tournamentID int, entries []ScoreEntry) (BulkResult, error) {
	if err := s.checkScoresEditable(ctx, tournamentID); err != nil {
		return BulkResult{}, err
	}

	var result BulkResult
	for _, entry := range entries {
		if err := s.registrationRepo.UpdateScore(ctx, nil, tournamentID, entry.PlayerID, entry.Score); err != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "bulk score update failed for player",
				slog.Int("tournament_id", tournamentID),
				slog.Int("player_id", entry.PlayerID),
				slog.Any("error", err))
			continue
		}
		result.Processed++
	}

	if result.Processed > 0 {
		s.live.BroadcastLeaderboard(ctx, tournamentID)
	}
	return result, nil
}

func (s *scoreService) OpenSession(ctx context.Context, tournamentID int) (*SessionState, error) {
	if err := s.checkScoresEditable(ctx, tournamentID); err != nil {
		return nil, err
	}
	session := s.sessions.Open(tournamentID)
	return sessionState(session, 0, 0), nil
}

/// ApplySessionEdit is the editor's score change: record the action on the
// undo stack, persist, and roll the action back if persistence fails. A zero
// delta is a no-op and records nothing.
func (s *scoreService) ApplySessionEdit(ctx context.Context, sessionID string, playerID, newScore int) (*SessionState, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	registration, err := s.registrationRepo.FindByPlayerAndTournament(ctx, playerID, session.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	previous := registration.Score
	if newScore == previous {
		return sessionState(session, playerID, previous), nil
	}

	session.Push(scoring.ScoreAction{
		PlayerID:      playerID,
		PreviousScore: previous,
		NewScore:      newScore,
		Timestamp:     time.Now(),
	})

	if err := s.registrationRepo.UpdateScore(ctx, nil, session.TournamentID, playerID, newScore); err != nil {
		session.RollbackLast()
		return nil, fmt.Errorf("failed to persist score, edit rolled back: %w", err)
	}

	s.live.BroadcastLeaderboard(ctx, session.TournamentID)
	return sessionState(session, playerID, newScore), nil
}

// AdjustSessionScore is sugar over ApplySessionEdit: target = current + offset.
func (s *scoreService) AdjustSessionScore(ctx context.Context, sessionID string, playerID, offset int) (*SessionState, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	registration, err := s.registrationRepo.FindByPlayerAndTournament(ctx, playerID, session.TournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	return s.ApplySessionEdit(ctx, sessionID, playerID, registration.Score+offset)
}

func (s *scoreService) UndoSession(ctx context.Context, sessionID string) (*SessionState, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	action, err := session.Undo()
	if err != nil {
		return nil, err
	}

	if err := s.registrationRepo.UpdateScore(ctx, nil, session.TournamentID, action.PlayerID, action.PreviousScore); err != nil {
		session.UnwindUndo()
		return nil, fmt.Errorf("failed to persist undo: %w", err)
	}

	s.live.BroadcastLeaderboard(ctx, session.TournamentID)
	return sessionState(session, action.PlayerID, action.PreviousScore), nil
}

func (s *scoreService) RedoSession(ctx context.Context, sessionID string) (*SessionState, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	action, err := session.Redo()
	if err != nil {
		return nil, err
	}

	if err := s.registrationRepo.UpdateScore(ctx, nil, session.TournamentID, action.PlayerID, action.NewScore); err != nil {
		session.UnwindRedo()
		return nil, fmt.Errorf("failed to persist redo: %w", err)
	}

	s.live.BroadcastLeaderboard(ctx, session.TournamentID)
	return sessionState(session, action.PlayerID, action.NewScore), nil
}

func (s *scoreService) CloseSession(sessionID string) {
	s.sessions.Close(sessionID)
}

func (s *scoreService) checkScoresEditable(ctx context.Context, tournamentID int) error {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	// Scores are editable while play is live, and from the results editor
	// after the tournament finished.
	if !tournament.Live() && !tournament.Finished() {
		return ErrTournamentNotLive
	}
	return nil
}

func sessionState(session *scoring.Session, playerID, score int) *SessionState {
	undo, redo := session.Depths()
	return &SessionState{
		SessionID: session.ID,
		UndoDepth: undo,
		RedoDepth: redo,
		PlayerID:  playerID,
		Score:     score,
	}
}
