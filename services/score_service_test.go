package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreFixture struct {
	svc           ScoreService
	players       *fakePlayerRepo
	tournaments   *fakeTournamentRepo
	registrations *fakeRegistrationRepo
}

func newScoreFixture() *scoreFixture {
	players := newFakePlayerRepo()
	tournaments := newFakeTournamentRepo()
	registrations := newFakeRegistrationRepo(players)
	svc := NewScoreService(registrations, tournaments, scoring.NewSessionManager(), fakeLiveService{}, testLogger())
	return &scoreFixture{svc: svc, players: players, tournaments: tournaments, registrations: registrations}
}

func (f *scoreFixture) liveTournament(t *testing.T, aliases ...string) (*models.Tournament, []*models.Player) {
	t.Helper()
	tournament := f.tournaments.add(&models.Tournament{
		Name:       "Torneo en juego",
		Date:       time.Now().Add(-time.Hour),
		Status:     models.StatusEnJuego,
		MaxPlayers: len(aliases),
	})
	var players []*models.Player
	for _, alias := range aliases {
		p := approvedPlayer(f.players, alias)
		err := f.registrations.Create(context.Background(), nil, &models.Registration{
			PlayerID:     p.ID,
			TournamentID: tournament.ID,
			Status:       models.RegistrationConfirmado,
		})
		require.NoError(t, err)
		players = append(players, p)
	}
	return tournament, players
}

func TestUpdatePlayerScoreRequiresLiveTournament(t *testing.T) {
	f := newScoreFixture()
	tournament := f.tournaments.add(&models.Tournament{
		Name:       "Inscripción abierta",
		Date:       time.Now().Add(time.Hour),
		Status:     models.StatusInscripcion,
		MaxPlayers: 8,
	})

	err := f.svc.UpdatePlayerScore(context.Background(), tournament.ID, 1, 10)
	assert.ErrorIs(t, err, ErrTournamentNotLive)
}

func TestUpdatePlayerScorePersists(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana")

	require.NoError(t, f.svc.UpdatePlayerScore(context.Background(), tournament.ID, players[0].ID, -15))
	assert.Equal(t, -15, f.registrations.score(players[0].ID, tournament.ID))
}

func TestBulkUpdateScoresCountsFailures(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno")
	f.registrations.failScoreFor[players[1].ID] = errors.New("timeout")

	result, err := f.svc.BulkUpdateScores(context.Background(), tournament.ID, []ScoreEntry{
		{PlayerID: players[0].ID, Score: 10},
		{PlayerID: players[1].ID, Score: 20},
		{PlayerID: 999, Score: 30},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 10, f.registrations.score(players[0].ID, tournament.ID))
}

func TestSessionEditUndoRedoRoundTrip(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana")
	ctx := context.Background()

	state, err := f.svc.OpenSession(ctx, tournament.ID)
	require.NoError(t, err)
	sessionID := state.SessionID

	state, err = f.svc.ApplySessionEdit(ctx, sessionID, players[0].ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, state.UndoDepth)
	assert.Equal(t, 10, f.registrations.score(players[0].ID, tournament.ID))

	state, err = f.svc.ApplySessionEdit(ctx, sessionID, players[0].ID, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, state.UndoDepth)

	// Undo restores the previous score and persists it.
	state, err = f.svc.UndoSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 10, state.Score)
	assert.Equal(t, 10, f.registrations.score(players[0].ID, tournament.ID))
	assert.Equal(t, 1, state.RedoDepth)

	// Redo reapplies it.
	state, err = f.svc.RedoSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 25, state.Score)
	assert.Equal(t, 25, f.registrations.score(players[0].ID, tournament.ID))
}

func TestAdjustSessionScoreAppliesOffset(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana")
	ctx := context.Background()

	state, err := f.svc.OpenSession(ctx, tournament.ID)
	require.NoError(t, err)

	_, err = f.svc.AdjustSessionScore(ctx, state.SessionID, players[0].ID, 5)
	require.NoError(t, err)
	state, err = f.svc.AdjustSessionScore(ctx, state.SessionID, players[0].ID, -2)
	require.NoError(t, err)

	assert.Equal(t, 3, state.Score)
	assert.Equal(t, 3, f.registrations.score(players[0].ID, tournament.ID))
}

func TestNewEditInvalidatesRedo(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana")
	ctx := context.Background()

	state, err := f.svc.OpenSession(ctx, tournament.ID)
	require.NoError(t, err)
	sessionID := state.SessionID

	_, err = f.svc.ApplySessionEdit(ctx, sessionID, players[0].ID, 10)
	require.NoError(t, err)
	_, err = f.svc.UndoSession(ctx, sessionID)
	require.NoError(t, err)

	state, err = f.svc.ApplySessionEdit(ctx, sessionID, players[0].ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, state.RedoDepth)

	_, err = f.svc.RedoSession(ctx, sessionID)
	assert.ErrorIs(t, err, scoring.ErrNothingToRedo)
}

func TestFailedPersistenceRollsBackSessionEdit(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana")
	ctx := context.Background()

	state, err := f.svc.OpenSession(ctx, tournament.ID)
	require.NoError(t, err)
	sessionID := state.SessionID

	f.registrations.failScoreFor[players[0].ID] = errors.New("connection reset")
	_, err = f.svc.ApplySessionEdit(ctx, sessionID, players[0].ID, 10)
	require.Error(t, err)

	// The failed edit must not linger on the undo stack.
	delete(f.registrations.failScoreFor, players[0].ID)
	_, err = f.svc.UndoSession(ctx, sessionID)
	assert.ErrorIs(t, err, scoring.ErrNothingToUndo)
}

func TestUndoOnEmptySession(t *testing.T) {
	f := newScoreFixture()
	tournament, _ := f.liveTournament(t, "ana")
	ctx := context.Background()

	state, err := f.svc.OpenSession(ctx, tournament.ID)
	require.NoError(t, err)

	_, err = f.svc.UndoSession(ctx, state.SessionID)
	assert.ErrorIs(t, err, scoring.ErrNothingToUndo)
}

func TestClosedSessionIsGone(t *testing.T) {
	f := newScoreFixture()
	tournament, players := f.liveTournament(t, "ana")
	ctx := context.Background()

	state, err := f.svc.OpenSession(ctx, tournament.ID)
	require.NoError(t, err)

	f.svc.CloseSession(state.SessionID)

	_, err = f.svc.ApplySessionEdit(ctx, state.SessionID, players[0].ID, 10)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
