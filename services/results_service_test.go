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

type resultsFixture struct {
	svc           ResultsService
	players       *fakePlayerRepo
	tournaments   *fakeTournamentRepo
	registrations *fakeRegistrationRepo
	stats         *fakeStatsRepo
}

func newResultsFixture() *resultsFixture {
	players := newFakePlayerRepo()
	tournaments := newFakeTournamentRepo()
	registrations := newFakeRegistrationRepo(players)
	stats := newFakeStatsRepo()
	svc := NewResultsService(tournaments, registrations, players, stats, scoring.NewHub(), testLogger())
	return &resultsFixture{svc: svc, players: players, tournaments: tournaments, registrations: registrations, stats: stats}
}

func (f *resultsFixture) liveTournament(t *testing.T, aliases ...string) (*models.Tournament, []*models.Player) {
	t.Helper()
	tournament := f.tournaments.add(&models.Tournament{
		Name:       "Torneo de resultados",
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

func TestSaveResultsFinalizesAndGrantsCoins(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno", "carla")

	input := SaveResultsInput{
		Scores: []ScoreEntry{
			{PlayerID: players[0].ID, Score: 100},
			{PlayerID: players[1].ID, Score: 80},
			{PlayerID: players[2].ID, Score: 60},
		},
		Winners: []models.WinnerEntry{
			{Position: 1, PlayerID: players[0].ID, PlayerAlias: "ana", Chimucoins: 500},
			{Position: 2, PlayerID: players[1].ID, PlayerAlias: "bruno", Chimucoins: 300},
		},
	}

	outcome, err := f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)
	assert.Empty(t, outcome.Warnings)
	assert.Equal(t, models.StatusFinalizado, outcome.Tournament.Status)

	assert.Equal(t, 500, f.players.coins(players[0].ID))
	assert.Equal(t, 300, f.players.coins(players[1].ID))
	assert.Equal(t, 0, f.players.coins(players[2].ID))

	assert.Equal(t, 100, f.registrations.score(players[0].ID, tournament.ID))

	stored, err := f.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Winners, 2)

	// Every participant gets a match counted; podium positions recorded.
	assert.Equal(t, 1, f.stats.matches[players[2].ID])
	assert.Equal(t, []int{1}, f.stats.podiums[players[0].ID])
	assert.Equal(t, []int{2}, f.stats.podiums[players[1].ID])
}

// Re-saving a finalized tournament reverts the previous grant before
// applying the new one: the balance reflects only the latest winners list.
func TestSaveResultsRevertThenGrantIsNetNoOp(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno")

	input := SaveResultsInput{
		Scores:  []ScoreEntry{{PlayerID: players[0].ID, Score: 50}},
		Winners: []models.WinnerEntry{{Position: 1, PlayerID: players[0].ID, PlayerAlias: "ana", Chimucoins: 500}},
	}

	_, err := f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)
	require.Equal(t, 500, f.players.coins(players[0].ID))

	// Same winners again: revert(-500) then grant(+500).
	_, err = f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 500, f.players.coins(players[0].ID))

	// Moving the prize to bruno takes it away from ana entirely.
	input.Winners = []models.WinnerEntry{{Position: 1, PlayerID: players[1].ID, PlayerAlias: "bruno", Chimucoins: 500}}
	_, err = f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 0, f.players.coins(players[0].ID))
	assert.Equal(t, 500, f.players.coins(players[1].ID))
}

func TestSaveResultsAbortsBeforeWinnersOnScoreFailure(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno")
	f.registrations.failScoreFor[players[1].ID] = errors.New("disk full")

	input := SaveResultsInput{
		Scores: []ScoreEntry{
			{PlayerID: players[0].ID, Score: 100},
			{PlayerID: players[1].ID, Score: 80},
		},
		Winners: []models.WinnerEntry{{Position: 1, PlayerID: players[0].ID, Chimucoins: 500}},
	}

	_, err := f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.Error(t, err)

	// No coins granted, no winners stored, status untouched.
	assert.Equal(t, 0, f.players.coins(players[0].ID))
	stored, getErr := f.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, getErr)
	assert.Empty(t, stored.Winners)
	assert.Equal(t, models.StatusEnJuego, stored.Status)
}

func TestSaveResultsGrantFailureIsWarningNotError(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno")
	f.players.failAdjustFor[players[0].ID] = errors.New("player gone")

	input := SaveResultsInput{
		Scores:  []ScoreEntry{{PlayerID: players[0].ID, Score: 100}},
		Winners: []models.WinnerEntry{{Position: 1, PlayerID: players[0].ID, Chimucoins: 500}},
	}

	outcome, err := f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)
	assert.NotEmpty(t, outcome.Warnings)
	assert.Equal(t, models.StatusFinalizado, outcome.Tournament.Status)
}

func TestSaveResultsRejectsInvalidWinners(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno")

	input := SaveResultsInput{
		Winners: []models.WinnerEntry{
			{Position: 1, PlayerID: players[0].ID},
			{Position: 1, PlayerID: players[1].ID},
		},
	}

	_, err := f.svc.SaveResults(context.Background(), tournament.ID, input)
	assert.ErrorIs(t, err, ErrInvalidWinnersList)
}

func TestSaveResultsRejectsDuringRegistration(t *testing.T) {
	f := newResultsFixture()
	tournament := f.tournaments.add(&models.Tournament{
		Name:       "Aún en inscripción",
		Date:       time.Now().Add(time.Hour),
		Status:     models.StatusInscripcion,
		MaxPlayers: 8,
	})

	_, err := f.svc.SaveResults(context.Background(), tournament.ID, SaveResultsInput{})
	assert.ErrorIs(t, err, ErrTournamentNotLive)
}

func TestSaveResultsStatsCountedOncePerTournament(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno")

	input := SaveResultsInput{
		Winners: []models.WinnerEntry{{Position: 1, PlayerID: players[0].ID, Chimucoins: 100}},
	}

	_, err := f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)
	_, err = f.svc.SaveResults(context.Background(), tournament.ID, input)
	require.NoError(t, err)

	// Stats are applied on the first finalization only; re-saves adjust
	// coins but never double-count matches.
	assert.Equal(t, 1, f.stats.matches[players[0].ID])
	assert.Equal(t, 1, f.stats.matches[players[1].ID])
	assert.Equal(t, []int{1}, f.stats.podiums[players[0].ID])
}

func TestAutoAssignWinnersUsesRanking(t *testing.T) {
	f := newResultsFixture()
	tournament, players := f.liveTournament(t, "ana", "bruno", "carla", "diego")
	scores := []int{60, 100, 80, 40}
	for i, p := range players {
		require.NoError(t, f.registrations.UpdateScore(context.Background(), nil, tournament.ID, p.ID, scores[i]))
	}

	winners, err := f.svc.AutoAssignWinners(context.Background(), tournament.ID, nil)
	require.NoError(t, err)
	require.Len(t, winners, 3)

	assert.Equal(t, players[1].ID, winners[0].PlayerID) // bruno, 100
	assert.Equal(t, players[2].ID, winners[1].PlayerID) // carla, 80
	assert.Equal(t, players[0].ID, winners[2].PlayerID) // ana, 60
}

func TestGetResultsRequiresFinalized(t *testing.T) {
	f := newResultsFixture()
	tournament, _ := f.liveTournament(t, "ana")

	_, err := f.svc.GetResults(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotDone)
}
