package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/chimucheck/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvedPlayer(repo *fakePlayerRepo, alias string) *models.Player {
	return repo.add(&models.Player{
		Alias:    alias,
		Email:    alias + "@chimucheck.test",
		Role:     models.RolePlayer,
		Approval: models.ApprovalAprobado,
	})
}

func openTournament(repo *fakeTournamentRepo, maxPlayers int) *models.Tournament {
	return repo.add(&models.Tournament{
		Name:       fmt.Sprintf("Torneo %d", repo.nextID),
		Date:       time.Now().Add(24 * time.Hour),
		Status:     models.StatusInscripcion,
		MaxPlayers: maxPlayers,
	})
}

func newRegistrationFixture() (RegistrationService, *fakePlayerRepo, *fakeTournamentRepo, *fakeRegistrationRepo) {
	players := newFakePlayerRepo()
	tournaments := newFakeTournamentRepo()
	registrations := newFakeRegistrationRepo(players)
	svc := NewRegistrationService(registrations, tournaments, players, testLogger())
	return svc, players, tournaments, registrations
}

func TestRegisterSucceedsWhileCapacityRemains(t *testing.T) {
	svc, players, tournaments, _ := newRegistrationFixture()
	tournament := openTournament(tournaments, 2)
	ana := approvedPlayer(players, "ana")

	reg, err := svc.Register(context.Background(), tournament.ID, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, reg.PlayerID)
	assert.Equal(t, models.RegistrationPendiente, reg.Status)

	updated, err := tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentPlayers)
}

func TestRegisterFullTournament(t *testing.T) {
	svc, players, tournaments, _ := newRegistrationFixture()
	tournament := openTournament(tournaments, 2)

	for _, alias := range []string{"ana", "bruno"} {
		p := approvedPlayer(players, alias)
		_, err := svc.Register(context.Background(), tournament.ID, p.ID)
		require.NoError(t, err)
	}

	late := approvedPlayer(players, "carla")
	_, err := svc.Register(context.Background(), tournament.ID, late.ID)
	require.ErrorIs(t, err, ErrTournamentFull)
	assert.Equal(t, "El torneo está lleno", err.Error())

	updated, err := tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentPlayers)
}

// Two goroutines racing for the last slot: exactly one wins, because the
// capacity check and the increment are a single atomic claim.
func TestRegisterLastSlotRace(t *testing.T) {
	svc, players, tournaments, _ := newRegistrationFixture()
	tournament := openTournament(tournaments, 1)
	ana := approvedPlayer(players, "ana")
	bruno := approvedPlayer(players, "bruno")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, playerID := range []int{ana.ID, bruno.ID} {
		wg.Add(1)
		go func(i, playerID int) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), tournament.ID, playerID)
		}(i, playerID)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrTournamentFull)
		}
	}
	assert.Equal(t, 1, successes)

	updated, err := tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentPlayers)
}

func TestRegisterRejectsUnapprovedPlayer(t *testing.T) {
	svc, players, tournaments, _ := newRegistrationFixture()
	tournament := openTournament(tournaments, 4)
	pending := players.add(&models.Player{
		Alias:    "pendiente",
		Email:    "pendiente@chimucheck.test",
		Approval: models.ApprovalPendiente,
	})

	_, err := svc.Register(context.Background(), tournament.ID, pending.ID)
	assert.ErrorIs(t, err, ErrPlayerNotApproved)
}

func TestRegisterRejectsWhenNotOpen(t *testing.T) {
	svc, players, tournaments, _ := newRegistrationFixture()
	tournament := tournaments.add(&models.Tournament{
		Name:       "En juego",
		Date:       time.Now(),
		Status:     models.StatusEnJuego,
		MaxPlayers: 8,
	})
	ana := approvedPlayer(players, "ana")

	_, err := svc.Register(context.Background(), tournament.ID, ana.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)
}

func TestRegisterDuplicateReleasesSlot(t *testing.T) {
	svc, players, tournaments, registrations := newRegistrationFixture()
	tournament := openTournament(tournaments, 4)
	ana := approvedPlayer(players, "ana")

	_, err := svc.Register(context.Background(), tournament.ID, ana.ID)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), tournament.ID, ana.ID)
	require.ErrorIs(t, err, ErrRegistrationConflict)

	// The failed attempt must not leak a claimed slot.
	updated, err := tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CurrentPlayers)

	regs, err := registrations.ListByTournament(context.Background(), tournament.ID, false)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}

func TestUnregisterFreesSlot(t *testing.T) {
	svc, players, tournaments, _ := newRegistrationFixture()
	tournament := openTournament(tournaments, 2)
	ana := approvedPlayer(players, "ana")

	_, err := svc.Register(context.Background(), tournament.ID, ana.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Unregister(context.Background(), tournament.ID, ana.ID))

	updated, err := tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.CurrentPlayers)
}

func TestUnregisterOnlyWhileOpen(t *testing.T) {
	svc, players, tournaments, registrations := newRegistrationFixture()
	tournament := openTournament(tournaments, 2)
	ana := approvedPlayer(players, "ana")

	_, err := svc.Register(context.Background(), tournament.ID, ana.ID)
	require.NoError(t, err)

	require.NoError(t, tournaments.UpdateStatus(context.Background(), nil, tournament.ID, models.StatusEnJuego))

	err = svc.Unregister(context.Background(), tournament.ID, ana.ID)
	assert.ErrorIs(t, err, ErrRegistrationNotOpen)

	regs, err := registrations.ListByTournament(context.Background(), tournament.ID, false)
	require.NoError(t, err)
	assert.Len(t, regs, 1)
}
