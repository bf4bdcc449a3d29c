package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
)

// In-memory repository fakes used across the service tests. They implement
// only the semantics the services rely on; everything is guarded by a mutex
// so concurrency tests can hit them from multiple goroutines.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	nextID  int
	players map[int]*models.Player

	failAdjustFor map[int]error
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{nextID: 1, players: make(map[int]*models.Player), failAdjustFor: make(map[int]error)}
}

func (f *fakePlayerRepo) add(p *models.Player) *models.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.nextID
		f.nextID++
	} else if p.ID >= f.nextID {
		f.nextID = p.ID + 1
	}
	f.players[p.ID] = p
	return p
}

func (f *fakePlayerRepo) Create(ctx context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.players {
		if existing.Email == player.Email {
			return repositories.ErrPlayerEmailConflict
		}
		if existing.Alias == player.Alias {
			return repositories.ErrPlayerAliasConflict
		}
	}
	player.ID = f.nextID
	f.nextID++
	player.CreatedAt = time.Now()
	f.players[player.ID] = player
	return nil
}

func (f *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlayerRepo) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Email == email {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) GetByAlias(ctx context.Context, alias string) (*models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Alias == alias {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrPlayerNotFound
}

func (f *fakePlayerRepo) List(ctx context.Context, filter repositories.ListPlayersFilter) ([]models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Player, 0, len(f.players))
	for _, p := range f.players {
		if filter.Approval != nil && p.Approval != *filter.Approval {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlayerRepo) Update(ctx context.Context, player *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[player.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	copied := *player
	f.players[player.ID] = &copied
	return nil
}

func (f *fakePlayerRepo) UpdateApproval(ctx context.Context, id int, approval models.ApprovalStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Approval = approval
	return nil
}

func (f *fakePlayerRepo) UpdateAvatarKey(ctx context.Context, id int, avatarKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.AvatarKey = avatarKey
	return nil
}

func (f *fakePlayerRepo) AdjustChimucoins(ctx context.Context, exec repositories.SQLExecutor, id int, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failAdjustFor[id]; ok {
		return err
	}
	p, ok := f.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Chimucoins += delta
	return nil
}

func (f *fakePlayerRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(f.players, id)
	return nil
}

func (f *fakePlayerRepo) coins(id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.players[id]; ok {
		return p.Chimucoins
	}
	return 0
}

type fakeTournamentRepo struct {
	mu          sync.Mutex
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]*models.Tournament)}
}

func (f *fakeTournamentRepo) add(t *models.Tournament) *models.Tournament {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == 0 {
		t.ID = f.nextID
		f.nextID++
	} else if t.ID >= f.nextID {
		f.nextID = t.ID + 1
	}
	f.tournaments[t.ID] = t
	return t
}

func (f *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.tournaments {
		if existing.Name == t.Name {
			return repositories.ErrTournamentNameConflict
		}
	}
	t.ID = f.nextID
	f.nextID++
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Tournament, 0, len(f.tournaments))
	for _, t := range f.tournaments {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	copied := *t
	f.tournaments[t.ID] = &copied
	return nil
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeTournamentRepo) UpdateWinners(ctx context.Context, exec repositories.SQLExecutor, id int, winners []models.WinnerEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Winners = winners
	return nil
}

func (f *fakeTournamentRepo) UpdatePhotos(ctx context.Context, id int, photos []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Photos = photos
	return nil
}

func (f *fakeTournamentRepo) UpdateImageKey(ctx context.Context, id int, imageKey *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.ImageKey = imageKey
	return nil
}

// ClaimSlot mirrors the production conditional increment: the capacity check
// and the increment happen under one lock, so racing claims cannot both win
// the last slot.
func (f *fakeTournamentRepo) ClaimSlot(ctx context.Context, exec repositories.SQLExecutor, id int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return false, repositories.ErrTournamentNotFound
	}
	if t.CurrentPlayers >= t.MaxPlayers {
		return false, nil
	}
	t.CurrentPlayers++
	return true, nil
}

func (f *fakeTournamentRepo) ReleaseSlot(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.CurrentPlayers > 0 {
		t.CurrentPlayers--
	}
	return nil
}

func (f *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(f.tournaments, id)
	return nil
}

func (f *fakeTournamentRepo) GetTournamentsForAutoStart(ctx context.Context, exec repositories.SQLExecutor, currentTime time.Time) ([]*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Tournament
	for _, t := range f.tournaments {
		if t.Status == models.StatusInscripcion && !t.Date.After(currentTime) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

type regKey struct {
	playerID     int
	tournamentID int
}

type fakeRegistrationRepo struct {
	mu            sync.Mutex
	nextID        int
	registrations map[regKey]*models.Registration
	players       *fakePlayerRepo

	failScoreFor map[int]error
}

func newFakeRegistrationRepo(players *fakePlayerRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		nextID:        1,
		registrations: make(map[regKey]*models.Registration),
		players:       players,
		failScoreFor:  make(map[int]error),
	}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := regKey{reg.PlayerID, reg.TournamentID}
	if _, ok := f.registrations[key]; ok {
		return repositories.ErrRegistrationConflict
	}
	reg.ID = f.nextID
	f.nextID++
	reg.CreatedAt = time.Now()
	f.registrations[key] = reg
	return nil
}

func (f *fakeRegistrationRepo) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.registrations {
		if reg.ID == id {
			copied := *reg
			return &copied, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (f *fakeRegistrationRepo) FindByPlayerAndTournament(ctx context.Context, playerID, tournamentID int) (*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reg, ok := f.registrations[regKey{playerID, tournamentID}]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (f *fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int, includePlayer bool) ([]*models.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Registration
	for key, reg := range f.registrations {
		if key.tournamentID != tournamentID {
			continue
		}
		copied := *reg
		if includePlayer && f.players != nil {
			if p, ok := f.players.players[key.playerID]; ok {
				playerCopy := *p
				copied.Player = &playerCopy
			}
		}
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRegistrationRepo) UpdateScore(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failScoreFor[playerID]; ok {
		return err
	}
	reg, ok := f.registrations[regKey{playerID, tournamentID}]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Score = score
	return nil
}

func (f *fakeRegistrationRepo) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, reg := range f.registrations {
		if reg.ID == id {
			reg.Status = status
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

func (f *fakeRegistrationRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, playerID, tournamentID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := regKey{playerID, tournamentID}
	if _, ok := f.registrations[key]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(f.registrations, key)
	return nil
}

func (f *fakeRegistrationRepo) score(playerID, tournamentID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reg, ok := f.registrations[regKey{playerID, tournamentID}]; ok {
		return reg.Score
	}
	return 0
}

type fakeStatsRepo struct {
	mu      sync.Mutex
	matches map[int]int
	podiums map[int][]int
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{matches: make(map[int]int), podiums: make(map[int][]int)}
}

func (f *fakeStatsRepo) GetByPlayer(ctx context.Context, playerID int) (*models.PlayerStats, error) {
	return nil, repositories.ErrPlayerStatsNotFound
}

func (f *fakeStatsRepo) IncrementMatches(ctx context.Context, exec repositories.SQLExecutor, playerID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matches[playerID]++
	return nil
}

func (f *fakeStatsRepo) IncrementPodium(ctx context.Context, exec repositories.SQLExecutor, playerID, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.podiums[playerID] = append(f.podiums[playerID], position)
	return nil
}

// fakeLiveService swallows broadcasts; score tests only care that
// persistence and the session log stay in step.
type fakeLiveService struct{}

func (fakeLiveService) GetLiveView(ctx context.Context, tournamentID int) (*LiveView, error) {
	return &LiveView{}, nil
}

func (fakeLiveService) BroadcastLeaderboard(ctx context.Context, tournamentID int) {}
