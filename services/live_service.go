package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chimucheck/backend/models"
	"github.com/chimucheck/backend/repositories"
	"github.com/chimucheck/backend/scoring"
	"github.com/chimucheck/backend/storage"
	"golang.org/x/sync/errgroup"
)

// LiveEntry is one row of the public scoreboard payload. Score and medal are
// omitted while registration is still open.
type LiveEntry struct {
	Rank      int     `json:"rank,omitempty"`
	PlayerID  int     `json:"player_id"`
	Alias     string  `json:"alias"`
	Name      string  `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Score     *int    `json:"score,omitempty"`
	Medal     string  `json:"medal,omitempty"`
}

// LiveView is the payload served to the polling scoreboard and projector
// clients, and pushed over the WebSocket hub on score changes.
type LiveView struct {
	Tournament *models.Tournament `json:"tournament"`
	Entries    []LiveEntry        `json:"entries"`
	ShowScores bool               `json:"show_scores"`
	ShowPodium bool               `json:"show_podium"`
}

type LiveService interface {
	GetLiveView(ctx context.Context, tournamentID int) (*LiveView, error)
	BroadcastLeaderboard(ctx context.Context, tournamentID int)
}

type liveService struct {
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	uploader         storage.FileUploader
	hub              *scoring.Hub
	logger           *slog.Logger
}

func NewLiveService(
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	uploader storage.FileUploader,
	hub *scoring.Hub,
	logger *slog.Logger,
) LiveService {
	return &liveService{
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		uploader:         uploader,
		hub:              hub,
		logger:           logger,
	}
}

// GetLiveView assembles the ranked scoreboard for one tournament. Tournament
// and registrations are fetched in parallel. Ranking and medal styling apply
// only once the tournament is in progress or finished; during registration
// the list is alphabetical with no scores.
func (s *liveService) GetLiveView(ctx context.Context, tournamentID int) (*LiveView, error) {
	var (
		tournament    *models.Tournament
		registrations []*models.Registration
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.tournamentRepo.GetByID(gCtx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		tournament = t
		return nil
	})
	g.Go(func() error {
		regs, err := s.registrationRepo.ListByTournament(gCtx, tournamentID, true)
		if err != nil {
			return err
		}
		registrations = regs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	populateTournamentImageURL(tournament, s.uploader)

	playersByID := make(map[int]*models.Player, len(registrations))
	for _, reg := range registrations {
		if reg.Player != nil {
			reg.Player.PasswordHash = ""
			populatePlayerDetails(reg.Player, s.uploader)
			playersByID[reg.PlayerID] = reg.Player
		}
	}

	view := &LiveView{
		Tournament: tournament,
		ShowScores: !tournament.RegistrationOpen(),
		ShowPodium: tournament.Finished(),
	}

	entries := entriesFromRegistrations(registrations)
	if !view.ShowScores {
		for _, e := range scoring.SortAlphabetical(entries) {
			view.Entries = append(view.Entries, liveEntry(e.PlayerID, e.Alias, playersByID, nil, 0))
		}
		return view, nil
	}

	for _, ranked := range scoring.Rank(entries) {
		score := ranked.Score
		view.Entries = append(view.Entries, liveEntry(ranked.PlayerID, ranked.Alias, playersByID, &score, ranked.Rank))
	}
	return view, nil
}

// BroadcastLeaderboard pushes the current view to the tournament's WebSocket
// room. Failures are logged; polling clients will catch up regardless.
func (s *liveService) BroadcastLeaderboard(ctx context.Context, tournamentID int) {
	view, err := s.GetLiveView(ctx, tournamentID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to build live view for broadcast",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	room := tournamentRoom(tournamentID)
	s.hub.BroadcastToRoom(room, scoring.WebSocketMessage{
		Type:    scoring.EventLeaderboardUpdated,
		Payload: view,
		RoomID:  room,
	})
}

func liveEntry(playerID int, alias string, players map[int]*models.Player, score *int, rank int) LiveEntry {
	entry := LiveEntry{
		Rank:     rank,
		PlayerID: playerID,
		Alias:    alias,
		Score:    score,
	}
	if p, ok := players[playerID]; ok {
		entry.Name = p.Name
		entry.AvatarURL = p.AvatarURL
	}
	if score != nil {
		switch rank {
		case 1:
			entry.Medal = "gold"
		case 2:
			entry.Medal = "silver"
		case 3:
			entry.Medal = "bronze"
		}
	}
	return entry
}
