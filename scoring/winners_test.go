package scoring

import (
	"testing"

	"github.com/chimucheck/backend/models"
)

func TestAutoAssignFillsTopThree(t *testing.T) {
	ranked := Rank([]Entry{
		{PlayerID: 1, Alias: "ana", Score: 100},
		{PlayerID: 2, Alias: "bruno", Score: 80},
		{PlayerID: 3, Alias: "carla", Score: 60},
		{PlayerID: 4, Alias: "diego", Score: 40},
	})

	winners := AutoAssign(ranked, nil)

	if len(winners) != 3 {
		t.Fatalf("expected 3 winners, got %d", len(winners))
	}
	want := []struct {
		position int
		playerID int
	}{{1, 1}, {2, 2}, {3, 3}}
	for i, w := range want {
		if winners[i].Position != w.position || winners[i].PlayerID != w.playerID {
			t.Errorf("winner %d: got position %d player %d, want position %d player %d",
				i, winners[i].Position, winners[i].PlayerID, w.position, w.playerID)
		}
	}
}

func TestAutoAssignKeepsCoinAmounts(t *testing.T) {
	ranked := Rank([]Entry{
		{PlayerID: 1, Alias: "ana", Score: 100},
		{PlayerID: 2, Alias: "bruno", Score: 80},
	})
	current := []models.WinnerEntry{
		{Position: 1, PlayerID: 2, PlayerAlias: "bruno", Chimucoins: 500},
		{Position: 0, PlayerID: 9, PlayerAlias: "nora", Chimucoins: 50},
	}

	winners := AutoAssign(ranked, current)

	var brunoCoins, noraCoins int
	for _, w := range winners {
		switch w.PlayerID {
		case 2:
			brunoCoins = w.Chimucoins
			if w.Position != 2 {
				t.Errorf("bruno: got position %d, want 2", w.Position)
			}
		case 9:
			noraCoins = w.Chimucoins
			if w.Position != 0 {
				t.Errorf("nora: got position %d, want 0", w.Position)
			}
		}
	}
	if brunoCoins != 500 {
		t.Errorf("bruno coins: got %d, want 500", brunoCoins)
	}
	if noraCoins != 50 {
		t.Errorf("nora's coin-only entry should survive, got %d coins", noraCoins)
	}
}

func TestTogglePositionAssignsAndMoves(t *testing.T) {
	winners, err := TogglePosition(nil, 1, 7, "ana")
	if err != nil {
		t.Fatal(err)
	}
	if len(winners) != 1 || winners[0].Position != 1 || winners[0].PlayerID != 7 {
		t.Fatalf("unexpected winners after first toggle: %+v", winners)
	}

	// Assigning the same position to another player moves it: single owner.
	winners, err = TogglePosition(winners, 1, 8, "bruno")
	if err != nil {
		t.Fatal(err)
	}
	if len(winners) != 1 {
		t.Fatalf("expected previous owner without coins to be dropped, got %+v", winners)
	}
	if winners[0].PlayerID != 8 || winners[0].Position != 1 {
		t.Errorf("got %+v, want player 8 at position 1", winners[0])
	}
}

func TestTogglePositionOffKeepsCoinRecipients(t *testing.T) {
	current := []models.WinnerEntry{
		{Position: 1, PlayerID: 7, PlayerAlias: "ana", Chimucoins: 300},
	}

	winners, err := TogglePosition(current, 1, 7, "ana")
	if err != nil {
		t.Fatal(err)
	}

	if len(winners) != 1 {
		t.Fatalf("expected coin recipient to survive demotion, got %+v", winners)
	}
	if winners[0].Position != 0 || winners[0].Chimucoins != 300 {
		t.Errorf("got %+v, want position 0 with 300 coins", winners[0])
	}
}

func TestTogglePositionRejectsOutOfRange(t *testing.T) {
	if _, err := TogglePosition(nil, 0, 7, "ana"); err == nil {
		t.Error("expected error for position 0")
	}
	if _, err := TogglePosition(nil, 4, 7, "ana"); err == nil {
		t.Error("expected error for position 4")
	}
}

func TestValidateWinners(t *testing.T) {
	tests := []struct {
		name    string
		winners []models.WinnerEntry
		wantErr bool
	}{
		{
			name: "valid podium",
			winners: []models.WinnerEntry{
				{Position: 1, PlayerID: 1},
				{Position: 2, PlayerID: 2},
				{Position: 0, PlayerID: 3, Chimucoins: 50},
			},
		},
		{
			name: "duplicate position",
			winners: []models.WinnerEntry{
				{Position: 1, PlayerID: 1},
				{Position: 1, PlayerID: 2},
			},
			wantErr: true,
		},
		{
			name: "duplicate player",
			winners: []models.WinnerEntry{
				{Position: 1, PlayerID: 1},
				{Position: 2, PlayerID: 1},
			},
			wantErr: true,
		},
		{
			name: "position out of range",
			winners: []models.WinnerEntry{
				{Position: 4, PlayerID: 1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWinners(tt.winners)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWinners() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
