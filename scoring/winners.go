package scoring

import (
	"fmt"

	"github.com/chimucheck/backend/models"
)

// PodiumPositions is the number of podium places a tournament awards.
const PodiumPositions = 3

// AutoAssign fills podium positions 1-3 from the top of a ranking, keeping
// chimucoin amounts already entered for those players. Entries for players
// outside the podium survive only if they carry coins (position 0).
func AutoAssign(ranked []RankedEntry, current []models.WinnerEntry) []models.WinnerEntry {
	coinsByPlayer := make(map[int]int, len(current))
	for _, w := range current {
		coinsByPlayer[w.PlayerID] = w.Chimucoins
	}

	result := make([]models.WinnerEntry, 0, len(current))
	podium := make(map[int]bool, PodiumPositions)

	for i, e := range ranked {
		if i >= PodiumPositions {
			break
		}
		result = append(result, models.WinnerEntry{
			Position:    i + 1,
			PlayerID:    e.PlayerID,
			PlayerAlias: e.Alias,
			Chimucoins:  coinsByPlayer[e.PlayerID],
		})
		podium[e.PlayerID] = true
	}

	// Keep non-podium reward recipients.
	for _, w := range current {
		if !podium[w.PlayerID] && w.Chimucoins > 0 {
			w.Position = 0
			result = append(result, w)
		}
	}
	return result
}

// TogglePosition assigns a podium position to a player, or clears it when the
// player already holds it. Assigning a position held by someone else moves it:
// a position has at most one owner at any time. A player demoted from the
// podium keeps their entry only if they still carry coins.
func TogglePosition(current []models.WinnerEntry, position, playerID int, alias string) ([]models.WinnerEntry, error) {
	if position < 1 || position > PodiumPositions {
		return nil, fmt.Errorf("podium position must be between 1 and %d, got %d", PodiumPositions, position)
	}

	result := make([]models.WinnerEntry, 0, len(current)+1)
	var target *models.WinnerEntry

	for _, w := range current {
		w := w
		if w.PlayerID == playerID {
			target = &w
			continue
		}
		if w.Position == position {
			// Previous owner loses the position; drop the entry unless
			// they keep a coin reward.
			w.Position = 0
			if w.Chimucoins > 0 {
				result = append(result, w)
			}
			continue
		}
		result = append(result, w)
	}

	switch {
	case target == nil:
		result = append(result, models.WinnerEntry{
			Position:    position,
			PlayerID:    playerID,
			PlayerAlias: alias,
		})
	case target.Position == position:
		// Toggling off.
		target.Position = 0
		if target.Chimucoins > 0 {
			result = append(result, *target)
		}
	default:
		target.Position = position
		result = append(result, *target)
	}

	return result, nil
}

// ValidateWinners checks the single-owner-per-position invariant and the
// position range before the list is persisted.
func ValidateWinners(winners []models.WinnerEntry) error {
	seenPosition := make(map[int]int, PodiumPositions)
	seenPlayer := make(map[int]bool, len(winners))

	for _, w := range winners {
		if w.Position < 0 || w.Position > PodiumPositions {
			return fmt.Errorf("invalid podium position %d for player %d", w.Position, w.PlayerID)
		}
		if seenPlayer[w.PlayerID] {
			return fmt.Errorf("player %d appears more than once in winners", w.PlayerID)
		}
		seenPlayer[w.PlayerID] = true
		if w.Position == 0 {
			continue
		}
		if other, taken := seenPosition[w.Position]; taken {
			return fmt.Errorf("position %d assigned to both player %d and player %d", w.Position, other, w.PlayerID)
		}
		seenPosition[w.Position] = w.PlayerID
	}
	return nil
}
