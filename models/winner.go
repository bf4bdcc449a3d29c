package models

// WinnerEntry is one element of the winners JSON blob persisted on a
// finished tournament. Position 0 means the player received chimucoins
// without a podium place; positions 1-3 are the podium and must each have
// at most one owner.
type WinnerEntry struct {
	Position    int    `json:"position"`
	PlayerID    int    `json:"playerId"`
	PlayerAlias string `json:"playerAlias"`
	Chimucoins  int    `json:"chimucoins"`
}
