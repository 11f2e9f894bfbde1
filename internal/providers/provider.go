package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/stitts-dev/hoops-valuation/internal/valuation"
)

var ErrPlayerNotFound = errors.New("player not found")

// StatsProvider supplies a player's season totals up to and including a
// target season.
type StatsProvider interface {
	GetPlayerHistory(ctx context.Context, playerID, season string) (*PlayerHistory, error)
}

// PlayerHistory is one player's season totals as delivered by a provider.
// Age is the player's age in the target season; zero means unknown.
type PlayerHistory struct {
	PlayerID   string                  `json:"player_id"`
	PlayerName string                  `json:"player_name,omitempty"`
	Age        int                     `json:"age,omitempty"`
	Seasons    []valuation.SeasonStats `json:"seasons"`
}

// Input converts the history into an engine input valued as of season.
func (h *PlayerHistory) Input(season string) valuation.PlayerInput {
	return valuation.PlayerInput{
		PlayerID: h.PlayerID,
		Season:   season,
		Age:      h.Age,
		Seasons:  h.Seasons,
	}
}

// ReadHistories decodes a JSON array of player histories.
func ReadHistories(r io.Reader) ([]PlayerHistory, error) {
	var histories []PlayerHistory
	if err := json.NewDecoder(r).Decode(&histories); err != nil {
		return nil, fmt.Errorf("failed to decode player histories: %w", err)
	}
	for i, h := range histories {
		if h.PlayerID == "" {
			return nil, fmt.Errorf("history %d: %w", i, valuation.ErrMissingPlayerID)
		}
	}
	return histories, nil
}
