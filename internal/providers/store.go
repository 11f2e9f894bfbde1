package providers

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/stitts-dev/hoops-valuation/internal/models"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/database"
)

// SeasonStatsStore reads and writes the player_season_stats table.
type SeasonStatsStore struct {
	db *database.DB
}

func NewSeasonStatsStore(db *database.DB) *SeasonStatsStore {
	return &SeasonStatsStore{db: db}
}

// GetPlayerHistory returns every stored row for the player up to season.
// A traded player's per-team rows are returned as-is.
func (s *SeasonStatsStore) GetPlayerHistory(ctx context.Context, playerID, season string) (*PlayerHistory, error) {
	var rows []models.PlayerSeasonStat
	err := s.db.WithContext(ctx).
		Where("player_id = ? AND season <= ?", playerID, season).
		Order("season DESC, team").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query season stats: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrPlayerNotFound
	}

	history := &PlayerHistory{
		PlayerID:   playerID,
		PlayerName: rows[0].PlayerName,
		Seasons:    make([]valuation.SeasonStats, 0, len(rows)),
	}
	for _, row := range rows {
		history.Seasons = append(history.Seasons, toSeasonStats(row))
	}
	return history, nil
}

// ListPlayers returns the ids of every player with a row in season.
func (s *SeasonStatsStore) ListPlayers(ctx context.Context, season string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&models.PlayerSeasonStat{}).
		Where("season = ?", season).
		Distinct().
		Order("player_id").
		Pluck("player_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list players for %s: %w", season, err)
	}
	return ids, nil
}

// SaveHistory replaces the stored rows of every season present in the
// history.
func (s *SeasonStatsStore) SaveHistory(ctx context.Context, h PlayerHistory) error {
	seasons := make([]string, 0, len(h.Seasons))
	rows := make([]models.PlayerSeasonStat, 0, len(h.Seasons))
	for _, st := range h.Seasons {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("player %s: %w", h.PlayerID, err)
		}
		seasons = append(seasons, st.Season)
		rows = append(rows, fromSeasonStats(h, st))
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("player_id = ? AND season IN ?", h.PlayerID, seasons).
			Delete(&models.PlayerSeasonStat{}).Error; err != nil {
			return fmt.Errorf("failed to clear seasons for %s: %w", h.PlayerID, err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to save seasons for %s: %w", h.PlayerID, err)
		}
		return nil
	})
}

func toSeasonStats(row models.PlayerSeasonStat) valuation.SeasonStats {
	return valuation.SeasonStats{
		Season:                 row.Season,
		Team:                   row.Team,
		GamesPlayed:            row.GamesPlayed,
		Minutes:                row.Minutes,
		Points:                 row.Points,
		Assists:                row.Assists,
		Rebounds:               row.Rebounds,
		Steals:                 row.Steals,
		Blocks:                 row.Blocks,
		Turnovers:              row.Turnovers,
		FieldGoalsMade:         row.FieldGoalsMade,
		FieldGoalsAttempted:    row.FieldGoalsAttempted,
		ThreePointersMade:      row.ThreePointersMade,
		ThreePointersAttempted: row.ThreePointersAttempted,
		FreeThrowsMade:         row.FreeThrowsMade,
		FreeThrowsAttempted:    row.FreeThrowsAttempted,
		Age:                    row.Age,
	}
}

func fromSeasonStats(h PlayerHistory, st valuation.SeasonStats) models.PlayerSeasonStat {
	return models.PlayerSeasonStat{
		PlayerID:               h.PlayerID,
		PlayerName:             h.PlayerName,
		Team:                   st.Team,
		Season:                 st.Season,
		Age:                    st.Age,
		GamesPlayed:            st.GamesPlayed,
		Minutes:                st.Minutes,
		Points:                 st.Points,
		Assists:                st.Assists,
		Rebounds:               st.Rebounds,
		Steals:                 st.Steals,
		Blocks:                 st.Blocks,
		Turnovers:              st.Turnovers,
		FieldGoalsMade:         st.FieldGoalsMade,
		FieldGoalsAttempted:    st.FieldGoalsAttempted,
		ThreePointersMade:      st.ThreePointersMade,
		ThreePointersAttempted: st.ThreePointersAttempted,
		FreeThrowsMade:         st.FreeThrowsMade,
		FreeThrowsAttempted:    st.FreeThrowsAttempted,
	}
}
