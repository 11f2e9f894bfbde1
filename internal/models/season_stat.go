package models

import (
	"time"
)

// PlayerSeasonStat stores a player's cumulative totals for one season.
// A traded player may have one row per team.
type PlayerSeasonStat struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	PlayerID               string    `gorm:"index:idx_stat_player_season;not null" json:"player_id"`
	PlayerName             string    `json:"player_name"`
	Team                   string    `gorm:"index:idx_stat_player_season" json:"team"`
	Season                 string    `gorm:"index:idx_stat_player_season;index;not null" json:"season"`
	Age                    *int      `json:"age,omitempty"`
	GamesPlayed            int       `gorm:"not null" json:"games_played"`
	Minutes                float64   `gorm:"not null" json:"minutes"`
	Points                 float64   `json:"points"`
	Assists                float64   `json:"assists"`
	Rebounds               float64   `json:"rebounds"`
	Steals                 float64   `json:"steals"`
	Blocks                 float64   `json:"blocks"`
	Turnovers              float64   `json:"turnovers"`
	FieldGoalsMade         float64   `json:"field_goals_made"`
	FieldGoalsAttempted    float64   `json:"field_goals_attempted"`
	ThreePointersMade      float64   `json:"three_pointers_made"`
	ThreePointersAttempted float64   `json:"three_pointers_attempted"`
	FreeThrowsMade         float64   `json:"free_throws_made"`
	FreeThrowsAttempted    float64   `json:"free_throws_attempted"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PlayerSeasonStat) TableName() string {
	return "player_season_stats"
}

// AllModels lists every table the service owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&CompensationRecord{},
		&PlayerSeasonStat{},
	}
}
