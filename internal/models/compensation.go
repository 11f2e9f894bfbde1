package models

import (
	"time"
)

// CompensationRecord is one player's salary for one season.
type CompensationRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlayerID   string    `gorm:"uniqueIndex:idx_player_season;not null" json:"player_id"`
	PlayerName string    `json:"player_name"`
	Season     string    `gorm:"uniqueIndex:idx_player_season;index;not null" json:"season"`
	Salary     int64     `gorm:"not null" json:"salary"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CompensationRecord) TableName() string {
	return "compensation_records"
}
