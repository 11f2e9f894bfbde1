package compensation

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitts-dev/hoops-valuation/internal/models"
	"github.com/stitts-dev/hoops-valuation/pkg/database"
)

// Store persists salary records in the compensation_records table and
// doubles as a Loader for the Index.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Load(ctx context.Context) ([]Record, error) {
	var rows []models.CompensationRecord
	if err := s.db.WithContext(ctx).Order("season DESC, player_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query compensation records: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			PlayerID:   row.PlayerID,
			PlayerName: row.PlayerName,
			Season:     row.Season,
			Salary:     row.Salary,
		})
	}
	return records, nil
}

// Upsert validates and writes records, replacing the salary and name of an
// existing player-season. Nothing is written if any record is malformed.
func (s *Store) Upsert(ctx context.Context, records []Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([]models.CompensationRecord, 0, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, models.CompensationRecord{
			PlayerID:   r.PlayerID,
			PlayerName: r.PlayerName,
			Season:     r.Season,
			Salary:     r.Salary,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}, {Name: "season"}},
			DoUpdates: clause.AssignmentColumns([]string{"player_name", "salary", "updated_at"}),
		}).CreateInBatches(rows, 500).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert compensation records: %w", err)
	}
	return len(rows), nil
}

// DeleteSeason removes every record of one season.
func (s *Store) DeleteSeason(ctx context.Context, season string) (int64, error) {
	res := s.db.WithContext(ctx).Where("season = ?", season).Delete(&models.CompensationRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete season %s: %w", season, res.Error)
	}
	return res.RowsAffected, nil
}

// ReplaceSeasons makes the stored records of every season present in
// records match records exactly, dropping players no longer listed. Other
// seasons are untouched. Nothing is deleted if any record is malformed.
func (s *Store) ReplaceSeasons(ctx context.Context, records []Record) (int64, int, error) {
	var seasons []string
	seen := make(map[string]bool)
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return 0, 0, fmt.Errorf("record %d: %w", i, err)
		}
		if !seen[r.Season] {
			seen[r.Season] = true
			seasons = append(seasons, r.Season)
		}
	}

	var deleted int64
	for _, season := range seasons {
		n, err := s.DeleteSeason(ctx, season)
		if err != nil {
			return deleted, 0, err
		}
		deleted += n
	}

	stored, err := s.Upsert(ctx, records)
	return deleted, stored, err
}
