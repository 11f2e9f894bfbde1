package compensation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/stitts-dev/hoops-valuation/internal/valuation"
)

var ErrMalformedRecord = errors.New("malformed compensation record")

// Record is one row of the external salary feed.
type Record struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Season     string `json:"season"`
	Salary     int64  `json:"salary"`
}

// Validate rejects rows that would make a lookup silently wrong. The
// display name is informational and may be empty.
func (r Record) Validate() error {
	if r.PlayerID == "" {
		return fmt.Errorf("%w: missing player_id", ErrMalformedRecord)
	}
	if r.Season == "" {
		return fmt.Errorf("%w: player %s: missing season", ErrMalformedRecord, r.PlayerID)
	}
	if err := valuation.ValidateSeasonID(r.Season); err != nil {
		return fmt.Errorf("%w: player %s: %v", ErrMalformedRecord, r.PlayerID, err)
	}
	if r.Salary < 0 {
		return fmt.Errorf("%w: player %s season %s: negative salary %d", ErrMalformedRecord, r.PlayerID, r.Season, r.Salary)
	}
	return nil
}

type key struct {
	playerID string
	season   string
}

// Table is an immutable salary index keyed by (player id, season). It is
// safe for concurrent reads.
type Table struct {
	records map[key]Record
	builtAt time.Time
}

// NewTable validates and indexes records. When two records share a key the
// later one wins.
func NewTable(records []Record) (*Table, error) {
	t := &Table{
		records: make(map[key]Record, len(records)),
		builtAt: time.Now().UTC(),
	}
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		t.records[key{r.PlayerID, r.Season}] = r
	}
	return t, nil
}

// Salary implements valuation.CompensationLookup. A nil table knows no
// salaries.
func (t *Table) Salary(playerID, season string) (float64, bool) {
	r, ok := t.Lookup(playerID, season)
	if !ok {
		return 0, false
	}
	return float64(r.Salary), true
}

// Lookup returns the full record for a player-season.
func (t *Table) Lookup(playerID, season string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	r, ok := t.records[key{playerID, season}]
	return r, ok
}

// Len returns the number of indexed player-seasons.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// BuiltAt returns when the table was built.
func (t *Table) BuiltAt() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.builtAt
}

// Season returns every record of one season ordered by player id.
func (t *Table) Season(season string) []Record {
	if t == nil {
		return nil
	}
	var out []Record
	for k, r := range t.records {
		if k.season == season {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}
