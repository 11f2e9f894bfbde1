package valuation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNegativeStat    = errors.New("negative counting stat")
	ErrInvalidStat     = errors.New("non-finite stat value")
	ErrInvalidSeason   = errors.New("invalid season identifier")
	ErrInvalidAge      = errors.New("invalid age")
	ErrMissingPlayerID = errors.New("missing player id")
)

var seasonPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ValidateSeasonID checks that a season id has the sortable "YYYY-YY" form
// and that the second half is the year after the first.
func ValidateSeasonID(season string) error {
	m := seasonPattern.FindStringSubmatch(season)
	if m == nil {
		return fmt.Errorf("%q: %w", season, ErrInvalidSeason)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if (start+1)%100 != end {
		return fmt.Errorf("%q does not span consecutive years: %w", season, ErrInvalidSeason)
	}
	return nil
}

// Validate rejects structurally invalid season rows.
func (s SeasonStats) Validate() error {
	if err := ValidateSeasonID(s.Season); err != nil {
		return err
	}
	if s.GamesPlayed < 0 {
		return fmt.Errorf("season %s: games_played = %d: %w", s.Season, s.GamesPlayed, ErrNegativeStat)
	}
	if s.Age != nil && *s.Age < 0 {
		return fmt.Errorf("season %s: age = %d: %w", s.Season, *s.Age, ErrInvalidAge)
	}

	fields := []struct {
		name  string
		value float64
	}{
		{"minutes", s.Minutes},
		{"points", s.Points},
		{"assists", s.Assists},
		{"rebounds", s.Rebounds},
		{"steals", s.Steals},
		{"blocks", s.Blocks},
		{"turnovers", s.Turnovers},
		{"field_goals_made", s.FieldGoalsMade},
		{"field_goals_attempted", s.FieldGoalsAttempted},
		{"three_pointers_made", s.ThreePointersMade},
		{"three_pointers_attempted", s.ThreePointersAttempted},
		{"free_throws_made", s.FreeThrowsMade},
		{"free_throws_attempted", s.FreeThrowsAttempted},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("season %s: %s: %w", s.Season, f.name, ErrInvalidStat)
		}
		if f.value < 0 {
			return fmt.Errorf("season %s: %s = %v: %w", s.Season, f.name, f.value, ErrNegativeStat)
		}
	}
	return nil
}

// preparedHistory is a validated history restricted to the target season.
type preparedHistory struct {
	seasons []SeasonStats // unique season ids, most recent first
	merged  []string
	ignored []string
}

// prepareHistory validates every row, merges rows that share a season id
// and drops seasons after the target season.
func prepareHistory(rows []SeasonStats, target string) (preparedHistory, error) {
	var out preparedHistory

	bySeason := make(map[string]*SeasonStats, len(rows))
	order := make([]string, 0, len(rows))
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return out, fmt.Errorf("row %d: %w", i, err)
		}
		existing, ok := bySeason[row.Season]
		if !ok {
			r := row
			bySeason[row.Season] = &r
			order = append(order, row.Season)
			continue
		}
		mergeSeason(existing, row)
		out.merged = appendUnique(out.merged, row.Season)
	}

	for _, season := range order {
		if season > target {
			out.ignored = append(out.ignored, season)
			continue
		}
		out.seasons = append(out.seasons, *bySeason[season])
	}
	sortMostRecentFirst(out.seasons)
	sort.Sort(sort.Reverse(sort.StringSlice(out.ignored)))
	sort.Sort(sort.Reverse(sort.StringSlice(out.merged)))
	return out, nil
}

func mergeSeason(dst *SeasonStats, src SeasonStats) {
	dst.GamesPlayed += src.GamesPlayed
	dst.Minutes += src.Minutes
	dst.Points += src.Points
	dst.Assists += src.Assists
	dst.Rebounds += src.Rebounds
	dst.Steals += src.Steals
	dst.Blocks += src.Blocks
	dst.Turnovers += src.Turnovers
	dst.FieldGoalsMade += src.FieldGoalsMade
	dst.FieldGoalsAttempted += src.FieldGoalsAttempted
	dst.ThreePointersMade += src.ThreePointersMade
	dst.ThreePointersAttempted += src.ThreePointersAttempted
	dst.FreeThrowsMade += src.FreeThrowsMade
	dst.FreeThrowsAttempted += src.FreeThrowsAttempted
	switch {
	case dst.Team == "":
		dst.Team = src.Team
	case src.Team != "" && !slices.Contains(strings.Split(dst.Team, "/"), src.Team):
		dst.Team += "/" + src.Team
	}
	if src.Age != nil && (dst.Age == nil || *src.Age > *dst.Age) {
		age := *src.Age
		dst.Age = &age
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// sortMostRecentFirst orders seasons by descending id. "YYYY-YY" ids sort
// chronologically as strings.
func sortMostRecentFirst(seasons []SeasonStats) {
	sort.SliceStable(seasons, func(i, j int) bool {
		return seasons[i].Season > seasons[j].Season
	})
}
