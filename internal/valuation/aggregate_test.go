package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSeasons_RecencyWeights(t *testing.T) {
	seasons := []SeasonStats{
		scaledSeason("2022-23", 0.8),
		scaledSeason("2024-25", 1.2),
		scaledSeason("2023-24", 1.0),
	}

	agg := AggregateSeasons(seasons)

	require.Len(t, agg.Seasons, 3)
	assert.Equal(t, []string{"2024-25", "2023-24", "2022-23"}, seasonIDs(agg.Seasons))
	assert.Equal(t, 0.6, agg.Seasons[0].RecencyWeight)
	assert.Equal(t, 0.3, agg.Seasons[1].RecencyWeight)
	assert.Equal(t, 0.1, agg.Seasons[2].RecencyWeight)
	assert.InDelta(t, 1.0, agg.WeightSum, 1e-9)

	var expected float64
	for _, s := range agg.Seasons {
		expected += s.ImpactScore * s.RecencyWeight
	}
	assert.InDelta(t, expected, agg.Score, 1e-9)
}

func TestAggregateSeasons_Renormalizes(t *testing.T) {
	recent := scaledSeason("2024-25", 1.1)
	previous := scaledSeason("2023-24", 0.9)

	agg := AggregateSeasons([]SeasonStats{recent, previous})

	require.Len(t, agg.Seasons, 2)
	assert.InDelta(t, 0.9, agg.WeightSum, 1e-9)
	assert.InDelta(t, 2.0/3.0, agg.Seasons[0].NormalizedWeight, 1e-9)
	assert.InDelta(t, 1.0/3.0, agg.Seasons[1].NormalizedWeight, 1e-9)

	a := ScoreSeason(recent).ImpactScore
	b := ScoreSeason(previous).ImpactScore
	assert.InDelta(t, (0.6*a+0.3*b)/0.9, agg.Score, 1e-9)
}

func TestAggregateSeasons_SingleSeasonKeepsFullScore(t *testing.T) {
	s := starterSeason("2024-25")

	agg := AggregateSeasons([]SeasonStats{s})

	require.Len(t, agg.Seasons, 1)
	assert.InDelta(t, 1.0, agg.Seasons[0].NormalizedWeight, 1e-9)
	assert.InDelta(t, ScoreSeason(s).ImpactScore, agg.Score, 1e-9)
}

func TestAggregateSeasons_UnqualifiedSeasonsDoNotUseASlot(t *testing.T) {
	injured := starterSeason("2023-24")
	injured.GamesPlayed = 6
	injured.Minutes = 180

	cameo := starterSeason("2021-22")
	cameo.Minutes = 90

	seasons := []SeasonStats{
		starterSeason("2024-25"),
		injured,
		starterSeason("2022-23"),
		cameo,
		starterSeason("2020-21"),
	}

	agg := AggregateSeasons(seasons)

	assert.Equal(t, []string{"2024-25", "2022-23", "2020-21"}, seasonIDs(agg.Seasons))
	assert.Equal(t, []float64{0.6, 0.3, 0.1}, []float64{
		agg.Seasons[0].RecencyWeight,
		agg.Seasons[1].RecencyWeight,
		agg.Seasons[2].RecencyWeight,
	})
	require.Len(t, agg.Skipped, 2)
	assert.Equal(t, "2023-24", agg.Skipped[0].Season)
	assert.Equal(t, skipTooFewGames, agg.Skipped[0].SkipReason)
	assert.Equal(t, "2021-22", agg.Skipped[1].Season)
	assert.Equal(t, skipTooFewMinutes, agg.Skipped[1].SkipReason)
}

func TestAggregateSeasons_OnlyThreeMostRecent(t *testing.T) {
	seasons := []SeasonStats{
		starterSeason("2021-22"),
		starterSeason("2022-23"),
		starterSeason("2023-24"),
		starterSeason("2024-25"),
	}

	agg := AggregateSeasons(seasons)

	assert.Equal(t, []string{"2024-25", "2023-24", "2022-23"}, seasonIDs(agg.Seasons))
	require.Len(t, agg.Skipped, 1)
	assert.Equal(t, "2021-22", agg.Skipped[0].Season)
	assert.True(t, agg.Skipped[0].Qualified)
	assert.Equal(t, skipOutsideWindow, agg.Skipped[0].SkipReason)
}

func TestAggregateSeasons_NoQualifyingSeasons(t *testing.T) {
	s := starterSeason("2024-25")
	s.GamesPlayed = 3

	agg := AggregateSeasons([]SeasonStats{s})
	assert.Equal(t, 0.0, agg.Score)
	assert.Empty(t, agg.Seasons)
	assert.Len(t, agg.Skipped, 1)

	empty := AggregateSeasons(nil)
	assert.Equal(t, 0.0, empty.Score)
	assert.Equal(t, 0.0, empty.WeightSum)
}

func TestAggregateSeasons_DoesNotReorderInput(t *testing.T) {
	seasons := []SeasonStats{starterSeason("2022-23"), starterSeason("2024-25")}

	AggregateSeasons(seasons)

	assert.Equal(t, "2022-23", seasons[0].Season)
}

func seasonIDs(entries []SeasonContribution) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Season)
	}
	return ids
}
