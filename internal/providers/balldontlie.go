package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/hoops-valuation/internal/valuation"
)

const defaultBallDontLieURL = "https://api.balldontlie.io/v1"

type BallDontLieConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	HistorySeasons    int
	Timeout           time.Duration
}

// BallDontLieClient implements StatsProvider over the BALLDONTLIE API.
// Season totals are rebuilt from season averages times games played.
type BallDontLieClient struct {
	httpClient     *http.Client
	logger         *logrus.Logger
	rateLimiter    *rate.Limiter
	apiKey         string
	baseURL        string
	historySeasons int
}

// NewBallDontLieClient creates a new BALLDONTLIE API client
func NewBallDontLieClient(cfg BallDontLieConfig, logger *logrus.Logger) *BallDontLieClient {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBallDontLieURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HistorySeasons <= 0 {
		cfg.HistorySeasons = valuation.MaxRecentSeasons
	}
	return &BallDontLieClient{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger:         logger,
		rateLimiter:    rate.NewLimiter(limit, 1),
		apiKey:         cfg.APIKey,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		historySeasons: cfg.HistorySeasons,
	}
}

type ballDontLiePlayer struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ballDontLieSeasonAveragesResponse struct {
	Data []ballDontLieSeasonAverage `json:"data"`
}

type ballDontLieSeasonAverage struct {
	PlayerID    int     `json:"player_id"`
	Season      int     `json:"season"`
	GamesPlayed int     `json:"games_played"`
	Min         string  `json:"min"`
	Fgm         float64 `json:"fgm"`
	Fga         float64 `json:"fga"`
	Fg3m        float64 `json:"fg3m"`
	Fg3a        float64 `json:"fg3a"`
	Ftm         float64 `json:"ftm"`
	Fta         float64 `json:"fta"`
	Reb         float64 `json:"reb"`
	Ast         float64 `json:"ast"`
	Stl         float64 `json:"stl"`
	Blk         float64 `json:"blk"`
	Turnover    float64 `json:"turnover"`
	Pts         float64 `json:"pts"`
}

// GetPlayerHistory fetches the player and up to historySeasons seasons of
// averages ending at season. Seasons the player did not play are skipped.
func (c *BallDontLieClient) GetPlayerHistory(ctx context.Context, playerID, season string) (*PlayerHistory, error) {
	if err := valuation.ValidateSeasonID(season); err != nil {
		return nil, err
	}
	startYear, _ := strconv.Atoi(season[:4])

	var player struct {
		Data ballDontLiePlayer `json:"data"`
	}
	if err := c.get(ctx, fmt.Sprintf("/players/%s", playerID), &player); err != nil {
		return nil, err
	}

	history := &PlayerHistory{
		PlayerID:   playerID,
		PlayerName: strings.TrimSpace(player.Data.FirstName + " " + player.Data.LastName),
	}

	for year := startYear; year > startYear-c.historySeasons; year-- {
		var averages ballDontLieSeasonAveragesResponse
		path := fmt.Sprintf("/season_averages?season=%d&player_ids[]=%s", year, playerID)
		if err := c.get(ctx, path, &averages); err != nil {
			return nil, fmt.Errorf("season %d: %w", year, err)
		}
		if len(averages.Data) == 0 {
			continue
		}
		stats, err := seasonTotals(averages.Data[0])
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"component": "balldontlie",
				"player_id": playerID,
				"season":    year,
			}).WithError(err).Warn("Skipping unreadable season averages")
			continue
		}
		history.Seasons = append(history.Seasons, stats)
	}

	c.logger.WithFields(logrus.Fields{
		"component": "balldontlie",
		"player_id": playerID,
		"seasons":   len(history.Seasons),
	}).Debug("Fetched player history")
	return history, nil
}

func (c *BallDontLieClient) get(ctx context.Context, path string, out interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrPlayerNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func seasonTotals(avg ballDontLieSeasonAverage) (valuation.SeasonStats, error) {
	minutes, err := parseMinutes(avg.Min)
	if err != nil {
		return valuation.SeasonStats{}, err
	}
	games := float64(avg.GamesPlayed)
	return valuation.SeasonStats{
		Season:                 fmt.Sprintf("%d-%02d", avg.Season, (avg.Season+1)%100),
		GamesPlayed:            avg.GamesPlayed,
		Minutes:                minutes * games,
		Points:                 avg.Pts * games,
		Assists:                avg.Ast * games,
		Rebounds:               avg.Reb * games,
		Steals:                 avg.Stl * games,
		Blocks:                 avg.Blk * games,
		Turnovers:              avg.Turnover * games,
		FieldGoalsMade:         avg.Fgm * games,
		FieldGoalsAttempted:    avg.Fga * games,
		ThreePointersMade:      avg.Fg3m * games,
		ThreePointersAttempted: avg.Fg3a * games,
		FreeThrowsMade:         avg.Ftm * games,
		FreeThrowsAttempted:    avg.Fta * games,
	}, nil
}

// parseMinutes reads "mm:ss" or a decimal minute count.
func parseMinutes(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(mins)
		if err != nil {
			return 0, fmt.Errorf("invalid minutes %q", s)
		}
		sec, err := strconv.Atoi(secs)
		if err != nil || sec < 0 || sec >= 60 {
			return 0, fmt.Errorf("invalid minutes %q", s)
		}
		return float64(m) + float64(sec)/60, nil
	}
	m, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes %q", s)
	}
	return m, nil
}
