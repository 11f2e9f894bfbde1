package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/hoops-valuation/internal/valuation"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newBallDontLieServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/players/237":
			io.WriteString(w, `{"data":{"id":237,"first_name":"Test","last_name":"Forward"}}`)
		case r.URL.Path == "/players/999":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/season_averages":
			switch r.URL.Query().Get("season") {
			case "2024":
				io.WriteString(w, `{"data":[{"player_id":237,"season":2024,"games_played":70,"min":"34:30",
					"fgm":8.5,"fga":17.0,"fg3m":2.0,"fg3a":5.5,"ftm":5.0,"fta":6.0,"reb":7.5,"ast":5.0,
					"stl":1.2,"blk":0.6,"turnover":2.8,"pts":24.0}]}`)
			case "2023":
				io.WriteString(w, `{"data":[{"player_id":237,"season":2023,"games_played":60,"min":"31.5",
					"fgm":7.0,"fga":15.0,"fg3m":1.5,"fg3a":4.5,"ftm":4.0,"fta":5.0,"reb":6.5,"ast":4.0,
					"stl":1.0,"blk":0.5,"turnover":2.5,"pts":19.5}]}`)
			case "2022":
				io.WriteString(w, `{"data":[{"player_id":237,"season":2022,"games_played":50,"min":"bad"}]}`)
			default:
				io.WriteString(w, `{"data":[]}`)
			}
		case r.URL.Path == "/fail":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(url string, seasons int) *BallDontLieClient {
	return NewBallDontLieClient(BallDontLieConfig{
		APIKey:         "test-key",
		BaseURL:        url,
		HistorySeasons: seasons,
		Timeout:        5 * time.Second,
	}, quietLogger())
}

func TestBallDontLie_GetPlayerHistory(t *testing.T) {
	server := newBallDontLieServer(t)
	defer server.Close()

	client := newTestClient(server.URL, 4)
	history, err := client.GetPlayerHistory(context.Background(), "237", "2024-25")
	require.NoError(t, err)

	assert.Equal(t, "237", history.PlayerID)
	assert.Equal(t, "Test Forward", history.PlayerName)
	assert.Zero(t, history.Age)
	require.Len(t, history.Seasons, 2, "unreadable and empty seasons are skipped")

	recent := history.Seasons[0]
	assert.Equal(t, "2024-25", recent.Season)
	assert.Equal(t, 70, recent.GamesPlayed)
	assert.InDelta(t, 34.5*70, recent.Minutes, 1e-9)
	assert.InDelta(t, 24.0*70, recent.Points, 1e-9)
	assert.InDelta(t, 2.8*70, recent.Turnovers, 1e-9)
	assert.NoError(t, recent.Validate())

	previous := history.Seasons[1]
	assert.Equal(t, "2023-24", previous.Season)
	assert.InDelta(t, 31.5*60, previous.Minutes, 1e-9)
}

func TestBallDontLie_NotFound(t *testing.T) {
	server := newBallDontLieServer(t)
	defer server.Close()

	_, err := newTestClient(server.URL, 2).GetPlayerHistory(context.Background(), "999", "2024-25")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestBallDontLie_RejectsBadSeason(t *testing.T) {
	_, err := newTestClient("http://unused.invalid", 2).GetPlayerHistory(context.Background(), "237", "2024")
	assert.ErrorIs(t, err, valuation.ErrInvalidSeason)
}

func TestBallDontLie_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 2).GetPlayerHistory(context.Background(), "237", "2024-25")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestBallDontLie_CanceledContext(t *testing.T) {
	server := newBallDontLieServer(t)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(server.URL, 2).GetPlayerHistory(ctx, "237", "2024-25")
	assert.Error(t, err)
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"34:30", 34.5, false},
		{"12:00", 12, false},
		{"31.25", 31.25, false},
		{"", 0, false},
		{"34:75", 0, true},
		{"abc", 0, true},
		{"x:10", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseMinutes(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestReadHistories(t *testing.T) {
	input := `[{"player_id":"p1","player_name":"One","age":25,"seasons":[{"season":"2024-25","games_played":10,"minutes":300}]}]`

	histories, err := ReadHistories(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, histories, 1)

	in := histories[0].Input("2024-25")
	assert.Equal(t, "p1", in.PlayerID)
	assert.Equal(t, 25, in.Age)
	assert.Len(t, in.Seasons, 1)

	_, err = ReadHistories(strings.NewReader(`[{"seasons":[]}]`))
	assert.ErrorIs(t, err, valuation.ErrMissingPlayerID)

	_, err = ReadHistories(strings.NewReader(`{`))
	assert.Error(t, err)
}
