package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/hoops-valuation/internal/compensation"
	"github.com/stitts-dev/hoops-valuation/internal/providers"
	"github.com/stitts-dev/hoops-valuation/internal/valuation"
	"github.com/stitts-dev/hoops-valuation/pkg/logger"
)

type options struct {
	histories string
	salaries  string
	season    string
	workers   int
	out       string
}

func main() {
	// Parse flags
	var opts options
	flag.StringVar(&opts.histories, "histories", "", "JSON file with an array of player histories")
	flag.StringVar(&opts.salaries, "salaries", "", "CSV file with player_id,season,salary columns")
	flag.StringVar(&opts.season, "season", "", "Season to value as of (e.g. 2024-25); defaults to each history's own")
	flag.IntVar(&opts.workers, "workers", 0, "Parallel valuations (0 = number of CPUs)")
	flag.StringVar(&opts.out, "out", "", "Write results to this file instead of stdout")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log := logger.InitLogger(*logLevel, false)

	if opts.histories == "" || opts.salaries == "" {
		fmt.Fprintln(os.Stderr, "Error: --histories and --salaries are required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var w io.Writer = os.Stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		w = f
	}

	if err := run(ctx, opts, w, log); err != nil {
		log.Errorf("Valuation failed: %v", err)
		os.Exit(1)
	}
}

// run values every history in one batch so each stock index ranks against
// the rest of the file.
func run(ctx context.Context, opts options, w io.Writer, log *logrus.Logger) error {
	if opts.season != "" {
		if err := valuation.ValidateSeasonID(opts.season); err != nil {
			return err
		}
	}

	f, err := os.Open(opts.histories)
	if err != nil {
		return fmt.Errorf("failed to open histories: %w", err)
	}
	defer f.Close()

	histories, err := providers.ReadHistories(f)
	if err != nil {
		return err
	}
	if len(histories) == 0 {
		return errors.New("no player histories to value")
	}

	records, err := compensation.NewCSVLoader(opts.salaries).Load(ctx)
	if err != nil {
		return err
	}
	table, err := compensation.NewTable(records)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"players":  len(histories),
		"salaries": table.Len(),
	}).Info("Valuing players")

	inputs := make([]valuation.PlayerInput, len(histories))
	for i := range histories {
		season := opts.season
		if season == "" {
			season = latestSeason(histories[i].Seasons)
		}
		inputs[i] = histories[i].Input(season)
	}

	results, err := valuation.NewEngine(opts.workers).ValuateBatch(ctx, inputs, table)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func latestSeason(seasons []valuation.SeasonStats) string {
	latest := ""
	for _, s := range seasons {
		if s.Season > latest {
			latest = s.Season
		}
	}
	return latest
}
