package compensation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var requiredColumns = []string{"player_id", "player_name", "season", "salary"}

// CSVLoader reads salary records from a CSV file with the header
// player_id,player_name,season,salary in any column order.
type CSVLoader struct {
	path string
}

func NewCSVLoader(path string) *CSVLoader {
	return &CSVLoader{path: path}
}

func (l *CSVLoader) Load(ctx context.Context) ([]Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer f.Close()

	return ReadCSV(ctx, f)
}

// ReadCSV parses salary records. Salaries are whole currency units; values
// with separators or decimals are rejected.
func ReadCSV(ctx context.Context, r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrMalformedRecord)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("%w: header missing column %q", ErrMalformedRecord, name)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			return strings.TrimSpace(row[columns[name]])
		}
		rawSalary := field("salary")
		if rawSalary == "" {
			return nil, fmt.Errorf("line %d: %w: missing salary", line, ErrMalformedRecord)
		}
		salary, err := strconv.ParseInt(rawSalary, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: salary %q is not a whole number", line, ErrMalformedRecord, rawSalary)
		}

		rec := Record{
			PlayerID:   field("player_id"),
			PlayerName: field("player_name"),
			Season:     field("season"),
			Salary:     salary,
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
