package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// PairSeries is an aligned two-column price history.
type PairSeries struct {
	Y, X string // column names from the header, "Y" and "X" if absent
	Bars []Bar
}

// LoadPairCSV reads rows of
//
//	time,<Y>,<X>
//
// where time is RFC3339, "2006-01-02 15:04:05" or 2006-01-02. A header row
// whose first column is "time" or "date" (any case) names the legs. Blank rows are skipped; anything else unparsable is an
// error wrapping ErrMalformedInput. Ordering is checked by Engine.Run, not
// here.
func LoadPairCSV(path string) (PairSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return PairSeries{}, err
	}
	defer f.Close()

	ps, err := ReadPairCSV(f)
	if err != nil {
		return PairSeries{}, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// ReadPairCSV is LoadPairCSV over a reader.
func ReadPairCSV(r io.Reader) (PairSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	ps := PairSeries{Y: "Y", X: "X"}
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return ps, nil
		}
		if err != nil {
			return PairSeries{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		if line == 1 && isTimeHeader(row[0]) {
			if len(row) >= 3 {
				ps.Y = strings.TrimSpace(row[1])
				ps.X = strings.TrimSpace(row[2])
			}
			continue
		}

		b, err := parsePairRow(row)
		if err != nil {
			return PairSeries{}, fmt.Errorf("%w: line %d: %v", ErrMalformedInput, line, err)
		}
		ps.Bars = append(ps.Bars, b)
	}
}

func isTimeHeader(s string) bool {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	return strings.EqualFold(s, "time") || strings.EqualFold(s, "date")
}

func parsePairRow(row []string) (Bar, error) {
	if len(row) < 3 {
		return Bar{}, fmt.Errorf("want 3 fields, got %d", len(row))
	}

	t, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return Bar{}, fmt.Errorf("bad y price %q: %w", row[1], err)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return Bar{}, fmt.Errorf("bad x price %q: %w", row[2], err)
	}
	return Bar{Time: t, Y: y, X: x}, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}
