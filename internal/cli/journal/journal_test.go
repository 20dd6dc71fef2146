package journal

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rootcfg "github.com/rustyeddy/pairs/internal/cli/config"
	"github.com/rustyeddy/pairs/journal"
)

var day = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// seed writes one run with two closed legs, one on day and one the day after.
func seed(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pairs.sqlite")
	j, err := journal.NewSQLite(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	require.NoError(t, j.RecordRun(ctx, journal.Run{
		RunID:     "RUN1",
		Created:   day,
		Partition: "test",
		PairY:     "KO",
		PairX:     "PEP",
		Start:     day.AddDate(0, -1, 0),
		End:       day.AddDate(0, 0, 1),
		StartCash: 1e6,
		NetPL:     181,
		ReturnPct: 0.0181,
		Trades:    2,
	}))
	for i, id := range []string{"01HTRADEAAAAAAAAAAAAAAAAAA", "01HTRADEBBBBBBBBBBBBBBBBBB"} {
		require.NoError(t, j.RecordTrade(journal.TradeRecord{
			RunID:      "RUN1",
			TradeID:    id,
			Ticker:     "KO",
			Side:       "LONG",
			Shares:     100,
			EntryPrice: 100,
			ExitPrice:  102,
			OpenTime:   day.Add(-48 * time.Hour),
			CloseTime:  day.Add(time.Duration(12+24*i) * time.Hour),
			RealizedPL: 187.25,
			Reason:     "EXIT",
		}))
	}
	return path
}

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rc := &rootcfg.RootConfig{DBPath: db, Out: &out}
	cmd := New(rc)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDayBounds(t *testing.T) {
	t.Parallel()

	start, end, err := dayBounds(time.UTC, "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, day, start)
	assert.Equal(t, day.Add(24*time.Hour), end)

	_, _, err = dayBounds(time.UTC, "03/04/2024")
	assert.Error(t, err)
}

func TestJournalCommands(t *testing.T) {
	t.Parallel()

	db := seed(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "runs",
			args: []string{"runs"},
			want: []string{"RUN1", "test", "KO/PEP", "net=181.00", "legs=2"},
		},
		{
			name: "run",
			args: []string{"run", "RUN1"},
			want: []string{"* BACKTEST: Kalman pairs KO/PEP [test]", ":TRADE_ID: 01HTRADEAAAAAAAAAAAAAAAAAA"},
		},
		{
			name:    "run missing",
			args:    []string{"run", "NOPE"},
			wantErr: true,
		},
		{
			name: "trade",
			args: []string{"trade", "01HTRADEBBBBBBBBBBBBBBBBBB"},
			want: []string{":TRADE_ID: 01HTRADEBBBBBBBBBBBBBBBBBB", ":REALIZED_PL: 187.25"},
		},
		{
			name:    "day",
			args:    []string{"day", "2024-03-04"},
			want:    []string{"01HTRADEAAAAAAAAAAAAAAAAAA"},
			notWant: []string{"01HTRADEBBBBBBBBBBBBBBBBBB"},
		},
		{
			name:    "bad day",
			args:    []string{"day", "yesterday"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, db, tc.args...)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tc.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}
