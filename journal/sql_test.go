package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQL {
	t.Helper()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func sampleTrade(id string, closeAt time.Time) TradeRecord {
	return TradeRecord{
		RunID:           "R1",
		TradeID:         id,
		Ticker:          "Y",
		Side:            "LONG",
		Shares:          100,
		EntryPrice:      100,
		ExitPrice:       102,
		OpenTime:        closeAt.Add(-24 * time.Hour),
		CloseTime:       closeAt,
		EntryCommission: 12.5,
		ExitCommission:  12.75,
		RealizedPL:      187.25,
		Reason:          "EXIT",
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)

	var names []string
	require.NoError(t, j.db.Select(&names,
		`SELECT name FROM sqlite_master WHERE type='table' ORDER BY name`))
	assert.Equal(t, []string{"equity", "runs", "trades"}, names)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open("mysql", "x")
	assert.Error(t, err)
}

func TestGetTrade(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	want := sampleTrade("T1", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, j.RecordTrade(want))

	got, err := j.GetTrade(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Ticker, got.Ticker)
	assert.Equal(t, want.Side, got.Side)
	assert.Equal(t, want.Shares, got.Shares)
	assert.Equal(t, want.RealizedPL, got.RealizedPL)
	assert.Equal(t, want.ExitCommission, got.ExitCommission)
	assert.True(t, want.OpenTime.Equal(got.OpenTime))
	assert.True(t, want.CloseTime.Equal(got.CloseTime))

	_, err = j.GetTrade(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordTradeDuplicate(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	rec := sampleTrade("T1", time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, j.RecordTrade(rec))
	assert.ErrorIs(t, j.RecordTrade(rec), ErrDuplicate)
}

func TestListTradesByRun(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.RecordTrade(sampleTrade("B", base.AddDate(0, 0, 2))))
	require.NoError(t, j.RecordTrade(sampleTrade("A", base.AddDate(0, 0, 1))))
	other := sampleTrade("C", base)
	other.RunID = "R2"
	require.NoError(t, j.RecordTrade(other))

	got, err := j.ListTradesByRun(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].TradeID)
	assert.Equal(t, "B", got[1].TradeID)

	none, err := j.ListTradesByRun(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListEquityByRun(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 2; i >= 0; i-- {
		require.NoError(t, j.RecordEquity(EquitySnapshot{
			RunID: "R1", Time: base.AddDate(0, 0, i), Cash: 1000, Equity: 1000 + float64(i), OpenLegs: i % 2 * 2,
		}))
	}

	got, err := j.ListEquityByRun(context.Background(), "R1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, e := range got {
		assert.True(t, base.AddDate(0, 0, i).Equal(e.Time))
		assert.Equal(t, 1000+float64(i), e.Equity)
	}
	assert.Equal(t, 2, got[1].OpenLegs)
}

func TestRunRoundTrip(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()

	r := Run{
		RunID:     "R1",
		Created:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Dataset:   "pairs.csv",
		Partition: "test",
		PairY:     "KO",
		PairX:     "PEP",
		Start:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
		Config:    `{"entry_z":1}`,
		StartCash: 1e6,
		EndCash:   1.01e6,
		NetPL:     1e4,
		WinRate:   0.5,
		Sortino:   1.8,
		Calmar:    0.7,
		AvgWin:    120,
		AvgLoss:   -80,
		Trades:    4,
		Wins:      2,
		Losses:    2,
		Entries:   2,
		Exits:     1,
		Stops:     1,
		Holds:     200,
	}
	r.DailyWinRate = 0.52
	require.NoError(t, j.RecordRun(ctx, r))
	assert.ErrorIs(t, j.RecordRun(ctx, r), ErrDuplicate)

	got, err := j.GetRun(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, r.PairY, got.PairY)
	assert.Equal(t, r.Partition, got.Partition)
	assert.Equal(t, r.Config, got.Config)
	assert.Equal(t, r.Holds, got.Holds)
	assert.Equal(t, r.Sortino, got.Sortino)
	assert.Equal(t, r.Calmar, got.Calmar)
	assert.Equal(t, r.DailyWinRate, got.DailyWinRate)
	assert.Equal(t, r.AvgWin, got.AvgWin)
	assert.Equal(t, r.AvgLoss, got.AvgLoss)
	assert.True(t, r.End.Equal(got.End))

	_, err = j.GetRun(ctx, "R9")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, j.RecordTrade(sampleTrade("T1", r.End)))
	org, err := j.ExportRunOrg(ctx, "R1")
	require.NoError(t, err)
	assert.Contains(t, org, "* BACKTEST: Kalman pairs KO/PEP [test]")
	assert.Contains(t, org, "** Trades")
	assert.Contains(t, org, ":TRADE_ID: T1")
}

func TestListTradesClosedBetween(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(sampleTrade("T1", day.Add(-time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("T2", day.Add(10*time.Hour))))
	require.NoError(t, j.RecordTrade(sampleTrade("T3", day.Add(30*time.Hour))))

	got, err := j.ListTradesClosedBetween(context.Background(), day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T2", got[0].TradeID)
}

func TestListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	j := newTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, j.RecordRun(ctx, Run{
			RunID:   id,
			Created: base.Add(time.Duration(i) * time.Hour),
			PairY:   "KO",
			PairX:   "PEP",
		}))
	}

	got, err := j.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "C", got[0].RunID)
	assert.Equal(t, "B", got[1].RunID)
}
