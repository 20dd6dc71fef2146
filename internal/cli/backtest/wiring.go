package backtest

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/pairs/adf"
	"github.com/rustyeddy/pairs/config"
	"github.com/rustyeddy/pairs/gate"
	"github.com/rustyeddy/pairs/journal"
	"github.com/rustyeddy/pairs/oracle"
)

// newOracle builds the stationarity test named by the gate config. It
// returns nil when the gate is off.
func newOracle(g config.GateConfig, log zerolog.Logger) (gate.StationarityTest, error) {
	if !g.UseStationarity {
		return nil, nil
	}

	var st gate.StationarityTest
	switch g.Oracle {
	case "", "local":
		st = adf.Test{Lags: g.ADFLags}
	case "http":
		timeout, err := g.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		c, err := oracle.NewClient(oracle.ClientConfig{
			BaseURL:       g.OracleURL,
			Timeout:       timeout,
			RatePerSecond: g.RatePerSecond,
			Burst:         g.Burst,
			Lags:          g.ADFLags,
		}, log)
		if err != nil {
			return nil, err
		}
		st = c
	default:
		return nil, fmt.Errorf("unknown oracle %q", g.Oracle)
	}

	if g.CacheAddr != "" {
		ttl, err := g.CacheTTLDuration()
		if err != nil {
			return nil, err
		}
		rdb := redis.NewClient(&redis.Options{Addr: g.CacheAddr})
		salt := fmt.Sprintf("%s|lags=%d", g.Oracle, g.ADFLags)
		st = oracle.NewCache(rdb, st, ttl, salt, log)
	}
	return st, nil
}

// openJournal opens the configured journal. The SQL store is returned
// separately so run summaries can be recorded; it is nil for csv.
func openJournal(jc config.JournalConfig) (journal.Journal, *journal.SQL, error) {
	switch jc.Type {
	case "":
		return nil, nil, nil
	case "csv":
		j, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, nil, err
		}
		return j, nil, nil
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return j, j, nil
	case "postgres":
		j, err := journal.NewPostgres(jc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return j, j, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}
