package backtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PartitionResult pairs a partition name with its run.
type PartitionResult struct {
	Name   string
	Result Result
}

// RunPartitions runs each partition on its own Engine concurrently. Each
// gets a run ID of "<base>-<name>", where base comes from opts or a fresh
// ULID. Results come back in partition order. A journal or observer passed
// in opts is shared and must be safe for concurrent use.
func RunPartitions(ctx context.Context, cfg Config, parts []Partition, opts ...Option) ([]PartitionResult, error) {
	base, err := NewEngine(cfg, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]PartitionResult, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range parts {
		i, p := i, p
		eopts := append(opts[:len(opts):len(opts)], WithRunID(base.RunID()+"-"+p.Name))
		e, err := NewEngine(cfg, eopts...)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			res, err := e.Run(gctx, p.Bars)
			if err != nil {
				return fmt.Errorf("partition %s: %w", p.Name, err)
			}
			out[i] = PartitionResult{Name: p.Name, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
