package sieve

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// CountAll 并发统计多个 limit，结果与 limits 一一对应
// 每个 limit 是独立的一次运行；任一失败时取消其余运行
func CountAll(ctx context.Context, c Counter, limits []int) ([]int, error) {
	out := make([]int, len(limits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, limit := range limits {
		i, limit := i, limit
		g.Go(func() error {
			n, err := c.CountPrimes(gctx, limit)
			if err != nil {
				return fmt.Errorf("limit %d: %w", limit, err)
			}
			out[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
