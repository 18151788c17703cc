package sieve

import "context"

// Sequential 单线程位数组筛法，作为流水线结果的参照
type Sequential struct{}

// CountPrimes 实现 Counter 接口
func (Sequential) CountPrimes(ctx context.Context, limit int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return len(primesUpTo(limit)), nil
}

// primesUpTo 返回 ≤ limit 的全部素数
func primesUpTo(limit int) []int {
	if limit < 2 {
		return nil
	}

	composite := make([]bool, limit+1)
	primes := []int{2}
	for i := 3; i <= limit; i += 2 {
		if composite[i] {
			continue
		}
		primes = append(primes, i)
		for j := i * i; j <= limit && j > 0; j += 2 * i {
			composite[j] = true
		}
	}
	return primes
}
