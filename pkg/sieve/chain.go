package sieve

// AgentSnapshot 一级过滤 Actor 在流水线排空后的状态
type AgentSnapshot struct {
	// Index 在链中的位置，头部为 0
	Index int
	// Primes 本级保存的素数，严格递增
	Primes []int

	// Received 收到的候选数
	Received int
	// Absorbed 追加到本级的素数（不含种子）
	Absorbed int
	// Discarded 判定为合数而丢弃的候选数
	Discarded int
	// Forwarded 交给下一级的候选数（含下一级的种子）
	Forwarded int
}

// Count 本级素数个数
func (a AgentSnapshot) Count() int {
	return len(a.Primes)
}

// aggregate 沿 successor 链累加各级素数个数
// 只能在完成屏障返回之后调用
func aggregate(head *filter) int {
	total := 0
	for f := head; f != nil; f = f.successor {
		total += len(f.locals)
	}
	return total
}

// snapshotChain 按链顺序复制各级状态
func snapshotChain(head *filter) []AgentSnapshot {
	var out []AgentSnapshot
	for f := head; f != nil; f = f.successor {
		primes := make([]int, len(f.locals))
		copy(primes, f.locals)
		out = append(out, AgentSnapshot{
			Index:     f.index,
			Primes:    primes,
			Received:  f.received,
			Absorbed:  f.absorbed,
			Discarded: f.discarded,
			Forwarded: f.forwarded,
		})
	}
	return out
}
