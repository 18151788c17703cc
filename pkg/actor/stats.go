package actor

import (
	"sync/atomic"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// 系统统计信息
// ═══════════════════════════════════════════════════════════════════════════

// SystemStats 系统统计快照
type SystemStats struct {
	Spawned     int64     // 创建过的 Actor 总数
	Live        int64     // 当前存活的 Actor 数
	Messages    int64     // 成功入队的消息数（含系统消息）
	Processed   int64     // 成功处理的消息数（含 Started）
	DeadLetters int64     // 无法投递或未处理的消息数
	Failures    int64     // Actor panic 次数
	StartTime   time.Time // 系统创建时间
}

// Uptime 返回从系统创建到现在的时长
func (s SystemStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// statsCounters 原子计数器，热点路径上无锁
type statsCounters struct {
	spawned     atomic.Int64
	stopped     atomic.Int64
	messages    atomic.Int64
	processed   atomic.Int64
	deadLetters atomic.Int64
	failures    atomic.Int64

	startTime time.Time
}

func newStatsCounters() *statsCounters {
	return &statsCounters{startTime: time.Now()}
}

// snapshot 获取统计快照
func (c *statsCounters) snapshot() SystemStats {
	spawned := c.spawned.Load()
	return SystemStats{
		Spawned:     spawned,
		Live:        spawned - c.stopped.Load(),
		Messages:    c.messages.Load(),
		Processed:   c.processed.Load(),
		DeadLetters: c.deadLetters.Load(),
		Failures:    c.failures.Load(),
		StartTime:   c.startTime,
	}
}
