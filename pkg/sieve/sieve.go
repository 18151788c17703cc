package sieve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lwmacct/251215-go-pkg-sieve/pkg/actor"
)

// DefaultCapacity 每级过滤 Actor 保存的素数上限
const DefaultCapacity = 250

// ErrInvalidCapacity capacity 小于 1
var ErrInvalidCapacity = errors.New("capacity must be at least 1")

// Counter 素数计数器
type Counter interface {
	// CountPrimes 返回满足 2 ≤ p ≤ limit 的素数 p 的个数
	CountPrimes(ctx context.Context, limit int) (int, error)
}

// Recorder 接收每次运行的结果，用于指标采集
// 失败的运行 res 仍包含 RunID、Limit、Duration 和 Stats
type Recorder interface {
	ObserveRun(res *Result, err error)
}

// Result 一次流水线运行的结果
type Result struct {
	RunID    string
	Limit    int
	Capacity int
	// Count 素数个数
	Count int
	// Agents 按链顺序排列的各级快照，limit < 2 时为空
	Agents   []AgentSnapshot
	Stats    actor.SystemStats
	Duration time.Duration
}

// Sieve 基于 Actor 流水线的埃拉托斯特尼筛
//
// 每次 Run 使用独立的 actor.System，多个 Run 可以并发执行。
type Sieve struct {
	capacity   int
	dispatcher actor.DispatcherType
	workers    int
	logger     *slog.Logger
	recorder   Recorder
}

// Option Sieve 配置选项
type Option func(*Sieve)

// WithCapacity 设置每级保存的素数上限
// 越大每级试除越多、级数越少
func WithCapacity(n int) Option {
	return func(s *Sieve) {
		s.capacity = n
	}
}

// WithDispatcher 设置过滤 Actor 使用的调度器
func WithDispatcher(d actor.DispatcherType) Option {
	return func(s *Sieve) {
		s.dispatcher = d
	}
}

// WithWorkers 设置共享调度器的 worker 数量，n < 1 时使用 GOMAXPROCS
func WithWorkers(n int) Option {
	return func(s *Sieve) {
		s.workers = n
	}
}

// WithLogger 设置日志器
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sieve) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder 设置结果记录器
func WithRecorder(r Recorder) Option {
	return func(s *Sieve) {
		s.recorder = r
	}
}

// New 创建 Sieve
func New(opts ...Option) (*Sieve, error) {
	s := &Sieve{
		capacity:   DefaultCapacity,
		dispatcher: actor.DispatcherShared,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, s.capacity)
	}
	return s, nil
}

// Capacity 返回每级保存的素数上限
func (s *Sieve) Capacity() int {
	return s.capacity
}

// CountPrimes 实现 Counter 接口
func (s *Sieve) CountPrimes(ctx context.Context, limit int) (int, error) {
	res, err := s.Run(ctx, limit)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}

// Run 构建一条流水线统计 ≤ limit 的素数
//
// 头部以 2 为种子；奇数候选 3, 5, 7, … 按递增顺序送入头部，最后发送一次 Shutdown。
// 完成屏障返回后沿链汇总结果。limit < 2 时不创建任何 Actor。
func (s *Sieve) Run(ctx context.Context, limit int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{
		RunID:    uuid.NewString(),
		Limit:    limit,
		Capacity: s.capacity,
	}
	logger := s.logger.With("run_id", res.RunID, "limit", limit)

	if limit < 2 {
		res.Duration = time.Since(start)
		s.observe(res, nil)
		return res, nil
	}

	cfg := actor.DefaultSystemConfig()
	cfg.Dispatcher = s.dispatcher
	if s.workers > 0 {
		cfg.Workers = s.workers
	}
	cfg.Logger = logger

	sys := actor.NewSystemWithConfig("sieve-"+res.RunID, cfg)
	defer sys.Shutdown()

	head := newFilter(0, s.capacity, 2)
	err := sys.Finish(ctx, func() error {
		pid := sys.Spawn(head, filterName(0))
		// c > 0 防止 limit 接近 MaxInt 时溢出
		for c := 3; c > 0 && c <= limit; c += 2 {
			pid.Tell(&Candidate{Value: c})
		}
		pid.Tell(&Shutdown{})
		return nil
	})

	res.Duration = time.Since(start)
	res.Stats = sys.Stats()
	if err != nil {
		err = fmt.Errorf("sieve run %s: %w", res.RunID, err)
		logger.Error("pipeline failed", "error", err)
		s.observe(res, err)
		return nil, err
	}

	res.Count = aggregate(head)
	res.Agents = snapshotChain(head)

	logger.Debug("pipeline drained",
		"primes", res.Count,
		"agents", len(res.Agents),
		"duration", res.Duration)

	s.observe(res, nil)
	return res, nil
}

func (s *Sieve) observe(res *Result, err error) {
	if s.recorder != nil {
		s.recorder.ObserveRun(res, err)
	}
}

// CountPrimes 使用默认配置统计 ≤ limit 的素数个数
// 只有流水线内部出错时才会 panic
func CountPrimes(limit int) int {
	s, err := New()
	if err != nil {
		panic(err)
	}
	n, err := s.CountPrimes(context.Background(), limit)
	if err != nil {
		panic(err)
	}
	return n
}
