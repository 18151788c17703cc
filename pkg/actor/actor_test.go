package actor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============== 测试消息类型 ==============

type PingMessage struct{}

func (p *PingMessage) Kind() string { return "ping" }

type CountMessage struct {
	Value int
}

func (c *CountMessage) Kind() string { return "count" }

type PanicMessage struct{}

func (p *PanicMessage) Kind() string { return "panic" }

// hopMessage 每经过一个 Actor 减一，归零前不断创建下一个 Actor
type hopMessage struct {
	Remaining int
}

func (h *hopMessage) Kind() string { return "hop" }

// ============== 测试 Actor ==============

// RecordActor 记录收到的消息，收到 PingMessage 后停止自身
type RecordActor struct {
	BaseActor
	mu       sync.Mutex
	received []Message
}

func (a *RecordActor) Receive(ctx *Context, msg Message) {
	a.mu.Lock()
	a.received = append(a.received, msg)
	a.mu.Unlock()

	if _, ok := msg.(*PingMessage); ok {
		ctx.StopSelf()
	}
}

func (a *RecordActor) Received() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, len(a.received))
	copy(out, a.received)
	return out
}

func (a *RecordActor) Values() []int {
	var out []int
	for _, msg := range a.Received() {
		if m, ok := msg.(*CountMessage); ok {
			out = append(out, m.Value)
		}
	}
	return out
}

type CounterActor struct {
	BaseActor
	count int32
}

func (a *CounterActor) Receive(_ *Context, msg Message) {
	if _, ok := msg.(*CountMessage); ok {
		atomic.AddInt32(&a.count, 1)
	}
}

func (a *CounterActor) Count() int32 {
	return atomic.LoadInt32(&a.count)
}

// hopActor 收到 hopMessage 后创建下一跳并停止自身
type hopActor struct {
	index   int
	visited *atomic.Int32
}

func (a *hopActor) Receive(ctx *Context, msg Message) {
	m, ok := msg.(*hopMessage)
	if !ok {
		return
	}
	a.visited.Add(1)
	if m.Remaining > 0 {
		next := ctx.Spawn(&hopActor{index: a.index + 1, visited: a.visited}, fmt.Sprintf("hop-%d", a.index+1))
		next.Tell(&hopMessage{Remaining: m.Remaining - 1})
	}
	ctx.StopSelf()
}

func quietConfig(d DispatcherType) *SystemConfig {
	cfg := DefaultSystemConfig()
	cfg.Dispatcher = d
	cfg.Workers = 4
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

// eachDispatcher 在两种调度器下分别运行测试
func eachDispatcher(t *testing.T, fn func(t *testing.T, sys *System)) {
	t.Helper()
	for _, d := range []DispatcherType{DispatcherDefault, DispatcherShared} {
		t.Run(d.String(), func(t *testing.T) {
			sys := NewSystemWithConfig("test-"+d.String(), quietConfig(d))
			defer sys.Shutdown()
			fn(t, sys)
		})
	}
}

func waitFor(t *testing.T, sys *System) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sys.Wait(ctx))
}

// ============== 测试用例 ==============

func TestNewSystem(t *testing.T) {
	sys := NewSystem("test")
	require.NotNil(t, sys)
	assert.Equal(t, "test", sys.Name())
	assert.True(t, sys.IsRunning())

	sys.Shutdown()
	assert.False(t, sys.IsRunning())

	// 重复关闭是安全的
	sys.Shutdown()
}

func TestStartedIsFirstAndStoppedIsLast(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		actor := &RecordActor{}
		pid := sys.Spawn(actor, "record")
		pid.Tell(&CountMessage{Value: 1})
		pid.Tell(&PingMessage{})

		waitFor(t, sys)

		received := actor.Received()
		require.Len(t, received, 4)
		assert.IsType(t, &Started{}, received[0])
		assert.IsType(t, &CountMessage{}, received[1])
		assert.IsType(t, &PingMessage{}, received[2])
		assert.IsType(t, &Stopped{}, received[3])
	})
}

func TestTellPreservesOrder(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		const n = 5000
		actor := &RecordActor{}
		pid := sys.Spawn(actor, "ordered")

		want := make([]int, n)
		for i := 0; i < n; i++ {
			want[i] = i
			pid.Tell(&CountMessage{Value: i})
		}
		pid.Tell(&PingMessage{})

		waitFor(t, sys)
		assert.Equal(t, want, actor.Values())
	})
}

func TestWaitCoversTransitiveSpawns(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		const hops = 200
		var visited atomic.Int32

		pid := sys.Spawn(&hopActor{visited: &visited}, "hop-0")
		pid.Tell(&hopMessage{Remaining: hops})

		waitFor(t, sys)

		assert.Equal(t, int32(hops+1), visited.Load())
		stats := sys.Stats()
		assert.Equal(t, int64(hops+1), stats.Spawned)
		assert.Equal(t, int64(0), stats.Live)
		assert.Equal(t, 0, sys.Count())
	})
}

func TestFinish(t *testing.T) {
	sys := NewSystemWithConfig("finish", quietConfig(DispatcherShared))
	defer sys.Shutdown()

	var visited atomic.Int32
	err := sys.Finish(context.Background(), func() error {
		sys.Spawn(&hopActor{visited: &visited}, "hop-0").Tell(&hopMessage{Remaining: 10})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(11), visited.Load())
}

func TestFinishBodyError(t *testing.T) {
	sys := NewSystemWithConfig("finish", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	boom := errors.New("boom")
	err := sys.Finish(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestFinishOnStoppedSystem(t *testing.T) {
	sys := NewSystemWithConfig("finish", quietConfig(DispatcherDefault))
	sys.Shutdown()

	err := sys.Finish(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrSystemStopped)
}

func TestWaitContextCanceled(t *testing.T) {
	sys := NewSystemWithConfig("cancel", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	// 永不停止的 Actor
	sys.Spawn(&CounterActor{}, "forever")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := sys.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPanicFailsWait(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		pid := sys.Spawn(ActorFunc(func(_ *Context, msg Message) {
			if _, ok := msg.(*PanicMessage); ok {
				panic("intentional panic")
			}
		}), "panicky")
		pid.Tell(&PanicMessage{})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := sys.Wait(ctx)

		var perr *ActorPanicError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "panicky", perr.Actor)
		assert.Equal(t, "panic", perr.Kind)
		assert.Equal(t, "intentional panic", perr.Value)
		assert.NotEmpty(t, perr.Stack)
		assert.Equal(t, int64(1), sys.Stats().Failures)
	})
}

func TestPanicHandler(t *testing.T) {
	var handled atomic.Int32
	cfg := quietConfig(DispatcherDefault)
	cfg.PanicHandler = func(actor *PID, msg Message, _ any) {
		if actor.ID == "panicky" && msg.Kind() == "panic" {
			handled.Add(1)
		}
	}
	sys := NewSystemWithConfig("handler", cfg)
	defer sys.Shutdown()

	pid := sys.Spawn(ActorFunc(func(_ *Context, msg Message) {
		if _, ok := msg.(*PanicMessage); ok {
			panic(errors.New("wrapped"))
		}
	}), "panicky")
	pid.Tell(&PanicMessage{})

	err := sys.Wait(context.Background())
	require.Error(t, err)
	assert.EqualError(t, errors.Unwrap(err), "wrapped")
	assert.Equal(t, int32(1), handled.Load())
}

func TestStopActor(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		actor := &CounterActor{}
		pid := sys.Spawn(actor, "counter")
		for i := 0; i < 10; i++ {
			pid.Tell(&CountMessage{Value: i})
		}

		// PoisonPill 排在已入队的消息之后
		sys.Stop(pid)
		waitFor(t, sys)

		assert.Equal(t, int32(10), actor.Count())
		_, ok := sys.GetActor("counter")
		assert.False(t, ok)
	})
}

func TestStopSelfDropsRemaining(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		actor := &RecordActor{}
		pid := sys.Spawn(actor, "record")
		pid.Tell(&PingMessage{})
		pid.Tell(&CountMessage{Value: 1})
		pid.Tell(&CountMessage{Value: 2})

		waitFor(t, sys)

		assert.Empty(t, actor.Values())
		assert.Equal(t, int64(2), sys.Stats().DeadLetters)

		// 停止后的消息同样计为死信
		pid.Tell(&CountMessage{Value: 3})
		assert.Equal(t, int64(3), sys.Stats().DeadLetters)
	})
}

func TestContextChildren(t *testing.T) {
	sys := NewSystemWithConfig("children", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	var got []string
	var parent *PID
	pid := sys.Spawn(ActorFunc(func(ctx *Context, msg Message) {
		if _, ok := msg.(*PingMessage); !ok {
			return
		}
		ctx.Spawn(&CounterActor{}, "child-1")
		ctx.SpawnWithProps(&CounterActor{}, DefaultProps("child-2").WithDispatcher(DispatcherShared))
		for _, c := range ctx.Children() {
			got = append(got, c.ID)
			ctx.Stop(c)
		}
		parent = ctx.Self
		ctx.StopSelf()
	}), "parent")
	pid.Tell(&PingMessage{})

	waitFor(t, sys)
	assert.Equal(t, []string{"child-1", "child-2"}, got)
	assert.Equal(t, "parent", parent.ID)
}

func TestContextForward(t *testing.T) {
	sys := NewSystemWithConfig("forward", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	sink := &RecordActor{}
	sinkPID := sys.Spawn(sink, "sink")

	relay := sys.Spawn(ActorFunc(func(ctx *Context, msg Message) {
		switch msg.(type) {
		case *CountMessage:
			ctx.Forward(sinkPID)
		case *PingMessage:
			ctx.Forward(sinkPID)
			ctx.StopSelf()
		}
	}), "relay")

	relay.Tell(&CountMessage{Value: 7})
	relay.Tell(&PingMessage{})

	waitFor(t, sys)
	assert.Equal(t, []int{7}, sink.Values())
}

func TestListActors(t *testing.T) {
	sys := NewSystemWithConfig("list", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	sys.Spawn(&CounterActor{}, "actor-1")
	sys.Spawn(&CounterActor{}, "actor-2")
	sys.Spawn(&CounterActor{}, "actor-3")

	pids := sys.ListActors()
	assert.Len(t, pids, 3)
	assert.Equal(t, 3, sys.Count())

	pid, ok := sys.GetActor("actor-2")
	require.True(t, ok)
	assert.Equal(t, "actor-2", pid.ID)
}

func TestSpawnDuplicate(t *testing.T) {
	sys := NewSystemWithConfig("dup", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	pid1 := sys.Spawn(&CounterActor{}, "counter")
	pid2 := sys.Spawn(&CounterActor{}, "counter") // 重复名称

	// 应该返回相同的 PID
	assert.Same(t, pid1, pid2)
	assert.Equal(t, 1, sys.Count())
}

func TestSpawnAfterShutdown(t *testing.T) {
	sys := NewSystemWithConfig("late", quietConfig(DispatcherDefault))
	sys.Shutdown()

	pid := sys.Spawn(&CounterActor{}, "late")
	pid.Tell(&CountMessage{})
	assert.Equal(t, 0, sys.Count())
	assert.Equal(t, int64(1), sys.Stats().DeadLetters)
}

func TestShutdownStopsIdleActors(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		for i := 0; i < 10; i++ {
			sys.Spawn(&CounterActor{}, fmt.Sprintf("idle-%d", i))
		}
		sys.ShutdownWithTimeout(5 * time.Second)

		assert.Equal(t, 0, sys.Count())
		assert.Equal(t, int64(0), sys.Stats().Live)
	})
}

func TestStats(t *testing.T) {
	sys := NewSystemWithConfig("stats", quietConfig(DispatcherDefault))
	defer sys.Shutdown()

	actor := &CounterActor{}
	pid := sys.Spawn(actor, "counter")
	for i := 0; i < 100; i++ {
		pid.Tell(&CountMessage{Value: i})
	}
	sys.Stop(pid)
	waitFor(t, sys)

	stats := sys.Stats()
	assert.Equal(t, int64(1), stats.Spawned)
	assert.Equal(t, int64(0), stats.Live)
	// Started + 100 条消息 + PoisonPill
	assert.Equal(t, int64(102), stats.Messages)
	assert.Equal(t, int64(101), stats.Processed)
	assert.Equal(t, int64(0), stats.DeadLetters)
	assert.False(t, stats.StartTime.IsZero())
	assert.Positive(t, stats.Uptime())
}

func TestPIDString(t *testing.T) {
	pid := &PID{ID: "test-actor"}
	assert.Equal(t, "test-actor", pid.String())

	pid2 := &PID{ID: "remote-actor", Address: "localhost:8080"}
	assert.Equal(t, "remote-actor@localhost:8080", pid2.String())

	var nilPID *PID
	assert.Equal(t, "<nil>", nilPID.String())
	nilPID.Tell(&PingMessage{}) // 不应 panic
}

func TestParseDispatcher(t *testing.T) {
	d, err := ParseDispatcher("")
	require.NoError(t, err)
	assert.Equal(t, DispatcherDefault, d)

	d, err = ParseDispatcher("shared")
	require.NoError(t, err)
	assert.Equal(t, DispatcherShared, d)
	assert.Equal(t, "shared", d.String())

	_, err = ParseDispatcher("round-robin")
	assert.ErrorIs(t, err, ErrInvalidDispatcher)
	assert.Equal(t, "unknown", DispatcherType(42).String())
}

// ============== 并发测试 ==============

func TestConcurrentSend(t *testing.T) {
	eachDispatcher(t, func(t *testing.T, sys *System) {
		actor := &CounterActor{}
		pid := sys.Spawn(actor, "counter")

		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					pid.Tell(&CountMessage{Value: j})
				}
			}()
		}
		wg.Wait()

		sys.Stop(pid)
		waitFor(t, sys)
		assert.Equal(t, int32(1000), actor.Count())
	})
}

func TestSharedDispatcherManyActors(t *testing.T) {
	cfg := quietConfig(DispatcherShared)
	cfg.Workers = 2
	cfg.Throughput = 3
	sys := NewSystemWithConfig("many", cfg)
	defer sys.Shutdown()

	actors := make([]*CounterActor, 50)
	for i := range actors {
		actors[i] = &CounterActor{}
		pid := sys.Spawn(actors[i], fmt.Sprintf("counter-%d", i))
		for j := 0; j < 20; j++ {
			pid.Tell(&CountMessage{Value: j})
		}
		sys.Stop(pid)
	}
	waitFor(t, sys)

	for i, a := range actors {
		assert.Equal(t, int32(20), a.Count(), "actor %d", i)
	}
}
