package actor

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// System Actor 系统
// 管理所有 Actor 的生命周期、消息投递和完成屏障
type System struct {
	// 基本信息
	name string

	// Actor 注册表（仅包含存活的 Actor）
	actors   map[string]*actorCell
	actorsMu sync.RWMutex

	// 生命周期控制
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning atomic.Bool

	// 完成屏障：每个存活的 Actor 计数一次
	live sync.WaitGroup

	// 共享调度器（首次需要时创建）
	sched     atomic.Pointer[scheduler]
	schedOnce sync.Once

	// 第一个失败
	failOnce sync.Once
	failed   chan struct{}
	failure  error

	// 配置
	config *SystemConfig

	// 统计信息
	stats *statsCounters

	// 日志
	logger *slog.Logger
}

// SystemConfig 系统配置
type SystemConfig struct {
	// Dispatcher Spawn 未指定 Props 时使用的调度器
	Dispatcher DispatcherType
	// Workers 共享调度器的 worker 数量
	Workers int
	// Throughput 共享调度器中一个 Actor 每次连续处理的最大消息数
	Throughput int
	// EnableDeadLetterLogging 是否记录死信
	EnableDeadLetterLogging bool
	// PanicHandler panic 处理函数
	PanicHandler func(actor *PID, msg Message, err any)
	// Logger 自定义日志器
	Logger *slog.Logger
}

// DefaultSystemConfig 默认系统配置
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		Dispatcher:              DispatcherDefault,
		Workers:                 runtime.GOMAXPROCS(0),
		Throughput:              64,
		EnableDeadLetterLogging: true,
		PanicHandler:            nil, // 使用默认处理
		Logger:                  nil, // 使用默认 logger
	}
}

// actorCell Actor 单元，包含 Actor 及其运行时状态
type actorCell struct {
	pid        *PID
	actor      Actor
	mailbox    *mailbox
	parent     *PID
	dispatcher DispatcherType

	// 以下字段只由 Actor 自身的执行流访问
	children      []*PID
	stopRequested bool

	// 共享调度器下的 idle/busy 标记
	processing atomic.Int32
}

const (
	idle int32 = iota
	busy
)

// envelope 消息信封
type envelope struct {
	sender  *PID
	message Message
}

// NewSystem 创建新的 Actor 系统
func NewSystem(name string) *System {
	return NewSystemWithConfig(name, DefaultSystemConfig())
}

// NewSystemWithConfig 使用配置创建 Actor 系统
func NewSystemWithConfig(name string, config *SystemConfig) *System {
	if config == nil {
		config = DefaultSystemConfig()
	}
	if config.Workers < 1 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Throughput < 1 {
		config.Throughput = 64
	}

	ctx, cancel := context.WithCancel(context.Background())

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &System{
		name:   name,
		actors: make(map[string]*actorCell),
		ctx:    ctx,
		cancel: cancel,
		failed: make(chan struct{}),
		config: config,
		stats:  newStatsCounters(),
		logger: logger.With("system", name),
	}

	s.isRunning.Store(true)

	s.logger.Debug("actor system started", "dispatcher", config.Dispatcher.String())
	return s
}

// Name 返回系统名称
func (s *System) Name() string {
	return s.name
}

// Spawn 创建 Actor，使用系统默认调度器
func (s *System) Spawn(actor Actor, name string) *PID {
	return s.spawn(actor, name, nil)
}

// SpawnWithProps 使用属性创建 Actor
func (s *System) SpawnWithProps(actor Actor, props *Props) *PID {
	return s.spawnWithProps(actor, props, nil)
}

// spawn 内部创建方法
func (s *System) spawn(actor Actor, name string, parent *PID) *PID {
	props := DefaultProps(name).WithDispatcher(s.config.Dispatcher)
	return s.spawnWithProps(actor, props, parent)
}

// spawnWithProps 使用属性创建
// 新 Actor 在返回前计入完成屏障，Started 消息先于任何其他消息入队
func (s *System) spawnWithProps(actor Actor, props *Props, parent *PID) *PID {
	if !s.isRunning.Load() {
		s.logger.Warn("spawn on stopped system", "name", props.Name)
		return &PID{ID: props.Name, system: s}
	}

	s.actorsMu.Lock()
	if existing, exists := s.actors[props.Name]; exists {
		s.actorsMu.Unlock()
		s.logger.Warn("actor already exists, returning existing PID", "name", props.Name)
		return existing.pid
	}

	pid := &PID{
		ID:     props.Name,
		system: s,
	}
	cell := &actorCell{
		pid:        pid,
		actor:      actor,
		mailbox:    newMailbox(),
		parent:     parent,
		dispatcher: props.Dispatcher,
	}
	pid.cell = cell

	s.actors[props.Name] = cell
	s.live.Add(1)
	s.actorsMu.Unlock()

	s.stats.spawned.Add(1)
	cell.mailbox.enqueue(envelope{message: &Started{}})
	s.stats.messages.Add(1)

	// 启动 Actor 消息循环
	switch cell.dispatcher {
	case DispatcherShared:
		s.schedule(cell)
	default:
		go s.actorLoop(cell)
	}

	s.logger.Debug("spawned actor", "name", props.Name, "parent", parent.String())
	return pid
}

// Send 发送消息（无发送者）
func (s *System) Send(target *PID, msg Message) {
	s.SendWithSender(target, msg, nil)
}

// SendWithSender 发送消息（带发送者）
// 目标不存在或已停止时消息计为死信
func (s *System) SendWithSender(target *PID, msg Message, sender *PID) {
	if target == nil || msg == nil {
		return
	}
	if !s.isRunning.Load() {
		s.deadLetter(target, msg, sender)
		return
	}
	s.deliver(target, envelope{sender: sender, message: msg})
}

// deliver 投递到目标邮箱，不检查系统状态
func (s *System) deliver(target *PID, env envelope) {
	cell := target.cell
	if cell == nil {
		s.actorsMu.RLock()
		cell = s.actors[target.ID]
		s.actorsMu.RUnlock()
	}

	if cell == nil || !cell.mailbox.enqueue(env) {
		s.deadLetter(target, env.message, env.sender)
		return
	}
	s.stats.messages.Add(1)

	if cell.dispatcher == DispatcherShared {
		s.schedule(cell)
	}
}

// Stop 停止 Actor
// PoisonPill 排在已入队的消息之后
func (s *System) Stop(pid *PID) {
	if pid == nil {
		return
	}
	s.deliver(pid, envelope{message: &PoisonPill{}})
}

// Wait 完成屏障：阻塞直到所有 Actor（包括 Actor 创建的 Actor）都已停止
// 任一 Actor 失败或 ctx 取消时提前返回对应错误
func (s *System) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.live.Wait()
		close(done)
	}()

	select {
	case <-done:
		return s.Err()
	case <-s.failed:
		return s.failure
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Finish 执行 body 后等待完成屏障
// body 中创建的所有 Actor 及其后代都被覆盖
func (s *System) Finish(ctx context.Context, body func() error) error {
	if !s.isRunning.Load() {
		return ErrSystemStopped
	}
	if err := body(); err != nil {
		return err
	}
	return s.Wait(ctx)
}

// Err 返回第一个 Actor 失败，没有失败时返回 nil
func (s *System) Err() error {
	select {
	case <-s.failed:
		return s.failure
	default:
		return nil
	}
}

// Shutdown 关闭整个 Actor 系统
func (s *System) Shutdown() {
	s.ShutdownWithTimeout(30 * time.Second)
}

// ShutdownWithTimeout 带超时的关闭
// 存活的 Actor 在处理完当前消息后停止，剩余消息计为死信
func (s *System) ShutdownWithTimeout(timeout time.Duration) {
	if !s.isRunning.CompareAndSwap(true, false) {
		return
	}
	s.logger.Debug("actor system shutting down")

	s.cancel()

	// 唤醒共享调度器上空闲的 Actor，让它们执行停止流程
	s.actorsMu.RLock()
	cells := make([]*actorCell, 0, len(s.actors))
	for _, cell := range s.actors {
		cells = append(cells, cell)
	}
	s.actorsMu.RUnlock()
	for _, cell := range cells {
		if cell.dispatcher == DispatcherShared {
			s.schedule(cell)
		}
	}

	done := make(chan struct{})
	go func() {
		s.live.Wait()
		close(done)
	}()

	timedOut := false
	select {
	case <-done:
		s.logger.Debug("actor system shutdown complete")
	case <-time.After(timeout):
		timedOut = true
		s.logger.Warn("actor system shutdown timeout, forcing exit", "live", s.Count())
	}

	if sched := s.sched.Load(); sched != nil {
		if timedOut {
			go sched.stop()
		} else {
			sched.stop()
		}
	}
}

// workerPool 懒加载共享调度器
func (s *System) workerPool() *scheduler {
	s.schedOnce.Do(func() {
		s.sched.Store(newScheduler(s.config.Workers, s.runCell))
	})
	return s.sched.Load()
}

// schedule cell 从 idle 切换到 busy 时提交给共享调度器
func (s *System) schedule(cell *actorCell) {
	if cell.processing.CompareAndSwap(idle, busy) {
		s.workerPool().submit(cell)
	}
}

// runCell 共享调度器中执行一个 cell，每次最多处理 Throughput 条消息
func (s *System) runCell(cell *actorCell) {
	if s.ctx.Err() != nil {
		s.cleanupActor(cell)
		return
	}
	for n := 0; n < s.config.Throughput; n++ {
		env, ok := cell.mailbox.dequeue()
		if !ok {
			cell.processing.Store(idle)
			// 切换为 idle 期间可能有新消息到达，或者系统正在关闭
			if (cell.mailbox.len() > 0 || s.ctx.Err() != nil) && cell.processing.CompareAndSwap(idle, busy) {
				s.sched.Load().submit(cell)
			}
			return
		}
		if s.processMessage(cell, env) {
			// 保持 busy，之后不会再被调度
			s.cleanupActor(cell)
			return
		}
	}

	// 让出 worker，保证公平
	s.sched.Load().submit(cell)
}

// actorLoop 独占 goroutine 的消息处理循环
func (s *System) actorLoop(cell *actorCell) {
	defer s.cleanupActor(cell)

	for {
		env, ok := cell.mailbox.dequeue()
		if !ok {
			select {
			case <-cell.mailbox.ready:
				continue
			case <-s.ctx.Done():
				return
			}
		}
		if s.processMessage(cell, env) {
			return
		}
	}
}

// processMessage 处理单条消息，返回 Actor 是否应当停止
func (s *System) processMessage(cell *actorCell, env envelope) bool {
	if s.ctx.Err() != nil {
		s.deadLetter(cell.pid, env.message, env.sender)
		return true
	}

	if _, ok := env.message.(*PoisonPill); ok {
		s.invoke(s.ctx, cell, env.sender, &Stopping{})
		return true
	}

	if !s.invoke(s.ctx, cell, env.sender, env.message) {
		return true
	}
	s.stats.processed.Add(1)
	return cell.stopRequested
}

// invoke 调用 Actor.Receive 并恢复 panic
// 发生 panic 时记录为系统失败并返回 false
func (s *System) invoke(ctx context.Context, cell *actorCell, sender *PID, msg Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			stack := debug.Stack()
			if s.config.PanicHandler != nil {
				s.config.PanicHandler(cell.pid, msg, r)
			} else {
				s.logger.Error("panic in actor",
					"actor", cell.pid.ID,
					"message", msg.Kind(),
					"error", r,
					"stack", string(stack))
			}
			s.fail(&ActorPanicError{
				Actor: cell.pid.ID,
				Kind:  msg.Kind(),
				Value: r,
				Stack: stack,
			})
		}
	}()

	actx := &Context{
		Self:    cell.pid,
		Sender:  sender,
		Parent:  cell.parent,
		system:  s,
		cell:    cell,
		ctx:     ctx,
		message: msg,
	}
	cell.actor.Receive(actx, msg)
	return true
}

// fail 记录失败，只保留第一个
func (s *System) fail(err error) {
	s.stats.failures.Add(1)
	s.failOnce.Do(func() {
		s.failure = err
		close(s.failed)
	})
}

// cleanupActor 清理 Actor，每个 Actor 只执行一次
func (s *System) cleanupActor(cell *actorCell) {
	// 关闭邮箱，剩余消息计为死信
	for _, env := range cell.mailbox.close() {
		s.deadLetter(cell.pid, env.message, env.sender)
	}

	// 发送 Stopped 消息
	s.invoke(context.Background(), cell, nil, &Stopped{})

	// 从注册表中移除
	s.actorsMu.Lock()
	if s.actors[cell.pid.ID] == cell {
		delete(s.actors, cell.pid.ID)
	}
	s.actorsMu.Unlock()

	s.stats.stopped.Add(1)
	s.logger.Debug("actor stopped", "actor", cell.pid.ID)

	s.live.Done()
}

// deadLetter 记录无法投递的消息
func (s *System) deadLetter(target *PID, msg Message, sender *PID) {
	s.stats.deadLetters.Add(1)
	if s.config.EnableDeadLetterLogging {
		s.logger.Debug("dead letter",
			"message", msg.Kind(),
			"target", target.String(),
			"sender", sender.String())
	}
}

// Stats 获取统计信息
func (s *System) Stats() SystemStats {
	return s.stats.snapshot()
}

// GetActor 获取存活的 Actor
func (s *System) GetActor(name string) (*PID, bool) {
	s.actorsMu.RLock()
	defer s.actorsMu.RUnlock()

	if cell, ok := s.actors[name]; ok {
		return cell.pid, true
	}
	return nil, false
}

// ListActors 列出所有存活的 Actor
func (s *System) ListActors() []*PID {
	s.actorsMu.RLock()
	defer s.actorsMu.RUnlock()

	pids := make([]*PID, 0, len(s.actors))
	for _, cell := range s.actors {
		pids = append(pids, cell.pid)
	}
	return pids
}

// Count 返回存活的 Actor 数量
func (s *System) Count() int {
	s.actorsMu.RLock()
	defer s.actorsMu.RUnlock()
	return len(s.actors)
}

// IsRunning 检查系统是否运行中
func (s *System) IsRunning() bool {
	return s.isRunning.Load()
}
