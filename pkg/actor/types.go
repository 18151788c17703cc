package actor

import (
	"context"
	"fmt"
)

// Message Actor 消息接口
// 所有 Actor 间传递的消息都必须实现此接口
type Message interface {
	// Kind 返回消息类型标识，用于日志和统计
	Kind() string
}

// PID (Process ID) Actor 进程标识符
// 是 Actor 的唯一寻址方式
type PID struct {
	// ID Actor 唯一标识（系统内）
	ID string
	// Address 网络地址，本地 Actor 为空
	Address string

	system *System
	cell   *actorCell
}

// String 返回 PID 的字符串表示
func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	if p.Address != "" {
		return fmt.Sprintf("%s@%s", p.ID, p.Address)
	}
	return p.ID
}

// Tell 发送消息（fire-and-forget）
// 入队不阻塞；目标存活期间消息不会丢失，同一发送者的消息保持 FIFO 顺序
func (p *PID) Tell(msg Message) {
	if p != nil && p.system != nil {
		p.system.Send(p, msg)
	}
}

// Actor Actor 接口
type Actor interface {
	// Receive 处理接收到的消息
	// 同一个 Actor 的 Receive 永远不会被并发调用
	Receive(ctx *Context, msg Message)
}

// ActorFunc 函数式 Actor，便于快速创建简单 Actor
type ActorFunc func(ctx *Context, msg Message)

// Receive 实现 Actor 接口
func (f ActorFunc) Receive(ctx *Context, msg Message) {
	f(ctx, msg)
}

// BaseActor 基础 Actor 实现
// 提供默认的空实现，方便嵌入
type BaseActor struct{}

// Receive 默认实现，不处理任何消息
func (b *BaseActor) Receive(_ *Context, _ Message) {}

// Context Actor 执行上下文
// 只在 Receive 调用期间有效，不要跨消息保存
type Context struct {
	// Self 当前 Actor 的 PID
	Self *PID
	// Sender 消息发送者的 PID（如果有）
	Sender *PID
	// Parent 父 Actor 的 PID（如果有）
	Parent *PID

	system  *System
	cell    *actorCell
	ctx     context.Context
	message Message
}

// Forward 转发当前消息到另一个 Actor，保留原发送者
func (c *Context) Forward(target *PID) {
	if c.message != nil {
		c.system.SendWithSender(target, c.message, c.Sender)
	}
}

// Spawn 创建子 Actor
// 子 Actor 在 Spawn 返回前已计入系统的完成屏障
func (c *Context) Spawn(actor Actor, name string) *PID {
	pid := c.system.spawn(actor, name, c.Self)
	c.cell.children = append(c.cell.children, pid)
	return pid
}

// SpawnWithProps 使用属性创建子 Actor
func (c *Context) SpawnWithProps(actor Actor, props *Props) *PID {
	pid := c.system.spawnWithProps(actor, props, c.Self)
	c.cell.children = append(c.cell.children, pid)
	return pid
}

// Children 返回当前 Actor 创建过的子 Actor，按创建顺序
func (c *Context) Children() []*PID {
	out := make([]*PID, len(c.cell.children))
	copy(out, c.cell.children)
	return out
}

// Stop 停止指定 Actor（发送 PoisonPill，排在已入队消息之后）
func (c *Context) Stop(pid *PID) {
	c.system.Stop(pid)
}

// StopSelf 在当前消息处理完后立即停止当前 Actor
// 邮箱中剩余的消息计为死信
func (c *Context) StopSelf() {
	c.cell.stopRequested = true
}

// Context 获取 Go context，系统关闭时取消
func (c *Context) Context() context.Context {
	return c.ctx
}

// Message 获取当前正在处理的消息
func (c *Context) Message() Message {
	return c.message
}

// System 获取 Actor 系统引用
func (c *Context) System() *System {
	return c.system
}

// Props Actor 属性配置
type Props struct {
	// Name Actor 名称，系统内唯一
	Name string
	// Dispatcher 调度器类型
	Dispatcher DispatcherType
}

// DefaultProps 默认属性
func DefaultProps(name string) *Props {
	return &Props{
		Name:       name,
		Dispatcher: DispatcherDefault,
	}
}

// WithDispatcher 设置调度器
func (p *Props) WithDispatcher(d DispatcherType) *Props {
	p.Dispatcher = d
	return p
}

// DispatcherType 调度器类型
type DispatcherType int

const (
	// DispatcherDefault 默认调度器（每个 Actor 一个 goroutine）
	DispatcherDefault DispatcherType = iota
	// DispatcherShared 共享调度器（多个 Actor 共享 goroutine 池）
	DispatcherShared
)

// String 返回调度器名称
func (d DispatcherType) String() string {
	switch d {
	case DispatcherDefault:
		return "default"
	case DispatcherShared:
		return "shared"
	default:
		return "unknown"
	}
}

// ParseDispatcher 解析调度器名称
func ParseDispatcher(name string) (DispatcherType, error) {
	switch name {
	case "", "default":
		return DispatcherDefault, nil
	case "shared":
		return DispatcherShared, nil
	default:
		return DispatcherDefault, fmt.Errorf("%w: %q", ErrInvalidDispatcher, name)
	}
}

// ============== 系统消息 ==============

// Started Actor 启动完成消息，总是 Actor 收到的第一条消息
type Started struct{}

// Kind 实现 Message 接口
func (s *Started) Kind() string { return "system.started" }

// Stopping Actor 正在停止消息（处理 PoisonPill 时投递）
type Stopping struct{}

// Kind 实现 Message 接口
func (s *Stopping) Kind() string { return "system.stopping" }

// Stopped Actor 已停止消息，总是最后一条
type Stopped struct{}

// Kind 实现 Message 接口
func (s *Stopped) Kind() string { return "system.stopped" }

// PoisonPill 毒丸消息，处理完之前入队的消息后停止 Actor
type PoisonPill struct{}

// Kind 实现 Message 接口
func (p *PoisonPill) Kind() string { return "system.poison_pill" }
