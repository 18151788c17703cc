// Package actor 提供轻量级 Actor 模型实现
//
// Actor 模式是一种并发计算模型，每个 Actor 是独立的计算单元：
// • 拥有私有状态（无需锁保护）
// • 通过消息邮箱（mailbox）接收消息
// • 消息处理串行化（一次处理一条）
// • 可以创建子 Actor、发送消息、修改自身状态
//
// # 核心组件
//
// [System] 是 Actor 系统的入口，管理所有 Actor 的生命周期：
//
//	sys := actor.NewSystem("my-system")
//	defer sys.Shutdown()
//
// [Actor] 接口定义消息处理行为，[ActorFunc] 提供函数式快捷方式。
//
// [PID] 是 Actor 的唯一标识，[PID.Tell] 异步发送消息（fire-and-forget）。
// 邮箱是无界 FIFO 队列：发送永不阻塞，目标存活期间消息不会丢失，
// 同一发送者发往同一目标的消息按发送顺序处理。
//
// [Context] 提供 Actor 运行时上下文，支持转发消息、创建子 Actor、停止自身等操作。
//
// # 调度器
//
// [DispatcherDefault] 为每个 Actor 启动一个 goroutine；
// [DispatcherShared] 把所有 Actor 复用到 [SystemConfig].Workers 个 worker 上，
// 同一个 Actor 任意时刻只在一个 worker 上运行。
//
// # 完成屏障
//
// 每次 Spawn 都在返回前把新 Actor 计入系统的存活计数，Actor 处理完最后一条消息后才退出计数。
// [System.Wait] 阻塞到存活计数归零，因此覆盖由其他 Actor 间接创建的 Actor：
//
//	err := sys.Finish(ctx, func() error {
//	    head := sys.Spawn(worker, "head")
//	    head.Tell(&Job{})
//	    return nil
//	})
//
// Receive 中发生的 panic 会被恢复并记录为系统失败，Wait 返回第一个 [ActorPanicError]。
//
// # 系统消息
//
// Actor 生命周期中会收到以下系统消息：[Started] 启动完成（总是第一条），
// [Stopping] 处理 [PoisonPill] 时投递，[Stopped] 已停止（总是最后一条）。
//
// 完整使用示例请参考 example_test.go 或运行 go doc -all。
package actor
