// Package sieve 基于 Actor 流水线的埃拉托斯特尼筛
//
// 流水线由若干级过滤 Actor 组成，头部以 2 为种子。
// 奇数候选按递增顺序送入头部，每一级用本级素数做试除：
//
//   - 有因子：丢弃
//   - 无因子且本级未满：追加为本级素数
//   - 无因子且本级已满：交给下一级；下一级不存在时以该候选为种子创建
//
// 最后一个候选之后发送 Shutdown，沿链逐级转发并停止各级。
// 完成屏障覆盖运行期间间接创建的所有级，屏障返回后沿链累加得到素数个数。
//
// # 快速开始
//
//	n := sieve.CountPrimes(1000) // 168
//
// # 配置
//
//	s, err := sieve.New(
//	    sieve.WithCapacity(100),
//	    sieve.WithDispatcher(actor.DispatcherShared),
//	    sieve.WithWorkers(8),
//	)
//	res, err := s.Run(ctx, 1_000_000)
//	fmt.Println(res.Count, len(res.Agents))
//
// 每次 Run 使用独立的 actor.System，CountAll 可并发执行多个互不相关的运行。
// Sequential 提供位数组筛法作为参照。
package sieve
