package sieve

import (
	"fmt"

	"github.com/lwmacct/251215-go-pkg-sieve/pkg/actor"
)

// filter 流水线中的一级过滤 Actor
//
// 所有字段只由自身的消息处理流程修改；完成屏障返回之后才允许外部读取。
type filter struct {
	index    int
	capacity int

	// locals 本级发现的素数，严格递增，长度不超过 capacity
	locals []int

	// successor 下一级，只在本级已满且发现新素数时写入一次
	successor *filter
	next      *actor.PID

	received  int
	absorbed  int
	discarded int
	forwarded int
}

func newFilter(index, capacity, seed int) *filter {
	locals := make([]int, 1, capacity)
	locals[0] = seed
	return &filter{
		index:    index,
		capacity: capacity,
		locals:   locals,
	}
}

func filterName(index int) string {
	return fmt.Sprintf("filter-%d", index)
}

// Receive 实现 actor.Actor 接口
func (f *filter) Receive(ctx *actor.Context, msg actor.Message) {
	switch m := msg.(type) {
	case *Candidate:
		f.received++
		f.onCandidate(ctx, m)

	case *Shutdown:
		if f.next != nil {
			ctx.Forward(f.next)
		}
		ctx.StopSelf()
	}
}

func (f *filter) onCandidate(ctx *actor.Context, m *Candidate) {
	if !f.isLocallyPrime(m.Value) {
		f.discarded++
		return
	}

	switch {
	case len(f.locals) < f.capacity:
		f.locals = append(f.locals, m.Value)
		f.absorbed++

	case f.successor == nil:
		// 本级已满：以该素数为种子创建下一级，本级不再是队尾
		f.successor = newFilter(f.index+1, f.capacity, m.Value)
		f.next = ctx.Spawn(f.successor, filterName(f.index+1))
		f.forwarded++

	default:
		ctx.Forward(f.next)
		f.forwarded++
	}
}

// isLocallyPrime 用本级素数做试除，遇到第一个因子即返回
func (f *filter) isLocallyPrime(candidate int) bool {
	for _, p := range f.locals {
		if candidate%p == 0 {
			return false
		}
	}
	return true
}
