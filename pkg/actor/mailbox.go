package actor

import "sync"

// ═══════════════════════════════════════════════════════════════════════════
// 无界 FIFO 队列
// ═══════════════════════════════════════════════════════════════════════════

// compactThreshold 队头空洞超过该长度且占一半以上时整理底层数组
const compactThreshold = 1024

// queue 互斥锁保护的无界 FIFO 队列
// 入队永不阻塞；关闭后拒绝入队
type queue[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	closed bool
}

// push 入队，队列已关闭时返回 false
func (q *queue[T]) push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	return true
}

// pop 出队，队列为空时返回 false
func (q *queue[T]) pop() (T, bool) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		return zero, false
	}
	v := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head >= compactThreshold && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return v, true
}

// len 返回队列中待处理元素数量
func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// close 关闭队列并取出所有剩余元素
func (q *queue[T]) close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	rest := make([]T, len(q.items)-q.head)
	copy(rest, q.items[q.head:])
	q.items = nil
	q.head = 0
	return rest
}

// ═══════════════════════════════════════════════════════════════════════════
// Actor 邮箱
// ═══════════════════════════════════════════════════════════════════════════

// mailbox Actor 邮箱
// ready 最多缓存一个唤醒信号，供独占 goroutine 的 Actor 等待新消息
type mailbox struct {
	q     queue[envelope]
	ready chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

// enqueue 投递消息，邮箱已关闭时返回 false
func (m *mailbox) enqueue(env envelope) bool {
	if !m.q.push(env) {
		return false
	}
	select {
	case m.ready <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) dequeue() (envelope, bool) {
	return m.q.pop()
}

func (m *mailbox) len() int {
	return m.q.len()
}

// close 关闭邮箱，返回未处理的消息
func (m *mailbox) close() []envelope {
	return m.q.close()
}
