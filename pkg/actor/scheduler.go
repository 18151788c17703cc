package actor

import "sync"

// scheduler 共享调度器的工作池
// 就绪的 actorCell 进入运行队列，由固定数量的 worker 取出执行。
// 同一个 cell 同时最多出现在队列中一次（由 actorCell.processing 保证）。
type scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	runq   []*actorCell
	closed bool

	run func(*actorCell)
	wg  sync.WaitGroup
}

func newScheduler(workers int, run func(*actorCell)) *scheduler {
	if workers < 1 {
		workers = 1
	}
	s := &scheduler{run: run}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// submit 将 cell 放入运行队列
func (s *scheduler) submit(cell *actorCell) {
	s.mu.Lock()
	s.runq = append(s.runq, cell)
	s.mu.Unlock()
	s.cond.Signal()
}

func (s *scheduler) worker() {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		for len(s.runq) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.runq) == 0 {
			s.mu.Unlock()
			return
		}
		cell := s.runq[0]
		s.runq[0] = nil
		s.runq = s.runq[1:]
		s.mu.Unlock()

		s.run(cell)
	}
}

// stop 排空运行队列后停止所有 worker
func (s *scheduler) stop() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cond.Broadcast()
	s.wg.Wait()
}
