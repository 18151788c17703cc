package sieve

// Candidate 待检验的奇数，总是 ≥ 3
type Candidate struct {
	Value int
}

// Kind 实现 actor.Message 接口
func (c *Candidate) Kind() string { return "sieve.candidate" }

// Shutdown 终止信号，沿流水线逐级向后传递
type Shutdown struct{}

// Kind 实现 actor.Message 接口
func (s *Shutdown) Kind() string { return "sieve.shutdown" }
