package actor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDispatcher 未知的调度器名称
	ErrInvalidDispatcher = errors.New("invalid dispatcher")
	// ErrSystemStopped Actor 系统已关闭
	ErrSystemStopped = errors.New("actor system stopped")
)

// ActorPanicError Actor 处理消息时发生 panic
type ActorPanicError struct {
	Actor string
	Kind  string
	Value any
	Stack []byte
}

// Error 实现 error 接口
func (e *ActorPanicError) Error() string {
	return fmt.Sprintf("actor %s panicked on %s: %v", e.Actor, e.Kind, e.Value)
}

// Unwrap 如果 panic 值本身是 error，返回它
func (e *ActorPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
