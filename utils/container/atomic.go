package container

import (
	"sync/atomic"
)

// AtomicValue 原子替换的不可变快照
// 功能：保存某个值的最新版本，写入方整体替换，读取方拿到一致的快照
// 说明：写入使用copy-on-write + CAS，读取无锁；快照一经发布不得再修改
type AtomicValue[T any] struct {
	p atomic.Pointer[T]
}

// NewAtomicValue 创建原子快照容器
// 参数：init-初始值
func NewAtomicValue[T any](init T) *AtomicValue[T] {
	a := &AtomicValue[T]{}
	a.p.Store(&init)
	return a
}

// Load 读取当前快照
// 返回：当前值，如果从未写入则返回零值
func (a *AtomicValue[T]) Load() T {
	if v := a.p.Load(); v != nil {
		return *v
	}
	var zero T
	return zero
}

// Store 整体替换为新值
func (a *AtomicValue[T]) Store(v T) {
	a.p.Store(&v)
}

// Update 以CAS方式基于旧值计算并发布新值
// 功能：fn接收当前快照并返回新快照，若期间被其他写入方抢先则重试
// 参数：fn-更新函数，可能被调用多次，必须无副作用
// 返回：最终发布的新值
func (a *AtomicValue[T]) Update(fn func(old T) T) T {
	for {
		old := a.p.Load()
		var cur T
		if old != nil {
			cur = *old
		}
		next := fn(cur)
		if a.p.CompareAndSwap(old, &next) {
			return next
		}
	}
}
