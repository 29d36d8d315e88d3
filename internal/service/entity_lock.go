package service

import (
	"fmt"
	"sync"

	"memshaheb_backend/internal/model"
)

// entityLocks 按 (kind, local_id) 串行化推送，仅限本进程
type entityLocks struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

func newEntityLocks() *entityLocks {
	return &entityLocks{locks: make(map[string]*entityLock)}
}

// acquire 加锁并返回解锁函数；无人持有时条目被回收
func (l *entityLocks) acquire(kind model.ProductKind, localID int64) func() {
	key := fmt.Sprintf("%s:%d", kind, localID)

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &entityLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *entityLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
