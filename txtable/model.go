package txtable

import (
	"sync"
	"time"
)

// 参与者本地的一个工作单元，通常是一笔尚未提交的数据库事务
type UnitOfWork interface {
	Commit() error
	Rollback() error
}

// 事务记录状态
type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCommitted Status = "COMMITTED"
	StatusAborted   Status = "ABORTED"
)

func (s Status) String() string {
	return string(s)
}

// 观察事务记录的生命周期，用于打点
type Observer interface {
	Opened(txID string)
	Closed(txID string, status Status, reaped bool)
}

type nopObserver struct{}

func (nopObserver) Opened(string)                {}
func (nopObserver) Closed(string, Status, bool) {}

// 一笔事务在参与者侧的记录
type record[U UnitOfWork] struct {
	// 串行化同一事务上的 prepare / 终结 / 回收
	mux       sync.Mutex
	txID      string
	unit      U
	keys      map[string]struct{}
	status    Status
	createdAt time.Time
	touchedAt time.Time
}

func (r *record[U]) keyList() []string {
	keys := make([]string, 0, len(r.keys))
	for key := range r.keys {
		keys = append(keys, key)
	}
	return keys
}

// 已终结事务的终态
type tombstone struct {
	status Status
	at     time.Time
}
