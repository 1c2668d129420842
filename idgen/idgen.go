package idgen

import (
	"sync/atomic"

	"github.com/demdxx/gocast"
	"github.com/google/uuid"
)

// 事务 id 分配器，要求并发调用下依然唯一
type Allocator interface {
	Next() string
}

const (
	ModeCounter = "counter"
	ModeUUID    = "uuid"
)

// 单调递增计数器
type Counter struct {
	n uint64
}

// start 为计数起点，第一次 Next 返回 start+1
func NewCounter(start uint64) *Counter {
	return &Counter{n: start}
}

func (c *Counter) Next() string {
	return gocast.ToString(atomic.AddUint64(&c.n, 1))
}

type UUID struct{}

func NewUUID() UUID {
	return UUID{}
}

func (UUID) Next() string {
	return uuid.NewString()
}

// 根据模式构造分配器，未知模式回退到 uuid
func New(mode string, start uint64) Allocator {
	if mode == ModeCounter {
		return NewCounter(start)
	}
	return NewUUID()
}
