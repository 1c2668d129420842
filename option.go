package gocheckout

import (
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/idgen"
	"github.com/xiaoxuxiansheng/gocheckout/metrics"
)

type Options struct {
	// 单次远程调用时长限制
	CallTimeout time.Duration
	// 事务 id 分配器
	Allocator idgen.Allocator
	// 同一订单的 checkout 互斥，为空时不加锁
	Locker Locker
	// checkout 终结后的事件投递，为空时不投递
	Publisher Publisher
	Metrics   *metrics.CheckoutMetrics
}

type Option func(*Options)

func WithCallTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		timeout = 2500 * time.Millisecond
	}

	return func(o *Options) {
		o.CallTimeout = timeout
	}
}

func WithAllocator(allocator idgen.Allocator) Option {
	return func(o *Options) {
		o.Allocator = allocator
	}
}

func WithLocker(locker Locker) Option {
	return func(o *Options) {
		o.Locker = locker
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(o *Options) {
		o.Publisher = publisher
	}
}

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

func repair(o *Options) {
	if o.CallTimeout <= 0 {
		o.CallTimeout = 2500 * time.Millisecond
	}

	if o.Allocator == nil {
		o.Allocator = idgen.NewUUID()
	}

	if o.Publisher == nil {
		o.Publisher = nopPublisher{}
	}
}
