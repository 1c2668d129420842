package txtable

import "time"

type Options struct {
	// 事务租约，自最近一次 prepare 起算，超过后由回收任务回滚
	Lease time.Duration
	// 轮询回收任务间隔时长
	ReapTick time.Duration
	// 事务终结后保留终态的时长，期间重复的终结请求幂等返回；为 0 时不保留
	Retention time.Duration
	Observer  Observer
}

type Option func(*Options)

func WithLease(lease time.Duration) Option {
	if lease <= 0 {
		lease = 30 * time.Second
	}

	return func(o *Options) {
		o.Lease = lease
	}
}

func WithReapTick(tick time.Duration) Option {
	if tick <= 0 {
		tick = 5 * time.Second
	}

	return func(o *Options) {
		o.ReapTick = tick
	}
}

func WithRetention(retention time.Duration) Option {
	if retention < 0 {
		retention = 0
	}

	return func(o *Options) {
		o.Retention = retention
	}
}

func WithObserver(observer Observer) Option {
	return func(o *Options) {
		o.Observer = observer
	}
}

func repair(o *Options) {
	if o.Lease <= 0 {
		o.Lease = 30 * time.Second
	}

	if o.ReapTick <= 0 {
		o.ReapTick = 5 * time.Second
	}

	if o.Retention < 0 {
		o.Retention = 0
	}

	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
}
