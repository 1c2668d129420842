package server

import (
	"time"

	"github.com/xiaoxuxiansheng/gocheckout/metrics"
)

type Options struct {
	// 每秒放行请求数，<= 0 时不限流
	RateLimit float64
	Burst     int
	Metrics   *metrics.ServerMetrics
	// 优雅退出等待时长
	ShutdownTimeout time.Duration
}

type Option func(*Options)

func WithRateLimit(rps float64, burst int) Option {
	if burst <= 0 {
		burst = 1
	}

	return func(o *Options) {
		o.RateLimit = rps
		o.Burst = burst
	}
}

func WithMetrics(m *metrics.ServerMetrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return func(o *Options) {
		o.ShutdownTimeout = timeout
	}
}

func repair(o *Options) {
	if o.Burst <= 0 {
		o.Burst = 1
	}

	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 5 * time.Second
	}
}
