package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/metrics"
)

// Router 在 httprouter 之上统一挂载限流、打点与访问日志
type Router struct {
	*httprouter.Router
	opts    *Options
	limiter *rate.Limiter
}

func NewRouter(opts ...Option) *Router {
	r := Router{
		Router: httprouter.New(),
		opts:   &Options{},
	}

	for _, opt := range opts {
		opt(r.opts)
	}

	repair(r.opts)

	if r.opts.RateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(r.opts.RateLimit), r.opts.Burst)
	}
	return &r
}

// Route 注册路由，name 作为打点与日志中的 handler 名称
func (r *Router) Route(method, path, name string, handle httprouter.Handle) {
	r.Router.Handle(method, path, r.wrap(name, handle))
}

func (r *Router) wrap(name string, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		if r.limiter != nil && !r.limiter.Allow() {
			Text(sw, http.StatusTooManyRequests, "too many requests")
		} else {
			handle(sw, req, ps)
		}

		cost := time.Since(start)
		if r.opts.Metrics != nil {
			r.opts.Metrics.Observe(name, sw.status, float64(cost.Milliseconds()))
		}
		log.Debugf("%s %s -> %d, cost: %v", req.Method, req.URL.Path, sw.status, cost)
	}
}

// Health 注册健康检查，ping 为空时总是健康
func (r *Router) Health(ping func(ctx context.Context) error) {
	r.Route(http.MethodGet, "/health", "health", func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		if ping != nil {
			if err := ping(req.Context()); err != nil {
				JSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "db_error"})
				return
			}
		}
		JSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})
}

func (r *Router) Metrics(gatherer prometheus.Gatherer) {
	r.Router.Handler(http.MethodGet, "/metrics", metrics.Handler(gatherer))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func Text(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}

func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Run 启动 http 服务，ctx 结束时优雅退出
func Run(ctx context.Context, addr string, handler http.Handler, opts ...Option) error {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	repair(o)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}
