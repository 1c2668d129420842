package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/xiaoxuxiansheng/gocheckout/config"
	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/metrics"
	"github.com/xiaoxuxiansheng/gocheckout/pkg"
	"github.com/xiaoxuxiansheng/gocheckout/server"
	"github.com/xiaoxuxiansheng/gocheckout/service/payment"
	"github.com/xiaoxuxiansheng/gocheckout/service/payment/dao"
	"github.com/xiaoxuxiansheng/gocheckout/txtable"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed, err: %v", err)
	}
	log.SetDefaultLogger(log.NewSugarLogger(log.NewOptions(
		log.WithLogName("payment"),
		log.WithLogLevel(conf.LogLevel),
		log.WithFileName(conf.LogFile),
	)))
	defer func() { _ = log.Sync() }()

	db, err := pkg.NewDB(conf.DatabaseDriver, conf.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database failed, err: %v", err)
	}
	paymentDAO := dao.NewPaymentDAO(db)
	if err := paymentDAO.AutoMigrate(); err != nil {
		log.Fatalf("migrate failed, err: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	table := txtable.NewTable[payment.Session](
		txtable.WithLease(conf.TXLease),
		txtable.WithReapTick(conf.ReapTick),
		txtable.WithRetention(conf.TXRetention),
		txtable.WithObserver(metrics.NewParticipantMetrics(reg, "payment")),
	)
	defer table.Stop()

	router := server.NewRouter(
		server.WithRateLimit(conf.RateLimit, conf.RateBurst),
		server.WithMetrics(metrics.NewServerMetrics(reg, "payment")),
	)
	payment.NewHandler(payment.NewService(payment.NewStore(paymentDAO), table)).Register(router)
	router.Health(pkg.Ping(db))
	router.Metrics(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("payment service listening on %s", conf.Addr())
	if err := server.Run(ctx, conf.Addr(), router); err != nil {
		log.Errorf("payment service exited, err: %v", err)
	}
}
