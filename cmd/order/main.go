package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/xiaoxuxiansheng/gocheckout"
	"github.com/xiaoxuxiansheng/gocheckout/client"
	"github.com/xiaoxuxiansheng/gocheckout/config"
	"github.com/xiaoxuxiansheng/gocheckout/idgen"
	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/metrics"
	"github.com/xiaoxuxiansheng/gocheckout/pkg"
	"github.com/xiaoxuxiansheng/gocheckout/server"
	"github.com/xiaoxuxiansheng/gocheckout/service/order"
	"github.com/xiaoxuxiansheng/gocheckout/service/order/dao"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed, err: %v", err)
	}
	if err := conf.RequireParticipants(); err != nil {
		log.Fatalf("load config failed, err: %v", err)
	}
	log.SetDefaultLogger(log.NewSugarLogger(log.NewOptions(
		log.WithLogName("order"),
		log.WithLogLevel(conf.LogLevel),
		log.WithFileName(conf.LogFile),
	)))
	defer func() { _ = log.Sync() }()

	db, err := pkg.NewDB(conf.DatabaseDriver, conf.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database failed, err: %v", err)
	}
	orderDAO := dao.NewOrderDAO(db)
	if err := orderDAO.AutoMigrate(); err != nil {
		log.Fatalf("migrate failed, err: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 计数器以启动时刻为起点，重启后不会复用之前的事务 id
	allocator := idgen.New(conf.TXIDMode, uint64(time.Now().UnixNano()))
	opts := []gocheckout.Option{
		gocheckout.WithCallTimeout(conf.RequestTimeout),
		gocheckout.WithAllocator(allocator),
		gocheckout.WithMetrics(metrics.NewCheckoutMetrics(reg, "order")),
	}
	if conf.RedisAddr != "" {
		redisClient := pkg.NewRedisClient("tcp", conf.RedisAddr, conf.RedisPassword)
		opts = append(opts, gocheckout.WithLocker(pkg.NewRedisLocker(redisClient, 4*conf.RequestTimeout)))
	} else {
		opts = append(opts, gocheckout.WithLocker(gocheckout.NewLocalLocker()))
	}
	if publisher := pkg.NewKafkaPublisher(conf.KafkaBrokers, conf.KafkaTopic); publisher != nil {
		defer func() { _ = publisher.Close() }()
		opts = append(opts, gocheckout.WithPublisher(publisher))
	}

	paymentClient := client.NewPaymentClient(conf.PaymentURL, conf.RequestTimeout)
	stockClient := client.NewStockClient(conf.StockURL, conf.RequestTimeout)
	reader := order.NewReader(orderDAO, paymentClient, stockClient)
	coordinator := gocheckout.NewCoordinator(reader, paymentClient, stockClient, opts...)

	router := server.NewRouter(
		server.WithRateLimit(conf.RateLimit, conf.RateBurst),
		server.WithMetrics(metrics.NewServerMetrics(reg, "order")),
	)
	order.NewHandler(order.NewService(orderDAO, reader, coordinator)).Register(router)
	router.Health(pkg.Ping(db))
	router.Metrics(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("order service listening on %s", conf.Addr())
	if err := server.Run(ctx, conf.Addr(), router); err != nil {
		log.Errorf("order service exited, err: %v", err)
	}
}
