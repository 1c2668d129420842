package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	LogLevel       string
	// stdout 或日志文件路径
	LogFile string

	// 协调者访问参与者
	PaymentURL     string
	StockURL       string
	RequestTimeout time.Duration
	TXIDMode       string

	// 参与者事务表
	TXLease     time.Duration
	ReapTick    time.Duration
	TXRetention time.Duration

	// 为空时 checkout 使用进程内锁
	RedisAddr     string
	RedisPassword string
	// 为空时不投递 checkout 事件
	KafkaBrokers string
	KafkaTopic   string

	// 每秒放行请求数，<= 0 时不限流
	RateLimit float64
	RateBurst int
}

// Load 从环境变量读取配置
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

func LoadFrom(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	conf := Config{
		Port:           get("PORT", "5000"),
		DatabaseDriver: get("DATABASE_DRIVER", "mysql"),
		DatabaseURL:    get("DATABASE_URL", ""),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFile:        get("LOG_FILE", "stdout"),
		PaymentURL:     strings.TrimRight(get("PAYMENT_URL", ""), "/"),
		StockURL:       strings.TrimRight(get("STOCK_URL", ""), "/"),
		TXIDMode:       get("TXID_MODE", "uuid"),
		RedisAddr:      get("REDIS_ADDR", ""),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		KafkaBrokers:   get("KAFKA_BROKERS", ""),
		KafkaTopic:     get("KAFKA_TOPIC", "checkout-events"),
	}
	if conf.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	var err error
	if conf.RequestTimeout, err = duration(get("REQUEST_TIMEOUT", "2500ms")); err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if conf.TXLease, err = duration(get("TX_LEASE", "30s")); err != nil {
		return nil, fmt.Errorf("TX_LEASE: %w", err)
	}
	if conf.ReapTick, err = duration(get("REAP_TICK", "5s")); err != nil {
		return nil, fmt.Errorf("REAP_TICK: %w", err)
	}
	if conf.TXRetention, err = duration(get("TX_RETENTION", "1m")); err != nil {
		return nil, fmt.Errorf("TX_RETENTION: %w", err)
	}
	if conf.RateLimit, err = cast.ToFloat64E(get("RATE_LIMIT", "0")); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT: %w", err)
	}
	if conf.RateBurst, err = cast.ToIntE(get("RATE_BURST", "100")); err != nil {
		return nil, fmt.Errorf("RATE_BURST: %w", err)
	}

	return &conf, nil
}

// 不带单位的数字按毫秒处理
func duration(s string) (time.Duration, error) {
	if ms, err := cast.ToInt64E(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return cast.ToDurationE(s)
}

// RequireParticipants 协调者启动前校验参与者地址
func (c *Config) RequireParticipants() error {
	if c.PaymentURL == "" || c.StockURL == "" {
		return errors.New("PAYMENT_URL and STOCK_URL are required")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
