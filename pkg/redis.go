package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/xiaoxuxiansheng/redis_lock"
)

func NewRedisClient(network, address, password string) *redis_lock.Client {
	return redis_lock.NewClient(network, address, password)
}

// 构造 checkout 锁 key，同一订单同一时刻只允许一个 checkout
func BuildCheckoutLockKey(orderID string) string {
	return fmt.Sprintf("gocheckout:checkout:lock:%s", orderID)
}

// RedisLocker 基于 redis 分布式锁，多个协调者副本之间互斥
type RedisLocker struct {
	client *redis_lock.Client
	expire time.Duration
}

func NewRedisLocker(client *redis_lock.Client, expire time.Duration) *RedisLocker {
	if expire < time.Second {
		expire = time.Second
	}
	return &RedisLocker{
		client: client,
		expire: expire,
	}
}

// Lock 非阻塞加锁，锁被占用时直接返回错误
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(ctx context.Context) error, error) {
	lock := redis_lock.NewRedisLock(BuildCheckoutLockKey(key), r.client, redis_lock.WithExpireSeconds(int64(r.expire.Seconds())))
	if err := lock.Lock(ctx); err != nil {
		return nil, err
	}
	return lock.Unlock, nil
}
