package gocheckout

import (
	"context"
	"fmt"
	"sync"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

// 读取订单、购物车及支付状态
type OrderReader interface {
	FindOrder(ctx context.Context, orderID string) (*Order, error)
}

// 支付参与者：单次暂存
type PaymentParticipant interface {
	PreparePay(ctx context.Context, txID, userID, orderID string, amount float64) error
	EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error
}

// 库存参与者：同一事务 id 下累积暂存
type StockParticipant interface {
	PrepareSubtract(ctx context.Context, txID, itemID string, amount int) error
	EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error
}

// Locker 非阻塞加锁，锁被占用时返回错误；返回的函数用于解锁
type Locker interface {
	Lock(ctx context.Context, key string) (func(ctx context.Context) error, error)
}

type Publisher interface {
	Publish(ctx context.Context, key string, payload interface{}) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}

// LocalLocker 进程内的 Locker，单副本部署时使用
type LocalLocker struct {
	mux  sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]struct{}),
	}
}

func (l *LocalLocker) Lock(_ context.Context, key string) (func(ctx context.Context) error, error) {
	l.mux.Lock()
	defer l.mux.Unlock()
	if _, ok := l.held[key]; ok {
		return nil, fmt.Errorf("lock %s is held", key)
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mux.Lock()
			delete(l.held, key)
			l.mux.Unlock()
		})
		return nil
	}, nil
}
