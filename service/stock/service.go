package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
	"github.com/xiaoxuxiansheng/gocheckout/service/stock/dao"
	"github.com/xiaoxuxiansheng/gocheckout/txtable"
)

var errNegativeAmount = errors.New("amount must not be negative")

// Service 库存参与者
type Service struct {
	store Store
	table *txtable.Table[Session]
}

func NewService(store Store, table *txtable.Table[Session]) *Service {
	return &Service{
		store: store,
		table: table,
	}
}

// PrepareSubtract 在事务 txID 下累积暂存一次扣减库存.
// 首次调用开启本地事务，之后的调用复用同一事务；失败时此前已暂存的扣减保留，等待显式回滚
func (s *Service) PrepareSubtract(ctx context.Context, txID, itemID string, amount int) error {
	if amount < 0 {
		return errNegativeAmount
	}

	err := s.table.Join(ctx, txID, protocol.ItemKey(itemID), s.begin, func(ctx context.Context, session Session) error {
		return subtract(ctx, session, itemID, amount)
	})
	if err != nil {
		log.WarnContextf(ctx, "prepare subtract failed, item: %s, amount: %d, err: %v", itemID, amount, err)
		return err
	}
	log.InfoContextf(ctx, "prepare subtract staged, item: %s, amount: %d", itemID, amount)
	return nil
}

func (s *Service) EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error {
	if err := s.table.End(ctx, txID, decision); err != nil {
		return err
	}
	log.InfoContextf(ctx, "transaction finalized, decision: %s", decision)
	return nil
}

func (s *Service) CreateItem(ctx context.Context, price float64) (string, error) {
	if price < 0 {
		return "", errNegativeAmount
	}
	item := dao.Stock{ItemID: uuid.NewString(), Price: price}
	if err := s.store.CreateItem(ctx, &item); err != nil {
		return "", err
	}
	return item.ItemID, nil
}

func (s *Service) FindItem(ctx context.Context, itemID string) (*dao.Stock, error) {
	if !s.table.IsAvailable(protocol.ItemKey(itemID)) {
		return nil, fmt.Errorf("%w: item %s", protocol.ErrResourceBusy, itemID)
	}

	var item *dao.Stock
	err := s.run(ctx, func(session Session) error {
		var err error
		item, err = session.FindItem(ctx, itemID)
		return err
	})
	return item, err
}

func (s *Service) AddStock(ctx context.Context, itemID string, amount int) error {
	if amount < 0 {
		return errNegativeAmount
	}
	if !s.table.IsAvailable(protocol.ItemKey(itemID)) {
		return fmt.Errorf("%w: item %s", protocol.ErrResourceBusy, itemID)
	}

	return s.run(ctx, func(session Session) error {
		if _, err := session.FindItem(ctx, itemID); err != nil {
			return err
		}
		return session.AddStock(ctx, itemID, amount)
	})
}

// Subtract 不经过两阶段，直接扣减并提交
func (s *Service) Subtract(ctx context.Context, itemID string, amount int) error {
	if amount < 0 {
		return errNegativeAmount
	}
	if !s.table.IsAvailable(protocol.ItemKey(itemID)) {
		return fmt.Errorf("%w: item %s", protocol.ErrResourceBusy, itemID)
	}

	return s.run(ctx, func(session Session) error {
		return subtract(ctx, session, itemID, amount)
	})
}

func (s *Service) begin(ctx context.Context) (Session, error) {
	return s.store.Begin(context.WithoutCancel(ctx))
}

func (s *Service) run(ctx context.Context, fn func(session Session) error) error {
	session, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(session); err != nil {
		if _err := session.Rollback(); _err != nil {
			log.ErrorContextf(ctx, "rollback failed, err: %v", _err)
		}
		return err
	}
	return session.Commit()
}

// 库存不允许被扣成负数
func subtract(ctx context.Context, session Session, itemID string, amount int) error {
	item, err := session.FindItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Stock < amount {
		return fmt.Errorf("%w: item %s, stock %d, amount %d", protocol.ErrInsufficientStock, itemID, item.Stock, amount)
	}
	return session.AddStock(ctx, itemID, -amount)
}
