package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xiaoxuxiansheng/gocheckout/log"
	"github.com/xiaoxuxiansheng/gocheckout/protocol"
	"github.com/xiaoxuxiansheng/gocheckout/service/payment/dao"
	"github.com/xiaoxuxiansheng/gocheckout/txtable"
)

var errNegativeAmount = errors.New("amount must not be negative")

// Service 支付参与者：扣减用户余额并记录支付凭据
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

// PreparePay 在新事务 txID 下暂存一次扣款，事务保持 OPEN 直到 EndTransaction.
// 订单已支付过时直接成功，不重复扣款
func (s *Service) PreparePay(ctx context.Context, txID, userID, orderID string, amount float64) error {
	if amount < 0 {
		return errNegativeAmount
	}

	keys := []string{protocol.UserKey(userID), protocol.OrderKey(orderID)}
	err := s.table.Prepare(ctx, txID, keys, s.begin, func(ctx context.Context, session Session) error {
		return pay(ctx, session, userID, orderID, amount)
	})
	if err != nil {
		log.WarnContextf(ctx, "prepare pay failed, user: %s, order: %s, amount: %v, err: %v", userID, orderID, amount, err)
		return err
	}
	log.InfoContextf(ctx, "prepare pay staged, user: %s, order: %s, amount: %v", userID, orderID, amount)
	return nil
}

func (s *Service) EndTransaction(ctx context.Context, txID string, decision protocol.Decision) error {
	if err := s.table.End(ctx, txID, decision); err != nil {
		return err
	}
	log.InfoContextf(ctx, "transaction finalized, decision: %s", decision)
	return nil
}

func (s *Service) CreateUser(ctx context.Context) (string, error) {
	user := dao.User{UserID: uuid.NewString()}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return "", err
	}
	return user.UserID, nil
}

func (s *Service) FindUser(ctx context.Context, userID string) (*dao.User, error) {
	if !s.table.IsAvailable(protocol.UserKey(userID)) {
		return nil, fmt.Errorf("%w: user %s", protocol.ErrResourceBusy, userID)
	}

	var user *dao.User
	err := s.run(ctx, func(session Session) error {
		var err error
		user, err = session.FindUser(ctx, userID)
		return err
	})
	return user, err
}

func (s *Service) AddFunds(ctx context.Context, userID string, amount float64) error {
	if amount < 0 {
		return errNegativeAmount
	}
	if !s.table.IsAvailable(protocol.UserKey(userID)) {
		return fmt.Errorf("%w: user %s", protocol.ErrResourceBusy, userID)
	}

	return s.run(ctx, func(session Session) error {
		if _, err := session.FindUser(ctx, userID); err != nil {
			return err
		}
		return session.AddCredit(ctx, userID, amount)
	})
}

// Pay 不经过两阶段，直接扣款并提交
func (s *Service) Pay(ctx context.Context, userID, orderID string, amount float64) error {
	if amount < 0 {
		return errNegativeAmount
	}
	if !s.table.IsAvailable(protocol.UserKey(userID), protocol.OrderKey(orderID)) {
		return fmt.Errorf("%w: user %s, order %s", protocol.ErrResourceBusy, userID, orderID)
	}

	return s.run(ctx, func(session Session) error {
		return pay(ctx, session, userID, orderID, amount)
	})
}

// Cancel 退还订单已支付的金额并删除支付凭据
func (s *Service) Cancel(ctx context.Context, userID, orderID string) error {
	if !s.table.IsAvailable(protocol.UserKey(userID), protocol.OrderKey(orderID)) {
		return fmt.Errorf("%w: user %s, order %s", protocol.ErrResourceBusy, userID, orderID)
	}

	return s.run(ctx, func(session Session) error {
		if _, err := session.FindUser(ctx, userID); err != nil {
			return err
		}
		payment, err := session.FindPayment(ctx, userID, orderID)
		if err != nil {
			return err
		}
		if payment == nil {
			return fmt.Errorf("%w: payment of order %s", protocol.ErrNotFound, orderID)
		}
		if err := session.AddCredit(ctx, userID, payment.Amount); err != nil {
			return err
		}
		return session.DeletePayments(ctx, userID, orderID)
	})
}

// Status 订单是否已支付
func (s *Service) Status(ctx context.Context, userID, orderID string) (bool, error) {
	if !s.table.IsAvailable(protocol.UserKey(userID), protocol.OrderKey(orderID)) {
		return false, fmt.Errorf("%w: user %s, order %s", protocol.ErrResourceBusy, userID, orderID)
	}

	var paid bool
	err := s.run(ctx, func(session Session) error {
		if _, err := session.FindUser(ctx, userID); err != nil {
			return err
		}
		payment, err := session.FindPayment(ctx, userID, orderID)
		paid = payment != nil
		return err
	})
	return paid, err
}

// prepare 暂存的事务要活过本次请求，不能随请求 ctx 一起取消
func (s *Service) begin(ctx context.Context) (Session, error) {
	return s.store.Begin(context.WithoutCancel(ctx))
}

// 单阶段执行：fn 成功即提交，否则回滚
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

func pay(ctx context.Context, session Session, userID, orderID string, amount float64) error {
	user, err := session.FindUser(ctx, userID)
	if err != nil {
		return err
	}

	paid, err := session.FindPayment(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if paid != nil {
		log.InfoContextf(ctx, "order %s already paid, skip debit", orderID)
		return nil
	}

	if user.Credit < amount {
		return fmt.Errorf("%w: credit %v, amount %v", protocol.ErrInsufficientFunds, user.Credit, amount)
	}
	if err := session.AddCredit(ctx, userID, -amount); err != nil {
		return err
	}
	return session.CreatePayment(ctx, &dao.Payment{
		UserID:  userID,
		OrderID: orderID,
		Amount:  amount,
	})
}
