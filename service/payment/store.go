package payment

import (
	"context"

	"github.com/xiaoxuxiansheng/gocheckout/service/payment/dao"
	"github.com/xiaoxuxiansheng/gocheckout/txtable"
)

// Session 一笔未提交的本地事务，prepare 成功后挂在事务表上直到终结
type Session interface {
	txtable.UnitOfWork
	// 查询并锁住用户行
	FindUser(ctx context.Context, userID string) (*dao.User, error)
	AddCredit(ctx context.Context, userID string, delta float64) error
	// 不存在时返回 nil
	FindPayment(ctx context.Context, userID, orderID string) (*dao.Payment, error)
	CreatePayment(ctx context.Context, payment *dao.Payment) error
	DeletePayments(ctx context.Context, userID, orderID string) error
}

type Store interface {
	Begin(ctx context.Context) (Session, error)
	CreateUser(ctx context.Context, user *dao.User) error
}

type gormStore struct {
	paymentDAO *dao.PaymentDAO
}

func NewStore(paymentDAO *dao.PaymentDAO) Store {
	return &gormStore{
		paymentDAO: paymentDAO,
	}
}

func (g *gormStore) Begin(ctx context.Context) (Session, error) {
	session, err := g.paymentDAO.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (g *gormStore) CreateUser(ctx context.Context, user *dao.User) error {
	return g.paymentDAO.CreateUser(ctx, user)
}
