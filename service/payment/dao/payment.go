package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

type PaymentDAO struct {
	db *gorm.DB
}

func NewPaymentDAO(db *gorm.DB) *PaymentDAO {
	return &PaymentDAO{
		db: db,
	}
}

func (p *PaymentDAO) AutoMigrate() error {
	return p.db.AutoMigrate(&User{}, &Payment{})
}

// Begin 开启一笔数据库事务。ctx 决定事务本身的生命周期，prepare 场景下需要传入脱离请求的 ctx
func (p *PaymentDAO) Begin(ctx context.Context) (*Session, error) {
	tx := p.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Session{tx: tx}, nil
}

func (p *PaymentDAO) CreateUser(ctx context.Context, user *User) error {
	return p.db.WithContext(ctx).Create(user).Error
}

// Session 一笔未提交的数据库事务，其内的写入只对自身可见
type Session struct {
	tx *gorm.DB
}

func (s *Session) Commit() error {
	return s.tx.Commit().Error
}

func (s *Session) Rollback() error {
	return s.tx.Rollback().Error
}

// FindUser 查询并锁住用户行
func (s *Session) FindUser(ctx context.Context, userID string) (*User, error) {
	var users []*User
	if err := s.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).Limit(2).Find(&users).Error; err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, protocol.ErrNotFound
	case 1:
		return users[0], nil
	default:
		return nil, protocol.ErrMultipleFound
	}
}

func (s *Session) AddCredit(ctx context.Context, userID string, delta float64) error {
	return s.tx.WithContext(ctx).Model(&User{}).Where("user_id = ?", userID).
		Update("credit", gorm.Expr("credit + ?", delta)).Error
}

// FindPayment 不存在时返回 nil
func (s *Session) FindPayment(ctx context.Context, userID, orderID string) (*Payment, error) {
	var payments []*Payment
	if err := s.tx.WithContext(ctx).Where("user_id = ? AND order_id = ?", userID, orderID).
		Limit(2).Find(&payments).Error; err != nil {
		return nil, err
	}
	switch len(payments) {
	case 0:
		return nil, nil
	case 1:
		return payments[0], nil
	default:
		return nil, protocol.ErrMultipleFound
	}
}

func (s *Session) CreatePayment(ctx context.Context, payment *Payment) error {
	return s.tx.WithContext(ctx).Create(payment).Error
}

func (s *Session) DeletePayments(ctx context.Context, userID, orderID string) error {
	return s.tx.WithContext(ctx).Where("user_id = ? AND order_id = ?", userID, orderID).Delete(&Payment{}).Error
}
