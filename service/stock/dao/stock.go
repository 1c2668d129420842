package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

type StockDAO struct {
	db *gorm.DB
}

func NewStockDAO(db *gorm.DB) *StockDAO {
	return &StockDAO{
		db: db,
	}
}

func (s *StockDAO) AutoMigrate() error {
	return s.db.AutoMigrate(&Stock{})
}

func (s *StockDAO) Begin(ctx context.Context) (*Session, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Session{tx: tx}, nil
}

func (s *StockDAO) CreateItem(ctx context.Context, item *Stock) error {
	return s.db.WithContext(ctx).Create(item).Error
}

type Session struct {
	tx *gorm.DB
}

func (s *Session) Commit() error {
	return s.tx.Commit().Error
}

func (s *Session) Rollback() error {
	return s.tx.Rollback().Error
}

// FindItem 查询并锁住商品行
func (s *Session) FindItem(ctx context.Context, itemID string) (*Stock, error) {
	var items []*Stock
	if err := s.tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ?", itemID).Limit(2).Find(&items).Error; err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, protocol.ErrNotFound
	case 1:
		return items[0], nil
	default:
		return nil, protocol.ErrMultipleFound
	}
}

func (s *Session) AddStock(ctx context.Context, itemID string, delta int) error {
	return s.tx.WithContext(ctx).Model(&Stock{}).Where("item_id = ?", itemID).
		Update("stock", gorm.Expr("stock + ?", delta)).Error
}
