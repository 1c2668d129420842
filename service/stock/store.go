package stock

import (
	"context"

	"github.com/xiaoxuxiansheng/gocheckout/service/stock/dao"
	"github.com/xiaoxuxiansheng/gocheckout/txtable"
)

// Session 一笔未提交的本地事务，同一事务 id 下的多次 prepare 共用
type Session interface {
	txtable.UnitOfWork
	// 查询并锁住商品行
	FindItem(ctx context.Context, itemID string) (*dao.Stock, error)
	AddStock(ctx context.Context, itemID string, delta int) error
}

type Store interface {
	Begin(ctx context.Context) (Session, error)
	CreateItem(ctx context.Context, item *dao.Stock) error
}

type gormStore struct {
	stockDAO *dao.StockDAO
}

func NewStore(stockDAO *dao.StockDAO) Store {
	return &gormStore{
		stockDAO: stockDAO,
	}
}

func (g *gormStore) Begin(ctx context.Context) (Session, error) {
	session, err := g.stockDAO.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (g *gormStore) CreateItem(ctx context.Context, item *dao.Stock) error {
	return g.stockDAO.CreateItem(ctx, item)
}
