package order

import (
	"context"

	"github.com/xiaoxuxiansheng/gocheckout"
	"github.com/xiaoxuxiansheng/gocheckout/client"
	"github.com/xiaoxuxiansheng/gocheckout/service/order/dao"
)

type Store interface {
	CreateOrder(ctx context.Context, order *dao.Order) error
	DeleteOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*dao.Order, error)
	AddItem(ctx context.Context, orderID, itemID string) error
	RemoveItem(ctx context.Context, orderID, itemID string) error
	ListItems(ctx context.Context, orderID string) ([]string, error)
}

type PaymentStatus interface {
	Status(ctx context.Context, userID, orderID string) (bool, error)
}

type ItemFinder interface {
	FindItem(ctx context.Context, itemID string) (*client.Item, error)
}

// Reader 组装协调者需要的订单视图：订单行、支付状态、按购物车行累加的总价
type Reader struct {
	store   Store
	payment PaymentStatus
	stock   ItemFinder
}

func NewReader(store Store, payment PaymentStatus, stock ItemFinder) *Reader {
	return &Reader{
		store:   store,
		payment: payment,
		stock:   stock,
	}
}

func (r *Reader) FindOrder(ctx context.Context, orderID string) (*gocheckout.Order, error) {
	order, err := r.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := r.store.ListItems(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paid, err := r.payment.Status(ctx, order.UserID, orderID)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(items))
	var total float64
	for _, itemID := range items {
		price, ok := prices[itemID]
		if !ok {
			item, err := r.stock.FindItem(ctx, itemID)
			if err != nil {
				return nil, err
			}
			price = item.Price
			prices[itemID] = price
		}
		total += price
	}

	return &gocheckout.Order{
		OrderID:   orderID,
		UserID:    order.UserID,
		Paid:      paid,
		Items:     items,
		TotalCost: total,
	}, nil
}
