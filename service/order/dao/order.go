package dao

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiaoxuxiansheng/gocheckout/protocol"
)

type OrderDAO struct {
	db *gorm.DB
}

func NewOrderDAO(db *gorm.DB) *OrderDAO {
	return &OrderDAO{
		db: db,
	}
}

func (o *OrderDAO) AutoMigrate() error {
	return o.db.AutoMigrate(&Order{}, &Cart{})
}

func (o *OrderDAO) CreateOrder(ctx context.Context, order *Order) error {
	return o.db.WithContext(ctx).Create(order).Error
}

// DeleteOrder 连同购物车一起删除
func (o *OrderDAO) DeleteOrder(ctx context.Context, orderID string) error {
	return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&Cart{}).Error; err != nil {
			return err
		}
		return tx.Where("order_id = ?", orderID).Delete(&Order{}).Error
	})
}

func (o *OrderDAO) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var orders []*Order
	if err := o.db.WithContext(ctx).Where("order_id = ?", orderID).Limit(2).Find(&orders).Error; err != nil {
		return nil, err
	}
	switch len(orders) {
	case 0:
		return nil, protocol.ErrNotFound
	case 1:
		return orders[0], nil
	default:
		return nil, protocol.ErrMultipleFound
	}
}

func (o *OrderDAO) AddItem(ctx context.Context, orderID, itemID string) error {
	return o.db.WithContext(ctx).Create(&Cart{OrderID: orderID, ItemID: itemID}).Error
}

func (o *OrderDAO) RemoveItem(ctx context.Context, orderID, itemID string) error {
	return o.db.WithContext(ctx).Where("order_id = ? AND item_id = ?", orderID, itemID).Delete(&Cart{}).Error
}

// ListItems 按加入顺序返回购物车中的商品 id
func (o *OrderDAO) ListItems(ctx context.Context, orderID string) ([]string, error) {
	var carts []*Cart
	if err := o.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&carts).Error; err != nil {
		return nil, err
	}
	items := make([]string, 0, len(carts))
	for _, cart := range carts {
		items = append(items, cart.ItemID)
	}
	return items, nil
}
