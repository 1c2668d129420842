package dao

type Order struct {
	OrderID string `gorm:"column:order_id;primaryKey;type:varchar(36)" json:"order_id"`
	UserID  string `gorm:"column:user_id;type:varchar(36);not null" json:"user_id"`
}

func (o Order) TableName() string {
	return "orders"
}

// Cart 订单中的一行商品，同一商品加入多次即多行
type Cart struct {
	ID      uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID string `gorm:"column:order_id;type:varchar(36);not null;index" json:"order_id"`
	ItemID  string `gorm:"column:item_id;type:varchar(36);not null" json:"item_id"`
}

func (c Cart) TableName() string {
	return "carts"
}
