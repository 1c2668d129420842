package dao

type User struct {
	UserID string  `gorm:"column:user_id;primaryKey;type:varchar(36)" json:"user_id"`
	Credit float64 `gorm:"column:credit;not null" json:"credit"`
}

func (u User) TableName() string {
	return "users"
}

// 一次已提交扣款的凭据
type Payment struct {
	PaymentID uint    `gorm:"column:payment_id;primaryKey;autoIncrement" json:"payment_id"`
	UserID    string  `gorm:"column:user_id;type:varchar(36);not null;index:idx_payments_user_order" json:"user_id"`
	OrderID   string  `gorm:"column:order_id;type:varchar(36);not null;index:idx_payments_user_order" json:"order_id"`
	Amount    float64 `gorm:"column:amount;not null" json:"amount"`
}

func (p Payment) TableName() string {
	return "payments"
}
