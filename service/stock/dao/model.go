package dao

type Stock struct {
	ItemID string  `gorm:"column:item_id;primaryKey;type:varchar(36)" json:"item_id"`
	Stock  int     `gorm:"column:stock;not null" json:"stock"`
	Price  float64 `gorm:"column:price;not null" json:"price"`
}

func (s Stock) TableName() string {
	return "stocks"
}
