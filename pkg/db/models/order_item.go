package models

// OrderItem freezes the price and delivery payload an item carried when its
// order was created. Later catalog edits never touch existing orders.
type OrderItem struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID    string `gorm:"column:order_id;not null;index"`
	ItemID     int64  `gorm:"column:item_id;not null"`
	Price      int64  `gorm:"column:price;not null"`
	PayloadRef string `gorm:"column:payload_ref;not null"`
	FileKind   string `gorm:"column:file_kind;not null;default:video"`
	Title      string `gorm:"column:title;not null;default:''"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
