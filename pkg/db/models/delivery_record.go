package models

import "time"

// DeliveryRecord marks an item as delivered to a user. The (user, item) pair
// is unique so delivery stays exactly-once across orders.
type DeliveryRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_delivery_user_item"`
	ItemID    int64     `gorm:"column:item_id;not null;uniqueIndex:idx_delivery_user_item"`
	OrderID   string    `gorm:"column:order_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (DeliveryRecord) TableName() string {
	return "delivery_records"
}
