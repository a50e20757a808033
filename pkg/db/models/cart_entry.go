package models

import "time"

// CartEntry is a pre-checkout selection. Prices are resolved live at
// checkout, so the cart stores only the reference.
type CartEntry struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_cart_user_item"`
	ItemID    int64     `gorm:"column:item_id;not null;uniqueIndex:idx_cart_user_item"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CartEntry) TableName() string {
	return "cart_entries"
}
