package models

import "time"

// Item is a sellable digital good. Payload columns reference the Telegram
// file ids used at delivery time.
type Item struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:title;not null"`
	Price       int64     `gorm:"column:price;not null"`
	GroupKey    string    `gorm:"column:group_key;index"`
	FileID      string    `gorm:"column:file_id"`
	FileKind    string    `gorm:"column:file_kind;default:video"`
	Description string    `gorm:"column:description"`
	Active      bool      `gorm:"column:active;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Item) TableName() string {
	return "items"
}
