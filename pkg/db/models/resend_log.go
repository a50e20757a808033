package models

import "time"

// ResendLogEntry is one row per resend operation, not per item. The lifetime
// cap is a count over these rows.
type ResendLogEntry struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	ItemCount int       `gorm:"column:item_count;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ResendLogEntry) TableName() string {
	return "resend_logs"
}
