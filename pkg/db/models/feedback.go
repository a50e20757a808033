package models

import "time"

// Feedback holds at most one reaction per order.
type Feedback struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   string    `gorm:"column:order_id;not null;uniqueIndex:idx_feedback_order"`
	UserID    int64     `gorm:"column:user_id;not null"`
	Mood      string    `gorm:"column:mood;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
