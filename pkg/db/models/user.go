package models

import "time"

// User is a Telegram account known to the store. The primary key is the
// Telegram user id, so no surrogate key is generated.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Username  string    `gorm:"column:username"`
	FirstName string    `gorm:"column:first_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
