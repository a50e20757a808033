package models

import "time"

const (
	OrderUnpaid = 0
	OrderPaid   = 1
)

// Order is the ledger row for a purchase attempt. Paid is an integer flag so
// the paid transition can be done with a compare-and-set update.
type Order struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Amount    int64     `gorm:"column:amount;not null"`
	Paid      int       `gorm:"column:paid;not null;default:0"`
	TxRef     string    `gorm:"column:tx_ref;index"`
	PaidAt    *time.Time `gorm:"column:paid_at"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}
