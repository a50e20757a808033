package models

import "time"

// ReferralEdge records who referred whom. A referred user has at most one
// edge; re-referrals overwrite nothing once the edge exists.
type ReferralEdge struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ReferrerID    int64     `gorm:"column:referrer_id;not null;index"`
	ReferredID    int64     `gorm:"column:referred_id;not null;uniqueIndex:idx_referral_referred"`
	RewardGranted bool      `gorm:"column:reward_granted;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ReferralEdge) TableName() string {
	return "referral_edges"
}

// ReferralCredit is a whole-credit voucher. Credits are consumed oldest
// first and never split.
type ReferralCredit struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OwnerID   int64     `gorm:"column:owner_id;not null;index"`
	Amount    int64     `gorm:"column:amount;not null"`
	Used      bool      `gorm:"column:used;not null;default:false"`
	GrantedAt time.Time `gorm:"column:granted_at;autoCreateTime"`
	UsedAt    *time.Time `gorm:"column:used_at"`
}

func (ReferralCredit) TableName() string {
	return "referral_credits"
}
