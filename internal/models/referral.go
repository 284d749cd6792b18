package models

import "time"

// Referral 推荐关系
type Referral struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	ReferrerID   uint       `gorm:"index;not null" json:"referrer_id"`       // 推荐人档案ID
	ReferredID   uint       `gorm:"uniqueIndex;not null" json:"referred_id"` // 被推荐人档案ID
	ReferralCode string     `gorm:"type:varchar(32);not null" json:"referral_code"`
	BonusAmount  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"bonus_amount"`
	BonusPaidAt  *time.Time `json:"bonus_paid_at"` // 奖励发放时间
	CreatedAt    time.Time  `json:"created_at"`
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}
