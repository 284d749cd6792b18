package models

import (
	"time"
)

// OTPCode 手机验证码记录
type OTPCode struct {
	ID           uint       `gorm:"primarykey" json:"id"`                         // 主键
	Phone        string     `gorm:"type:varchar(32);index;not null" json:"phone"` // 手机号
	CodeHash     string     `gorm:"not null" json:"-"`                            // 验证码哈希
	ExpiresAt    time.Time  `gorm:"index" json:"expires_at"`                      // 过期时间
	VerifiedAt   *time.Time `gorm:"index" json:"verified_at"`                     // 验证时间
	AttemptCount int        `gorm:"default:0" json:"attempt_count"`               // 尝试次数
	SentAt       time.Time  `gorm:"index" json:"sent_at"`                         // 发送时间
	CreatedAt    time.Time  `json:"created_at"`                                   // 创建时间
}

// TableName 指定表名
func (OTPCode) TableName() string {
	return "otp_codes"
}
