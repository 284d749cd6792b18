package models

import (
	"time"

	"gorm.io/gorm"
)

// Account 手机号登录账号
type Account struct {
	ID                 uint           `gorm:"primarykey" json:"id"`                                  // 主键
	Phone              string         `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone"`    // 手机号（规范化后）
	Status             string         `gorm:"type:varchar(20);default:'active'" json:"status"`       // 账号状态
	TokenVersion       uint64         `gorm:"not null;default:0" json:"-"`                           // Token 版本（用于全量失效）
	TokenInvalidBefore *time.Time     `gorm:"index" json:"-"`                                        // 该时间点前签发的 Token 失效
	PhoneVerifiedAt    *time.Time     `json:"phone_verified_at"`                                     // 手机号验证时间
	LastLoginAt        *time.Time     `json:"last_login_at"`                                         // 最后登录时间
	CreatedAt          time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt          time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间
	Profile            *Profile       `gorm:"foreignKey:AccountID" json:"profile,omitempty"`         // 角色档案
}

// TableName 指定表名
func (Account) TableName() string {
	return "accounts"
}
