package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Profile 角色档案（广告主 / 播主 / 管理员）
type Profile struct {
	ID             uint                        `gorm:"primarykey" json:"id"`                                    // 主键
	AccountID      uint                        `gorm:"uniqueIndex;not null" json:"account_id"`                  // 账号ID
	Role           string                      `gorm:"type:varchar(20);index;not null" json:"role"`             // 角色（创建后不可变更）
	FullName       string                      `gorm:"type:varchar(120);not null" json:"full_name"`             // 姓名
	Email          string                      `gorm:"type:varchar(255)" json:"email"`                          // 邮箱
	Region         string                      `gorm:"type:varchar(64);index" json:"region"`                    // 省份
	City           string                      `gorm:"type:varchar(64);index" json:"city"`                      // 城市
	Age            *int                        `json:"age"`                                                     // 年龄
	Gender         string                      `gorm:"type:varchar(10)" json:"gender"`                          // 性别
	Language       string                      `gorm:"type:varchar(16)" json:"language"`                        // 常用语言
	Interests      datatypes.JSONSlice[string] `json:"interests"`                                               // 兴趣标签
	AvatarURL      string                      `gorm:"type:varchar(512)" json:"avatar_url"`                     // 头像
	ReferralCode   string                      `gorm:"type:varchar(32);uniqueIndex;not null" json:"referral_code"` // 推荐码
	ReferredBy     *uint                       `gorm:"index" json:"referred_by"`                                // 推荐人档案ID
	TelegramChatID string                      `gorm:"type:varchar(64)" json:"-"`                               // Telegram 推送会话
	IsActive       bool                        `gorm:"not null;default:true;index" json:"is_active"`            // 是否启用
	IsVerified     bool                        `gorm:"not null;default:false" json:"is_verified"`               // 是否认证
	CreatedAt      time.Time                   `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt      time.Time                   `json:"updated_at"`                                              // 更新时间
	DeletedAt      gorm.DeletedAt              `gorm:"index" json:"-"`                                          // 软删除时间

	// 关联
	Account     *Account     `gorm:"foreignKey:AccountID" json:"account,omitempty"`   // 登录账号
	CompanyInfo *CompanyInfo `gorm:"foreignKey:ProfileID" json:"company_info,omitempty"` // 广告主企业信息
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}

// CompanyInfo 广告主企业信息
type CompanyInfo struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                  // 主键
	ProfileID          uint      `gorm:"uniqueIndex;not null" json:"profile_id"` // 档案ID
	CompanyName        string    `gorm:"type:varchar(160)" json:"company_name"`  // 企业名称
	BusinessSector     string    `gorm:"type:varchar(120)" json:"business_sector"`
	CompanyAddress     string    `gorm:"type:varchar(255)" json:"company_address"`
	ContactPersonEmail string    `gorm:"type:varchar(255)" json:"contact_person_email"`
	TaxID              string    `gorm:"type:varchar(64)" json:"tax_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName 指定表名
func (CompanyInfo) TableName() string {
	return "company_infos"
}
