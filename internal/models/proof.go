package models

import (
	"time"
)

// Proof 播主发布凭证
type Proof struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                            // 主键
	ApplicationID   uint       `gorm:"uniqueIndex;not null" json:"application_id"`                      // 申请ID
	CampaignID      uint       `gorm:"index;not null" json:"campaign_id"`                               // 活动ID
	BroadcasterID   uint       `gorm:"index;not null" json:"broadcaster_id"`                            // 播主档案ID
	ScreenshotURL   string     `gorm:"type:varchar(512);not null" json:"screenshot_url"`                // 截图地址
	Status          string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"` // 审核状态
	EstimatedViews  int        `gorm:"not null;default:0" json:"estimated_views"`                       // 预估浏览量
	Earnings        Money      `gorm:"type:decimal(20,2);not null;default:0" json:"earnings"`           // 结算金额
	ValidatedBy     *uint      `json:"validated_by"`                                                    // 审核管理员档案ID
	ValidatedAt     *time.Time `json:"validated_at"`                                                    // 审核时间
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`                               // 驳回原因
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                         // 提交时间
	UpdatedAt       time.Time  `json:"updated_at"`                                                      // 更新时间

	Application *CampaignApplication `gorm:"foreignKey:ApplicationID" json:"application,omitempty"`
	Campaign    *Campaign            `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Broadcaster *Profile             `gorm:"foreignKey:BroadcasterID" json:"broadcaster,omitempty"`
}

// TableName 指定表名
func (Proof) TableName() string {
	return "proofs"
}
