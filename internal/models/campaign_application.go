package models

import (
	"time"
)

// CampaignApplication 播主投放申请
type CampaignApplication struct {
	ID                uint       `gorm:"primarykey" json:"id"`                                                  // 主键
	CampaignID        uint       `gorm:"not null;uniqueIndex:idx_application_pair" json:"campaign_id"`          // 活动ID
	BroadcasterID     uint       `gorm:"not null;uniqueIndex:idx_application_pair;index" json:"broadcaster_id"` // 播主档案ID
	Status            string     `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`       // 状态
	AppliedAt         time.Time  `gorm:"index" json:"applied_at"`                                               // 申请时间
	AcceptedAt        *time.Time `gorm:"index" json:"accepted_at"`                                              // 接受时间（凭证截止计时起点）
	RejectedAt        *time.Time `json:"rejected_at"`                                                           // 拒绝时间
	CompletedAt       *time.Time `json:"completed_at"`                                                          // 完成时间
	RejectionReason   string     `gorm:"type:text" json:"rejection_reason"`                                     // 拒绝原因
	ProofUploaded     bool       `gorm:"not null;default:false" json:"proof_uploaded"`                          // 是否已上传凭证
	DeadlineFlaggedAt *time.Time `json:"deadline_flagged_at"`                                                   // 超时标记时间
	CreatedAt         time.Time  `json:"created_at"`                                                            // 创建时间
	UpdatedAt         time.Time  `json:"updated_at"`                                                            // 更新时间

	// 派生字段（不落库）
	DeadlineAt   *time.Time `gorm:"-" json:"deadline_at,omitempty"`
	ExpiringSoon bool       `gorm:"-" json:"expiring_soon"`
	Overdue      bool       `gorm:"-" json:"overdue"`

	Campaign    *Campaign `gorm:"foreignKey:CampaignID" json:"campaign,omitempty"`
	Broadcaster *Profile  `gorm:"foreignKey:BroadcasterID" json:"broadcaster,omitempty"`
	Proof       *Proof    `gorm:"foreignKey:ApplicationID" json:"proof,omitempty"`
}

// TableName 指定表名
func (CampaignApplication) TableName() string {
	return "campaign_applications"
}
