package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Campaign 广告活动表
type Campaign struct {
	ID              uint                        `gorm:"primarykey" json:"id"`                                              // 主键
	AdvertiserID    uint                        `gorm:"index;not null" json:"advertiser_id"`                               // 广告主档案ID
	Title           string                      `gorm:"type:varchar(200);not null" json:"title"`                           // 标题
	Description     string                      `gorm:"type:text" json:"description"`                                      // 描述
	MediaURL        string                      `gorm:"type:varchar(512)" json:"media_url"`                                // 素材地址
	MediaType       string                      `gorm:"type:varchar(10);not null" json:"media_type"`                       // 素材类型（image/video）
	Caption         string                      `gorm:"type:text" json:"caption"`                                          // 发布文案
	CostPerView     Money                       `gorm:"type:decimal(20,2);not null;default:0" json:"cost_per_view"`        // 单次浏览价格
	Budget          Money                       `gorm:"type:decimal(20,2);not null;default:0" json:"budget"`               // 预算
	TotalPaid       Money                       `gorm:"type:decimal(20,2);not null;default:0" json:"total_paid"`           // 已结算给播主的金额
	TargetViews     int                         `gorm:"not null;default:0" json:"target_views"`                            // 目标浏览量
	CurrentViews    int                         `gorm:"not null;default:0" json:"current_views"`                           // 当前浏览量
	TargetGender    string                      `gorm:"type:varchar(10)" json:"target_gender"`                             // 目标性别（空表示不限）
	TargetAgeMin    *int                        `json:"target_age_min"`                                                    // 目标最小年龄
	TargetAgeMax    *int                        `json:"target_age_max"`                                                    // 目标最大年龄
	TargetCities    datatypes.JSONSlice[string] `json:"target_cities"`                                                     // 目标城市
	TargetLanguages datatypes.JSONSlice[string] `json:"target_languages"`                                                  // 目标语言
	AudienceRule    string                      `gorm:"type:text" json:"audience_rule"`                                    // 受众表达式（CEL）
	Status          string                      `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`   // 状态
	AdminApproved   bool                        `gorm:"not null;default:false;index" json:"admin_approved"`                // 管理员是否审核通过
	BudgetExceeded  bool                        `gorm:"not null;default:false" json:"budget_exceeded"`                     // 结算是否超出预算
	RejectionReason string                      `gorm:"type:text" json:"rejection_reason"`                                 // 驳回原因
	ApprovedBy      *uint                       `json:"approved_by"`                                                       // 审核管理员档案ID
	StartDate       *time.Time                  `json:"start_date"`                                                        // 开始时间
	EndDate         *time.Time                  `json:"end_date"`                                                          // 结束时间
	CreatedAt       time.Time                   `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt       time.Time                   `json:"updated_at"`                                                        // 更新时间
	DeletedAt       gorm.DeletedAt              `gorm:"index" json:"-"`                                                    // 软删除时间

	Advertiser *Profile `gorm:"foreignKey:AdvertiserID" json:"advertiser,omitempty"` // 广告主
}

// TableName 指定表名
func (Campaign) TableName() string {
	return "campaigns"
}

// RemainingViews 剩余可投放浏览量
func (c *Campaign) RemainingViews() int {
	if c == nil {
		return 0
	}
	remaining := c.TargetViews - c.CurrentViews
	if remaining < 0 {
		return 0
	}
	return remaining
}
