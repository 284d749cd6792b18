package models

import (
	"time"
)

// WalletAccount 钱包账户
type WalletAccount struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                             // 主键
	ProfileID      uint      `gorm:"uniqueIndex;not null" json:"profile_id"`                           // 档案ID
	Currency       string    `gorm:"type:varchar(8);not null" json:"currency"`                         // 币种
	Balance        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`             // 可用余额
	PendingBalance Money     `gorm:"type:decimal(20,2);not null;default:0" json:"pending_balance"`     // 提现冻结中
	TotalEarned    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_earned"`        // 累计收益
	TotalSpent     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_spent"`         // 累计支出
	TotalReferral  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_referral"`      // 累计推荐奖励，不计入 total_earned
	CreatedAt      time.Time `json:"created_at"`                                                       // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                       // 更新时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水（只追加）
type WalletTransaction struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                                // 主键
	ProfileID     uint       `gorm:"index;not null" json:"profile_id"`                                    // 档案ID
	Type          string     `gorm:"type:varchar(20);index;not null" json:"type"`                         // 流水类型
	Direction     string     `gorm:"type:varchar(8);not null" json:"direction"`                           // 方向（in/out）
	Status        string     `gorm:"type:varchar(20);index;not null;default:'completed'" json:"status"`   // 状态
	Amount        Money      `gorm:"type:decimal(20,2);not null" json:"amount"`                           // 金额
	BalanceBefore Money      `gorm:"type:decimal(20,2);not null" json:"balance_before"`                   // 变动前余额
	BalanceAfter  Money      `gorm:"type:decimal(20,2);not null" json:"balance_after"`                    // 变动后余额
	Currency      string     `gorm:"type:varchar(8);not null" json:"currency"`                            // 币种
	Reference     string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"reference"`             // 幂等参考号
	Description   string     `gorm:"type:varchar(255)" json:"description"`                                // 描述
	CampaignID    *uint      `gorm:"index" json:"campaign_id"`                                            // 关联活动
	ProofID       *uint      `gorm:"index" json:"proof_id"`                                               // 关联凭证
	PaymentMethod string     `gorm:"type:varchar(32)" json:"payment_method"`                              // 支付方式（mobile money 等）
	ProcessedAt   *time.Time `json:"processed_at"`                                                        // 处理时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt     time.Time  `json:"updated_at"`                                                          // 更新时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
