package repository

import "time"

// ProfileListFilter 管理端档案列表过滤条件
type ProfileListFilter struct {
	Page     int
	PageSize int
	Role     string
	IsActive *bool
	Interest string
	Search   string
}

// CampaignListFilter 广告活动列表过滤条件
type CampaignListFilter struct {
	Page         int
	PageSize     int
	AdvertiserID uint
	Statuses     []string
	Approved     *bool
	Search       string
	SortBy       string
	SortOrder    string
}

// ApplicationListFilter 投放申请列表过滤条件
type ApplicationListFilter struct {
	Page          int
	PageSize      int
	BroadcasterID uint
	CampaignID    uint
	AdvertiserID  uint
	Statuses      []string
}

// ProofListFilter 凭证列表过滤条件
type ProofListFilter struct {
	Page          int
	PageSize      int
	BroadcasterID uint
	CampaignID    uint
	Status        string
}

// WalletAccountListFilter 钱包账户列表过滤条件
type WalletAccountListFilter struct {
	Page      int
	PageSize  int
	ProfileID uint
}

// WalletTransactionListFilter 钱包流水列表过滤条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	ProfileID   uint
	CampaignID  uint
	Type        string
	Status      string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NotificationListFilter 通知列表过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	ProfileID  uint
	UnreadOnly bool
	Type       string
}
