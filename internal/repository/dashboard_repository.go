package repository

import (
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetAdvertiserOverview(profileID uint) (AdvertiserOverviewRow, error)
	GetBroadcasterOverview(profileID uint, expiringBefore time.Time) (BroadcasterOverviewRow, error)
	GetAdminOverview() (AdminOverviewRow, error)
}

// AdvertiserOverviewRow 广告主统计原始结果
type AdvertiserOverviewRow struct {
	CampaignsByStatus   map[string]int64
	TotalBudget         float64
	TotalPaid           float64
	TotalSpent          float64
	ViewsDelivered      int64
	PendingApplications int64
}

// BroadcasterOverviewRow 播主统计原始结果
type BroadcasterOverviewRow struct {
	ApplicationsByStatus map[string]int64
	ExpiringSoon         int64
	PendingProofs        int64
	ApprovedProofs       int64
	Balance              float64
	PendingBalance       float64
	TotalEarned          float64
}

// AdminOverviewRow 管理员统计原始结果
type AdminOverviewRow struct {
	ProfilesByRole    map[string]int64
	CampaignsByStatus map[string]int64
	PendingProofs     int64
	PendingWithdrawal int64
	Revenue           float64
	TotalEarnings     float64
}

type groupCountRow struct {
	GroupKey string
	Total    int64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

// groupCount 按列分组计数，keys 为需要补零的全部取值
func groupCount(query *gorm.DB, column string, keys ...string) (map[string]int64, error) {
	var rows []groupCountRow
	if err := query.Select(column + " AS group_key, COUNT(*) AS total").Group(column).Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(keys))
	for _, key := range keys {
		result[key] = 0
	}
	for _, row := range rows {
		result[row.GroupKey] = row.Total
	}
	return result, nil
}

func campaignStatuses() []string {
	return []string{
		constants.CampaignStatusPending,
		constants.CampaignStatusActive,
		constants.CampaignStatusPaused,
		constants.CampaignStatusCompleted,
		constants.CampaignStatusCancelled,
	}
}

func sumWalletTransactions(db *gorm.DB, profileID uint, txnType string) (float64, error) {
	query := db.Model(&models.WalletTransaction{}).
		Where("type = ? AND status = ?", txnType, constants.WalletTxnStatusCompleted)
	if profileID != 0 {
		query = query.Where("profile_id = ?", profileID)
	}
	var total float64
	err := query.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}

// GetAdvertiserOverview 广告主统计
func (r *GormDashboardRepository) GetAdvertiserOverview(profileID uint) (AdvertiserOverviewRow, error) {
	result := AdvertiserOverviewRow{}
	byStatus, err := groupCount(
		r.db.Model(&models.Campaign{}).Where("advertiser_id = ?", profileID),
		"status",
		campaignStatuses()...,
	)
	if err != nil {
		return result, err
	}
	result.CampaignsByStatus = byStatus

	var totals struct {
		TotalBudget    float64
		TotalPaid      float64
		ViewsDelivered int64
	}
	if err := r.db.Model(&models.Campaign{}).
		Where("advertiser_id = ?", profileID).
		Select("COALESCE(SUM(budget), 0) AS total_budget, COALESCE(SUM(total_paid), 0) AS total_paid, COALESCE(SUM(current_views), 0) AS views_delivered").
		Scan(&totals).Error; err != nil {
		return result, err
	}
	result.TotalBudget = totals.TotalBudget
	result.TotalPaid = totals.TotalPaid
	result.ViewsDelivered = totals.ViewsDelivered

	if result.TotalSpent, err = sumWalletTransactions(r.db, profileID, constants.WalletTxnTypePayment); err != nil {
		return result, err
	}

	if err := r.db.Model(&models.CampaignApplication{}).
		Joins("JOIN campaigns ON campaigns.id = campaign_applications.campaign_id").
		Where("campaigns.advertiser_id = ? AND campaign_applications.status = ?", profileID, constants.ApplicationStatusPending).
		Count(&result.PendingApplications).Error; err != nil {
		return result, err
	}
	return result, nil
}

// GetBroadcasterOverview 播主统计
func (r *GormDashboardRepository) GetBroadcasterOverview(profileID uint, expiringBefore time.Time) (BroadcasterOverviewRow, error) {
	result := BroadcasterOverviewRow{}
	byStatus, err := groupCount(
		r.db.Model(&models.CampaignApplication{}).Where("broadcaster_id = ?", profileID),
		"status",
		constants.ApplicationStatusPending,
		constants.ApplicationStatusAccepted,
		constants.ApplicationStatusRejected,
		constants.ApplicationStatusCompleted,
	)
	if err != nil {
		return result, err
	}
	result.ApplicationsByStatus = byStatus

	if err := r.db.Model(&models.CampaignApplication{}).
		Where("broadcaster_id = ? AND status = ? AND proof_uploaded = ? AND accepted_at IS NOT NULL AND accepted_at <= ?",
			profileID, constants.ApplicationStatusAccepted, false, expiringBefore).
		Count(&result.ExpiringSoon).Error; err != nil {
		return result, err
	}

	proofsByStatus, err := groupCount(
		r.db.Model(&models.Proof{}).Where("broadcaster_id = ?", profileID),
		"status",
		constants.ProofStatusPending,
		constants.ProofStatusApproved,
		constants.ProofStatusRejected,
	)
	if err != nil {
		return result, err
	}
	result.PendingProofs = proofsByStatus[constants.ProofStatusPending]
	result.ApprovedProofs = proofsByStatus[constants.ProofStatusApproved]

	var wallet struct {
		Balance        float64
		PendingBalance float64
		TotalEarned    float64
	}
	if err := r.db.Model(&models.WalletAccount{}).
		Where("profile_id = ?", profileID).
		Select("COALESCE(SUM(balance), 0) AS balance, COALESCE(SUM(pending_balance), 0) AS pending_balance, COALESCE(SUM(total_earned), 0) AS total_earned").
		Scan(&wallet).Error; err != nil {
		return result, err
	}
	result.Balance = wallet.Balance
	result.PendingBalance = wallet.PendingBalance
	result.TotalEarned = wallet.TotalEarned
	return result, nil
}

// GetAdminOverview 平台统计
func (r *GormDashboardRepository) GetAdminOverview() (AdminOverviewRow, error) {
	result := AdminOverviewRow{}
	var err error
	if result.ProfilesByRole, err = groupCount(
		r.db.Model(&models.Profile{}),
		"role",
		constants.RoleAdvertiser,
		constants.RoleBroadcaster,
		constants.RoleAdmin,
	); err != nil {
		return result, err
	}
	if result.CampaignsByStatus, err = groupCount(r.db.Model(&models.Campaign{}), "status", campaignStatuses()...); err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Proof{}).
		Where("status = ?", constants.ProofStatusPending).
		Count(&result.PendingProofs).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.WalletTransaction{}).
		Where("type = ? AND status = ?", constants.WalletTxnTypeWithdrawal, constants.WalletTxnStatusPending).
		Count(&result.PendingWithdrawal).Error; err != nil {
		return result, err
	}
	if result.Revenue, err = sumWalletTransactions(r.db, 0, constants.WalletTxnTypePayment); err != nil {
		return result, err
	}
	if result.TotalEarnings, err = sumWalletTransactions(r.db, 0, constants.WalletTxnTypeEarning); err != nil {
		return result, err
	}
	return result, nil
}
