package service

import (
	"context"
	"fmt"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	dashboardCacheTTL          = 5 * time.Minute
	defaultCommissionRate      = "0.10"
	dashboardAlertLevelWarning = "warning"
	dashboardAlertLevelError   = "error"
	dashboardAlertLevelInfo    = "info"
)

// Dashboard 角色仪表盘
type Dashboard interface {
	Role() string
	Build(ctx context.Context, profile *models.Profile) (*DashboardResponse, error)
}

// DashboardResponse 仪表盘响应
type DashboardResponse struct {
	Role        string               `json:"role"`
	Currency    string               `json:"currency"`
	GeneratedAt time.Time            `json:"generated_at"`
	Advertiser  *AdvertiserStats     `json:"advertiser,omitempty"`
	Broadcaster *BroadcasterStats    `json:"broadcaster,omitempty"`
	Admin       *AdminStats          `json:"admin,omitempty"`
	Alerts      []DashboardAlertItem `json:"alerts"`
}

// AdvertiserStats 广告主统计
type AdvertiserStats struct {
	CampaignsByStatus   map[string]int64 `json:"campaigns_by_status"`
	TotalCampaigns      int64            `json:"total_campaigns"`
	TotalBudget         string           `json:"total_budget"`
	TotalPaid           string           `json:"total_paid"`
	TotalSpent          string           `json:"total_spent"`
	ViewsDelivered      int64            `json:"views_delivered"`
	PendingApplications int64            `json:"pending_applications"`
}

// BroadcasterStats 播主统计
type BroadcasterStats struct {
	ApplicationsByStatus map[string]int64 `json:"applications_by_status"`
	TotalApplications    int64            `json:"total_applications"`
	ExpiringSoon         int64            `json:"expiring_soon"`
	PendingProofs        int64            `json:"pending_proofs"`
	ApprovedProofs       int64            `json:"approved_proofs"`
	Balance              string           `json:"balance"`
	PendingBalance       string           `json:"pending_balance"`
	TotalEarned          string           `json:"total_earned"`
}

// AdminStats 管理员统计
type AdminStats struct {
	ProfilesByRole     map[string]int64 `json:"profiles_by_role"`
	CampaignsByStatus  map[string]int64 `json:"campaigns_by_status"`
	ActiveCampaigns    int64            `json:"active_campaigns"`
	PendingCampaigns   int64            `json:"pending_campaigns"`
	PendingProofs      int64            `json:"pending_proofs"`
	PendingWithdrawals int64            `json:"pending_withdrawals"`
	Revenue            string           `json:"revenue"`
	TotalEarnings      string           `json:"total_earnings"`
	Commission         string           `json:"commission"`
	CommissionRate     string           `json:"commission_rate"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardService 仪表盘服务，按角色分派到对应实现
type DashboardService struct {
	dashboards map[string]Dashboard
	cache      *querycache.Service
	ttl        time.Duration
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(queryCache *querycache.Service, ttl time.Duration, dashboards ...Dashboard) *DashboardService {
	if ttl <= 0 {
		ttl = dashboardCacheTTL
	}
	registry := make(map[string]Dashboard, len(dashboards))
	for _, dashboard := range dashboards {
		registry[dashboard.Role()] = dashboard
	}
	return &DashboardService{dashboards: registry, cache: queryCache, ttl: ttl}
}

// Get 获取当前档案的仪表盘（缓存 stats_{profile}_{role}）
func (s *DashboardService) Get(ctx context.Context, profile *models.Profile) (*DashboardResponse, error) {
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	dashboard, ok := s.dashboards[profile.Role]
	if !ok {
		return nil, ErrInvalidRole
	}
	key := querycache.Key(constants.CacheScopeStats, profile.ID, profile.Role)
	return cachedFetch(ctx, s.cache, key, s.ttl, func(ctx context.Context) (*DashboardResponse, error) {
		return dashboard.Build(ctx, profile)
	})
}

// AdvertiserDashboard 广告主仪表盘
type AdvertiserDashboard struct {
	repo     repository.DashboardRepository
	currency string
}

// NewAdvertiserDashboard 创建广告主仪表盘
func NewAdvertiserDashboard(repo repository.DashboardRepository, currency string) *AdvertiserDashboard {
	return &AdvertiserDashboard{repo: repo, currency: normalizeWalletCurrency(currency)}
}

// Role 角色
func (d *AdvertiserDashboard) Role() string { return constants.RoleAdvertiser }

// Build 构建统计
func (d *AdvertiserDashboard) Build(_ context.Context, profile *models.Profile) (*DashboardResponse, error) {
	row, err := d.repo.GetAdvertiserOverview(profile.ID)
	if err != nil {
		return nil, err
	}
	stats := &AdvertiserStats{
		CampaignsByStatus:   row.CampaignsByStatus,
		TotalCampaigns:      sumCounts(row.CampaignsByStatus),
		TotalBudget:         formatMoneyValue(row.TotalBudget),
		TotalPaid:           formatMoneyValue(row.TotalPaid),
		TotalSpent:          formatMoneyValue(row.TotalSpent),
		ViewsDelivered:      row.ViewsDelivered,
		PendingApplications: row.PendingApplications,
	}
	alerts := make([]DashboardAlertItem, 0, 2)
	if row.PendingApplications > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_applications", Level: dashboardAlertLevelInfo, Value: row.PendingApplications})
	}
	if pending := row.CampaignsByStatus[constants.CampaignStatusPending]; pending > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "campaigns_awaiting_review", Level: dashboardAlertLevelInfo, Value: pending})
	}
	return &DashboardResponse{
		Role:        d.Role(),
		Currency:    d.currency,
		GeneratedAt: time.Now(),
		Advertiser:  stats,
		Alerts:      alerts,
	}, nil
}

// BroadcasterDashboard 播主仪表盘
type BroadcasterDashboard struct {
	repo         repository.DashboardRepository
	currency     string
	deadline     time.Duration
	expiringSoon time.Duration
}

// NewBroadcasterDashboard 创建播主仪表盘
func NewBroadcasterDashboard(repo repository.DashboardRepository, currency string, deadlineHours, expiringSoonHours int) *BroadcasterDashboard {
	if deadlineHours <= 0 {
		deadlineHours = defaultProofDeadlineHours
	}
	if expiringSoonHours <= 0 || expiringSoonHours >= deadlineHours {
		expiringSoonHours = deadlineHours - 1
	}
	return &BroadcasterDashboard{
		repo:         repo,
		currency:     normalizeWalletCurrency(currency),
		deadline:     time.Duration(deadlineHours) * time.Hour,
		expiringSoon: time.Duration(expiringSoonHours) * time.Hour,
	}
}

// Role 角色
func (d *BroadcasterDashboard) Role() string { return constants.RoleBroadcaster }

// Build 构建统计
func (d *BroadcasterDashboard) Build(_ context.Context, profile *models.Profile) (*DashboardResponse, error) {
	// 已接受超过 expiringSoon 的申请即将到期
	row, err := d.repo.GetBroadcasterOverview(profile.ID, time.Now().Add(-d.expiringSoon))
	if err != nil {
		return nil, err
	}
	stats := &BroadcasterStats{
		ApplicationsByStatus: row.ApplicationsByStatus,
		TotalApplications:    sumCounts(row.ApplicationsByStatus),
		ExpiringSoon:         row.ExpiringSoon,
		PendingProofs:        row.PendingProofs,
		ApprovedProofs:       row.ApprovedProofs,
		Balance:              formatMoneyValue(row.Balance),
		PendingBalance:       formatMoneyValue(row.PendingBalance),
		TotalEarned:          formatMoneyValue(row.TotalEarned),
	}
	alerts := make([]DashboardAlertItem, 0, 1)
	if row.ExpiringSoon > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "proof_deadline_expiring", Level: dashboardAlertLevelWarning, Value: row.ExpiringSoon})
	}
	return &DashboardResponse{
		Role:        d.Role(),
		Currency:    d.currency,
		GeneratedAt: time.Now(),
		Broadcaster: stats,
		Alerts:      alerts,
	}, nil
}

// AdminDashboard 管理员仪表盘
type AdminDashboard struct {
	repo           repository.DashboardRepository
	currency       string
	commissionRate decimal.Decimal
}

// NewAdminDashboard 创建管理员仪表盘，commissionRate 为平台抽成比例（如 0.10）
func NewAdminDashboard(repo repository.DashboardRepository, currency, commissionRate string) (*AdminDashboard, error) {
	raw := commissionRate
	if raw == "" {
		raw = defaultCommissionRate
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse commission rate: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate out of range: %s", raw)
	}
	return &AdminDashboard{repo: repo, currency: normalizeWalletCurrency(currency), commissionRate: rate}, nil
}

// Role 角色
func (d *AdminDashboard) Role() string { return constants.RoleAdmin }

// Build 构建统计
func (d *AdminDashboard) Build(_ context.Context, _ *models.Profile) (*DashboardResponse, error) {
	row, err := d.repo.GetAdminOverview()
	if err != nil {
		return nil, err
	}
	revenue := decimal.NewFromFloat(row.Revenue).Round(2)
	stats := &AdminStats{
		ProfilesByRole:     row.ProfilesByRole,
		CampaignsByStatus:  row.CampaignsByStatus,
		ActiveCampaigns:    row.CampaignsByStatus[constants.CampaignStatusActive],
		PendingCampaigns:   row.CampaignsByStatus[constants.CampaignStatusPending],
		PendingProofs:      row.PendingProofs,
		PendingWithdrawals: row.PendingWithdrawal,
		Revenue:            revenue.StringFixed(2),
		TotalEarnings:      formatMoneyValue(row.TotalEarnings),
		Commission:         revenue.Mul(d.commissionRate).Round(2).StringFixed(2),
		CommissionRate:     d.commissionRate.String(),
	}
	alerts := make([]DashboardAlertItem, 0, 3)
	if row.PendingProofs > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "proofs_awaiting_review", Level: dashboardAlertLevelWarning, Value: row.PendingProofs})
	}
	if stats.PendingCampaigns > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "campaigns_awaiting_review", Level: dashboardAlertLevelWarning, Value: stats.PendingCampaigns})
	}
	if row.PendingWithdrawal > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_withdrawals", Level: dashboardAlertLevelError, Value: row.PendingWithdrawal})
	}
	return &DashboardResponse{
		Role:        d.Role(),
		Currency:    d.currency,
		GeneratedAt: time.Now(),
		Admin:       stats,
		Alerts:      alerts,
	}, nil
}

func sumCounts(counts map[string]int64) int64 {
	var total int64
	for _, value := range counts {
		total += value
	}
	return total
}

func formatMoneyValue(value float64) string {
	return decimal.NewFromFloat(value).Round(2).StringFixed(2)
}
