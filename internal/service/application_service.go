package service

import (
	"context"
	"strings"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultProofDeadlineHours = 24
	defaultExpiringSoonHours  = 23
	deadlineScanBatchSize     = 200
)

// ApplicationListInput 申请列表输入
type ApplicationListInput struct {
	Page     int
	PageSize int
	Status   string
}

// ApplicationListResult 申请分页结果
type ApplicationListResult struct {
	Items []models.CampaignApplication `json:"items"`
	Total int64                        `json:"total"`
}

// ApplicationService 投放申请服务
// 状态流转：pending → accepted / rejected；accepted → completed 只能由凭证审核通过触发。
type ApplicationService struct {
	applicationRepo     repository.ApplicationRepository
	campaignRepo        repository.CampaignRepository
	targeting           *TargetingService
	notificationService *NotificationService
	cache               *querycache.Service
	deadline            time.Duration
	expiringSoon        time.Duration
}

// NewApplicationService 创建申请服务
func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	campaignRepo repository.CampaignRepository,
	targeting *TargetingService,
	notificationService *NotificationService,
	queryCache *querycache.Service,
	cfg config.CampaignConfig,
) *ApplicationService {
	deadlineHours := cfg.ProofDeadlineHours
	if deadlineHours <= 0 {
		deadlineHours = defaultProofDeadlineHours
	}
	expiringHours := cfg.ExpiringSoonHours
	if expiringHours <= 0 || expiringHours >= deadlineHours {
		expiringHours = deadlineHours - 1
	}
	return &ApplicationService{
		applicationRepo:     applicationRepo,
		campaignRepo:        campaignRepo,
		targeting:           targeting,
		notificationService: notificationService,
		cache:               queryCache,
		deadline:            time.Duration(deadlineHours) * time.Hour,
		expiringSoon:        time.Duration(expiringHours) * time.Hour,
	}
}

// DeadlineHours 凭证截止小时数
func (s *ApplicationService) DeadlineHours() int {
	return int(s.deadline / time.Hour)
}

// Apply 播主申请投放；同一活动每个播主只能申请一次
func (s *ApplicationService) Apply(ctx context.Context, broadcaster *models.Profile, campaignID uint) (*models.CampaignApplication, error) {
	if broadcaster == nil || broadcaster.Role != constants.RoleBroadcaster {
		return nil, ErrForbidden
	}
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if !campaign.AdminApproved || campaign.Status != constants.CampaignStatusActive || campaign.RemainingViews() <= 0 {
		return nil, ErrCampaignNotAvailable
	}
	if !s.targeting.Matches(broadcaster, campaign) {
		return nil, ErrTargetingMismatch
	}

	existing, err := s.applicationRepo.GetByPair(campaign.ID, broadcaster.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrApplicationDuplicate
	}

	now := time.Now()
	application := &models.CampaignApplication{
		CampaignID:    campaign.ID,
		BroadcasterID: broadcaster.ID,
		Status:        constants.ApplicationStatusPending,
		AppliedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.applicationRepo.Create(application); err != nil {
		// 并发重复申请由唯一索引拦截
		if again, queryErr := s.applicationRepo.GetByPair(campaign.ID, broadcaster.ID); queryErr == nil && again != nil {
			return nil, ErrApplicationDuplicate
		}
		return nil, err
	}
	application.Campaign = campaign

	logger.Infow("application_created", "application_id", application.ID, "campaign_id", campaign.ID, "broadcaster_id", broadcaster.ID)
	s.notificationService.Notify(ctx, NotifyInput{
		ProfileID: campaign.AdvertiserID,
		Type:      constants.NotificationApplicationReceived,
		Args:      []interface{}{broadcaster.FullName, campaign.Title},
		Data:      map[string]interface{}{"campaign_id": campaign.ID, "application_id": application.ID},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeApplications, constants.CacheScopeAvailableCampaigns, constants.CacheScopeStats)
	return application, nil
}

// Accept 活动所有者或管理员接受申请，开始凭证截止计时
func (s *ApplicationService) Accept(ctx context.Context, actor *models.Profile, applicationID uint) (*models.CampaignApplication, error) {
	application, campaign, err := s.transition(actor, applicationID, constants.ApplicationStatusAccepted, "")
	if err != nil {
		return nil, err
	}
	logger.Infow("application_accepted", "application_id", application.ID, "actor_id", actor.ID)
	s.notificationService.Notify(ctx, NotifyInput{
		ProfileID: application.BroadcasterID,
		Type:      constants.NotificationApplicationAccepted,
		Args:      []interface{}{campaign.Title, s.DeadlineHours()},
		Data:      map[string]interface{}{"campaign_id": campaign.ID, "application_id": application.ID},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeApplications, constants.CacheScopeStats)
	s.decorate(application, time.Now())
	return application, nil
}

// Reject 活动所有者或管理员拒绝申请
func (s *ApplicationService) Reject(ctx context.Context, actor *models.Profile, applicationID uint, reason string) (*models.CampaignApplication, error) {
	application, campaign, err := s.transition(actor, applicationID, constants.ApplicationStatusRejected, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	logger.Infow("application_rejected", "application_id", application.ID, "actor_id", actor.ID)
	s.notificationService.Notify(ctx, NotifyInput{
		ProfileID: application.BroadcasterID,
		Type:      constants.NotificationApplicationRejected,
		Args:      []interface{}{campaign.Title},
		Data:      map[string]interface{}{"campaign_id": campaign.ID, "application_id": application.ID, "reason": application.RejectionReason},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeApplications, constants.CacheScopeStats)
	return application, nil
}

func (s *ApplicationService) transition(actor *models.Profile, applicationID uint, target, reason string) (*models.CampaignApplication, *models.Campaign, error) {
	if actor == nil {
		return nil, nil, ErrForbidden
	}
	var result *models.CampaignApplication
	var campaignResult *models.Campaign
	err := s.campaignRepo.Transaction(func(tx *gorm.DB) error {
		appRepo := s.applicationRepo.WithTx(tx)
		application, err := appRepo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrApplicationNotFound
		}
		campaign, err := s.campaignRepo.WithTx(tx).GetByID(application.CampaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if actor.Role != constants.RoleAdmin && campaign.AdvertiserID != actor.ID {
			return ErrApplicationNotFound
		}
		if application.Status != constants.ApplicationStatusPending {
			return ErrApplicationStatusInvalid
		}
		if target == constants.ApplicationStatusAccepted &&
			campaign.Status != constants.CampaignStatusActive && campaign.Status != constants.CampaignStatusPaused {
			return ErrCampaignNotAvailable
		}

		now := time.Now()
		fields := map[string]interface{}{"status": target}
		switch target {
		case constants.ApplicationStatusAccepted:
			fields["accepted_at"] = now
			application.AcceptedAt = &now
		case constants.ApplicationStatusRejected:
			fields["rejected_at"] = now
			fields["rejection_reason"] = reason
			application.RejectedAt = &now
			application.RejectionReason = reason
		}
		if err := appRepo.UpdateFields(application.ID, fields); err != nil {
			return err
		}
		application.Status = target
		application.Campaign = campaign
		result = application
		campaignResult = campaign
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, campaignResult, nil
}

// Get 读取申请（播主本人、活动所有者或管理员）
func (s *ApplicationService) Get(actor *models.Profile, applicationID uint) (*models.CampaignApplication, error) {
	application, err := s.applicationRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if application == nil || !canViewApplication(actor, application) {
		return nil, ErrApplicationNotFound
	}
	s.decorate(application, time.Now())
	return application, nil
}

// ListForBroadcaster 播主的申请列表
func (s *ApplicationService) ListForBroadcaster(ctx context.Context, broadcasterID uint, input ApplicationListInput) (*ApplicationListResult, error) {
	filter := buildApplicationFilter(input)
	filter.BroadcasterID = broadcasterID
	key := querycache.Key(constants.CacheScopeApplications+"broadcaster", broadcasterID, filter.Page, filter.PageSize, input.Status)
	return s.list(ctx, key, filter)
}

// ListForAdvertiser 广告主收到的申请列表，campaignID 为 0 时返回全部活动
func (s *ApplicationService) ListForAdvertiser(ctx context.Context, advertiserID, campaignID uint, input ApplicationListInput) (*ApplicationListResult, error) {
	filter := buildApplicationFilter(input)
	filter.AdvertiserID = advertiserID
	filter.CampaignID = campaignID
	key := querycache.Key(constants.CacheScopeApplications+"advertiser", advertiserID, campaignID, filter.Page, filter.PageSize, input.Status)
	return s.list(ctx, key, filter)
}

// ListAll 管理端申请列表
func (s *ApplicationService) ListAll(ctx context.Context, campaignID uint, input ApplicationListInput) (*ApplicationListResult, error) {
	filter := buildApplicationFilter(input)
	filter.CampaignID = campaignID
	key := querycache.Key(constants.CacheScopeApplications+"admin", campaignID, filter.Page, filter.PageSize, input.Status)
	return s.list(ctx, key, filter)
}

func (s *ApplicationService) list(ctx context.Context, key string, filter repository.ApplicationListFilter) (*ApplicationListResult, error) {
	result, err := cachedFetch(ctx, s.cache, key, 0, func(ctx context.Context) (*ApplicationListResult, error) {
		items, total, err := s.applicationRepo.List(filter)
		if err != nil {
			return nil, err
		}
		return &ApplicationListResult{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, err
	}
	return s.decorateList(result, time.Now()), nil
}

// decorateList 在副本上计算截止标记，singleflight 共享的结果不可修改
func (s *ApplicationService) decorateList(result *ApplicationListResult, now time.Time) *ApplicationListResult {
	if result == nil {
		return nil
	}
	out := &ApplicationListResult{
		Items: make([]models.CampaignApplication, len(result.Items)),
		Total: result.Total,
	}
	copy(out.Items, result.Items)
	for i := range out.Items {
		s.decorate(&out.Items[i], now)
	}
	return out
}

// ScanOverdue 标记超过凭证截止时间的申请并通知，不会自动拒绝
func (s *ApplicationService) ScanOverdue(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.deadline)
	flagged := 0
	for {
		applications, err := s.applicationRepo.ListOverdue(cutoff, deadlineScanBatchSize)
		if err != nil {
			return flagged, err
		}
		if len(applications) == 0 {
			break
		}
		for i := range applications {
			application := &applications[i]
			ok, err := s.applicationRepo.MarkDeadlineFlagged(application.ID, now)
			if err != nil {
				return flagged, err
			}
			if !ok {
				continue
			}
			flagged++
			s.notifyDeadlineMissed(ctx, application)
		}
		if len(applications) < deadlineScanBatchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return flagged, err
		}
	}
	if flagged > 0 {
		logger.Infow("application_deadline_flagged", "count", flagged, "cutoff", cutoff)
		invalidateCache(ctx, s.cache, constants.CacheScopeApplications, constants.CacheScopeStats)
	}
	return flagged, nil
}

func (s *ApplicationService) notifyDeadlineMissed(ctx context.Context, application *models.CampaignApplication) {
	title := ""
	var advertiserID uint
	if application.Campaign != nil {
		title = application.Campaign.Title
		advertiserID = application.Campaign.AdvertiserID
	}
	data := map[string]interface{}{"campaign_id": application.CampaignID, "application_id": application.ID}
	inputs := []NotifyInput{{
		ProfileID: application.BroadcasterID,
		Type:      constants.NotificationProofDeadlineMissed,
		Args:      []interface{}{s.DeadlineHours(), title},
		Data:      data,
	}}
	if advertiserID != 0 {
		inputs = append(inputs, NotifyInput{
			ProfileID: advertiserID,
			Type:      constants.NotificationProofDeadlineMissed,
			Args:      []interface{}{s.DeadlineHours(), title},
			Data:      data,
		})
	}
	s.notificationService.Notify(ctx, inputs...)
}

// decorate 填充凭证截止相关派生字段
func (s *ApplicationService) decorate(application *models.CampaignApplication, now time.Time) {
	if application == nil || application.AcceptedAt == nil {
		return
	}
	deadline := application.AcceptedAt.Add(s.deadline)
	application.DeadlineAt = &deadline
	application.ExpiringSoon = false
	application.Overdue = false
	if application.Status != constants.ApplicationStatusAccepted || application.ProofUploaded {
		return
	}
	elapsed := now.Sub(*application.AcceptedAt)
	switch {
	case elapsed > s.deadline:
		application.Overdue = true
	case elapsed > s.expiringSoon:
		application.ExpiringSoon = true
	}
}

func canViewApplication(actor *models.Profile, application *models.CampaignApplication) bool {
	if actor == nil || application == nil {
		return false
	}
	switch actor.Role {
	case constants.RoleAdmin:
		return true
	case constants.RoleBroadcaster:
		return application.BroadcasterID == actor.ID
	case constants.RoleAdvertiser:
		return application.Campaign != nil && application.Campaign.AdvertiserID == actor.ID
	}
	return false
}

func buildApplicationFilter(input ApplicationListInput) repository.ApplicationListFilter {
	filter := repository.ApplicationListFilter{Page: input.Page, PageSize: input.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	if status := strings.ToLower(strings.TrimSpace(input.Status)); status != "" {
		filter.Statuses = []string{status}
	}
	return filter
}
