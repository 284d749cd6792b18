package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const campaignMaxTargetViews = 1_000_000

// CreateCampaignInput 创建活动输入
type CreateCampaignInput struct {
	Title           string
	Description     string
	MediaURL        string
	MediaType       string
	Caption         string
	CostPerView     models.Money
	Budget          models.Money
	TargetViews     int
	TargetGender    string
	TargetAgeMin    *int
	TargetAgeMax    *int
	TargetCities    []string
	TargetLanguages []string
	AudienceRule    string
	StartDate       *time.Time
	EndDate         *time.Time
}

// CampaignListInput 活动列表输入
type CampaignListInput struct {
	Page      int
	PageSize  int
	Status    string
	Search    string
	SortBy    string
	SortOrder string
}

// CampaignListResult 活动分页结果
type CampaignListResult struct {
	Items []models.Campaign `json:"items"`
	Page  repository.Page   `json:"pagination"`
}

// AvailableCampaign 播主可投放活动
type AvailableCampaign struct {
	models.Campaign
	HasApplied     bool `json:"has_applied"`
	RemainingViews int  `json:"remaining_views"`
}

// AvailableCampaignResult 可投放活动分页结果
type AvailableCampaignResult struct {
	Items []AvailableCampaign `json:"items"`
	Page  repository.Page     `json:"pagination"`
}

// CampaignService 广告活动服务
type CampaignService struct {
	campaignRepo        repository.CampaignRepository
	applicationRepo     repository.ApplicationRepository
	walletService       *WalletService
	targeting           *TargetingService
	locations           *LocationService
	notificationService *NotificationService
	cache               *querycache.Service
	debitOnApproval     bool
}

// NewCampaignService 创建活动服务
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	applicationRepo repository.ApplicationRepository,
	walletService *WalletService,
	targeting *TargetingService,
	locations *LocationService,
	notificationService *NotificationService,
	queryCache *querycache.Service,
	debitOnApproval bool,
) *CampaignService {
	if locations == nil {
		locations = NewLocationService()
	}
	return &CampaignService{
		campaignRepo:        campaignRepo,
		applicationRepo:     applicationRepo,
		walletService:       walletService,
		targeting:           targeting,
		locations:           locations,
		notificationService: notificationService,
		cache:               queryCache,
		debitOnApproval:     debitOnApproval,
	}
}

// Create 广告主创建活动，状态为待审核
func (s *CampaignService) Create(ctx context.Context, advertiser *models.Profile, input CreateCampaignInput) (*models.Campaign, error) {
	if advertiser == nil || advertiser.Role != constants.RoleAdvertiser {
		return nil, ErrForbidden
	}
	campaign, err := s.buildCampaign(input)
	if err != nil {
		return nil, err
	}
	campaign.AdvertiserID = advertiser.ID
	if err := s.campaignRepo.Create(campaign); err != nil {
		return nil, err
	}
	invalidateCache(ctx, s.cache, constants.CacheScopeCampaigns, constants.CacheScopeStats)
	logger.Infow("campaign_created", "campaign_id", campaign.ID, "advertiser_id", advertiser.ID, "budget", campaign.Budget.String())
	return campaign, nil
}

// Get 按角色读取活动：广告主只能读自己的，播主只能读已上线的
func (s *CampaignService) Get(viewer *models.Profile, id uint) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if campaign == nil || viewer == nil {
		return nil, ErrCampaignNotFound
	}
	switch viewer.Role {
	case constants.RoleAdmin:
	case constants.RoleAdvertiser:
		if campaign.AdvertiserID != viewer.ID {
			return nil, ErrCampaignNotFound
		}
	default:
		if !campaign.AdminApproved || campaign.Status != constants.CampaignStatusActive {
			return nil, ErrCampaignNotFound
		}
	}
	return campaign, nil
}

// ListOwn 广告主的活动列表
func (s *CampaignService) ListOwn(ctx context.Context, advertiserID uint, input CampaignListInput) (*CampaignListResult, error) {
	filter := repository.CampaignListFilter{
		Page:         input.Page,
		PageSize:     input.PageSize,
		AdvertiserID: advertiserID,
		Search:       strings.TrimSpace(input.Search),
		SortBy:       input.SortBy,
		SortOrder:    input.SortOrder,
	}
	if status := strings.ToLower(strings.TrimSpace(input.Status)); status != "" {
		filter.Statuses = []string{status}
	}
	key := querycache.Key(constants.CacheScopeCampaigns, advertiserID, filter.Page, filter.PageSize, input.Status, filter.Search, filter.SortBy, filter.SortOrder)
	return cachedFetch(ctx, s.cache, key, 0, func(ctx context.Context) (*CampaignListResult, error) {
		return s.list(filter)
	})
}

// ListAdmin 管理端活动列表（pending=true 时只返回待审核）
func (s *CampaignService) ListAdmin(ctx context.Context, input CampaignListInput, pendingOnly bool) (*CampaignListResult, error) {
	filter := repository.CampaignListFilter{
		Page:      input.Page,
		PageSize:  input.PageSize,
		Search:    strings.TrimSpace(input.Search),
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
	}
	if pendingOnly {
		approved := false
		filter.Approved = &approved
		filter.Statuses = []string{constants.CampaignStatusPending}
	} else if status := strings.ToLower(strings.TrimSpace(input.Status)); status != "" {
		filter.Statuses = []string{status}
	}
	key := querycache.Key(constants.CacheScopeCampaigns+"admin", filter.Page, filter.PageSize, pendingOnly, input.Status, filter.Search, filter.SortBy, filter.SortOrder)
	return cachedFetch(ctx, s.cache, key, 0, func(ctx context.Context) (*CampaignListResult, error) {
		return s.list(filter)
	})
}

func (s *CampaignService) list(filter repository.CampaignListFilter) (*CampaignListResult, error) {
	items, page, err := s.campaignRepo.List(filter)
	if err != nil {
		return nil, err
	}
	return &CampaignListResult{Items: items, Page: page}, nil
}

// ListAvailable 播主可投放活动：已审核、进行中、满足定向条件
func (s *CampaignService) ListAvailable(ctx context.Context, broadcaster *models.Profile, page, limit int, search string) (*AvailableCampaignResult, error) {
	if broadcaster == nil || broadcaster.Role != constants.RoleBroadcaster {
		return nil, ErrForbidden
	}
	normalized := repository.PageQuery{Page: page, Limit: limit, Search: search}.Normalize()
	key := querycache.Key(constants.CacheScopeAvailableCampaigns, broadcaster.ID, normalized.Page, normalized.Limit, normalized.Search)
	return cachedFetch(ctx, s.cache, key, 0, func(ctx context.Context) (*AvailableCampaignResult, error) {
		campaigns, err := s.campaignRepo.ListAvailable()
		if err != nil {
			return nil, err
		}
		matched := make([]models.Campaign, 0, len(campaigns))
		for i := range campaigns {
			if !matchesSearch(&campaigns[i], normalized.Search) {
				continue
			}
			if !s.targeting.Matches(broadcaster, &campaigns[i]) {
				continue
			}
			matched = append(matched, campaigns[i])
		}

		total := int64(len(matched))
		start := (normalized.Page - 1) * normalized.Limit
		end := start + normalized.Limit
		if start > len(matched) {
			start = len(matched)
		}
		if end > len(matched) {
			end = len(matched)
		}
		pageItems := matched[start:end]

		ids := make([]uint, 0, len(pageItems))
		for _, item := range pageItems {
			ids = append(ids, item.ID)
		}
		applied, err := s.applicationRepo.AppliedCampaignIDs(broadcaster.ID, ids)
		if err != nil {
			return nil, err
		}
		items := make([]AvailableCampaign, 0, len(pageItems))
		for i := range pageItems {
			items = append(items, AvailableCampaign{
				Campaign:       pageItems[i],
				HasApplied:     applied[pageItems[i].ID],
				RemainingViews: pageItems[i].RemainingViews(),
			})
		}
		return &AvailableCampaignResult{
			Items: items,
			Page:  repository.NewPage(total, normalized.Page, normalized.Limit),
		}, nil
	})
}

// Approve 管理员审核通过：同一事务内扣减广告主预算并上线活动
func (s *CampaignService) Approve(ctx context.Context, adminID, campaignID uint) (*models.Campaign, error) {
	var approved *models.Campaign
	err := s.campaignRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.campaignRepo.WithTx(tx)
		campaign, err := repo.GetByIDForUpdate(campaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if campaign.Status != constants.CampaignStatusPending || campaign.AdminApproved {
			return ErrCampaignStatusInvalid
		}

		if s.debitOnApproval && campaign.Budget.IsPositive() {
			campaignRef := campaign.ID
			if _, _, err := s.walletService.DebitInTx(tx, WalletDebitInput{
				ProfileID:   campaign.AdvertiserID,
				Amount:      campaign.Budget,
				TxnType:     constants.WalletTxnTypePayment,
				Reference:   campaignPaymentReference(campaign.ID),
				Description: fmt.Sprintf("Budget campagne #%d", campaign.ID),
				CampaignID:  &campaignRef,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := repo.UpdateFields(campaign.ID, map[string]interface{}{
			"admin_approved":   true,
			"status":           constants.CampaignStatusActive,
			"start_date":       now,
			"approved_by":      adminID,
			"rejection_reason": "",
		}); err != nil {
			return err
		}
		campaign.AdminApproved = true
		campaign.Status = constants.CampaignStatusActive
		campaign.StartDate = &now
		campaign.ApprovedBy = &adminID
		campaign.RejectionReason = ""
		approved = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("campaign_approved", "campaign_id", approved.ID, "admin_id", adminID, "budget_debited", s.debitOnApproval)
	s.notificationService.Notify(ctx, NotifyInput{
		ProfileID: approved.AdvertiserID,
		Type:      constants.NotificationCampaignValidated,
		Args:      []interface{}{approved.Title},
		Data:      map[string]interface{}{"campaign_id": approved.ID},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeCampaigns, constants.CacheScopeAvailableCampaigns, constants.CacheScopeStats)
	return approved, nil
}

// Reject 管理员驳回活动，原因必填
func (s *CampaignService) Reject(ctx context.Context, adminID, campaignID uint, reason string) (*models.Campaign, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	var rejected *models.Campaign
	err := s.campaignRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.campaignRepo.WithTx(tx)
		campaign, err := repo.GetByIDForUpdate(campaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if campaign.Status != constants.CampaignStatusPending || campaign.AdminApproved {
			return ErrCampaignStatusInvalid
		}
		if err := repo.UpdateFields(campaign.ID, map[string]interface{}{
			"status":           constants.CampaignStatusCancelled,
			"admin_approved":   false,
			"rejection_reason": reason,
			"approved_by":      adminID,
		}); err != nil {
			return err
		}
		campaign.Status = constants.CampaignStatusCancelled
		campaign.RejectionReason = reason
		rejected = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("campaign_rejected", "campaign_id", rejected.ID, "admin_id", adminID)
	s.notificationService.Notify(ctx, NotifyInput{
		ProfileID: rejected.AdvertiserID,
		Type:      constants.NotificationCampaignRejected,
		Args:      []interface{}{rejected.Title, reason},
		Data:      map[string]interface{}{"campaign_id": rejected.ID, "reason": reason},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeCampaigns, constants.CacheScopeStats)
	return rejected, nil
}

// Pause 广告主暂停进行中的活动
func (s *CampaignService) Pause(ctx context.Context, owner *models.Profile, campaignID uint) (*models.Campaign, error) {
	return s.toggle(ctx, owner, campaignID, constants.CampaignStatusActive, constants.CampaignStatusPaused)
}

// Resume 广告主恢复已暂停的活动
func (s *CampaignService) Resume(ctx context.Context, owner *models.Profile, campaignID uint) (*models.Campaign, error) {
	return s.toggle(ctx, owner, campaignID, constants.CampaignStatusPaused, constants.CampaignStatusActive)
}

func (s *CampaignService) toggle(ctx context.Context, owner *models.Profile, campaignID uint, from, to string) (*models.Campaign, error) {
	if owner == nil {
		return nil, ErrForbidden
	}
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil || campaign.AdvertiserID != owner.ID {
		return nil, ErrCampaignNotFound
	}
	if campaign.Status != from || !campaign.AdminApproved {
		return nil, ErrCampaignStatusInvalid
	}
	if err := s.campaignRepo.UpdateFields(campaign.ID, map[string]interface{}{"status": to}); err != nil {
		return nil, err
	}
	campaign.Status = to
	invalidateCache(ctx, s.cache, constants.CacheScopeCampaigns, constants.CacheScopeAvailableCampaigns, constants.CacheScopeStats)
	logger.Infow("campaign_status_changed", "campaign_id", campaign.ID, "from", from, "to", to)
	return campaign, nil
}

// SetMedia 更新活动素材（仅待审核或已暂停时可改）
func (s *CampaignService) SetMedia(ctx context.Context, owner *models.Profile, campaignID uint, mediaURL, mediaType string) (*models.Campaign, error) {
	if owner == nil {
		return nil, ErrForbidden
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType != constants.MediaTypeImage && mediaType != constants.MediaTypeVideo {
		return nil, ErrCampaignInvalidMediaType
	}
	campaign, err := s.campaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}
	if campaign == nil || campaign.AdvertiserID != owner.ID {
		return nil, ErrCampaignNotFound
	}
	if campaign.Status != constants.CampaignStatusPending && campaign.Status != constants.CampaignStatusPaused {
		return nil, ErrCampaignStatusInvalid
	}
	if err := s.campaignRepo.UpdateFields(campaign.ID, map[string]interface{}{
		"media_url":  mediaURL,
		"media_type": mediaType,
	}); err != nil {
		return nil, err
	}
	campaign.MediaURL = mediaURL
	campaign.MediaType = mediaType
	invalidateCache(ctx, s.cache, constants.CacheScopeCampaigns, constants.CacheScopeAvailableCampaigns)
	return campaign, nil
}

func (s *CampaignService) buildCampaign(input CreateCampaignInput) (*models.Campaign, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrCampaignTitleRequired
	}
	mediaType := strings.ToLower(strings.TrimSpace(input.MediaType))
	if mediaType == "" {
		mediaType = constants.MediaTypeImage
	}
	if mediaType != constants.MediaTypeImage && mediaType != constants.MediaTypeVideo {
		return nil, ErrCampaignInvalidMediaType
	}
	if !input.CostPerView.IsPositive() {
		return nil, ErrCampaignInvalidCostPerView
	}
	if !input.Budget.IsPositive() {
		return nil, ErrCampaignInvalidBudget
	}
	if input.TargetViews <= 0 || input.TargetViews > campaignMaxTargetViews {
		return nil, ErrCampaignInvalidTargetViews
	}
	gender, err := normalizeGender(input.TargetGender)
	if err != nil {
		return nil, err
	}
	if input.TargetAgeMin != nil && *input.TargetAgeMin < 0 {
		return nil, ErrCampaignInvalidAgeRange
	}
	if input.TargetAgeMax != nil && *input.TargetAgeMax < 0 {
		return nil, ErrCampaignInvalidAgeRange
	}
	if input.TargetAgeMin != nil && input.TargetAgeMax != nil && *input.TargetAgeMin > *input.TargetAgeMax {
		return nil, ErrCampaignInvalidAgeRange
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, ErrCampaignInvalidDates
	}
	cities := make([]string, 0, len(input.TargetCities))
	for _, city := range input.TargetCities {
		if strings.TrimSpace(city) == "" {
			continue
		}
		canonical, ok := s.locations.NormalizeCity(city)
		if !ok {
			return nil, ErrInvalidLocation
		}
		cities = append(cities, canonical)
	}
	languages := make([]string, 0, len(input.TargetLanguages))
	for _, language := range input.TargetLanguages {
		if value := strings.TrimSpace(language); value != "" {
			languages = append(languages, value)
		}
	}
	rule := strings.TrimSpace(input.AudienceRule)
	if err := s.targeting.ValidateRule(rule); err != nil {
		return nil, err
	}

	return &models.Campaign{
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		MediaURL:        strings.TrimSpace(input.MediaURL),
		MediaType:       mediaType,
		Caption:         strings.TrimSpace(input.Caption),
		CostPerView:     input.CostPerView,
		Budget:          input.Budget,
		TargetViews:     input.TargetViews,
		TargetGender:    gender,
		TargetAgeMin:    input.TargetAgeMin,
		TargetAgeMax:    input.TargetAgeMax,
		TargetCities:    datatypes.JSONSlice[string](cities),
		TargetLanguages: datatypes.JSONSlice[string](languages),
		AudienceRule:    rule,
		Status:          constants.CampaignStatusPending,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
	}, nil
}

func matchesSearch(campaign *models.Campaign, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(campaign.Title), needle) ||
		strings.Contains(strings.ToLower(campaign.Description), needle)
}
