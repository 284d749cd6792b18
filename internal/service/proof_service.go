package service

import (
	"context"
	"fmt"
	"mime/multipart"
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
	defaultMinEstimatedViews     = 1
	defaultMaxEstimatedViews     = 1000
	defaultDefaultEstimatedViews = 100
)

// ProofListInput 凭证列表输入
type ProofListInput struct {
	Page          int
	PageSize      int
	Status        string
	CampaignID    uint
	BroadcasterID uint
}

// ProofListResult 凭证分页结果
type ProofListResult struct {
	Items []models.Proof `json:"items"`
	Total int64          `json:"total"`
}

// ProofService 发布凭证提交、审核与结算
type ProofService struct {
	proofRepo           repository.ProofRepository
	applicationRepo     repository.ApplicationRepository
	campaignRepo        repository.CampaignRepository
	walletService       *WalletService
	referralService     *ReferralService
	notificationService *NotificationService
	uploadService       *UploadService
	cache               *querycache.Service
	minViews            int
	maxViews            int
	defaultViews        int
}

// NewProofService 创建凭证服务
func NewProofService(
	proofRepo repository.ProofRepository,
	applicationRepo repository.ApplicationRepository,
	campaignRepo repository.CampaignRepository,
	walletService *WalletService,
	referralService *ReferralService,
	notificationService *NotificationService,
	uploadService *UploadService,
	queryCache *querycache.Service,
	cfg config.CampaignConfig,
) *ProofService {
	minViews := cfg.MinEstimatedViews
	if minViews <= 0 {
		minViews = defaultMinEstimatedViews
	}
	maxViews := cfg.MaxEstimatedViews
	if maxViews < minViews {
		maxViews = defaultMaxEstimatedViews
	}
	defaultViews := cfg.DefaultEstimatedViews
	if defaultViews < minViews || defaultViews > maxViews {
		defaultViews = defaultDefaultEstimatedViews
	}
	return &ProofService{
		proofRepo:           proofRepo,
		applicationRepo:     applicationRepo,
		campaignRepo:        campaignRepo,
		walletService:       walletService,
		referralService:     referralService,
		notificationService: notificationService,
		uploadService:       uploadService,
		cache:               queryCache,
		minViews:            minViews,
		maxViews:            maxViews,
		defaultViews:        defaultViews,
	}
}

// Submit 上传截图并提交凭证
func (s *ProofService) Submit(ctx context.Context, broadcaster *models.Profile, applicationID uint, file *multipart.FileHeader) (*models.Proof, error) {
	application, err := s.loadSubmittable(broadcaster, applicationID)
	if err != nil {
		return nil, err
	}
	url, key, err := s.uploadService.SaveProofScreenshot(ctx, file, application.ID)
	if err != nil {
		return nil, err
	}
	proof, err := s.SubmitWithURL(ctx, broadcaster, applicationID, url)
	if err != nil {
		s.uploadService.Remove(ctx, key)
		return nil, err
	}
	return proof, nil
}

// SubmitWithURL 以已存储的截图地址提交凭证，预估浏览量取默认值
func (s *ProofService) SubmitWithURL(ctx context.Context, broadcaster *models.Profile, applicationID uint, screenshotURL string) (*models.Proof, error) {
	screenshotURL = strings.TrimSpace(screenshotURL)
	if screenshotURL == "" {
		return nil, ErrUploadFileRequired
	}
	if _, err := s.loadSubmittable(broadcaster, applicationID); err != nil {
		return nil, err
	}

	var proof *models.Proof
	var campaignTitle string
	err := s.proofRepo.Transaction(func(tx *gorm.DB) error {
		appRepo := s.applicationRepo.WithTx(tx)
		proofRepo := s.proofRepo.WithTx(tx)
		application, err := appRepo.GetByIDForUpdate(applicationID)
		if err != nil {
			return err
		}
		if application == nil || application.BroadcasterID != broadcaster.ID {
			return ErrApplicationNotFound
		}
		if application.Status != constants.ApplicationStatusAccepted {
			return ErrApplicationStatusInvalid
		}
		existing, err := proofRepo.GetByApplicationID(application.ID)
		if err != nil {
			return err
		}
		if existing != nil || application.ProofUploaded {
			return ErrProofAlreadyUploaded
		}
		campaign, err := s.campaignRepo.WithTx(tx).GetByID(application.CampaignID)
		if err != nil {
			return err
		}
		if campaign != nil {
			campaignTitle = campaign.Title
		}

		now := time.Now()
		proof = &models.Proof{
			ApplicationID:  application.ID,
			CampaignID:     application.CampaignID,
			BroadcasterID:  broadcaster.ID,
			ScreenshotURL:  screenshotURL,
			Status:         constants.ProofStatusPending,
			EstimatedViews: s.defaultViews,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := proofRepo.Create(proof); err != nil {
			return err
		}
		return appRepo.UpdateFields(application.ID, map[string]interface{}{"proof_uploaded": true})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("proof_submitted", "proof_id", proof.ID, "application_id", applicationID, "broadcaster_id", broadcaster.ID)
	s.notificationService.NotifyAdmins(ctx, NotifyInput{
		Type: constants.NotificationProofSubmitted,
		Args: []interface{}{campaignTitle},
		Data: map[string]interface{}{"proof_id": proof.ID, "application_id": applicationID},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeProofs, constants.CacheScopeApplications, constants.CacheScopeStats)
	return proof, nil
}

func (s *ProofService) loadSubmittable(broadcaster *models.Profile, applicationID uint) (*models.CampaignApplication, error) {
	if broadcaster == nil || broadcaster.Role != constants.RoleBroadcaster {
		return nil, ErrForbidden
	}
	application, err := s.applicationRepo.GetByID(applicationID)
	if err != nil {
		return nil, err
	}
	if application == nil || application.BroadcasterID != broadcaster.ID {
		return nil, ErrApplicationNotFound
	}
	if application.Status != constants.ApplicationStatusAccepted {
		return nil, ErrApplicationStatusInvalid
	}
	if application.ProofUploaded {
		return nil, ErrProofAlreadyUploaded
	}
	return application, nil
}

// Approve 审核通过并结算：凭证、申请、活动进度、钱包入账与推荐奖励在同一事务内完成
func (s *ProofService) Approve(ctx context.Context, adminID, proofID uint, estimatedViews int) (*models.Proof, error) {
	if estimatedViews < s.minViews || estimatedViews > s.maxViews {
		return nil, ErrEstimatedViewsOutOfRange
	}

	var settled *models.Proof
	var campaignResult *models.Campaign
	var bonus *ReferralBonusResult
	err := s.proofRepo.Transaction(func(tx *gorm.DB) error {
		proofRepo := s.proofRepo.WithTx(tx)
		appRepo := s.applicationRepo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)

		proof, err := proofRepo.GetByIDForUpdate(proofID)
		if err != nil {
			return err
		}
		if proof == nil {
			return ErrProofNotFound
		}
		if proof.Status != constants.ProofStatusPending {
			return ErrProofAlreadyValidated
		}
		application, err := appRepo.GetByIDForUpdate(proof.ApplicationID)
		if err != nil {
			return err
		}
		if application == nil {
			return ErrApplicationNotFound
		}
		if application.Status != constants.ApplicationStatusAccepted {
			return ErrApplicationStatusInvalid
		}
		campaign, err := campaignRepo.GetByIDForUpdate(proof.CampaignID)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}

		earnings := campaign.CostPerView.MulInt(estimatedViews)
		if earnings.IsPositive() {
			campaignRef, proofRef := campaign.ID, proof.ID
			if _, _, err := s.walletService.CreditInTx(tx, WalletCreditInput{
				ProfileID:   proof.BroadcasterID,
				Amount:      earnings,
				TxnType:     constants.WalletTxnTypeEarning,
				Reference:   proofEarningReference(proof.ID),
				Description: fmt.Sprintf("Gains campagne « %s » (%d vues)", campaign.Title, estimatedViews),
				CampaignID:  &campaignRef,
				ProofID:     &proofRef,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		if err := proofRepo.UpdateFields(proof.ID, map[string]interface{}{
			"status":           constants.ProofStatusApproved,
			"estimated_views":  estimatedViews,
			"earnings":         earnings,
			"validated_by":     adminID,
			"validated_at":     now,
			"rejection_reason": "",
		}); err != nil {
			return err
		}
		if err := appRepo.UpdateFields(application.ID, map[string]interface{}{
			"status":       constants.ApplicationStatusCompleted,
			"completed_at": now,
		}); err != nil {
			return err
		}

		if err := s.applyCampaignProgress(campaignRepo, campaign, estimatedViews, earnings); err != nil {
			return err
		}

		bonus, err = s.referralService.PayFirstProofBonusTx(tx, proof.BroadcasterID)
		if err != nil {
			return err
		}

		proof.Status = constants.ProofStatusApproved
		proof.EstimatedViews = estimatedViews
		proof.Earnings = earnings
		proof.ValidatedBy = &adminID
		proof.ValidatedAt = &now
		proof.RejectionReason = ""
		settled = proof
		campaignResult = campaign
		return nil
	})
	if err != nil {
		return nil, err
	}

	currency := s.walletService.Currency()
	logger.Infow("proof_settled",
		"proof_id", settled.ID,
		"campaign_id", settled.CampaignID,
		"broadcaster_id", settled.BroadcasterID,
		"views", estimatedViews,
		"earnings", settled.Earnings.String(),
	)
	inputs := []NotifyInput{{
		ProfileID: settled.BroadcasterID,
		Type:      constants.NotificationProofValidated,
		Args:      []interface{}{campaignResult.Title, settled.Earnings.String(), currency},
		Data: map[string]interface{}{
			"proof_id":    settled.ID,
			"campaign_id": settled.CampaignID,
			"earnings":    settled.Earnings.String(),
			"views":       estimatedViews,
		},
	}}
	if bonus != nil {
		inputs = append(inputs, NotifyInput{
			ProfileID: bonus.ReferrerID,
			Type:      constants.NotificationReferralBonus,
			Args:      []interface{}{bonus.Amount.String(), currency},
			Data:      map[string]interface{}{"referred_id": settled.BroadcasterID, "amount": bonus.Amount.String()},
		})
	}
	s.notificationService.Notify(ctx, inputs...)
	invalidateCache(ctx, s.cache,
		constants.CacheScopeProofs,
		constants.CacheScopeApplications,
		constants.CacheScopeCampaigns,
		constants.CacheScopeAvailableCampaigns,
		constants.CacheScopeStats,
	)
	return settled, nil
}

// applyCampaignProgress 累加活动浏览量与已付金额；浏览量封顶于目标，预算超支只标记不拦截
func (s *ProofService) applyCampaignProgress(repo *repository.GormCampaignRepository, campaign *models.Campaign, views int, earnings models.Money) error {
	currentViews := campaign.CurrentViews + views
	if campaign.TargetViews > 0 && currentViews > campaign.TargetViews {
		currentViews = campaign.TargetViews
	}
	totalPaid := models.NewMoneyFromDecimal(campaign.TotalPaid.Decimal.Add(earnings.Decimal))
	exceeded := totalPaid.Decimal.GreaterThan(campaign.Budget.Decimal)

	fields := map[string]interface{}{
		"current_views": currentViews,
		"total_paid":    totalPaid,
	}
	if exceeded && !campaign.BudgetExceeded {
		fields["budget_exceeded"] = true
		logger.Warnw("campaign_budget_exceeded",
			"campaign_id", campaign.ID,
			"budget", campaign.Budget.String(),
			"total_paid", totalPaid.String(),
		)
	}
	if campaign.TargetViews > 0 && currentViews >= campaign.TargetViews &&
		(campaign.Status == constants.CampaignStatusActive || campaign.Status == constants.CampaignStatusPaused) {
		fields["status"] = constants.CampaignStatusCompleted
		campaign.Status = constants.CampaignStatusCompleted
		logger.Infow("campaign_target_reached", "campaign_id", campaign.ID, "target_views", campaign.TargetViews)
	}
	if err := repo.UpdateFields(campaign.ID, fields); err != nil {
		return err
	}
	campaign.CurrentViews = currentViews
	campaign.TotalPaid = totalPaid
	campaign.BudgetExceeded = campaign.BudgetExceeded || exceeded
	return nil
}

// Reject 驳回凭证，原因必填；申请保持 accepted
func (s *ProofService) Reject(ctx context.Context, adminID, proofID uint, reason string) (*models.Proof, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	var rejected *models.Proof
	var campaignTitle string
	err := s.proofRepo.Transaction(func(tx *gorm.DB) error {
		proofRepo := s.proofRepo.WithTx(tx)
		proof, err := proofRepo.GetByIDForUpdate(proofID)
		if err != nil {
			return err
		}
		if proof == nil {
			return ErrProofNotFound
		}
		if proof.Status != constants.ProofStatusPending {
			return ErrProofAlreadyValidated
		}
		now := time.Now()
		if err := proofRepo.UpdateFields(proof.ID, map[string]interface{}{
			"status":           constants.ProofStatusRejected,
			"rejection_reason": reason,
			"validated_by":     adminID,
			"validated_at":     now,
		}); err != nil {
			return err
		}
		campaign, err := s.campaignRepo.WithTx(tx).GetByID(proof.CampaignID)
		if err != nil {
			return err
		}
		if campaign != nil {
			campaignTitle = campaign.Title
		}
		proof.Status = constants.ProofStatusRejected
		proof.RejectionReason = reason
		proof.ValidatedBy = &adminID
		proof.ValidatedAt = &now
		rejected = proof
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("proof_rejected", "proof_id", rejected.ID, "admin_id", adminID)
	s.notificationService.Notify(ctx, NotifyInput{
		ProfileID: rejected.BroadcasterID,
		Type:      constants.NotificationProofRejected,
		Args:      []interface{}{campaignTitle, reason},
		Data:      map[string]interface{}{"proof_id": rejected.ID, "campaign_id": rejected.CampaignID, "reason": reason},
	})
	invalidateCache(ctx, s.cache, constants.CacheScopeProofs, constants.CacheScopeStats)
	return rejected, nil
}

// Get 读取凭证（播主本人或管理员）
func (s *ProofService) Get(actor *models.Profile, proofID uint) (*models.Proof, error) {
	proof, err := s.proofRepo.GetByID(proofID)
	if err != nil {
		return nil, err
	}
	if proof == nil || actor == nil {
		return nil, ErrProofNotFound
	}
	if actor.Role != constants.RoleAdmin && proof.BroadcasterID != actor.ID {
		return nil, ErrProofNotFound
	}
	return proof, nil
}

// List 凭证列表（管理端审核队列或播主历史）
func (s *ProofService) List(ctx context.Context, input ProofListInput) (*ProofListResult, error) {
	filter := repository.ProofListFilter{
		Page:          input.Page,
		PageSize:      input.PageSize,
		BroadcasterID: input.BroadcasterID,
		CampaignID:    input.CampaignID,
		Status:        strings.ToLower(strings.TrimSpace(input.Status)),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	key := querycache.Key(constants.CacheScopeProofs, filter.BroadcasterID, filter.CampaignID, filter.Page, filter.PageSize, filter.Status)
	return cachedFetch(ctx, s.cache, key, 0, func(ctx context.Context) (*ProofListResult, error) {
		items, total, err := s.proofRepo.List(filter)
		if err != nil {
			return nil, err
		}
		return &ProofListResult{Items: items, Total: total}, nil
	})
}
