package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db    *gorm.DB
	cache *querycache.Service
	clock *querycache.ManualClock
	cfg   config.CampaignConfig

	profileRepo      *repository.GormProfileRepository
	campaignRepo     *repository.GormCampaignRepository
	applicationRepo  *repository.GormApplicationRepository
	proofRepo        *repository.GormProofRepository
	walletRepo       *repository.GormWalletRepository
	notificationRepo *repository.GormNotificationRepository
	referralRepo     *repository.GormReferralRepository

	wallet        *WalletService
	referrals     *ReferralService
	notifications *NotificationService
	targeting     *TargetingService
	profiles      *ProfileService
	campaigns     *CampaignService
	applications  *ApplicationService
	proofs        *ProofService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	env := &serviceTestEnv{
		db:    db,
		clock: querycache.NewManualClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		cfg: config.CampaignConfig{
			Currency:              "XOF",
			ProofDeadlineHours:    24,
			ExpiringSoonHours:     23,
			MinEstimatedViews:     1,
			MaxEstimatedViews:     1000,
			DefaultEstimatedViews: 100,
			DebitBudgetOnApproval: true,
			CommissionRate:        "0.10",
			ReferralBonus:         "500",
			SnowflakeNode:         1,
		},
	}
	env.cache = querycache.New(querycache.NewMemoryStore(), env.clock, querycache.Options{
		Retry: querycache.RetryPolicy{Attempts: 1},
	})

	env.profileRepo = repository.NewProfileRepository(db)
	env.campaignRepo = repository.NewCampaignRepository(db)
	env.applicationRepo = repository.NewApplicationRepository(db)
	env.proofRepo = repository.NewProofRepository(db)
	env.walletRepo = repository.NewWalletRepository(db)
	env.notificationRepo = repository.NewNotificationRepository(db)
	env.referralRepo = repository.NewReferralRepository(db)

	env.wallet = NewWalletService(env.walletRepo, env.cfg.Currency)
	env.referrals, err = NewReferralService(env.referralRepo, env.wallet, env.cfg)
	if err != nil {
		t.Fatalf("init referral service failed: %v", err)
	}
	env.notifications = NewNotificationService(env.notificationRepo, env.profileRepo, nil, nil, "")
	audience, err := NewAudienceEvaluator()
	if err != nil {
		t.Fatalf("init audience evaluator failed: %v", err)
	}
	env.targeting = NewTargetingService(audience)
	locations := NewLocationService()
	env.profiles = NewProfileService(env.profileRepo, env.wallet, env.referrals, locations, env.cache, time.Minute)
	env.campaigns = NewCampaignService(env.campaignRepo, env.applicationRepo, env.wallet, env.targeting, locations, env.notifications, env.cache, env.cfg.DebitBudgetOnApproval)
	env.applications = NewApplicationService(env.applicationRepo, env.campaignRepo, env.targeting, env.notifications, env.cache, env.cfg)
	env.proofs = NewProofService(env.proofRepo, env.applicationRepo, env.campaignRepo, env.wallet, env.referrals, env.notifications, nil, env.cache, env.cfg)
	return env
}

func mustMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func (env *serviceTestEnv) createProfile(t *testing.T, role, phone string, mutate func(p *models.Profile)) *models.Profile {
	t.Helper()
	account := &models.Account{Phone: phone, Status: "active"}
	if err := env.db.Create(account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	profile := &models.Profile{
		AccountID:    account.ID,
		Role:         role,
		FullName:     "Test " + role + " " + phone,
		Region:       "Littoral",
		City:         "Cotonou",
		ReferralCode: "REF" + phone,
		IsActive:     true,
	}
	if mutate != nil {
		mutate(profile)
	}
	if err := env.db.Create(profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func (env *serviceTestEnv) fund(t *testing.T, profileID uint, amount string) {
	t.Helper()
	if _, _, err := env.wallet.Deposit(WalletDepositInput{
		ProfileID:   profileID,
		Amount:      mustMoney(t, amount),
		ExternalRef: fmt.Sprintf("seed-%d-%s", profileID, amount),
	}); err != nil {
		t.Fatalf("fund wallet failed: %v", err)
	}
}

// createActiveCampaign 直接写入一条已上线活动
func (env *serviceTestEnv) createActiveCampaign(t *testing.T, advertiserID uint, cpv, budget string, targetViews int) *models.Campaign {
	t.Helper()
	now := time.Now()
	campaign := &models.Campaign{
		AdvertiserID:  advertiserID,
		Title:         fmt.Sprintf("Campagne %d", now.UnixNano()),
		MediaType:     constants.MediaTypeImage,
		CostPerView:   mustMoney(t, cpv),
		Budget:        mustMoney(t, budget),
		TargetViews:   targetViews,
		Status:        constants.CampaignStatusActive,
		AdminApproved: true,
		StartDate:     &now,
	}
	if err := env.db.Create(campaign).Error; err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return campaign
}

func (env *serviceTestEnv) createAcceptedApplication(t *testing.T, campaignID, broadcasterID uint, acceptedAt time.Time) *models.CampaignApplication {
	t.Helper()
	application := &models.CampaignApplication{
		CampaignID:    campaignID,
		BroadcasterID: broadcasterID,
		Status:        constants.ApplicationStatusAccepted,
		AppliedAt:     acceptedAt.Add(-time.Hour),
		AcceptedAt:    &acceptedAt,
	}
	if err := env.db.Create(application).Error; err != nil {
		t.Fatalf("create application failed: %v", err)
	}
	return application
}

func (env *serviceTestEnv) countNotifications(t *testing.T, profileID uint, notificationType string) int64 {
	t.Helper()
	var count int64
	if err := env.db.Model(&models.Notification{}).
		Where("profile_id = ? AND type = ?", profileID, notificationType).
		Count(&count).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	return count
}

func (env *serviceTestEnv) walletAccount(t *testing.T, profileID uint) *models.WalletAccount {
	t.Helper()
	account, err := env.walletRepo.GetAccountByProfileID(profileID)
	if err != nil {
		t.Fatalf("get wallet account failed: %v", err)
	}
	if account == nil {
		t.Fatalf("wallet account for profile %d not found", profileID)
	}
	return account
}
