package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/adstatus-next/internal/config"
	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
	"github.com/adstatus-next/internal/provider"
	"github.com/adstatus-next/internal/querycache"
	"github.com/adstatus-next/internal/queue"
	"github.com/adstatus-next/internal/repository"
	"github.com/adstatus-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	profileRepo := repository.NewProfileRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), profileRepo, nil, nil, "")
	cache := querycache.New(querycache.NewMemoryStore(), nil, querycache.Options{Retry: querycache.RetryPolicy{Attempts: 1}})
	applications := service.NewApplicationService(applicationRepo, campaignRepo, service.NewTargetingService(nil), notifications, cache,
		config.CampaignConfig{ProofDeadlineHours: 24, ExpiringSoonHours: 23})

	consumer := NewConsumer(&provider.Container{
		ProfileRepo:         profileRepo,
		ApplicationRepo:     applicationRepo,
		CampaignRepo:        campaignRepo,
		NotificationService: notifications,
		ApplicationService:  applications,
	})
	return consumer, db
}

func createProfile(t *testing.T, db *gorm.DB, role, phone string) *models.Profile {
	t.Helper()
	account := &models.Account{Phone: phone, Status: "active"}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	profile := &models.Profile{AccountID: account.ID, Role: role, FullName: "Test", ReferralCode: "REF" + phone, IsActive: true}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func TestHandleDeadlineScanFlagsOverdueApplications(t *testing.T) {
	consumer, db := setupConsumerTest(t)
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	consumer.now = func() time.Time { return now }

	advertiser := createProfile(t, db, constants.RoleAdvertiser, "+22996000001")
	broadcaster := createProfile(t, db, constants.RoleBroadcaster, "+22996000002")
	campaign := &models.Campaign{
		AdvertiserID: advertiser.ID,
		Title:        "Promo",
		MediaType:    constants.MediaTypeImage,
		TargetViews:  100,
		Status:       constants.CampaignStatusActive,
	}
	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	overdueAt := now.Add(-25 * time.Hour)
	recentAt := now.Add(-2 * time.Hour)
	overdue := &models.CampaignApplication{CampaignID: campaign.ID, BroadcasterID: broadcaster.ID, Status: constants.ApplicationStatusAccepted, AppliedAt: overdueAt, AcceptedAt: &overdueAt}
	other := createProfile(t, db, constants.RoleBroadcaster, "+22996000003")
	recent := &models.CampaignApplication{CampaignID: campaign.ID, BroadcasterID: other.ID, Status: constants.ApplicationStatusAccepted, AppliedAt: recentAt, AcceptedAt: &recentAt}
	if err := db.Create(overdue).Error; err != nil {
		t.Fatalf("create overdue application failed: %v", err)
	}
	if err := db.Create(recent).Error; err != nil {
		t.Fatalf("create recent application failed: %v", err)
	}

	task, err := queue.NewDeadlineScanTask(queue.DeadlineScanPayload{ScheduledAt: now})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleDeadlineScan(context.Background(), task); err != nil {
		t.Fatalf("handle deadline scan failed: %v", err)
	}

	var reloaded models.CampaignApplication
	if err := db.First(&reloaded, overdue.ID).Error; err != nil {
		t.Fatalf("reload overdue application failed: %v", err)
	}
	if reloaded.DeadlineFlaggedAt == nil || reloaded.Status != constants.ApplicationStatusAccepted {
		t.Fatalf("overdue application should be flagged and stay accepted, got %+v", reloaded)
	}
	var reloadedRecent models.CampaignApplication
	if err := db.First(&reloadedRecent, recent.ID).Error; err != nil {
		t.Fatalf("reload recent application failed: %v", err)
	}
	if reloadedRecent.DeadlineFlaggedAt != nil {
		t.Fatalf("recent application should not be flagged")
	}

	var notified int64
	if err := db.Model(&models.Notification{}).Where("type = ?", constants.NotificationProofDeadlineMissed).Count(&notified).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if notified != 2 {
		t.Fatalf("broadcaster and advertiser should be notified, got %d", notified)
	}

	// 重复扫描不会重复通知
	if err := consumer.handleDeadlineScan(context.Background(), asynq.NewTask(queue.TaskApplicationDeadlineScan, nil)); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if err := db.Model(&models.Notification{}).Where("type = ?", constants.NotificationProofDeadlineMissed).Count(&notified).Error; err != nil {
		t.Fatalf("count notifications failed: %v", err)
	}
	if notified != 2 {
		t.Fatalf("rescan should not notify again, got %d", notified)
	}
}

func TestHandleNotificationDispatchPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)
	ctx := context.Background()

	if err := consumer.handleNotificationDispatch(ctx, asynq.NewTask(queue.TaskNotificationDispatch, []byte("{"))); err == nil {
		t.Fatalf("malformed payload should fail")
	}
	body, _ := json.Marshal(queue.NotificationDispatchPayload{})
	if err := consumer.handleNotificationDispatch(ctx, asynq.NewTask(queue.TaskNotificationDispatch, body)); err != nil {
		t.Fatalf("empty notification id should be skipped, got %v", err)
	}
	body, _ = json.Marshal(queue.NotificationDispatchPayload{NotificationID: 42})
	if err := consumer.handleNotificationDispatch(ctx, asynq.NewTask(queue.TaskNotificationDispatch, body)); err != nil {
		t.Fatalf("dispatch without pusher should be a no-op, got %v", err)
	}
	if err := (*Consumer)(nil).handleNotificationDispatch(ctx, nil); err != nil {
		t.Fatalf("nil consumer should be skipped, got %v", err)
	}
}

func TestDeadlineScanInterval(t *testing.T) {
	if got := deadlineScanInterval(nil); got != defaultDeadlineScanInterval {
		t.Fatalf("nil config want default, got %s", got)
	}
	if got := deadlineScanInterval(&config.QueueConfig{DeadlineScanIntervalSecs: 30}); got != 30*time.Second {
		t.Fatalf("want 30s, got %s", got)
	}
}

func TestSchedulerPrunesExpiredQueryCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	clock := querycache.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	store := querycache.NewMemoryStore()
	cache := querycache.New(store, clock, querycache.Options{Retry: querycache.RetryPolicy{Attempts: 1}})
	if err := cache.Set(context.Background(), "stats_admin", 1, time.Minute); err != nil {
		t.Fatalf("set cache failed: %v", err)
	}
	clock.Advance(time.Hour)

	scheduler, err := NewScheduler(nil, NewConsumer(&provider.Container{QueryCache: cache}))
	if err != nil {
		t.Fatalf("new scheduler failed: %v", err)
	}
	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("scheduler start failed: %v", err)
	}
	entry, err := store.Get(context.Background(), "stats_admin")
	if err != nil {
		t.Fatalf("get cache failed: %v", err)
	}
	if entry != nil {
		t.Fatalf("expired entry should be pruned, got %+v", entry)
	}
}
