package repository

import (
	"testing"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
)

func TestApplicationRepositoryRejectsDuplicatePair(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewApplicationRepository(db)
	advertiser := createTestProfile(t, db, constants.RoleAdvertiser, "22991000001")
	broadcaster := createTestProfile(t, db, constants.RoleBroadcaster, "22991000002")
	campaign := createTestCampaign(t, db, advertiser.ID, "Campagne", constants.CampaignStatusActive, true)

	first := &models.CampaignApplication{
		CampaignID:    campaign.ID,
		BroadcasterID: broadcaster.ID,
		Status:        constants.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first application failed: %v", err)
	}
	second := &models.CampaignApplication{
		CampaignID:    campaign.ID,
		BroadcasterID: broadcaster.ID,
		Status:        constants.ApplicationStatusPending,
		AppliedAt:     time.Now(),
	}
	if err := repo.Create(second); err == nil {
		t.Fatalf("duplicate application should violate unique index")
	}

	var count int64
	if err := db.Model(&models.CampaignApplication{}).Count(&count).Error; err != nil {
		t.Fatalf("count applications failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("want exactly one application row, got %d", count)
	}

	applied, err := repo.AppliedCampaignIDs(broadcaster.ID, []uint{campaign.ID, campaign.ID + 100})
	if err != nil {
		t.Fatalf("applied ids failed: %v", err)
	}
	if !applied[campaign.ID] || applied[campaign.ID+100] {
		t.Fatalf("unexpected applied set: %+v", applied)
	}
}

func TestApplicationRepositoryOverdueFlaggedOnce(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewApplicationRepository(db)
	advertiser := createTestProfile(t, db, constants.RoleAdvertiser, "22991000003")
	broadcaster := createTestProfile(t, db, constants.RoleBroadcaster, "22991000004")
	late := createTestCampaign(t, db, advertiser.ID, "Late", constants.CampaignStatusActive, true)
	fresh := createTestCampaign(t, db, advertiser.ID, "Fresh", constants.CampaignStatusActive, true)

	now := time.Now()
	lateAccepted := now.Add(-30 * time.Hour)
	freshAccepted := now.Add(-2 * time.Hour)
	lateApp := &models.CampaignApplication{
		CampaignID: late.ID, BroadcasterID: broadcaster.ID,
		Status: constants.ApplicationStatusAccepted, AppliedAt: lateAccepted, AcceptedAt: &lateAccepted,
	}
	freshApp := &models.CampaignApplication{
		CampaignID: fresh.ID, BroadcasterID: broadcaster.ID,
		Status: constants.ApplicationStatusAccepted, AppliedAt: freshAccepted, AcceptedAt: &freshAccepted,
	}
	if err := repo.Create(lateApp); err != nil {
		t.Fatalf("create late application failed: %v", err)
	}
	if err := repo.Create(freshApp); err != nil {
		t.Fatalf("create fresh application failed: %v", err)
	}

	overdue, err := repo.ListOverdue(now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("list overdue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != lateApp.ID {
		t.Fatalf("want only late application overdue, got %+v", overdue)
	}
	if overdue[0].Campaign == nil || overdue[0].Campaign.ID != late.ID {
		t.Fatalf("overdue application should preload campaign")
	}

	flagged, err := repo.MarkDeadlineFlagged(lateApp.ID, now)
	if err != nil || !flagged {
		t.Fatalf("first flag should succeed, flagged=%v err=%v", flagged, err)
	}
	flagged, err = repo.MarkDeadlineFlagged(lateApp.ID, now)
	if err != nil || flagged {
		t.Fatalf("second flag should be a no-op, flagged=%v err=%v", flagged, err)
	}

	overdue, err = repo.ListOverdue(now.Add(-24*time.Hour), 10)
	if err != nil {
		t.Fatalf("list overdue failed: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("flagged application should not be listed again, got %d", len(overdue))
	}
}
