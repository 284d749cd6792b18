package repository

import (
	"testing"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"
)

func TestGetAdvertiserOverviewAggregatesOwnCampaigns(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewDashboardRepository(db)
	advertiser := createTestProfile(t, db, constants.RoleAdvertiser, "22993000001")
	other := createTestProfile(t, db, constants.RoleAdvertiser, "22993000002")
	broadcaster := createTestProfile(t, db, constants.RoleBroadcaster, "22993000003")

	active := createTestCampaign(t, db, advertiser.ID, "A", constants.CampaignStatusActive, true)
	createTestCampaign(t, db, advertiser.ID, "B", constants.CampaignStatusPending, false)
	createTestCampaign(t, db, other.ID, "C", constants.CampaignStatusActive, true)
	if err := db.Model(&models.Campaign{}).Where("id = ?", active.ID).Updates(map[string]interface{}{
		"current_views": 120,
		"total_paid":    mustMoney(t, "60.00"),
	}).Error; err != nil {
		t.Fatalf("update campaign failed: %v", err)
	}
	if err := db.Create(&models.CampaignApplication{
		CampaignID: active.ID, BroadcasterID: broadcaster.ID,
		Status: constants.ApplicationStatusPending, AppliedAt: time.Now(),
	}).Error; err != nil {
		t.Fatalf("create application failed: %v", err)
	}

	row, err := repo.GetAdvertiserOverview(advertiser.ID)
	if err != nil {
		t.Fatalf("advertiser overview failed: %v", err)
	}
	if row.CampaignsByStatus[constants.CampaignStatusActive] != 1 || row.CampaignsByStatus[constants.CampaignStatusPending] != 1 {
		t.Fatalf("unexpected campaigns by status: %+v", row.CampaignsByStatus)
	}
	if row.CampaignsByStatus[constants.CampaignStatusCancelled] != 0 {
		t.Fatalf("missing statuses should be zero-filled")
	}
	if row.TotalBudget != 1000 || row.TotalPaid != 60 || row.ViewsDelivered != 120 {
		t.Fatalf("unexpected totals: %+v", row)
	}
	if row.PendingApplications != 1 {
		t.Fatalf("pending applications want 1 got %d", row.PendingApplications)
	}
}

func TestGetAdminOverviewCountsRolesAndRevenue(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewDashboardRepository(db)
	advertiser := createTestProfile(t, db, constants.RoleAdvertiser, "22993000010")
	createTestProfile(t, db, constants.RoleBroadcaster, "22993000011")
	createTestProfile(t, db, constants.RoleBroadcaster, "22993000012")
	createTestProfile(t, db, constants.RoleAdmin, "22993000013")

	if err := db.Create(&models.WalletTransaction{
		ProfileID: advertiser.ID, Type: constants.WalletTxnTypePayment, Direction: constants.WalletTxnDirectionOut,
		Status: constants.WalletTxnStatusCompleted, Amount: mustMoney(t, "500.00"), Currency: "XOF", Reference: "campaign:1:payment",
	}).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	row, err := repo.GetAdminOverview()
	if err != nil {
		t.Fatalf("admin overview failed: %v", err)
	}
	if row.ProfilesByRole[constants.RoleBroadcaster] != 2 || row.ProfilesByRole[constants.RoleAdmin] != 1 {
		t.Fatalf("unexpected profiles by role: %+v", row.ProfilesByRole)
	}
	if row.Revenue != 500 {
		t.Fatalf("revenue want 500 got %v", row.Revenue)
	}
}
