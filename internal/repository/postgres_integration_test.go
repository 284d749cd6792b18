//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.Referral{},
		&models.Notification{},
		&models.WalletTransaction{},
		&models.WalletAccount{},
		&models.Proof{},
		&models.CampaignApplication{},
		&models.Campaign{},
		&models.OTPCode{},
		&models.CompanyInfo{},
		&models.Profile{},
		&models.Account{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresProfileListSearchAndInterest(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProfileRepository(db)

	profile := createTestProfile(t, db, constants.RoleBroadcaster, "22994000001")
	if err := db.Model(profile).Update("interests", datatypes.JSONSlice[string]{"sport", "music"}).Error; err != nil {
		t.Fatalf("update interests failed: %v", err)
	}
	createTestProfile(t, db, constants.RoleBroadcaster, "22994000002")

	items, total, err := repo.List(ProfileListFilter{Page: 1, PageSize: 10, Interest: "music"})
	if err != nil {
		t.Fatalf("list by interest failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != profile.ID {
		t.Fatalf("unexpected interest result: total=%d items=%d", total, len(items))
	}

	items, total, err = repo.List(ProfileListFilter{Page: 1, PageSize: 10, Search: "TEST BROAD"})
	if err != nil {
		t.Fatalf("list by search failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("ILIKE search should be case-insensitive, total=%d", total)
	}
}

func TestPostgresEarningMismatchQuery(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewWalletRepository(db)
	profile := createTestProfile(t, db, constants.RoleBroadcaster, "22994000003")
	if err := repo.CreateAccount(&models.WalletAccount{ProfileID: profile.ID, Currency: "XOF", TotalEarned: mustMoney(t, "5.00")}); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	rows, err := repo.ListEarningMismatches()
	if err != nil {
		t.Fatalf("mismatch query failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ProfileID != profile.ID {
		t.Fatalf("unexpected mismatch rows: %+v", rows)
	}
}
