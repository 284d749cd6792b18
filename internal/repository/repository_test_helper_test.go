package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func mustMoney(t *testing.T, raw string) models.Money {
	t.Helper()
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func createTestProfile(t *testing.T, db *gorm.DB, role, phone string) *models.Profile {
	t.Helper()
	account := &models.Account{Phone: phone, Status: "active"}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	profile := &models.Profile{
		AccountID:    account.ID,
		Role:         role,
		FullName:     "Test " + role,
		City:         "Cotonou",
		ReferralCode: "REF" + phone,
		IsActive:     true,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	return profile
}

func createTestCampaign(t *testing.T, db *gorm.DB, advertiserID uint, title, status string, approved bool) *models.Campaign {
	t.Helper()
	campaign := &models.Campaign{
		AdvertiserID:  advertiserID,
		Title:         title,
		MediaType:     constants.MediaTypeImage,
		CostPerView:   mustMoney(t, "0.50"),
		Budget:        mustMoney(t, "500.00"),
		TargetViews:   1000,
		Status:        status,
		AdminApproved: approved,
	}
	if err := db.Create(campaign).Error; err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return campaign
}
