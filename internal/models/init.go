package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adstatus-next/internal/constants"
	"github.com/adstatus-next/internal/logger"

	"gorm.io/gorm"
)

// DefaultAdminSeed 默认管理员初始化参数
type DefaultAdminSeed struct {
	Phone        string
	FullName     string
	ReferralCode string
	Currency     string
}

// InitDefaultAdmin 按手机号初始化管理员档案，已存在管理员时仅确保其处于启用状态
func InitDefaultAdmin(db *gorm.DB, seed DefaultAdminSeed) (*Profile, error) {
	phone := strings.TrimSpace(seed.Phone)
	if phone == "" {
		return nil, errors.New("admin phone is required")
	}
	if strings.TrimSpace(seed.ReferralCode) == "" {
		return nil, errors.New("admin referral code is required")
	}

	var result *Profile
	err := db.Transaction(func(tx *gorm.DB) error {
		var account Account
		err := tx.Where("phone = ?", phone).First(&account).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now()
			account = Account{Phone: phone, Status: "active", PhoneVerifiedAt: &now}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
		}

		var profile Profile
		err = tx.Where("account_id = ?", account.ID).First(&profile).Error
		if err == nil {
			if profile.Role != constants.RoleAdmin {
				return fmt.Errorf("account %s already holds role %s", phone, profile.Role)
			}
			if !profile.IsActive {
				if err := tx.Model(&profile).Update("is_active", true).Error; err != nil {
					return err
				}
				profile.IsActive = true
			}
			result = &profile
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		fullName := strings.TrimSpace(seed.FullName)
		if fullName == "" {
			fullName = "Administrator"
		}
		profile = Profile{
			AccountID:    account.ID,
			Role:         constants.RoleAdmin,
			FullName:     fullName,
			ReferralCode: seed.ReferralCode,
			IsActive:     true,
			IsVerified:   true,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		if err := tx.Create(&WalletAccount{ProfileID: profile.ID, Currency: seed.Currency}).Error; err != nil {
			return err
		}
		result = &profile
		logger.Warnw("default_admin_created", "phone", phone, "profile_id", profile.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
