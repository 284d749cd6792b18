package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository 角色档案数据访问接口
type ProfileRepository interface {
	GetByID(id uint) (*models.Profile, error)
	GetByAccountID(accountID uint) (*models.Profile, error)
	GetByReferralCode(code string) (*models.Profile, error)
	Create(profile *models.Profile) error
	UpdateFields(id uint, fields map[string]interface{}) error
	UpsertCompanyInfo(info *models.CompanyInfo) error
	List(filter ProfileListFilter) ([]models.Profile, int64, error)
	ListActiveIDsByRole(role string) ([]uint, error)
	SoftDelete(id uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormProfileRepository
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建档案仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProfileRepository) WithTx(tx *gorm.DB) *GormProfileRepository {
	if tx == nil {
		return r
	}
	return &GormProfileRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProfileRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取档案（含企业信息）
func (r *GormProfileRepository) GetByID(id uint) (*models.Profile, error) {
	if id == 0 {
		return nil, nil
	}
	var profile models.Profile
	if err := r.db.Preload("CompanyInfo").First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByAccountID 根据账号获取档案
func (r *GormProfileRepository) GetByAccountID(accountID uint) (*models.Profile, error) {
	if accountID == 0 {
		return nil, nil
	}
	var profile models.Profile
	if err := r.db.Preload("CompanyInfo").Where("account_id = ?", accountID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// GetByReferralCode 根据推荐码获取档案
func (r *GormProfileRepository) GetByReferralCode(code string) (*models.Profile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var profile models.Profile
	if err := r.db.Where("referral_code = ?", code).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Create 创建档案
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Omit(clause.Associations).Create(profile).Error
}

// UpdateFields 按字段更新档案
func (r *GormProfileRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	return r.db.Model(&models.Profile{}).Where("id = ?", id).Updates(fields).Error
}

// UpsertCompanyInfo 写入或更新广告主企业信息
func (r *GormProfileRepository) UpsertCompanyInfo(info *models.CompanyInfo) error {
	if info == nil || info.ProfileID == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name",
			"business_sector",
			"company_address",
			"contact_person_email",
			"tax_id",
			"updated_at",
		}),
	}).Create(info).Error
}

// List 管理端档案列表
func (r *GormProfileRepository) List(filter ProfileListFilter) ([]models.Profile, int64, error) {
	query := r.db.Model(&models.Profile{}).
		Joins("LEFT JOIN accounts ON accounts.id = profiles.account_id")

	if filter.Role != "" {
		query = query.Where("profiles.role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("profiles.is_active = ?", *filter.IsActive)
	}
	if filter.Interest != "" {
		query = query.Where(jsonArrayContainsExpr(r.db, "profiles.interests"), filter.Interest)
	}
	query = applySearch(query, filter.Search, "profiles.full_name", "profiles.city", "accounts.phone")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var profiles []models.Profile
	if err := query.Select("profiles.*").Preload("Account").Order("profiles.id DESC").Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// ListActiveIDsByRole 获取某角色所有启用档案ID
func (r *GormProfileRepository) ListActiveIDsByRole(role string) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Profile{}).
		Where("role = ? AND is_active = ?", role, true).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SoftDelete 软删除档案
func (r *GormProfileRepository) SoftDelete(id uint) error {
	return r.db.Delete(&models.Profile{}, id).Error
}
