package repository

import (
	"errors"

	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐关系数据访问接口
type ReferralRepository interface {
	Create(referral *models.Referral) error
	GetByReferredIDForUpdate(referredID uint) (*models.Referral, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	CountByReferrer(referrerID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormReferralRepository
}

// GormReferralRepository GORM 实现
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐关系仓库
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) *GormReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Create 创建推荐关系
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// GetByReferredIDForUpdate 加锁获取被推荐人的推荐关系
func (r *GormReferralRepository) GetByReferredIDForUpdate(referredID uint) (*models.Referral, error) {
	var referral models.Referral
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referred_id = ?", referredID).
		First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// UpdateFields 按字段更新推荐关系
func (r *GormReferralRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if id == 0 || len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Referral{}).Where("id = ?", id).Updates(fields).Error
}

// CountByReferrer 统计推荐人数
func (r *GormReferralRepository) CountByReferrer(referrerID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Referral{}).Where("referrer_id = ?", referrerID).Count(&total).Error
	return total, err
}
