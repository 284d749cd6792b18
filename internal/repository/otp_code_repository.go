package repository

import (
	"errors"
	"time"

	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
)

// OTPCodeRepository 手机验证码数据访问接口
type OTPCodeRepository interface {
	Create(code *models.OTPCode) error
	GetLatest(phone string) (*models.OTPCode, error)
	MarkVerified(id uint, verifiedAt time.Time) error
	IncrementAttempt(id uint) error
	DeleteExpiredBefore(before time.Time) (int64, error)
}

// GormOTPCodeRepository GORM 实现
type GormOTPCodeRepository struct {
	db *gorm.DB
}

// NewOTPCodeRepository 创建验证码仓库
func NewOTPCodeRepository(db *gorm.DB) *GormOTPCodeRepository {
	return &GormOTPCodeRepository{db: db}
}

// Create 创建验证码记录
func (r *GormOTPCodeRepository) Create(code *models.OTPCode) error {
	return r.db.Create(code).Error
}

// GetLatest 获取手机号最新验证码记录
func (r *GormOTPCodeRepository) GetLatest(phone string) (*models.OTPCode, error) {
	var record models.OTPCode
	if err := r.db.Where("phone = ?", phone).
		Order("sent_at desc, id desc").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// MarkVerified 标记验证码已验证
func (r *GormOTPCodeRepository) MarkVerified(id uint, verifiedAt time.Time) error {
	return r.db.Model(&models.OTPCode{}).
		Where("id = ?", id).
		Update("verified_at", verifiedAt).Error
}

// IncrementAttempt 增加验证次数
func (r *GormOTPCodeRepository) IncrementAttempt(id uint) error {
	return r.db.Model(&models.OTPCode{}).
		Where("id = ?", id).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + 1")).Error
}

// DeleteExpiredBefore 清理过期验证码
func (r *GormOTPCodeRepository) DeleteExpiredBefore(before time.Time) (int64, error) {
	result := r.db.Where("expires_at < ?", before).Delete(&models.OTPCode{})
	return result.RowsAffected, result.Error
}
