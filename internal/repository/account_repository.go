package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/adstatus-next/internal/models"

	"gorm.io/gorm"
)

// AccountRepository 登录账号数据访问接口
type AccountRepository interface {
	GetByPhone(phone string) (*models.Account, error)
	GetByID(id uint) (*models.Account, error)
	Create(account *models.Account) error
	TouchLogin(id uint, at time.Time) error
	BumpTokenVersion(id uint, invalidBefore time.Time) error
}

// GormAccountRepository GORM 实现
type GormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账号仓库
func NewAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAccountRepository) WithTx(tx *gorm.DB) *GormAccountRepository {
	if tx == nil {
		return r
	}
	return &GormAccountRepository{db: tx}
}

// GetByPhone 根据手机号获取账号
func (r *GormAccountRepository) GetByPhone(phone string) (*models.Account, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.Where("phone = ?", phone).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByID 根据 ID 获取账号
func (r *GormAccountRepository) GetByID(id uint) (*models.Account, error) {
	if id == 0 {
		return nil, nil
	}
	var account models.Account
	if err := r.db.First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create 创建账号
func (r *GormAccountRepository) Create(account *models.Account) error {
	return r.db.Create(account).Error
}

// TouchLogin 记录登录时间并标记手机号已验证
func (r *GormAccountRepository) TouchLogin(id uint, at time.Time) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_login_at":     at,
		"phone_verified_at": gorm.Expr("COALESCE(phone_verified_at, ?)", at),
	}).Error
}

// BumpTokenVersion 递增 Token 版本使已签发的 Token 全部失效
func (r *GormAccountRepository) BumpTokenVersion(id uint, invalidBefore time.Time) error {
	return r.db.Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"token_version":        gorm.Expr("token_version + 1"),
		"token_invalid_before": invalidBefore,
	}).Error
}
